package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboard/pkg/model"
)

// Epoch is the fixed clock used by fixtures.
var Epoch = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

// Float returns a pointer to v for optional numeric bounds.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v for optional integer limits.
func Int(v int) *int { return &v }

// Attachment builds an in-memory file attachment of the given size.
func Attachment(name string, size int64) model.FileAttachment {
	return model.FileAttachment{
		Name:        name,
		Size:        size,
		ContentType: "application/octet-stream",
		Content:     make([]byte, 0),
	}
}

// KYCForm mirrors the KYC verification form used across tests.
func KYCForm() model.FormDefinition {
	return model.FormDefinition{
		ID:          "1",
		Name:        "KYC Verification",
		Description: "Know Your Customer verification form for new accounts",
		Category:    model.CategoryKYC,
		Status:      model.FormStatusActive,
		Version:     1,
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch.Add(5 * 24 * time.Hour),
		Fields: []model.FieldDefinition{
			{ID: "full_name", Name: "full_name", Label: "Full Legal Name", Type: model.FieldTypeText, Required: true, Placeholder: "Enter your full legal name"},
			{ID: "date_of_birth", Name: "date_of_birth", Label: "Date of Birth", Type: model.FieldTypeDate, Required: true},
			{
				ID: "id_document", Name: "id_document", Label: "Government ID Document", Type: model.FieldTypeFile, Required: true,
				Validation: &model.Validation{FileTypes: []string{"pdf", "jpg", "png"}, MaxFileSize: Int(5)},
			},
			{
				ID: "annual_income", Name: "annual_income", Label: "Annual Income", Type: model.FieldTypeNumber, Required: true,
				Validation: &model.Validation{Min: Float(0)},
			},
			{
				ID: "employment_status", Name: "employment_status", Label: "Employment Status", Type: model.FieldTypeDropdown, Required: true,
				Options: []string{"Employed", "Self-Employed", "Unemployed", "Retired", "Student"},
			},
		},
	}
}

// LoanForm mirrors the personal loan application, including a conditional
// income proof upload shown for amounts above 10000.
func LoanForm() model.FormDefinition {
	return model.FormDefinition{
		ID:          "2",
		Name:        "Personal Loan Application",
		Description: "Application form for personal loans up to $50,000",
		Category:    model.CategoryLoan,
		Status:      model.FormStatusActive,
		Version:     1,
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch,
		Fields: []model.FieldDefinition{
			{
				ID: "loan_amount", Name: "loan_amount", Label: "Loan Amount Requested", Type: model.FieldTypeNumber, Required: true,
				Validation: &model.Validation{Min: Float(1000), Max: Float(50000)},
			},
			{
				ID: "loan_purpose", Name: "loan_purpose", Label: "Purpose of Loan", Type: model.FieldTypeDropdown, Required: true,
				Options: []string{"Home Improvement", "Debt Consolidation", "Medical Expenses", "Education", "Other"},
			},
			{
				ID: "income_proof", Name: "income_proof", Label: "Income Verification Documents", Type: model.FieldTypeFile,
				Validation:       &model.Validation{FileTypes: []string{"pdf", "doc", "docx"}, MaxFileSize: Int(10)},
				ConditionalLogic: &model.ConditionalLogic{DependsOn: "loan_amount", Condition: model.ConditionGreaterThan, Value: 10000},
			},
			{ID: "credit_check_consent", Name: "credit_check_consent", Label: "I consent to a credit check", Type: model.FieldTypeCheckbox, Required: true},
		},
	}
}

// DraftForm is an inactive general form.
func DraftForm() model.FormDefinition {
	form := model.FormDefinition{
		ID:        "3",
		Name:      "Investment Declaration",
		Category:  model.CategoryInvestment,
		Status:    model.FormStatusDraft,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
		Fields: []model.FieldDefinition{
			{ID: "portfolio_value", Name: "portfolio_value", Label: "Portfolio Value", Type: model.FieldTypeNumber},
		},
	}
	return form
}

// MustLoadFormDefinition loads a JSON fixture into a FormDefinition.
func MustLoadFormDefinition(t *testing.T, path string) model.FormDefinition {
	t.Helper()

	form, err := LoadFormDefinition(path)
	if err != nil {
		t.Fatalf("load form definition: %v", err)
	}
	return form
}

// LoadFormDefinition reads a JSON fixture, returning an error for callers
// managing setup outside of *testing.T.
func LoadFormDefinition(path string) (model.FormDefinition, error) {
	if path == "" {
		return model.FormDefinition{}, errors.New("testsupport: form definition path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("testsupport: read form definition: %w", err)
	}
	var form model.FormDefinition
	if err := json.Unmarshal(data, &form); err != nil {
		return model.FormDefinition{}, fmt.Errorf("testsupport: decode form definition: %w", err)
	}
	return form, nil
}

// AssertErrors compares validation error maps and fails with a diff.
func AssertErrors(t *testing.T, want, got map[string]string) {
	t.Helper()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

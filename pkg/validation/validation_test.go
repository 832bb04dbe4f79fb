package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/testsupport"
	"github.com/goliatone/go-onboard/pkg/validation"
)

func TestRequiredTextRejectsBlank(t *testing.T) {
	t.Parallel()

	field := model.FieldDefinition{Name: "full_name", Label: "Name", Type: model.FieldTypeText, Required: true}
	form := model.FormDefinition{Fields: []model.FieldDefinition{field}}

	for _, answer := range []any{"", "   ", nil} {
		got := validation.Validate(form, model.Answers{"full_name": answer}, nil)
		testsupport.AssertErrors(t, map[string]string{"full_name": validation.MessageRequired}, got)
	}

	got := validation.Validate(form, model.Answers{"full_name": "x"}, nil)
	if !got.Valid() {
		t.Fatalf("expected no errors, got %v", got)
	}
}

func TestNumberBounds(t *testing.T) {
	t.Parallel()

	form := testsupport.LoanForm()
	base := model.Answers{"loan_purpose": "Education", "credit_check_consent": true}

	cases := []struct {
		amount any
		want   map[string]string
	}{
		{amount: 500.0, want: map[string]string{"loan_amount": "Minimum value is 1000"}},
		{amount: 60000.0, want: map[string]string{"loan_amount": "Maximum value is 50000"}},
		{amount: 5000.0, want: nil},
		{amount: "2500", want: nil},
		{amount: "lots", want: map[string]string{"loan_amount": validation.MessageInvalidNumber}},
	}

	for _, tc := range cases {
		answers := base.Clone()
		answers["loan_amount"] = tc.amount
		testsupport.AssertErrors(t, tc.want, validation.Validate(form, answers, nil))
	}
}

func TestNumberBoundsApplyToOptionalFields(t *testing.T) {
	t.Parallel()

	form := model.FormDefinition{Fields: []model.FieldDefinition{{
		Name:       "amount",
		Label:      "Amount",
		Type:       model.FieldTypeNumber,
		Validation: &model.Validation{Min: testsupport.Float(100)},
	}}}

	testsupport.AssertErrors(t, map[string]string{"amount": "Minimum value is 100"}, validation.Validate(form, model.Answers{"amount": 50.0}, nil))
	testsupport.AssertErrors(t, nil, validation.Validate(form, model.Answers{}, nil))
}

func TestRequiredAmountScenario(t *testing.T) {
	t.Parallel()

	form := model.FormDefinition{Fields: []model.FieldDefinition{{
		Name:       "amount",
		Label:      "Amount",
		Type:       model.FieldTypeNumber,
		Required:   true,
		Validation: &model.Validation{Min: testsupport.Float(100)},
	}}}

	got := validation.Validate(form, model.Answers{"amount": 50.0}, nil)
	if diff := cmp.Diff(validation.Errors{"amount": "Minimum value is 100"}, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if got.Valid() {
		t.Fatalf("expected submission to be blocked")
	}

	zero := validation.Validate(form, model.Answers{"amount": 0.0}, nil)
	testsupport.AssertErrors(t, map[string]string{"amount": "Minimum value is 100"}, zero)
}

func TestRequiredFileThenFileType(t *testing.T) {
	t.Parallel()

	form := model.FormDefinition{Fields: []model.FieldDefinition{{
		Name:       "id_document",
		Label:      "ID",
		Type:       model.FieldTypeFile,
		Required:   true,
		Validation: &model.Validation{FileTypes: []string{"pdf", "jpg"}},
	}}}

	got := validation.Validate(form, nil, model.Files{})
	testsupport.AssertErrors(t, map[string]string{"id_document": validation.MessageRequired}, got)

	files := model.Files{"id_document": {testsupport.Attachment("passport.png", 1024)}}
	got = validation.Validate(form, nil, files)
	testsupport.AssertErrors(t, map[string]string{"id_document": "Invalid file type. Allowed: pdf, jpg"}, got)

	files = model.Files{"id_document": {testsupport.Attachment("passport.PDF", 1024)}}
	testsupport.AssertErrors(t, nil, validation.Validate(form, nil, files))
}

func TestFileSizeLimit(t *testing.T) {
	t.Parallel()

	form := testsupport.KYCForm()
	answers := model.Answers{
		"full_name":         "Ada Lovelace",
		"date_of_birth":     "1815-12-10",
		"annual_income":     0.0,
		"employment_status": "Employed",
	}
	limit := int64(5 * 1024 * 1024)

	files := model.Files{"id_document": {testsupport.Attachment("id.pdf", limit)}}
	testsupport.AssertErrors(t, nil, validation.Validate(form, answers, files))

	files = model.Files{"id_document": {testsupport.Attachment("id.pdf", 10), testsupport.Attachment("back.jpg", limit+1)}}
	testsupport.AssertErrors(t, map[string]string{"id_document": "File too large. Maximum size: 5MB"}, validation.Validate(form, answers, files))
}

func TestOptionalFileChecksRunWhenFilesPresent(t *testing.T) {
	t.Parallel()

	form := testsupport.LoanForm()
	answers := model.Answers{"loan_amount": 20000.0, "loan_purpose": "Other", "credit_check_consent": true}

	testsupport.AssertErrors(t, nil, validation.Validate(form, answers, nil))

	files := model.Files{"income_proof": {testsupport.Attachment("payslip.exe", 10)}}
	testsupport.AssertErrors(t, map[string]string{"income_proof": "Invalid file type. Allowed: pdf, doc, docx"}, validation.Validate(form, answers, files))
}

func TestHiddenFieldsAreSkipped(t *testing.T) {
	t.Parallel()

	form := testsupport.LoanForm()
	form.Fields[2].Required = true
	answers := model.Answers{"loan_amount": 5000.0, "loan_purpose": "Other", "credit_check_consent": true}

	files := model.Files{"income_proof": {testsupport.Attachment("payslip.exe", 10)}}
	testsupport.AssertErrors(t, nil, validation.Validate(form, answers, files))

	answers["loan_amount"] = 15000.0
	testsupport.AssertErrors(t, map[string]string{"income_proof": "Invalid file type. Allowed: pdf, doc, docx"}, validation.Validate(form, answers, files))
	testsupport.AssertErrors(t, map[string]string{"income_proof": validation.MessageRequired}, validation.Validate(form, answers, nil))
}

func TestRequiredCheckboxMustBeChecked(t *testing.T) {
	t.Parallel()

	form := testsupport.LoanForm()
	answers := model.Answers{"loan_amount": 5000.0, "loan_purpose": "Other", "credit_check_consent": false}

	testsupport.AssertErrors(t, map[string]string{"credit_check_consent": validation.MessageRequired}, validation.Validate(form, answers, nil))
}

func TestDropdownRejectsUnknownOption(t *testing.T) {
	t.Parallel()

	field, _ := testsupport.LoanForm().Field("loan_purpose")
	if msg := validation.ValidateField(field, "Vacation", nil); msg != validation.MessageInvalidOption {
		t.Fatalf("expected invalid option, got %q", msg)
	}
	if msg := validation.ValidateField(field, "Education", nil); msg != "" {
		t.Fatalf("expected no error, got %q", msg)
	}
}

func TestErrorsFieldsSorted(t *testing.T) {
	t.Parallel()

	errs := validation.Errors{"b": "x", "a": "y"}
	if diff := cmp.Diff([]string{"a", "b"}, errs.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

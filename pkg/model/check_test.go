package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/testsupport"
)

func TestCheckAcceptsFixtures(t *testing.T) {
	t.Parallel()

	for _, form := range []model.FormDefinition{testsupport.KYCForm(), testsupport.LoanForm(), testsupport.DraftForm()} {
		if err := model.Check(form); err != nil {
			t.Fatalf("form %s: unexpected error: %v", form.ID, err)
		}
	}
}

func TestCheckReportsStructProblems(t *testing.T) {
	t.Parallel()

	form := model.FormDefinition{
		ID:       "x",
		Category: "pension",
		Status:   model.FormStatusDraft,
		Fields: []model.FieldDefinition{
			{Name: "pick", Label: "Pick", Type: model.FieldTypeDropdown},
			{Name: "amount", Type: model.FieldTypeNumber, Validation: &model.Validation{Min: testsupport.Float(10), Max: testsupport.Float(1)}},
		},
	}

	err := model.Check(form)
	var checkErr *model.CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected *CheckError, got %v", err)
	}

	fields := make([]string, 0, len(checkErr.Problems))
	for _, p := range checkErr.Problems {
		fields = append(fields, p.Field)
	}
	for _, want := range []string{"name", "category", "fields.1.label", "fields.0.options", "fields.1.validation"} {
		if !containsString(fields, want) {
			t.Fatalf("expected a problem for %q, got %v", want, fields)
		}
	}
}

func TestCheckRejectsEmptyFileTypes(t *testing.T) {
	t.Parallel()

	form := testsupport.LoanForm()
	form.Fields[2].Validation = &model.Validation{FileTypes: []string{}}

	err := model.Check(form)
	var checkErr *model.CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected *CheckError, got %v", err)
	}
	want := []model.Problem{{
		Field:   "fields.2.validation.fileTypes",
		Message: "must list at least one extension (omit it to allow any type)",
	}}
	if diff := cmp.Diff(want, checkErr.Problems); diff != "" {
		t.Fatalf("problems mismatch (-want +got):\n%s", diff)
	}

	form.Fields[2].Validation = &model.Validation{}
	if err := model.Check(form); err != nil {
		t.Fatalf("absent file types must pass: %v", err)
	}
	if !form.Fields[2].Validation.AllowsExtension("exe") {
		t.Fatalf("no file type list should allow any extension")
	}
}

func TestCheckRejectsDanglingAndSelfReferences(t *testing.T) {
	t.Parallel()

	form := testsupport.LoanForm()
	form.Fields[2].ConditionalLogic.DependsOn = "missing"
	form.Fields[3].ConditionalLogic = &model.ConditionalLogic{
		DependsOn: "credit_check_consent",
		Condition: model.ConditionEquals,
		Value:     true,
	}

	var checkErr *model.CheckError
	if err := model.Check(form); !errors.As(err, &checkErr) {
		t.Fatalf("expected *CheckError, got %v", err)
	}
	want := []model.Problem{
		{Field: "fields.2.conditionalLogic.dependsOn", Message: `unknown field "missing"`},
		{Field: "fields.3.conditionalLogic.dependsOn", Message: "field cannot depend on itself"},
	}
	if diff := cmp.Diff(want, checkErr.Problems); diff != "" {
		t.Fatalf("problems mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckDetectsCycles(t *testing.T) {
	t.Parallel()

	depends := func(name, on string) model.FieldDefinition {
		return model.FieldDefinition{
			Name:  name,
			Label: name,
			Type:  model.FieldTypeText,
			ConditionalLogic: &model.ConditionalLogic{
				DependsOn: on,
				Condition: model.ConditionEquals,
				Value:     "yes",
			},
		}
	}
	form := model.FormDefinition{
		ID:       "cyclic",
		Name:     "Cyclic",
		Category: model.CategoryGeneral,
		Status:   model.FormStatusDraft,
		Fields: []model.FieldDefinition{
			{Name: "root", Label: "Root", Type: model.FieldTypeText},
			depends("a", "c"),
			depends("b", "a"),
			depends("c", "b"),
			depends("d", "root"),
		},
	}

	cycle := model.DependencyCycle(form)
	if diff := cmp.Diff([]string{"a", "c", "b", "a"}, cycle); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}

	err := model.Check(form)
	if err == nil || !strings.Contains(err.Error(), "conditional logic cycle: a -> c -> b -> a") {
		t.Fatalf("expected cycle error, got %v", err)
	}

	form.Fields[1].ConditionalLogic.DependsOn = "root"
	if cycle := model.DependencyCycle(form); cycle != nil {
		t.Fatalf("expected acyclic graph, got %v", cycle)
	}
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

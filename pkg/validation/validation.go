// Package validation checks a client's answers against a form definition.
// Failures are reported per field as plain messages; they are data, never Go
// errors.
package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/visibility"
)

// Messages shown to clients.
const (
	MessageRequired      = "This field is required"
	MessageInvalidNumber = "Must be a valid number"
	MessageInvalidOption = "Select one of the available options"
)

// Errors maps a field name to its single error message. An empty Errors is
// the only valid outcome.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Fields returns the failing field names sorted alphabetically.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for name := range e {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks every visible field of form in declaration order. Hidden
// fields are skipped even when they hold a stale answer.
func Validate(form model.FormDefinition, answers model.Answers, files model.Files) Errors {
	errs := Errors{}
	for _, field := range form.Fields {
		if !visibility.IsVisible(field, answers) {
			continue
		}
		if msg := ValidateField(field, answers[field.Name], files[field.Name]); msg != "" {
			errs[field.Name] = msg
		}
	}
	return errs
}

// ValidateField checks one field's answer (or attachments for file fields)
// without considering visibility. It returns "" when the value is acceptable.
func ValidateField(field model.FieldDefinition, value any, attachments []model.FileAttachment) string {
	kind := field.Kind()

	if field.Required {
		answered := kind.Answered(value)
		if kind.Type() == model.FieldTypeFile {
			answered = len(attachments) > 0
		}
		if !answered {
			return MessageRequired
		}
	}

	switch kind.Type() {
	case model.FieldTypeNumber:
		return checkNumber(field, value)
	case model.FieldTypeFile:
		return checkFiles(field, attachments)
	case model.FieldTypeDropdown:
		return checkOption(field, value)
	default:
		return ""
	}
}

func checkNumber(field model.FieldDefinition, value any) string {
	if !present(value) {
		return ""
	}
	number, ok := model.AsNumber(value)
	if !ok {
		return MessageInvalidNumber
	}
	rules := field.Validation
	if rules == nil {
		return ""
	}
	msg := ""
	if rules.Min != nil && number < *rules.Min {
		msg = "Minimum value is " + formatNumber(*rules.Min)
	}
	if rules.Max != nil && number > *rules.Max {
		msg = "Maximum value is " + formatNumber(*rules.Max)
	}
	return msg
}

func checkFiles(field model.FieldDefinition, attachments []model.FileAttachment) string {
	rules := field.Validation
	if rules == nil || len(attachments) == 0 {
		return ""
	}
	msg := ""
	if len(rules.FileTypes) > 0 {
		for _, attachment := range attachments {
			if !rules.AllowsExtension(attachment.Extension()) {
				msg = "Invalid file type. Allowed: " + strings.Join(rules.FileTypes, ", ")
				break
			}
		}
	}
	if limit, ok := rules.MaxFileBytes(); ok {
		for _, attachment := range attachments {
			if attachment.Size > limit {
				msg = fmt.Sprintf("File too large. Maximum size: %dMB", *rules.MaxFileSize)
				break
			}
		}
	}
	return msg
}

func checkOption(field model.FieldDefinition, value any) string {
	if !present(value) || len(field.Options) == 0 {
		return ""
	}
	if !field.HasOption(model.AsString(value)) {
		return MessageInvalidOption
	}
	return ""
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

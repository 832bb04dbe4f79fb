package mockapi

import (
	"sort"
	"time"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/submission"
)

// The wire shapes mirror the backend serializers: snake_case keys, an
// "options" column holding either choices or rules, conditional logic
// referencing the controlling field by id, and answer data as a JSON string.

type wireField struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Label               string `json:"label"`
	Placeholder         string `json:"placeholder,omitempty"`
	Type                string `json:"type"`
	Options             any    `json:"options"`
	IsRequired          bool   `json:"is_required"`
	Order               int    `json:"order"`
	IsConditional       bool   `json:"is_conditional"`
	ConditionalField    string `json:"conditional_field,omitempty"`
	ConditionalOperator string `json:"conditional_operator,omitempty"`
	ConditionalValue    string `json:"conditional_value,omitempty"`
}

type wireForm struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Status          string      `json:"status"`
	Version         int         `json:"version"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	SubmissionCount int         `json:"submission_count"`
	FormFields      []wireField `json:"form_fields"`
}

type wireDocument struct {
	Field       string `json:"field"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

type wireSubmission struct {
	ID          string         `json:"id"`
	Form        string         `json:"form"`
	FormName    string         `json:"form_name"`
	ClientName  string         `json:"client_name"`
	ClientEmail string         `json:"client_email"`
	Data        string         `json:"data"`
	Status      string         `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
	ReviewedAt  *time.Time     `json:"reviewed_at"`
	ReviewNotes string         `json:"review_notes"`
	Documents   []wireDocument `json:"documents,omitempty"`
}

var backendOperators = map[model.Condition]string{
	model.ConditionEquals:      "equal_to",
	model.ConditionNotEquals:   "not_equal_to",
	model.ConditionGreaterThan: "greater_than",
	model.ConditionLessThan:    "less_than",
}

func encodeForm(form model.FormDefinition, submissionCount int) wireForm {
	idsByName := make(map[string]string, len(form.Fields))
	for _, field := range form.Fields {
		idsByName[field.Name] = fieldID(form, field)
	}

	out := wireForm{
		ID:              form.ID,
		Name:            form.Name,
		Description:     form.Description,
		Category:        string(form.Category),
		Status:          string(form.Status),
		Version:         form.Version,
		IsActive:        form.IsActive(),
		CreatedAt:       form.CreatedAt,
		UpdatedAt:       form.UpdatedAt,
		SubmissionCount: submissionCount,
		FormFields:      make([]wireField, 0, len(form.Fields)),
	}
	for idx, field := range form.Fields {
		wf := wireField{
			ID:          idsByName[field.Name],
			Name:        field.Name,
			Label:       field.Label,
			Placeholder: field.Placeholder,
			Type:        string(field.Type),
			Options:     encodeOptions(field),
			IsRequired:  field.Required,
			Order:       idx,
		}
		if logic := field.ConditionalLogic; logic != nil {
			wf.IsConditional = true
			wf.ConditionalField = idsByName[logic.DependsOn]
			wf.ConditionalOperator = backendOperators[logic.Condition]
			wf.ConditionalValue = model.AsString(logic.Value)
		}
		out.FormFields = append(out.FormFields, wf)
	}
	return out
}

// fieldID namespaces field ids by form so they look like database keys.
func fieldID(form model.FormDefinition, field model.FieldDefinition) string {
	id := field.ID
	if id == "" {
		id = field.Name
	}
	return form.ID + "." + id
}

func encodeOptions(field model.FieldDefinition) any {
	rules := map[string]any{}
	if v := field.Validation; v != nil {
		if v.Min != nil {
			rules["min"] = *v.Min
		}
		if v.Max != nil {
			rules["max"] = *v.Max
		}
		if len(v.FileTypes) > 0 {
			rules["fileTypes"] = v.FileTypes
		}
		if v.MaxFileSize != nil {
			rules["maxFileSize"] = *v.MaxFileSize
		}
		if v.Pattern != "" {
			rules["pattern"] = v.Pattern
		}
	}
	if len(field.Options) > 0 {
		if len(rules) == 0 {
			return field.Options
		}
		rules["choices"] = field.Options
	}
	return rules
}

func encodeSubmission(record model.SubmissionRecord) (wireSubmission, error) {
	data, err := submission.EncodeData(record.Data)
	if err != nil {
		return wireSubmission{}, err
	}
	out := wireSubmission{
		ID:          record.ID,
		Form:        record.FormID,
		FormName:    record.FormName,
		ClientName:  record.ClientName,
		ClientEmail: record.ClientEmail,
		Data:        data,
		Status:      string(record.Status),
		SubmittedAt: record.SubmittedAt,
		ReviewedAt:  record.ReviewedAt,
		ReviewNotes: record.ReviewNotes,
	}
	names := make([]string, 0, len(record.Files))
	for name := range record.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, attachment := range record.Files[name] {
			out.Documents = append(out.Documents, wireDocument{
				Field:       name,
				Name:        attachment.Name,
				Size:        attachment.Size,
				ContentType: attachment.ContentType,
			})
		}
	}
	return out, nil
}

package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/submission"
)

// envelope is the {message, data} wrapper used by every endpoint.
type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// flexID accepts identifiers encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("apiclient: id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type apiField struct {
	ID                  flexID          `json:"id"`
	Name                string          `json:"name"`
	Label               string          `json:"label"`
	Placeholder         string          `json:"placeholder"`
	Type                string          `json:"type"`
	Options             json.RawMessage `json:"options"`
	IsRequired          bool            `json:"is_required"`
	Order               int             `json:"order"`
	IsConditional       bool            `json:"is_conditional"`
	ConditionalField    flexID          `json:"conditional_field"`
	ConditionalOperator string          `json:"conditional_operator"`
	ConditionalValue    any             `json:"conditional_value"`
}

type apiForm struct {
	ID              flexID     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	Version         int        `json:"version"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	SubmissionCount int        `json:"submission_count"`
	FormFields      []apiField `json:"form_fields"`
}

type apiDocument struct {
	Field       string `json:"field"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type apiSubmission struct {
	ID          flexID          `json:"id"`
	Form        flexID          `json:"form"`
	FormID      flexID          `json:"form_id"`
	FormName    string          `json:"form_name"`
	ClientName  string          `json:"client_name"`
	ClientEmail string          `json:"client_email"`
	Data        json.RawMessage `json:"data"`
	Status      string          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ReviewedAt  *time.Time      `json:"reviewed_at"`
	ReviewNotes string          `json:"review_notes"`
	Documents   []apiDocument   `json:"documents"`
}

// decodeForm maps one API form onto the canonical FormDefinition.
func decodeForm(raw apiForm, logger *slog.Logger) model.FormDefinition {
	form := model.FormDefinition{
		ID:              string(raw.ID),
		Name:            strings.TrimSpace(raw.Name),
		Description:     raw.Description,
		Category:        decodeCategory(raw.Category),
		Status:          decodeFormStatus(raw.Status, raw.IsActive),
		Version:         raw.Version,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
		SubmissionCount: raw.SubmissionCount,
	}

	fields := append([]apiField(nil), raw.FormFields...)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })

	namesByID := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.ID != "" {
			namesByID[string(f.ID)] = f.Name
		}
	}

	form.Fields = make([]model.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		form.Fields = append(form.Fields, decodeField(f, namesByID, logger))
	}
	return form
}

func decodeCategory(raw string) model.Category {
	switch c := model.Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case model.CategoryKYC, model.CategoryLoan, model.CategoryInvestment:
		return c
	default:
		return model.CategoryGeneral
	}
}

func decodeFormStatus(raw string, active bool) model.FormStatus {
	switch s := model.FormStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case model.FormStatusDraft, model.FormStatusActive, model.FormStatusArchived:
		return s
	}
	if active {
		return model.FormStatusActive
	}
	return model.FormStatusArchived
}

func decodeField(raw apiField, namesByID map[string]string, logger *slog.Logger) model.FieldDefinition {
	field := model.FieldDefinition{
		ID:          string(raw.ID),
		Name:        strings.TrimSpace(raw.Name),
		Label:       strings.TrimSpace(raw.Label),
		Placeholder: raw.Placeholder,
		Type:        model.ParseFieldType(raw.Type, logger),
		Required:    raw.IsRequired,
	}
	if field.ID == "" {
		field.ID = field.Name
	}
	if field.Label == "" {
		field.Label = humanize(field.Name)
	}

	field.Options, field.Validation = decodeFieldOptions(raw.Options, logger)

	if raw.ConditionalField != "" || raw.IsConditional {
		dependsOn := string(raw.ConditionalField)
		if name, ok := namesByID[dependsOn]; ok {
			dependsOn = name
		}
		condition, ok := model.ParseCondition(raw.ConditionalOperator)
		if !ok {
			logger.Warn("apiclient: unknown conditional operator",
				slog.String("field", field.Name),
				slog.String("operator", raw.ConditionalOperator))
			condition = model.Condition(raw.ConditionalOperator)
		}
		if dependsOn != "" {
			field.ConditionalLogic = &model.ConditionalLogic{
				DependsOn: dependsOn,
				Condition: condition,
				Value:     raw.ConditionalValue,
			}
		}
	}
	return field
}

// decodeFieldOptions splits the backend "options" column, which holds either
// a list of dropdown choices or a dict of validation rules.
func decodeFieldOptions(raw json.RawMessage, logger *slog.Logger) ([]string, *model.Validation) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeChoices(trimmed, logger), nil
	case '{':
		var rules map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rules); err != nil {
			logger.Warn("apiclient: invalid field options", slog.Any("error", err))
			return nil, nil
		}
		var choices []string
		for _, key := range []string{"choices", "options"} {
			if list, ok := rules[key]; ok {
				choices = decodeChoices(list, logger)
			}
		}
		validation := &model.Validation{}
		set := false
		if v, ok := numberRule(rules, "min"); ok {
			validation.Min, set = &v, true
		}
		if v, ok := numberRule(rules, "max"); ok {
			validation.Max, set = &v, true
		}
		if v, ok := numberRule(rules, "maxFileSize", "max_file_size"); ok {
			size := int(v)
			validation.MaxFileSize, set = &size, true
		}
		for _, key := range []string{"fileTypes", "file_types", "allowed_types"} {
			if list, ok := rules[key]; ok {
				validation.FileTypes, set = decodeChoices(list, logger), true
				break
			}
		}
		if pattern, ok := rules["pattern"]; ok {
			_ = json.Unmarshal(pattern, &validation.Pattern)
			set = set || validation.Pattern != ""
		}
		if !set {
			validation = nil
		}
		return choices, validation
	default:
		logger.Warn("apiclient: unexpected field options", slog.String("options", string(trimmed)))
		return nil, nil
	}
}

func decodeChoices(raw json.RawMessage, logger *slog.Logger) []string {
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		logger.Warn("apiclient: invalid option list", slog.Any("error", err))
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(model.AsString(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func numberRule(rules map[string]json.RawMessage, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := rules[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if n, ok := model.AsNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// decodeSubmission maps one API submission onto a SubmissionRecord. Answer
// data that cannot be parsed is logged and replaced by an empty answer set.
func decodeSubmission(raw apiSubmission, logger *slog.Logger) model.SubmissionRecord {
	formID := raw.FormID
	if formID == "" {
		formID = raw.Form
	}
	record := model.SubmissionRecord{
		ID:          string(raw.ID),
		FormID:      string(formID),
		FormName:    raw.FormName,
		ClientName:  raw.ClientName,
		ClientEmail: raw.ClientEmail,
		Status:      decodeSubmissionStatus(raw.Status),
		SubmittedAt: raw.SubmittedAt,
		ReviewedAt:  raw.ReviewedAt,
		ReviewNotes: raw.ReviewNotes,
	}

	data, err := decodeAnswers(raw.Data)
	if err != nil {
		logger.Warn("apiclient: submission data is not valid JSON",
			slog.String("submission", record.ID),
			slog.Any("error", err))
		data = model.Answers{}
	}
	record.Data = data

	if len(raw.Documents) > 0 {
		record.Files = model.Files{}
		for _, doc := range raw.Documents {
			record.Files[doc.Field] = append(record.Files[doc.Field], model.FileAttachment{
				Name:        doc.Name,
				Size:        doc.Size,
				ContentType: doc.ContentType,
			})
		}
	}
	return record
}

func decodeSubmissionStatus(raw string) model.SubmissionStatus {
	switch s := model.SubmissionStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case model.SubmissionReview, model.SubmissionApproved, model.SubmissionRejected:
		return s
	default:
		return model.SubmissionPending
	}
}

// decodeAnswers accepts the JSON-encoded string the server stores as well as
// a plain JSON object.
func decodeAnswers(raw json.RawMessage) (model.Answers, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.Answers{}, nil
	}
	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, err
		}
		return submission.DecodeData(encoded)
	}
	answers := model.Answers{}
	if err := json.Unmarshal(trimmed, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func humanize(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	if len(words) == 0 {
		return name
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

// snakeToCamel remaps server field names such as first_name to firstName.
func snakeToCamel(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

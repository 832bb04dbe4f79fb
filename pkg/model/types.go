package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType enumerates the supported input kinds.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
)

// FieldTypes lists every supported field type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeDate,
		FieldTypeDropdown,
		FieldTypeCheckbox,
		FieldTypeFile,
	}
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseFieldType normalises raw into a FieldType. Unknown values are coerced
// to FieldTypeText and reported through logger (slog.Default when nil).
func ParseFieldType(raw string, logger *slog.Logger) FieldType {
	candidate := FieldType(strings.ToLower(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("model: unknown field type coerced to text", slog.String("type", raw))
	return FieldTypeText
}

// UnmarshalJSON decodes the type defensively via ParseFieldType.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode field type: %w", err)
	}
	*t = ParseFieldType(raw, nil)
	return nil
}

// UnmarshalYAML decodes the type defensively via ParseFieldType.
func (t *FieldType) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("model: decode field type: %w", err)
	}
	*t = ParseFieldType(raw, nil)
	return nil
}

// Condition is the comparison applied by conditional logic.
type Condition string

const (
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "not_equals"
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
)

// ParseCondition maps raw operator names, including the server aliases
// equal_to and not_equal_to, onto a Condition.
func ParseCondition(raw string) (Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "equals", "equal_to", "eq":
		return ConditionEquals, true
	case "not_equals", "not_equal_to", "neq":
		return ConditionNotEquals, true
	case "greater_than", "gt":
		return ConditionGreaterThan, true
	case "less_than", "lt":
		return ConditionLessThan, true
	default:
		return "", false
	}
}

// UnmarshalJSON normalises operator aliases. Unknown operators are kept
// verbatim so Check can report them.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode condition: %w", err)
	}
	*c = normaliseCondition(raw)
	return nil
}

// UnmarshalYAML normalises operator aliases like UnmarshalJSON.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("model: decode condition: %w", err)
	}
	*c = normaliseCondition(raw)
	return nil
}

func normaliseCondition(raw string) Condition {
	if parsed, ok := ParseCondition(raw); ok {
		return parsed
	}
	return Condition(raw)
}

// Validation holds optional per-field constraints.
type Validation struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	// Pattern is carried for authors but not enforced.
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	FileTypes   []string `json:"fileTypes,omitempty" yaml:"fileTypes,omitempty"`
	MaxFileSize *int     `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty" validate:"omitempty,gt=0"`
}

// MaxFileBytes converts MaxFileSize (megabytes) to bytes. The boolean is false
// when no limit is configured.
func (v *Validation) MaxFileBytes() (int64, bool) {
	if v == nil || v.MaxFileSize == nil {
		return 0, false
	}
	return int64(*v.MaxFileSize) * 1024 * 1024, true
}

// AllowsExtension reports whether ext is listed in FileTypes. No list means
// no restriction; the wire format drops empty lists, so Check rejects them at
// author time instead.
func (v *Validation) AllowsExtension(ext string) bool {
	if v == nil || len(v.FileTypes) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, allowed := range v.FileTypes {
		if strings.ToLower(strings.TrimPrefix(strings.TrimSpace(allowed), ".")) == ext {
			return true
		}
	}
	return false
}

// ConditionalLogic makes a field visible only when another field's answer
// satisfies Condition against Value.
type ConditionalLogic struct {
	DependsOn string    `json:"dependsOn" yaml:"dependsOn" validate:"required"`
	Condition Condition `json:"condition" yaml:"condition" validate:"required,oneof=equals not_equals greater_than less_than"`
	Value     any       `json:"value" yaml:"value"`
}

// FieldDefinition describes one input of a form.
type FieldDefinition struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name" validate:"required"`
	Label            string            `json:"label" yaml:"label" validate:"required"`
	Placeholder      string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Type             FieldType         `json:"type" yaml:"type" validate:"required"`
	Required         bool              `json:"required" yaml:"required"`
	Options          []string          `json:"options,omitempty" yaml:"options,omitempty" validate:"required_if=Type dropdown"`
	Validation       *Validation       `json:"validation,omitempty" yaml:"validation,omitempty"`
	ConditionalLogic *ConditionalLogic `json:"conditionalLogic,omitempty" yaml:"conditionalLogic,omitempty"`
}

// Kind resolves the behaviour attached to the field's type.
func (f FieldDefinition) Kind() Kind {
	return KindOf(f.Type)
}

// HasOption reports whether value is one of the dropdown options.
func (f FieldDefinition) HasOption(value string) bool {
	for _, option := range f.Options {
		if option == value {
			return true
		}
	}
	return false
}

// Answers maps FieldDefinition.Name to the client's answer (string, float64 or
// bool).
type Answers map[string]any

// Clone returns a shallow copy of the answers.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	out := make(Answers, len(a))
	for key, value := range a {
		out[key] = value
	}
	return out
}

// FileAttachment is one uploaded file.
type FileAttachment struct {
	Name        string `json:"name" yaml:"name"`
	Size        int64  `json:"size" yaml:"size"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Content     []byte `json:"-" yaml:"-"`
}

// Extension returns the lowercase substring after the last dot of Name, or ""
// when Name has no dot.
func (a FileAttachment) Extension() string {
	base := path.Base(strings.ReplaceAll(a.Name, "\\", "/"))
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// Files maps FieldDefinition.Name to the ordered attachments for that field.
type Files map[string][]FileAttachment

package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date answer format.
const DateLayout = "2006-01-02"

var (
	errNotANumber  = errors.New("must be a valid number")
	errNotADate    = errors.New("must be a date formatted as YYYY-MM-DD")
	errNotABoolean = errors.New("must be yes or no")
)

// Kind captures the behaviour that differs per field type. Every FieldType
// maps to exactly one Kind implementation.
type Kind interface {
	// Type reports the field type handled by the kind.
	Type() FieldType
	// Answered reports whether value satisfies a required check.
	Answered(value any) bool
	// Parse converts raw user input into the stored answer value.
	Parse(input string) (any, error)
}

// TextKind handles free text answers.
type TextKind struct{}

// NumberKind handles numeric answers stored as float64.
type NumberKind struct{}

// DateKind handles calendar dates stored as YYYY-MM-DD strings.
type DateKind struct{}

// DropdownKind handles a single option picked from FieldDefinition.Options.
type DropdownKind struct{}

// CheckboxKind handles boolean answers.
type CheckboxKind struct{}

// FileKind handles file uploads. Answers live in Files, not Answers.
type FileKind struct{}

var kinds = map[FieldType]Kind{
	FieldTypeText:     TextKind{},
	FieldTypeNumber:   NumberKind{},
	FieldTypeDate:     DateKind{},
	FieldTypeDropdown: DropdownKind{},
	FieldTypeCheckbox: CheckboxKind{},
	FieldTypeFile:     FileKind{},
}

// KindOf resolves the Kind for t, falling back to TextKind for unknown types.
func KindOf(t FieldType) Kind {
	if kind, ok := kinds[t]; ok {
		return kind
	}
	return TextKind{}
}

func (TextKind) Type() FieldType         { return FieldTypeText }
func (TextKind) Answered(value any) bool { return nonBlank(value) }
func (TextKind) Parse(input string) (any, error) {
	return input, nil
}

func (NumberKind) Type() FieldType         { return FieldTypeNumber }
func (NumberKind) Answered(value any) bool { return nonBlank(value) }
func (NumberKind) Parse(input string) (any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, errNotANumber
	}
	return f, nil
}

func (DateKind) Type() FieldType         { return FieldTypeDate }
func (DateKind) Answered(value any) bool { return nonBlank(value) }
func (DateKind) Parse(input string) (any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if _, err := time.Parse(DateLayout, trimmed); err != nil {
		return nil, errNotADate
	}
	return trimmed, nil
}

func (DropdownKind) Type() FieldType         { return FieldTypeDropdown }
func (DropdownKind) Answered(value any) bool { return nonBlank(value) }
func (DropdownKind) Parse(input string) (any, error) {
	return strings.TrimSpace(input), nil
}

func (CheckboxKind) Type() FieldType { return FieldTypeCheckbox }

// Answered requires a checked box: a required checkbox is a consent gate.
func (CheckboxKind) Answered(value any) bool {
	b, ok := AsBool(value)
	return ok && b
}

func (CheckboxKind) Parse(input string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "false", "no", "n", "0", "off":
		return false, nil
	case "true", "yes", "y", "1", "on":
		return true, nil
	default:
		return nil, errNotABoolean
	}
}

func (FileKind) Type() FieldType { return FieldTypeFile }

// Answered expects the attachment slice for the field.
func (FileKind) Answered(value any) bool {
	files, ok := value.([]FileAttachment)
	return ok && len(files) > 0
}

func (FileKind) Parse(input string) (any, error) {
	var paths []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths, nil
}

func nonBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

// AsNumber coerces an answer or operand to float64 using standard numeric
// parsing for strings.
func AsNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString renders an answer or operand the way it is compared for equality.
func AsString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// AsBool coerces checkbox answers.
func AsBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		return false, false
	}
}

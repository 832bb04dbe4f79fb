package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidatorOnce sync.Once
	structValidator     *validator.Validate
)

func formValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(jsonTagName)
	})
	return structValidator
}

// Problem is one author-time issue found by Check. Field is a dotted path such
// as "fields.2.conditionalLogic.dependsOn", or empty for form-level problems.
type Problem struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// CheckError aggregates every problem found in a form definition.
type CheckError struct {
	FormID   string
	Problems []Problem
}

func (e *CheckError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "model: form check failed"
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Field != "" {
			parts = append(parts, p.Field+": "+p.Message)
			continue
		}
		parts = append(parts, p.Message)
	}
	return fmt.Sprintf("model: form %q is invalid: %s", e.FormID, strings.Join(parts, "; "))
}

// Check validates a form definition before it is saved or published. It
// reports struct constraint violations, duplicate field names, dropdowns
// without options, inverted numeric bounds, empty file type lists, dangling
// or self-referencing conditional logic, and dependency cycles. It returns nil
// or a *CheckError.
func Check(form FormDefinition) error {
	var problems []Problem

	if err := formValidator().Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("model: check form: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, Problem{
				Field:   trimNamespace(fe.Namespace()),
				Message: describeTag(fe),
			})
		}
	}

	names := make(map[string]int, len(form.Fields))
	for idx, field := range form.Fields {
		path := fmt.Sprintf("fields.%d", idx)
		if field.Name == "" {
			continue
		}
		if prev, dup := names[field.Name]; dup {
			problems = append(problems, Problem{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate field name %q (also fields.%d)", field.Name, prev),
			})
			continue
		}
		names[field.Name] = idx

		if field.Type == FieldTypeDropdown && len(field.Options) == 0 {
			problems = append(problems, Problem{Field: path + ".options", Message: "dropdown requires at least one option"})
		}
		if v := field.Validation; v != nil && v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			problems = append(problems, Problem{Field: path + ".validation", Message: "min must not exceed max"})
		}
		if v := field.Validation; v != nil && v.FileTypes != nil && len(v.FileTypes) == 0 {
			problems = append(problems, Problem{
				Field:   path + ".validation.fileTypes",
				Message: "must list at least one extension (omit it to allow any type)",
			})
		}
	}

	for idx, field := range form.Fields {
		logic := field.ConditionalLogic
		if logic == nil || logic.DependsOn == "" {
			continue
		}
		path := fmt.Sprintf("fields.%d.conditionalLogic.dependsOn", idx)
		if logic.DependsOn == field.Name {
			problems = append(problems, Problem{Field: path, Message: "field cannot depend on itself"})
			continue
		}
		if _, ok := names[logic.DependsOn]; !ok {
			problems = append(problems, Problem{Field: path, Message: fmt.Sprintf("unknown field %q", logic.DependsOn)})
		}
	}

	if cycle := DependencyCycle(form); len(cycle) > 0 {
		problems = append(problems, Problem{
			Message: "conditional logic cycle: " + strings.Join(cycle, " -> "),
		})
	}

	if len(problems) == 0 {
		return nil
	}
	return &CheckError{FormID: form.ID, Problems: problems}
}

// DependencyCycle returns the first cycle in the dependsOn relation as an
// ordered list of field names ending with the starting name, or nil when the
// relation is acyclic. Self references are reported by Check separately.
func DependencyCycle(form FormDefinition) []string {
	edges := make(map[string]string, len(form.Fields))
	order := make([]string, 0, len(form.Fields))
	for _, field := range form.Fields {
		if field.Name == "" {
			continue
		}
		order = append(order, field.Name)
		if logic := field.ConditionalLogic; logic != nil && logic.DependsOn != "" && logic.DependsOn != field.Name {
			edges[field.Name] = logic.DependsOn
		}
	}

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(order))

	for _, start := range order {
		if state[start] != unvisited {
			continue
		}
		var trail []string
		node := start
		for {
			if state[node] == done {
				break
			}
			if state[node] == inProgress {
				for i, name := range trail {
					if name == node {
						cycle := append([]string(nil), trail[i:]...)
						return append(cycle, node)
					}
				}
				break
			}
			state[node] = inProgress
			trail = append(trail, node)
			next, ok := edges[node]
			if !ok {
				break
			}
			node = next
		}
		for _, name := range trail {
			state[name] = done
		}
	}
	return nil
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " rule"
	}
}

// Package visibility decides which form fields are shown for a given answer
// set. Evaluation is pure: it never mutates answers, and a hidden field keeps
// whatever value it had so re-showing it restores the user's input.
package visibility

import "github.com/goliatone/go-onboard/pkg/model"

// Evaluator determines whether a field should be visible for the current
// answers.
type Evaluator interface {
	Visible(field model.FieldDefinition, answers model.Answers) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field model.FieldDefinition, answers model.Answers) bool

// Visible delegates to the underlying function.
func (fn EvaluatorFunc) Visible(field model.FieldDefinition, answers model.Answers) bool {
	return fn(field, answers)
}

// Conditional evaluates a field's ConditionalLogic. It is the default
// Evaluator.
type Conditional struct{}

// Visible implements Evaluator.
func (Conditional) Visible(field model.FieldDefinition, answers model.Answers) bool {
	logic := field.ConditionalLogic
	if logic == nil {
		return true
	}

	condition, ok := model.ParseCondition(string(logic.Condition))
	if !ok {
		return false
	}

	value, present := answers[logic.DependsOn]
	if present && value == nil {
		present = false
	}

	switch condition {
	case model.ConditionEquals:
		return present && model.AsString(value) == model.AsString(logic.Value)
	case model.ConditionNotEquals:
		if !present {
			return model.AsString(logic.Value) != ""
		}
		return model.AsString(value) != model.AsString(logic.Value)
	case model.ConditionGreaterThan, model.ConditionLessThan:
		if !present {
			return false
		}
		left, ok := model.AsNumber(value)
		if !ok {
			return false
		}
		right, ok := model.AsNumber(logic.Value)
		if !ok {
			return false
		}
		if condition == model.ConditionGreaterThan {
			return left > right
		}
		return left < right
	default:
		return false
	}
}

// IsVisible reports whether field is shown for answers using the default
// Conditional evaluator.
func IsVisible(field model.FieldDefinition, answers model.Answers) bool {
	return Conditional{}.Visible(field, answers)
}

// VisibleFields returns the form's visible fields in declaration order. A nil
// evaluator uses Conditional.
func VisibleFields(form model.FormDefinition, answers model.Answers, evaluator Evaluator) []model.FieldDefinition {
	if evaluator == nil {
		evaluator = Conditional{}
	}
	out := make([]model.FieldDefinition, 0, len(form.Fields))
	for _, field := range form.Fields {
		if evaluator.Visible(field, answers) {
			out = append(out, field)
		}
	}
	return out
}

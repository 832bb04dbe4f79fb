package formdef

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/visibility"
)

// ExtensionConditional is the schema extension carrying a field's
// conditional logic.
const ExtensionConditional = "x-onboard-conditional"

// RequestSchema describes the answers object of form. File fields are left
// out since attachments travel as separate multipart parts. Only required
// fields without conditional logic are listed as required.
func RequestSchema(form model.FormDefinition) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Title = form.Name
	schema.Description = form.Description

	var required []string
	for _, field := range form.Fields {
		if field.Type == model.FieldTypeFile {
			continue
		}
		prop := fieldSchema(field)
		if logic := field.ConditionalLogic; logic != nil {
			prop.Extensions = map[string]any{
				ExtensionConditional: map[string]any{
					"dependsOn": logic.DependsOn,
					"condition": string(logic.Condition),
					"value":     logic.Value,
				},
			}
		} else if field.Required {
			required = append(required, field.Name)
		}
		schema.WithProperty(field.Name, prop)
	}
	schema.Required = required
	return schema
}

func fieldSchema(field model.FieldDefinition) *openapi3.Schema {
	var schema *openapi3.Schema
	switch field.Kind().Type() {
	case model.FieldTypeNumber:
		schema = openapi3.NewFloat64Schema()
		if v := field.Validation; v != nil {
			if v.Min != nil {
				schema.WithMin(*v.Min)
			}
			if v.Max != nil {
				schema.WithMax(*v.Max)
			}
		}
	case model.FieldTypeDate:
		schema = openapi3.NewStringSchema().WithFormat("date")
	case model.FieldTypeDropdown:
		schema = openapi3.NewStringSchema()
		if len(field.Options) > 0 {
			values := make([]any, 0, len(field.Options))
			for _, option := range field.Options {
				values = append(values, option)
			}
			schema.WithEnum(values...)
		}
	case model.FieldTypeCheckbox:
		schema = openapi3.NewBoolSchema()
		if field.Required {
			schema.WithEnum(true)
		}
	case model.FieldTypeFile:
		schema = openapi3.NewStringSchema().WithFormat("binary")
	default:
		schema = openapi3.NewStringSchema()
		if field.Required {
			schema.MinLength = 1
		}
	}
	schema.Title = field.Label
	if field.Placeholder != "" {
		schema.Description = field.Placeholder
	}
	return schema
}

// SchemaName is the component name used for a form's answers schema.
func SchemaName(form model.FormDefinition) string {
	return "Form" + form.ID + "Answers"
}

// Document wraps the answer schemas of forms in an OpenAPI document that also
// describes the multipart submission endpoint.
func Document(forms []model.FormDefinition) *openapi3.T {
	schemas := make(openapi3.Schemas, len(forms))
	for _, form := range forms {
		schemas[SchemaName(form)] = openapi3.NewSchemaRef("", RequestSchema(form))
	}

	data := openapi3.NewStringSchema()
	data.Description = "JSON-encoded answers matching one of the Form<id>Answers schemas"
	body := openapi3.NewObjectSchema().
		WithProperty("form_id", openapi3.NewStringSchema()).
		WithProperty("data", data)
	body.Required = []string{"form_id", "data"}
	body.AdditionalProperties = openapi3.AdditionalProperties{
		Schema: openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema().WithFormat("binary"))),
	}

	created := openapi3.NewResponse().WithDescription("Form submitted successfully")
	invalid := openapi3.NewResponse().WithDescription("Submission rejected")

	submit := &openapi3.Operation{
		OperationID: "createSubmission",
		Summary:     "Submit answers for a form",
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithContent(openapi3.NewContentWithFormDataSchema(body)),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusCreated, &openapi3.ResponseRef{Value: created}),
			openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{Value: invalid}),
		),
	}

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Onboarding forms",
			Version: "1.0.0",
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/form/api/v1/submissions/", &openapi3.PathItem{Post: submit}),
		),
		Components: &openapi3.Components{Schemas: schemas},
	}
}

// CheckAnswers validates the visible answers of form against a schema built
// from the visible fields. It is a type-level cross-check complementing the
// validation package, and reports every mismatch at once.
func CheckAnswers(form model.FormDefinition, answers model.Answers) error {
	visible := visibility.VisibleFields(form, answers, nil)

	schema := openapi3.NewObjectSchema()
	value := make(map[string]any, len(visible))
	var required []string
	for _, field := range visible {
		if field.Type == model.FieldTypeFile {
			continue
		}
		schema.WithProperty(field.Name, fieldSchema(field))
		if field.Required {
			required = append(required, field.Name)
		}
		answer, ok := answers[field.Name]
		if !ok || answer == nil {
			continue
		}
		value[field.Name] = normaliseAnswer(answer)
	}
	schema.Required = required

	if err := schema.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("formdef: answers for form %q: %w", form.ID, err)
	}
	return nil
}

// normaliseAnswer converts Go numeric types to float64 as JSON decoding would.
func normaliseAnswer(value any) any {
	switch v := value.(type) {
	case int, int32, int64, float32, uint, uint64:
		n, _ := model.AsNumber(v)
		return n
	default:
		return value
	}
}

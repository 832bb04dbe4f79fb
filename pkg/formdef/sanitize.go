package formdef

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-onboard/pkg/model"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// SanitizeText strips every HTML element from author or admin supplied text
// and returns plain text.
func SanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textSanitizer().Sanitize(trimmed)))
}

// Sanitize cleans the display text of a form: name, description, labels,
// placeholders and dropdown options. Field names and ids are left alone.
var Sanitize = model.DecoratorFunc(func(form *model.FormDefinition) error {
	form.Name = SanitizeText(form.Name)
	form.Description = SanitizeText(form.Description)
	for i := range form.Fields {
		field := &form.Fields[i]
		field.Label = SanitizeText(field.Label)
		field.Placeholder = SanitizeText(field.Placeholder)
		if len(field.Options) > 0 {
			options := make([]string, 0, len(field.Options))
			for _, option := range field.Options {
				if cleaned := SanitizeText(option); cleaned != "" {
					options = append(options, cleaned)
				}
			}
			field.Options = options
		}
	}
	return nil
})

// Defaults fills the optional form attributes left blank by authors.
var Defaults = model.DecoratorFunc(func(form *model.FormDefinition) error {
	if form.Status == "" {
		form.Status = model.FormStatusDraft
	}
	if form.Category == "" {
		form.Category = model.CategoryGeneral
	}
	if form.Version == 0 {
		form.Version = 1
	}
	if !form.CreatedAt.IsZero() && form.UpdatedAt.IsZero() {
		form.UpdatedAt = form.CreatedAt
	}
	return nil
})

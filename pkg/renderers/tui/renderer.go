// Package tui fills onboarding forms interactively in a terminal. Prompts go
// through a PromptDriver so the flow can be scripted in tests.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/validation"
	"github.com/goliatone/go-onboard/pkg/visibility"
)

// Renderer prompts for the visible fields of a form.
type Renderer struct {
	driver       PromptDriver
	opener       FileOpener
	evaluator    visibility.Evaluator
	outputFormat OutputFormat
	logger       *slog.Logger
	theme        Theme
}

// New constructs a renderer with defaults (survey driver, disk file opener,
// conditional visibility, JSON summaries).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		opener:       OpenFile,
		evaluator:    visibility.Conditional{},
		outputFormat: OutputFormatJSON,
		logger:       slog.Default(),
		theme:        DefaultTheme,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Driver exposes the prompt driver, e.g. for login prompts outside a form.
func (r *Renderer) Driver() PromptDriver {
	return r.driver
}

// Fill walks form in declaration order and prompts every field that is
// visible for the answers collected so far. Visibility is re-evaluated after
// each answer, so a field whose controller is answered later is still
// prompted once it becomes visible. Prefilled answers become prompt
// defaults. Hidden fields keep any prefilled value.
func (r *Renderer) Fill(ctx context.Context, form model.FormDefinition, prefill model.Answers) (model.Answers, model.Files, error) {
	if ctx == nil {
		return nil, nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.driver == nil {
		return nil, nil, errors.New("tui: prompt driver is nil")
	}

	state := NewState(prefill, nil)
	if form.Description != "" {
		if err := r.info(ctx, form.Description); err != nil {
			return nil, nil, err
		}
	}

	for {
		progressed := false
		for _, field := range form.Fields {
			if state.wasPrompted(field.Name) || !r.evaluator.Visible(field, state.Answers()) {
				continue
			}
			if err := r.promptField(ctx, field, state); err != nil {
				return nil, nil, err
			}
			state.markPrompted(field.Name)
			progressed = true
			r.logger.Debug("tui: field answered", slog.String("form", form.ID), slog.String("field", field.Name))
		}
		if !progressed {
			break
		}
	}
	return state.Answers(), state.Files(), nil
}

func (r *Renderer) promptField(ctx context.Context, field model.FieldDefinition, state *State) error {
	switch field.Kind().Type() {
	case model.FieldTypeCheckbox:
		return r.promptCheckbox(ctx, field, state)
	case model.FieldTypeDropdown:
		return r.promptDropdown(ctx, field, state)
	case model.FieldTypeFile:
		return r.promptFile(ctx, field, state)
	default:
		// text, number and date parse typed input through their Kind.
		return r.promptInput(ctx, field, state)
	}
}

func (r *Renderer) promptInput(ctx context.Context, field model.FieldDefinition, state *State) error {
	kind := field.Kind()
	current, _ := state.Value(field.Name)
	defaultVal := model.AsString(current)

	for {
		input, err := r.driver.Text(ctx, TextQuestion{
			Question: question(field),
			Default:  defaultVal,
		})
		if err != nil {
			return err
		}

		value, err := kind.Parse(input)
		if err != nil {
			msg := err.Error()
			if kind.Type() == model.FieldTypeNumber {
				msg = validation.MessageInvalidNumber
			}
			if err := r.invalid(ctx, field, msg); err != nil {
				return err
			}
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			value = nil
		}

		if msg := validation.ValidateField(field, value, nil); msg != "" {
			if err := r.invalid(ctx, field, msg); err != nil {
				return err
			}
			continue
		}
		state.SetValue(field.Name, value)
		return nil
	}
}

func (r *Renderer) promptCheckbox(ctx context.Context, field model.FieldDefinition, state *State) error {
	current, _ := state.Value(field.Name)
	defaultVal, _ := model.AsBool(current)

	for {
		resp, err := r.driver.YesNo(ctx, YesNoQuestion{
			Question: question(field),
			Default:  defaultVal,
		})
		if err != nil {
			return err
		}
		if msg := validation.ValidateField(field, resp, nil); msg != "" {
			if err := r.invalid(ctx, field, msg); err != nil {
				return err
			}
			continue
		}
		state.SetValue(field.Name, resp)
		return nil
	}
}

func (r *Renderer) promptDropdown(ctx context.Context, field model.FieldDefinition, state *State) error {
	q := ChoiceQuestion{Question: question(field), Choices: field.Options}
	if !field.Required {
		q.Skip = r.theme.SkipLabel
	}
	if current, ok := state.Value(field.Name); ok {
		q.Current = model.AsString(current)
	}

	for {
		choice, err := r.driver.Choose(ctx, q)
		if err != nil {
			return err
		}

		var value any
		if choice != "" {
			answer, ok := q.Resolve(choice)
			if !ok {
				if err := r.invalid(ctx, field, validation.MessageInvalidOption); err != nil {
					return err
				}
				continue
			}
			if answer != "" {
				value = answer
			}
		}
		if msg := validation.ValidateField(field, value, nil); msg != "" {
			if err := r.invalid(ctx, field, msg); err != nil {
				return err
			}
			continue
		}
		state.SetValue(field.Name, value)
		return nil
	}
}

func (r *Renderer) promptFile(ctx context.Context, field model.FieldDefinition, state *State) error {
	if r.opener == nil {
		return ErrNoFileOpener
	}
	q := TextQuestion{Question: question(field)}
	if q.Help == "" {
		q.Help = "Comma-separated file paths"
	}

	for {
		input, err := r.driver.Text(ctx, q)
		if err != nil {
			return err
		}

		var attachments []model.FileAttachment
		var openErr error
		for _, path := range splitPaths(input) {
			attachment, err := r.opener(path)
			if err != nil {
				openErr = err
				break
			}
			attachments = append(attachments, attachment)
		}
		if openErr != nil {
			r.logger.Debug("tui: open attachment", slog.String("field", field.Name), slog.Any("error", openErr))
			if err := r.invalid(ctx, field, openErr.Error()); err != nil {
				return err
			}
			continue
		}

		if msg := validation.ValidateField(field, nil, attachments); msg != "" {
			if err := r.invalid(ctx, field, msg); err != nil {
				return err
			}
			continue
		}
		state.SetFiles(field.Name, attachments)
		return nil
	}
}

func (r *Renderer) invalid(ctx context.Context, field model.FieldDefinition, msg string) error {
	return r.driver.Notify(ctx, Notice{
		Kind: NoticeProblem,
		Text: fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, displayLabel(field), msg),
	})
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Notify(ctx, Notice{Kind: NoticeInfo, Text: r.theme.InfoPrefix + msg})
}

// Summary serialises answers and attachment names in the configured output
// format, restricted to the fields visible for answers.
func (r *Renderer) Summary(form model.FormDefinition, answers model.Answers, files model.Files) ([]byte, error) {
	visible := visibility.VisibleFields(form, answers, r.evaluator)
	switch r.outputFormat {
	case OutputFormatPrettyText:
		return []byte(prettyPrint(visible, answers, files)), nil
	default:
		out := make(map[string]any, len(visible))
		for _, field := range visible {
			if field.Type == model.FieldTypeFile {
				if names := attachmentNames(files[field.Name]); len(names) > 0 {
					out[field.Name] = names
				}
				continue
			}
			if v, ok := answers[field.Name]; ok {
				out[field.Name] = v
			}
		}
		return jsonBytes(out)
	}
}

func question(field model.FieldDefinition) Question {
	return Question{Label: displayLabel(field), Help: displayHelp(field)}
}

func displayLabel(field model.FieldDefinition) string {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	if field.Required {
		label += " *"
	}
	return label
}

func displayHelp(field model.FieldDefinition) string {
	if field.Placeholder != "" {
		return field.Placeholder
	}
	switch field.Kind().Type() {
	case model.FieldTypeDate:
		return "YYYY-MM-DD"
	case model.FieldTypeNumber:
		if v := field.Validation; v != nil && v.Min != nil && v.Max != nil {
			return fmt.Sprintf("Between %s and %s", formatNumber(*v.Min), formatNumber(*v.Max))
		}
	case model.FieldTypeFile:
		if v := field.Validation; v != nil && len(v.FileTypes) > 0 {
			return "Comma-separated paths; allowed: " + strings.Join(v.FileTypes, ", ")
		}
	}
	return ""
}

func splitPaths(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func attachmentNames(attachments []model.FileAttachment) []string {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}
	return names
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func prettyPrint(fields []model.FieldDefinition, answers model.Answers, files model.Files) string {
	var b strings.Builder
	for _, field := range fields {
		label := field.Label
		if label == "" {
			label = field.Name
		}
		var value string
		if field.Type == model.FieldTypeFile {
			value = strings.Join(attachmentNames(files[field.Name]), ", ")
		} else if v, ok := answers[field.Name]; ok {
			value = model.AsString(v)
			if checked, isBool := v.(bool); isBool {
				value = "no"
				if checked {
					value = "yes"
				}
			}
		}
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	return b.String()
}

func jsonBytes(values map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(values); err != nil {
		return nil, fmt.Errorf("tui: encode summary: %w", err)
	}
	return buf.Bytes(), nil
}

// OpenFile reads path from disk into an attachment. The content type is
// guessed from the extension.
func OpenFile(path string) (model.FileAttachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.FileAttachment{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return model.FileAttachment{
		Name:        filepath.Base(path),
		Size:        int64(len(content)),
		ContentType: contentType,
		Content:     content,
	}, nil
}

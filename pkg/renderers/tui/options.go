package tui

import (
	"log/slog"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/visibility"
)

// OutputFormat controls how Summary serialises collected answers.
type OutputFormat string

const (
	// OutputFormatJSON emits the answers as indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme holds the prefixes put on notices and the entry optional dropdowns
// offer for leaving the answer unset.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
	SkipLabel   string
}

// DefaultTheme is used unless WithTheme overrides it.
var DefaultTheme = Theme{
	InfoPrefix:  "",
	ErrorPrefix: "✗ ",
	SkipLabel:   "(skip)",
}

// FileOpener turns a user-supplied path into an attachment.
type FileOpener func(path string) (model.FileAttachment, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithFileOpener overrides how file paths are read.
func WithFileOpener(opener FileOpener) Option {
	return func(r *Renderer) {
		if opener != nil {
			r.opener = opener
		}
	}
}

// WithEvaluator replaces the visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(r *Renderer) {
		if evaluator != nil {
			r.evaluator = evaluator
		}
	}
}

// WithOutputFormat selects the Summary serialisation format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithLogger sets the logger used for prompt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

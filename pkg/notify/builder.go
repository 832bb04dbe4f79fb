// Package notify builds admin notifications from submission events and keeps
// them in an in-memory inbox. Titles and messages are go-template (pongo2)
// files, one directory per notification type, so deployments can reword them
// without code changes.
package notify

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	gotemplate "github.com/goliatone/go-template"
	"github.com/google/uuid"

	"github.com/goliatone/go-onboard/pkg/model"
)

//go:embed templates/*/*.tpl
var embedded embed.FS

// ErrUnknownTemplate is returned when no template is registered for a
// notification type.
var ErrUnknownTemplate = errors.New("notify: no template for notification type")

// Template is an inline title and message source for one notification type.
type Template struct {
	Title   string
	Message string
}

// DefaultTemplates returns the embedded templates as a read-only tree laid
// out as <type>/title.tpl and <type>/message.tpl.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

var kinds = []model.NotificationType{
	model.NotificationFormSubmission,
	model.NotificationFormApproved,
	model.NotificationFormRejected,
	model.NotificationSystem,
}

// Builder renders NotificationRecords.
type Builder struct {
	engine    *gotemplate.Engine
	templates fs.FS
	dir       string
	inline    map[model.NotificationType]Template
	now       func() time.Time
	reviewURL string
}

// Option configures a Builder.
type Option func(*Builder) error

// WithTemplate replaces the files of one notification type with inline
// sources. Inline templates are plain text; HTML escaping is off.
func WithTemplate(kind model.NotificationType, tpl Template) Option {
	return func(b *Builder) error {
		for _, src := range []string{tpl.Title, tpl.Message} {
			if _, err := pongo2.FromString(plain(src)); err != nil {
				return fmt.Errorf("notify: compile %s template: %w", kind, err)
			}
		}
		b.inline[kind] = tpl
		return nil
	}
}

// WithTemplateDir layers a directory over the embedded templates. Files found
// there win; missing ones fall back to the defaults. Files are rendered as
// written, so plain text needs an autoescape off block.
func WithTemplateDir(dir string) Option {
	return func(b *Builder) error {
		b.dir = strings.TrimSpace(dir)
		return nil
	}
}

// WithTemplateFS replaces the embedded template tree.
func WithTemplateFS(files fs.FS) Option {
	return func(b *Builder) error {
		if files == nil {
			return errors.New("notify: nil template fs")
		}
		b.templates = files
		return nil
	}
}

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) error {
		if now != nil {
			b.now = now
		}
		return nil
	}
}

// WithReviewURL sets a base URL; submission notifications then carry
// review_url = base + "/" + submission id in their payload.
func WithReviewURL(base string) Option {
	return func(b *Builder) error {
		b.reviewURL = strings.TrimRight(strings.TrimSpace(base), "/")
		return nil
	}
}

// NewBuilder applies opts, loads the template engine and renders every
// template once so broken files fail here rather than on the first event.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		templates: DefaultTemplates(),
		inline:    make(map[model.NotificationType]Template),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	engineOpts := []gotemplate.Option{gotemplate.WithFS(b.templates)}
	if b.dir != "" {
		engineOpts = append(engineOpts, gotemplate.WithBaseDir(b.dir))
	}
	engine, err := gotemplate.NewRenderer(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("notify: load templates: %w", err)
	}
	b.engine = engine

	for _, kind := range kinds {
		if _, _, err := b.execute(kind, map[string]any{}); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func plain(src string) string {
	return "{% autoescape off %}" + src + "{% endautoescape %}"
}

func (b *Builder) execute(kind model.NotificationType, payload map[string]any) (string, string, error) {
	var title, message string
	var err error
	if tpl, ok := b.inline[kind]; ok {
		if title, err = b.engine.RenderString(plain(tpl.Title), payload); err != nil {
			return "", "", fmt.Errorf("notify: render %s title: %w", kind, err)
		}
		if message, err = b.engine.RenderString(plain(tpl.Message), payload); err != nil {
			return "", "", fmt.Errorf("notify: render %s message: %w", kind, err)
		}
		return title, message, nil
	}

	if _, err := fs.Stat(b.templates, string(kind)+"/title.tpl"); err != nil && b.dir == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	if title, err = b.engine.RenderTemplate(string(kind)+"/title", payload); err != nil {
		return "", "", fmt.Errorf("notify: render %s title: %w", kind, err)
	}
	if message, err = b.engine.RenderTemplate(string(kind)+"/message", payload); err != nil {
		return "", "", fmt.Errorf("notify: render %s message: %w", kind, err)
	}
	return title, message, nil
}

// ForSubmission announces a newly received submission.
func (b *Builder) ForSubmission(record model.SubmissionRecord) (model.NotificationRecord, error) {
	payload := map[string]any{
		"submission_id": record.ID,
		"form_id":       record.FormID,
		"form_name":     record.FormName,
		"client_email":  record.ClientEmail,
		"client_name":   record.ClientName,
	}
	if b.reviewURL != "" && record.ID != "" {
		payload["review_url"] = b.reviewURL + "/" + record.ID
	}
	return b.render(model.NotificationFormSubmission, payload)
}

// ForReview announces a review decision. Records marked for review produce a
// system notification.
func (b *Builder) ForReview(record model.SubmissionRecord) (model.NotificationRecord, error) {
	payload := map[string]any{
		"submission_id": record.ID,
		"form_id":       record.FormID,
		"form_name":     record.FormName,
		"client_email":  record.ClientEmail,
		"client_name":   record.ClientName,
		"status":        string(record.Status),
		"notes":         record.ReviewNotes,
	}
	switch record.Status {
	case model.SubmissionApproved:
		return b.render(model.NotificationFormApproved, payload)
	case model.SubmissionRejected:
		return b.render(model.NotificationFormRejected, payload)
	default:
		payload["title"] = "Submission marked for review: " + record.FormName
		payload["message"] = record.ReviewNotes
		return b.render(model.NotificationSystem, payload)
	}
}

// System builds a free-form notification.
func (b *Builder) System(title, message string) (model.NotificationRecord, error) {
	return b.render(model.NotificationSystem, map[string]any{"title": title, "message": message})
}

func (b *Builder) render(kind model.NotificationType, payload map[string]any) (model.NotificationRecord, error) {
	title, message, err := b.execute(kind, payload)
	if err != nil {
		return model.NotificationRecord{}, err
	}

	return model.NotificationRecord{
		ID:        uuid.NewString(),
		Type:      kind,
		Title:     strings.TrimSpace(title),
		Message:   strings.TrimSpace(message),
		CreatedAt: b.now(),
		Payload:   payload,
	}, nil
}

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a lifecycle change is not allowed from
// the current status.
var ErrInvalidTransition = errors.New("model: invalid status transition")

// Category groups forms by business purpose.
type Category string

const (
	CategoryKYC        Category = "kyc"
	CategoryLoan       Category = "loan"
	CategoryInvestment Category = "investment"
	CategoryGeneral    Category = "general"
)

// FormStatus is the authoring lifecycle state of a form.
type FormStatus string

const (
	FormStatusDraft    FormStatus = "draft"
	FormStatusActive   FormStatus = "active"
	FormStatusArchived FormStatus = "archived"
)

// FormDefinition is an admin-authored, ordered collection of fields.
type FormDefinition struct {
	ID              string            `json:"id" yaml:"id" validate:"required"`
	Name            string            `json:"name" yaml:"name" validate:"required,max=255"`
	Description     string            `json:"description" yaml:"description"`
	Category        Category          `json:"category" yaml:"category" validate:"required,oneof=kyc loan investment general"`
	Status          FormStatus        `json:"status" yaml:"status" validate:"required,oneof=draft active archived"`
	Version         int               `json:"version,omitempty" yaml:"version,omitempty" validate:"gte=0"`
	Fields          []FieldDefinition `json:"fields" yaml:"fields" validate:"dive"`
	CreatedAt       time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt" yaml:"updatedAt"`
	SubmissionCount int               `json:"submissionCount" yaml:"submissionCount"`
}

// NewForm creates a draft form stamped with now. Fields without an id take
// their name as id.
func NewForm(name, description string, category Category, fields []FieldDefinition, now time.Time) FormDefinition {
	form := FormDefinition{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    category,
		Status:      FormStatusDraft,
		Version:     1,
		Fields:      make([]FieldDefinition, 0, len(fields)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, field := range fields {
		if field.ID == "" {
			field.ID = field.Name
		}
		form.Fields = append(form.Fields, field)
	}
	return form
}

// Field returns the field with the given name.
func (f FormDefinition) Field(name string) (FieldDefinition, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// IsActive reports whether clients can see the form.
func (f FormDefinition) IsActive() bool {
	return f.Status == FormStatusActive
}

// Touch records an edit.
func (f *FormDefinition) Touch(now time.Time) {
	f.UpdatedAt = now
}

// Activate publishes a draft form to clients.
func (f *FormDefinition) Activate(now time.Time) error {
	if f.Status != FormStatusDraft {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.Status, FormStatusActive)
	}
	f.Status = FormStatusActive
	f.Touch(now)
	return nil
}

// Archive hides the form from clients while keeping its history.
func (f *FormDefinition) Archive(now time.Time) error {
	if f.Status == FormStatusArchived {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.Status, FormStatusArchived)
	}
	f.Status = FormStatusArchived
	f.Touch(now)
	return nil
}

// ActiveForms filters forms down to those visible to clients, preserving
// order.
func ActiveForms(forms []FormDefinition) []FormDefinition {
	out := make([]FormDefinition, 0, len(forms))
	for _, form := range forms {
		if form.IsActive() {
			out = append(out, form)
		}
	}
	return out
}

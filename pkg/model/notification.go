package model

import "time"

// NotificationType classifies admin notifications.
type NotificationType string

const (
	NotificationFormSubmission NotificationType = "form_submission"
	NotificationFormApproved   NotificationType = "form_approved"
	NotificationFormRejected   NotificationType = "form_rejected"
	NotificationSystem         NotificationType = "system"
)

// NotificationRecord is an informational message shown to admins.
type NotificationRecord struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	Payload   map[string]any   `json:"data,omitempty"`
}

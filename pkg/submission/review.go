package submission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-onboard/pkg/model"
)

var (
	// ErrTerminalStatus is returned when a review action targets an approved
	// or rejected submission.
	ErrTerminalStatus = errors.New("submission: status is final")
	// ErrNotesRequired is returned when a rejection carries no review notes.
	ErrNotesRequired = errors.New("submission: review notes are required to reject")
	// ErrUnknownAction is returned for actions outside the review vocabulary.
	ErrUnknownAction = errors.New("submission: unknown review action")
)

// Action is an admin review decision.
type Action string

const (
	ActionMarkReview Action = "review"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
)

// Default notes recorded when the admin leaves the notes blank.
const (
	DefaultApprovedNotes = "Application approved"
	DefaultReviewNotes   = "Marked for additional review"
)

// ParseAction maps raw input such as "approved" or "Reject" onto an Action.
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "review", "mark_review", "in_review":
		return ActionMarkReview, nil
	case "approve", "approved":
		return ActionApprove, nil
	case "reject", "rejected":
		return ActionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// Target reports the status an action moves a submission into.
func (a Action) Target() (model.SubmissionStatus, bool) {
	switch a {
	case ActionMarkReview:
		return model.SubmissionReview, true
	case ActionApprove:
		return model.SubmissionApproved, true
	case ActionReject:
		return model.SubmissionRejected, true
	default:
		return "", false
	}
}

// CanReview reports whether review actions are still available for status.
func CanReview(status model.SubmissionStatus) bool {
	return !status.Terminal()
}

// Review applies action to record and returns the updated copy. On error the
// input record is returned unchanged. Every successful transition stamps
// ReviewedAt with now and overwrites ReviewNotes.
func Review(record model.SubmissionRecord, action Action, notes string, now time.Time) (model.SubmissionRecord, error) {
	target, ok := action.Target()
	if !ok {
		return record, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if !CanReview(record.Status) {
		return record, fmt.Errorf("%w: %s", ErrTerminalStatus, record.Status)
	}
	if record.Status == model.SubmissionReview && target == model.SubmissionReview {
		return record, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, record.Status, target)
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		switch action {
		case ActionReject:
			return record, ErrNotesRequired
		case ActionApprove:
			notes = DefaultApprovedNotes
		case ActionMarkReview:
			notes = DefaultReviewNotes
		}
	}

	reviewedAt := now
	record.Status = target
	record.ReviewedAt = &reviewedAt
	record.ReviewNotes = notes
	return record, nil
}

package model

import "time"

// SubmissionStatus is the review state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionReview   SubmissionStatus = "review"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Terminal reports whether no further review action is possible.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// SubmissionRecord is a client's answer set for one form plus review
// metadata. FormName, ClientName and ClientEmail are snapshots taken at submit
// time.
type SubmissionRecord struct {
	ID          string           `json:"id"`
	FormID      string           `json:"formId"`
	FormName    string           `json:"formName"`
	ClientName  string           `json:"clientName"`
	ClientEmail string           `json:"clientEmail"`
	Data        Answers          `json:"data"`
	Files       Files            `json:"files,omitempty"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submittedAt"`
	ReviewedAt  *time.Time       `json:"reviewedAt,omitempty"`
	ReviewNotes string           `json:"reviewNotes,omitempty"`
}

// FilterSubmissions returns the submissions in status, or all of them when
// status is empty.
func FilterSubmissions(records []SubmissionRecord, status SubmissionStatus) []SubmissionRecord {
	out := make([]SubmissionRecord, 0, len(records))
	for _, record := range records {
		if status == "" || record.Status == status {
			out = append(out, record)
		}
	}
	return out
}

// CountByStatus tallies submissions per status.
func CountByStatus(records []SubmissionRecord) map[SubmissionStatus]int {
	counts := make(map[SubmissionStatus]int, 4)
	for _, record := range records {
		counts[record.Status]++
	}
	return counts
}

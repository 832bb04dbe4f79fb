package mockapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-onboard/pkg/formdef"
	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/submission"
	"github.com/goliatone/go-onboard/pkg/validation"
)

const maxUploadMemory = 32 << 20

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	counts := make(map[string]int, len(s.forms))
	for _, record := range s.submissions {
		counts[record.FormID]++
	}
	out := make([]wireForm, 0, len(s.forms))
	for _, form := range s.forms {
		out = append(out, encodeForm(form, counts[form.ID]))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope{Message: "Success", Data: out})
}

func (s *Server) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var mine []model.SubmissionRecord
	for _, record := range s.Submissions() {
		if strings.EqualFold(record.ClientEmail, claims.Email) {
			mine = append(mine, record)
		}
	}
	s.writeSubmissions(w, mine)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	records := s.Submissions()
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		records = model.FilterSubmissions(records, model.SubmissionStatus(status))
	}
	s.writeSubmissions(w, records)
}

func (s *Server) writeSubmissions(w http.ResponseWriter, records []model.SubmissionRecord) {
	out := make([]wireSubmission, 0, len(records))
	for _, record := range records {
		encoded, err := encodeSubmission(record)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, encoded)
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Success", Data: out})
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeFieldErrors(w, "Failed to submit form", map[string][]string{
			"non_field_errors": {"Expected multipart form data."},
		})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	payload, err := submission.FromMultipart(r.MultipartForm)
	if err != nil {
		writeFieldErrors(w, "Failed to submit form", map[string][]string{
			"form_id": {err.Error()},
		})
		return
	}

	s.mu.Lock()
	form, ok := s.formByID(payload.FormID)
	account := s.accounts[strings.ToLower(claims.Email)]
	s.mu.Unlock()
	if !ok || !form.IsActive() {
		writeFieldErrors(w, "Failed to submit form due to internal validation error.", map[string][]string{
			"form_id": {"Object does not exist or invalid data: form " + payload.FormID + " is not accepting submissions"},
		})
		return
	}

	if errs := validation.Validate(form, payload.Data, payload.Files); !errs.Valid() {
		fields := make(map[string][]string, len(errs))
		for name, msg := range errs {
			fields[name] = []string{msg}
		}
		writeFieldErrors(w, "Failed to submit form", fields)
		return
	}

	client := submission.Client{Name: account.Name(), Email: claims.Email}
	record := submission.New(form, client, payload, s.now())

	s.mu.Lock()
	s.submissions = append(s.submissions, record)
	s.mu.Unlock()

	s.logger.Info("mockapi: submission received",
		slog.String("submission", record.ID),
		slog.String("form", form.ID),
		slog.String("client", claims.Email))
	if note, err := s.builder.ForSubmission(record); err != nil {
		s.logger.Warn("mockapi: build submission notification", slog.Any("error", err))
	} else {
		s.inbox.Add(note)
	}

	encoded, err := encodeSubmission(record)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Message: "Form submitted successfully", Data: encoded})
}

type reviewRequest struct {
	Action      string `json:"action"`
	Status      string `json:"status"`
	ReviewNotes string `json:"review_notes"`
}

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req reviewRequest
	if err := readJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	raw := req.Action
	if raw == "" {
		raw = req.Status
	}
	action, err := submission.ParseAction(raw)
	if err != nil {
		writeFieldErrors(w, "Failed to update submission", map[string][]string{"status": {err.Error()}})
		return
	}

	s.mu.Lock()
	idx := s.submissionIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "No Submission matches the given query.")
		return
	}
	updated, err := submission.Review(s.submissions[idx], action, formdef.SanitizeText(req.ReviewNotes), s.now())
	if err == nil {
		s.submissions[idx] = updated
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, submission.ErrNotesRequired):
		writeFieldErrors(w, "Failed to update submission", map[string][]string{"review_notes": {"Review notes are required to reject a submission."}})
		return
	case errors.Is(err, submission.ErrTerminalStatus), errors.Is(err, model.ErrInvalidTransition):
		writeDetail(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("mockapi: submission reviewed",
		slog.String("submission", updated.ID),
		slog.String("status", string(updated.Status)))
	if note, err := s.builder.ForReview(updated); err != nil {
		s.logger.Warn("mockapi: build review notification", slog.Any("error", err))
	} else {
		s.inbox.Add(note)
	}

	encoded, err := encodeSubmission(updated)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Submission updated successfully", Data: encoded})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	items := s.inbox.List()
	if r.URL.Query().Get("unread") == "true" {
		items = s.inbox.Unread()
	}
	if items == nil {
		items = []model.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Success", Data: items})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !s.inbox.MarkRead(chi.URLParam(r, "id")) {
		writeDetail(w, http.StatusNotFound, "No Notification matches the given query.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.inbox.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

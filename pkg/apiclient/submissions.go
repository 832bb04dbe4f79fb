package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/submission"
)

// MySubmissions fetches the current client's submissions. Items whose answer
// data cannot be parsed are kept with an empty answer set.
func (c *Client) MySubmissions(ctx context.Context) ([]model.SubmissionRecord, error) {
	var payload envelope[[]apiSubmission]
	if err := c.getJSON(ctx, PathMySubmissions, authRequired, &payload); err != nil {
		return nil, err
	}
	records := make([]model.SubmissionRecord, 0, len(payload.Data))
	for _, raw := range payload.Data {
		records = append(records, decodeSubmission(raw, c.logger))
	}
	return records, nil
}

// Submit posts an assembled payload as multipart form data. On a non-2xx
// response the returned *APIError carries the body verbatim. The created
// record is decoded when the server echoes one.
func (c *Client) Submit(ctx context.Context, payload submission.Payload) (model.SubmissionRecord, error) {
	var body bytes.Buffer
	contentType, err := payload.Encode(&body)
	if err != nil {
		return model.SubmissionRecord{}, err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        PathSubmissions,
		body:        &body,
		contentType: contentType,
		auth:        authRequired,
	})
	if err != nil {
		return model.SubmissionRecord{}, err
	}

	var created envelope[apiSubmission]
	if err := json.Unmarshal(resp, &created); err != nil {
		c.logger.Warn("apiclient: submission response not decoded", slog.Any("error", err))
		return model.SubmissionRecord{FormID: payload.FormID, Data: payload.Data, Status: model.SubmissionPending}, nil
	}
	record := decodeSubmission(created.Data, c.logger)
	if record.FormID == "" {
		record.FormID = payload.FormID
	}
	return record, nil
}

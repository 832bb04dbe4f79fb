package mockapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboard/internal/mockapi"
	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/submission"
	"github.com/goliatone/go-onboard/pkg/testsupport"
)

func newServer(t *testing.T) *mockapi.Server {
	t.Helper()
	srv, err := mockapi.New(
		mockapi.WithClock(func() time.Time { return testsupport.Epoch }),
		mockapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("mockapi.New: %v", err)
	}
	return srv
}

func token(t *testing.T, srv *mockapi.Server, account mockapi.Account) string {
	t.Helper()
	access, _, err := srv.IssueTokens(account)
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	return access
}

func call(t *testing.T, srv http.Handler, method, path, bearer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func callJSON(t *testing.T, srv http.Handler, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return call(t, srv, method, path, bearer, bytes.NewReader(raw), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func submit(t *testing.T, srv http.Handler, bearer string, payload submission.Payload) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	contentType, err := payload.Encode(&body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return call(t, srv, http.MethodPost, "/form/api/v1/submissions/", bearer, &body, contentType)
}

func kycPayload() submission.Payload {
	doc := testsupport.Attachment("passport.pdf", 0)
	doc.Content = []byte("%PDF-1.4")
	doc.ContentType = "application/pdf"
	return submission.Payload{
		FormID: "1",
		Data: model.Answers{
			"full_name":         "Ada Lovelace",
			"date_of_birth":     "1990-12-10",
			"annual_income":     85000.0,
			"employment_status": "Employed",
		},
		Files: model.Files{"id_document": {doc}},
	}
}

type fieldEnvelope struct {
	Message string              `json:"message"`
	Data    map[string][]string `json:"data"`
}

func TestListFormsEncodesBackendShape(t *testing.T) {
	srv := newServer(t)
	rec := call(t, srv, http.MethodGet, "/form/api/v1/forms/", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var payload struct {
		Data []struct {
			ID         string `json:"id"`
			Status     string `json:"status"`
			IsActive   bool   `json:"is_active"`
			FormFields []struct {
				ID                  string          `json:"id"`
				Name                string          `json:"name"`
				Options             json.RawMessage `json:"options"`
				IsConditional       bool            `json:"is_conditional"`
				ConditionalField    string          `json:"conditional_field"`
				ConditionalOperator string          `json:"conditional_operator"`
				ConditionalValue    string          `json:"conditional_value"`
			} `json:"form_fields"`
		} `json:"data"`
	}
	decode(t, rec, &payload)

	if len(payload.Data) != 3 {
		t.Fatalf("forms = %d, want 3", len(payload.Data))
	}
	draft := payload.Data[2]
	if draft.ID != "3" || draft.Status != "draft" || draft.IsActive {
		t.Fatalf("investment form = %+v, want inactive draft", draft)
	}

	loan := payload.Data[1]
	proof := loan.FormFields[2]
	want := []string{"2.income_proof", "2.loan_amount", "greater_than", "10000"}
	got := []string{proof.ID, proof.ConditionalField, proof.ConditionalOperator, proof.ConditionalValue}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("conditional encoding mismatch (-want +got):\n%s", diff)
	}
	if !proof.IsConditional {
		t.Fatalf("income_proof is not flagged conditional")
	}

	purpose := loan.FormFields[1]
	if !strings.HasPrefix(string(purpose.Options), "[") {
		t.Fatalf("dropdown options = %s, want a list", purpose.Options)
	}
	amount := loan.FormFields[0]
	if !strings.Contains(string(amount.Options), `"max":50000`) {
		t.Fatalf("number options = %s, want rules dict", amount.Options)
	}
}

func TestLogin(t *testing.T) {
	srv := newServer(t)

	rec := callJSON(t, srv, http.MethodPost, "/auth/api/v1/login/", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}

	rec = callJSON(t, srv, http.MethodPost, "/auth/api/v1/login/", "", map[string]string{"email": "ada@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password status = %d", rec.Code)
	}
	var missing map[string][]string
	decode(t, rec, &missing)
	if diff := cmp.Diff(map[string][]string{"password": {"This field is required."}}, missing); diff != "" {
		t.Fatalf("missing password body mismatch (-want +got):\n%s", diff)
	}

	rec = callJSON(t, srv, http.MethodPost, "/auth/api/v1/login/", "", map[string]string{
		"email": "ADA@example.com", "password": mockapi.ClientAccount.Password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decode(t, rec, &tokens)
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Fatalf("tokens = %+v", tokens)
	}

	rec = call(t, srv, http.MethodGet, "/form/api/v1/my_submissions/", tokens.Access, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("issued token rejected: %d %s", rec.Code, rec.Body)
	}
}

func TestAuthGuards(t *testing.T) {
	srv := newServer(t)
	client := token(t, srv, mockapi.ClientAccount)

	cases := []struct {
		name   string
		bearer string
		path   string
		want   int
	}{
		{name: "no token", path: "/form/api/v1/my_submissions/", want: http.StatusUnauthorized},
		{name: "garbage token", bearer: "not-a-jwt", path: "/form/api/v1/my_submissions/", want: http.StatusUnauthorized},
		{name: "client on admin route", bearer: client, path: "/form/api/v1/submissions/", want: http.StatusForbidden},
		{name: "client notifications", bearer: client, path: "/form/api/v1/notifications/", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, srv, http.MethodGet, tc.path, tc.bearer, nil, "")
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSubmissionValidation(t *testing.T) {
	srv := newServer(t)
	client := token(t, srv, mockapi.ClientAccount)

	t.Run("missing answers", func(t *testing.T) {
		rec := submit(t, srv, client, submission.Payload{FormID: "1", Data: model.Answers{"full_name": "Ada"}})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var body fieldEnvelope
		decode(t, rec, &body)
		want := map[string][]string{
			"date_of_birth":     {"This field is required"},
			"id_document":       {"This field is required"},
			"annual_income":     {"This field is required"},
			"employment_status": {"This field is required"},
		}
		if diff := cmp.Diff(want, body.Data); diff != "" {
			t.Fatalf("errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("draft form", func(t *testing.T) {
		rec := submit(t, srv, client, submission.Payload{FormID: "3", Data: model.Answers{"risk_profile": "Balanced"}})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var body fieldEnvelope
		decode(t, rec, &body)
		if len(body.Data["form_id"]) != 1 {
			t.Fatalf("form_id error missing: %s", rec.Body)
		}
	})

	t.Run("unknown form", func(t *testing.T) {
		rec := submit(t, srv, client, submission.Payload{FormID: "99"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	if got := len(srv.Submissions()); got != 0 {
		t.Fatalf("stored submissions = %d, want 0", got)
	}
	if got := srv.Inbox().UnreadCount(); got != 0 {
		t.Fatalf("notifications = %d, want 0", got)
	}
}

func TestSubmissionReviewLifecycle(t *testing.T) {
	srv := newServer(t)
	client := token(t, srv, mockapi.ClientAccount)
	admin := token(t, srv, mockapi.AdminAccount)

	rec := submit(t, srv, client, kycPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body)
	}
	var created struct {
		Message string `json:"message"`
		Data    struct {
			ID          string `json:"id"`
			FormName    string `json:"form_name"`
			ClientName  string `json:"client_name"`
			ClientEmail string `json:"client_email"`
			Status      string `json:"status"`
			Data        string `json:"data"`
			Documents   []struct {
				Field string `json:"field"`
				Name  string `json:"name"`
				Size  int64  `json:"size"`
			} `json:"documents"`
		} `json:"data"`
	}
	decode(t, rec, &created)
	if created.Data.Status != "pending" || created.Data.ClientName != "Ada Lovelace" || created.Data.FormName != "KYC Verification" {
		t.Fatalf("created = %+v", created.Data)
	}
	answers, err := submission.DecodeData(created.Data.Data)
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if answers["employment_status"] != "Employed" {
		t.Fatalf("echoed data = %v", answers)
	}
	if len(created.Data.Documents) != 1 || created.Data.Documents[0].Name != "passport.pdf" || created.Data.Documents[0].Size != 8 {
		t.Fatalf("documents = %+v", created.Data.Documents)
	}

	notes := srv.Inbox().List()
	if len(notes) != 1 || notes[0].Type != model.NotificationFormSubmission {
		t.Fatalf("inbox = %+v", notes)
	}
	if notes[0].Title != "New form submission: KYC Verification" {
		t.Fatalf("title = %q", notes[0].Title)
	}

	path := "/form/api/v1/submissions/" + created.Data.ID + "/"

	rec = callJSON(t, srv, http.MethodPatch, path, admin, map[string]string{"action": "reject"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reject without notes status = %d", rec.Code)
	}

	rec = callJSON(t, srv, http.MethodPatch, path, admin, map[string]string{"action": "review"})
	if rec.Code != http.StatusOK {
		t.Fatalf("review status = %d, body %s", rec.Code, rec.Body)
	}
	rec = callJSON(t, srv, http.MethodPatch, path, admin, map[string]string{"status": "review"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("review twice status = %d", rec.Code)
	}

	rec = callJSON(t, srv, http.MethodPatch, path, admin, map[string]string{
		"status": "rejected", "review_notes": "Document <b>expired</b> & blurry",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body %s", rec.Code, rec.Body)
	}

	rec = callJSON(t, srv, http.MethodPatch, path, admin, map[string]string{"action": "approve"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("approve after reject status = %d", rec.Code)
	}

	stored := srv.Submissions()
	if len(stored) != 1 {
		t.Fatalf("stored = %d", len(stored))
	}
	if stored[0].Status != model.SubmissionRejected || stored[0].ReviewNotes != "Document expired & blurry" {
		t.Fatalf("stored record = %+v", stored[0])
	}
	if stored[0].ReviewedAt == nil || !stored[0].ReviewedAt.Equal(testsupport.Epoch) {
		t.Fatalf("reviewed at = %v", stored[0].ReviewedAt)
	}

	counts := srv.Inbox().CountByType()
	want := map[model.NotificationType]int{
		model.NotificationFormSubmission: 1,
		model.NotificationSystem:         1,
		model.NotificationFormRejected:   1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("notification counts mismatch (-want +got):\n%s", diff)
	}

	rec = call(t, srv, http.MethodGet, "/form/api/v1/submissions/?status=rejected", admin, nil, "")
	var listed struct {
		Data []json.RawMessage `json:"data"`
	}
	decode(t, rec, &listed)
	if len(listed.Data) != 1 {
		t.Fatalf("rejected filter = %d items", len(listed.Data))
	}
	rec = call(t, srv, http.MethodGet, "/form/api/v1/submissions/?status=approved", admin, nil, "")
	decode(t, rec, &listed)
	if len(listed.Data) != 0 {
		t.Fatalf("approved filter = %d items", len(listed.Data))
	}

	rec = call(t, srv, http.MethodGet, "/form/api/v1/my_submissions/", client, nil, "")
	decode(t, rec, &listed)
	if len(listed.Data) != 1 {
		t.Fatalf("my submissions = %d items", len(listed.Data))
	}
}

func TestReviewUnknownSubmission(t *testing.T) {
	srv := newServer(t)
	admin := token(t, srv, mockapi.AdminAccount)

	rec := callJSON(t, srv, http.MethodPatch, "/form/api/v1/submissions/missing/", admin, map[string]string{"action": "approve"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = callJSON(t, srv, http.MethodPatch, "/form/api/v1/submissions/missing/", admin, map[string]string{"action": "escalate"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status = %d", rec.Code)
	}
}

func TestNotificationRoutes(t *testing.T) {
	srv := newServer(t)
	client := token(t, srv, mockapi.ClientAccount)
	admin := token(t, srv, mockapi.AdminAccount)

	for i := 0; i < 2; i++ {
		if rec := submit(t, srv, client, kycPayload()); rec.Code != http.StatusCreated {
			t.Fatalf("submit status = %d", rec.Code)
		}
	}

	var listed struct {
		Data []model.NotificationRecord `json:"data"`
	}
	rec := call(t, srv, http.MethodGet, "/form/api/v1/notifications/?unread=true", admin, nil, "")
	decode(t, rec, &listed)
	if len(listed.Data) != 2 {
		t.Fatalf("unread = %d, want 2", len(listed.Data))
	}

	rec = call(t, srv, http.MethodPost, "/form/api/v1/notifications/"+listed.Data[0].ID+"/read/", admin, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("mark read status = %d", rec.Code)
	}
	if got := srv.Inbox().UnreadCount(); got != 1 {
		t.Fatalf("unread after mark = %d", got)
	}

	rec = call(t, srv, http.MethodPost, "/form/api/v1/notifications/nope/read/", admin, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown notification status = %d", rec.Code)
	}

	rec = call(t, srv, http.MethodPost, "/form/api/v1/notifications/read_all/", admin, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("read all status = %d", rec.Code)
	}
	if got := srv.Inbox().UnreadCount(); got != 0 {
		t.Fatalf("unread after read all = %d", got)
	}
}

func TestRegister(t *testing.T) {
	srv := newServer(t)
	base := map[string]string{
		"first_name":       "Mary",
		"last_name":        "Somerville",
		"email":            "mary@example.com",
		"phone_number":     "+447700900123",
		"role":             "client",
		"password":         "secret-pass-1",
		"confirm_password": "secret-pass-1",
	}
	with := func(key, value string) map[string]string {
		out := make(map[string]string, len(base))
		for k, v := range base {
			out[k] = v
		}
		out[key] = value
		return out
	}

	rec := callJSON(t, srv, http.MethodPost, "/auth/api/v1/register/", "", with("confirm_password", "other"))
	var mismatch map[string]string
	decode(t, rec, &mismatch)
	if rec.Code != http.StatusBadRequest || mismatch["password"] != "Passwords do not match" {
		t.Fatalf("mismatch = %d %v", rec.Code, mismatch)
	}

	rec = callJSON(t, srv, http.MethodPost, "/auth/api/v1/register/", "", with("role", "owner"))
	var invalid fieldEnvelope
	decode(t, rec, &invalid)
	if rec.Code != http.StatusBadRequest || invalid.Message != "Failed to create user" || len(invalid.Data["role"]) != 1 {
		t.Fatalf("invalid role = %d %+v", rec.Code, invalid)
	}

	rec = callJSON(t, srv, http.MethodPost, "/auth/api/v1/register/", "", base)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}
	var created struct {
		Message string `json:"message"`
		Data    struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"data"`
	}
	decode(t, rec, &created)
	if created.Message != "User Created Successfully" || created.Data.Username != "mary" || created.Data.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	rec = callJSON(t, srv, http.MethodPost, "/auth/api/v1/register/", "", base)
	var duplicate fieldEnvelope
	decode(t, rec, &duplicate)
	if diff := cmp.Diff([]string{"custom user with this email already exists."}, duplicate.Data["email"]); diff != "" {
		t.Fatalf("duplicate mismatch (-want +got):\n%s", diff)
	}

	rec = callJSON(t, srv, http.MethodPost, "/auth/api/v1/login/", "", map[string]string{
		"email": "mary@example.com", "password": "secret-pass-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login after register = %d", rec.Code)
	}
}

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-onboard/pkg/session"
)

// Endpoint paths relative to the base URL.
const (
	PathForms         = "/form/api/v1/forms/"
	PathMySubmissions = "/form/api/v1/my_submissions/"
	PathSubmissions   = "/form/api/v1/submissions/"
	PathLogin         = "/auth/api/v1/login/"
	PathRegister      = "/auth/api/v1/register/"
)

// Client talks to the onboarding API on behalf of one session.
type Client struct {
	baseURL *url.URL
	session *session.Session
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a client for baseURL. A nil session uses an in-memory one.
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", baseURL)
	}
	if sess == nil {
		sess = session.New(nil)
	}

	c := &Client{
		baseURL: parsed,
		session: sess,
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Session exposes the session the client reads tokens from.
func (c *Client) Session() *session.Session {
	return c.session
}

type authMode int

const (
	authNone authMode = iota
	authOptional
	authRequired
)

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	auth        authMode
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do performs req and returns the body of a 2xx response. Non-2xx responses
// become *APIError.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, req.method, c.endpoint(req.path), req.body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	if req.auth != authNone {
		token, err := c.session.AccessToken()
		switch {
		case err == nil:
			httpReq.Header.Set("Authorization", "Bearer "+token)
		case errors.Is(err, session.ErrNoToken):
			if req.auth == authRequired {
				return nil, ErrUnauthenticated
			}
		default:
			return nil, fmt.Errorf("apiclient: read token: %w", err)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", req.method, req.path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read %s %s: %w", req.method, req.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{
			Method: req.method,
			Path:   req.path,
			Status: resp.StatusCode,
			Body:   string(body),
			Detail: detailOf(body),
		}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, auth authMode, out any) error {
	body, err := c.do(ctx, request{method: http.MethodGet, path: path, auth: auth})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("apiclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, auth authMode, in any) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode %s: %w", path, err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		auth:        auth,
	})
}

func detailOf(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}

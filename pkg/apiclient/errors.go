package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated is returned when no access token is available or the
	// server answered 401.
	ErrUnauthenticated = errors.New("apiclient: not authenticated")
	// ErrBaseURLRequired is returned by New without a base URL.
	ErrBaseURLRequired = errors.New("apiclient: base url is required")
)

// APIError is a non-2xx response. Body is the response text verbatim;
// Detail carries the server's "detail" or "message" when present.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
	Detail string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if e.Detail != "" {
		msg = e.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("apiclient: %s %s: %d: %s", e.Method, e.Path, e.Status, msg)
}

// Is lets errors.Is(err, ErrUnauthenticated) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// FieldErrors carries per-field validation messages keyed by camelCase field
// names, either from local checks or from a 400 response.
type FieldErrors struct {
	Message string
	Fields  map[string][]string
}

func (e *FieldErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(parts) == 0 {
		return "apiclient: " + msg
	}
	return "apiclient: " + msg + ": " + strings.Join(parts, "; ")
}

// First returns the first message recorded for field, or "".
func (e *FieldErrors) First(field string) string {
	if e == nil || len(e.Fields[field]) == 0 {
		return ""
	}
	return e.Fields[field][0]
}

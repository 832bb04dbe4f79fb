// Package mockapi is an in-memory implementation of the onboarding REST API.
// It backs the apiclient tests and the onboard-mock command.
package mockapi

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/notify"
)

// DefaultSecret signs tokens when WithSecret is not used.
const DefaultSecret = "onboard-mock-secret"

// Server holds the mock state and its router.
type Server struct {
	mu          sync.Mutex
	forms       []model.FormDefinition
	accounts    map[string]Account
	submissions []model.SubmissionRecord
	nextUserID  int

	inbox   *notify.Inbox
	builder *notify.Builder
	secret  []byte
	now     func() time.Time
	logger  *slog.Logger
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithForms replaces the seed forms.
func WithForms(forms ...model.FormDefinition) Option {
	return func(s *Server) {
		s.forms = append([]model.FormDefinition(nil), forms...)
	}
}

// WithAccounts adds accounts, replacing existing ones with the same email.
func WithAccounts(accounts ...Account) Option {
	return func(s *Server) {
		for _, account := range accounts {
			s.accounts[strings.ToLower(account.Email)] = account
		}
	}
}

// WithSecret sets the HMAC secret used to sign tokens.
func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithClock sets the clock used for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the request and event logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBuilder replaces the notification builder.
func WithBuilder(builder *notify.Builder) Option {
	return func(s *Server) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// New builds a server seeded with the bundled forms and accounts.
func New(opts ...Option) (*Server, error) {
	forms, err := SeedForms()
	if err != nil {
		return nil, err
	}

	s := &Server{
		forms: forms,
		accounts: map[string]Account{
			AdminAccount.Email:  AdminAccount,
			ClientAccount.Email: ClientAccount,
		},
		nextUserID: 100,
		inbox:      notify.NewInbox(),
		secret:     []byte(DefaultSecret),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.builder == nil {
		builder, err := notify.NewBuilder(notify.WithClock(s.now))
		if err != nil {
			return nil, err
		}
		s.builder = builder
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Inbox exposes the admin notifications emitted by the server.
func (s *Server) Inbox() *notify.Inbox {
	return s.inbox
}

// Submissions returns a copy of every stored submission, newest first.
func (s *Server) Submissions() []model.SubmissionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.SubmissionRecord(nil), s.submissions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

// Forms returns a copy of the served forms.
func (s *Server) Forms() []model.FormDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.FormDefinition(nil), s.forms...)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/auth/api/v1", func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)
	})

	r.Route("/form/api/v1", func(r chi.Router) {
		r.Get("/forms/", s.handleListForms)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/my_submissions/", s.handleMySubmissions)
			r.Post("/submissions/", s.handleCreateSubmission)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/submissions/", s.handleListSubmissions)
				r.Patch("/submissions/{id}/", s.handleReviewSubmission)
				r.Get("/notifications/", s.handleListNotifications)
				r.Post("/notifications/read_all/", s.handleMarkAllRead)
				r.Post("/notifications/{id}/read/", s.handleMarkRead)
			})
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("mockapi: request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) formByID(id string) (model.FormDefinition, bool) {
	for _, form := range s.forms {
		if form.ID == id {
			return form, true
		}
	}
	return model.FormDefinition{}, false
}

func (s *Server) submissionIndex(id string) int {
	for i, record := range s.submissions {
		if record.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) allocateUserID() string {
	s.nextUserID++
	return strconv.Itoa(s.nextUserID)
}

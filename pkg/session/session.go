// Package session holds the authenticated client state (tokens and the
// current user) behind an explicit object. Values are read through the Store
// on every call; nothing is cached in memory.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Keys used in the Store.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCurrentUser  = "currentUser"
	KeyTenantID     = "tenant_id"
)

// ErrNoToken is returned when no access token is stored.
var ErrNoToken = errors.New("session: no access token")

// Tokens is the pair returned by the login endpoint.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// User is the display identity decoded from the access token.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
}

// Session is the single read-through accessor for persisted client state.
type Session struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for non-fatal token decode failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps store. A nil store falls back to a MemoryStore.
func New(store Store, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{store: store, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// AccessToken returns the stored bearer token or ErrNoToken.
func (s *Session) AccessToken() (string, error) {
	return s.required(KeyAccessToken)
}

// RefreshToken returns the stored refresh token or ErrNoToken.
func (s *Session) RefreshToken() (string, error) {
	return s.required(KeyRefreshToken)
}

// TenantID returns the stored tenant identifier, "" when unknown.
func (s *Session) TenantID() (string, error) {
	value, _, err := s.store.Get(KeyTenantID)
	return value, err
}

// CurrentUser returns the stored user. The boolean is false when nobody is
// logged in.
func (s *Session) CurrentUser() (User, bool, error) {
	raw, ok, err := s.store.Get(KeyCurrentUser)
	if err != nil || !ok || raw == "" {
		return User{}, false, err
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return User{}, false, fmt.Errorf("session: decode current user: %w", err)
	}
	return user, true, nil
}

// SaveLogin replaces the stored login with tokens and the user decoded from
// the access token. Values from an earlier login never survive. A token that
// cannot be decoded is still stored; the failure is only logged.
func (s *Session) SaveLogin(tokens Tokens) (User, error) {
	if strings.TrimSpace(tokens.Access) == "" {
		return User{}, ErrNoToken
	}
	if err := s.store.Clear(); err != nil {
		return User{}, fmt.Errorf("session: clear previous login: %w", err)
	}
	if err := s.store.Set(KeyAccessToken, tokens.Access); err != nil {
		return User{}, err
	}
	if tokens.Refresh != "" {
		if err := s.store.Set(KeyRefreshToken, tokens.Refresh); err != nil {
			return User{}, err
		}
	}

	user, err := DecodeUser(tokens.Access)
	if err != nil {
		s.logger.Warn("session: decode access token", slog.Any("error", err))
		return User{}, nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("session: encode current user: %w", err)
	}
	if err := s.store.Set(KeyCurrentUser, string(raw)); err != nil {
		return User{}, err
	}
	if user.TenantID != "" {
		if err := s.store.Set(KeyTenantID, user.TenantID); err != nil {
			return User{}, err
		}
	}
	return user, nil
}

// Logout removes every stored value.
func (s *Session) Logout() error {
	return s.store.Clear()
}

func (s *Session) required(key string) (string, error) {
	value, ok, err := s.store.Get(key)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return "", ErrNoToken
	}
	return value, nil
}

// DecodeUser extracts the display identity from a JWT without verifying its
// signature; the issuing server is the trust boundary.
func DecodeUser(token string) (User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return User{}, fmt.Errorf("session: parse token: %w", err)
	}

	user := User{
		Username: claimString(claims, "username"),
		Email:    claimString(claims, "email"),
		Role:     claimString(claims, "role"),
		TenantID: claimString(claims, "tenant_id"),
	}
	if user.Username == "" {
		user.Username = user.Email
	}
	if user.Username == "" {
		if sub, err := claims.GetSubject(); err == nil {
			user.Username = sub
		}
	}
	return user, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

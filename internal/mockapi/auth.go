package mockapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are carried by the access tokens the mock issues.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

const (
	accessTTL  = time.Hour
	refreshTTL = 24 * time.Hour
)

// IssueTokens signs an access and refresh token for account.
func (s *Server) IssueTokens(account Account) (access, refresh string, err error) {
	now := s.now()
	claims := Claims{
		UserID:   account.ID,
		Username: account.Username,
		Email:    account.Email,
		Role:     account.Role,
		TenantID: account.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.RegisteredClaims{
		Subject:   account.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Server) validateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.validateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := claimsFrom(r.Context()); claims == nil || claims.Role != "admin" {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Username) == "" {
		fields["email"] = []string{"This field is required."}
	}
	if req.Password == "" {
		fields["password"] = []string{"This field is required."}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	account, ok := s.findAccount(req.Email, req.Username)
	if !ok || account.Password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, refresh, err := s.IssueTokens(account)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) findAccount(email, username string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[strings.ToLower(strings.TrimSpace(email))]; ok {
		return account, true
	}
	for _, account := range s.accounts {
		if username != "" && account.Username == username {
			return account, true
		}
	}
	return Account{}, false
}

type registerRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	CompanyName     string `json:"company_name"`
	Role            string `json:"role"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type userResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"password": "Passwords do not match"})
		return
	}

	fields := map[string][]string{}
	required := map[string]string{
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"email":        req.Email,
		"phone_number": req.PhoneNumber,
		"role":         req.Role,
		"password":     req.Password,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			fields[key] = []string{"This field is required."}
		}
	}
	if req.Role != "" && req.Role != "admin" && req.Role != "client" {
		fields["role"] = []string{`"` + req.Role + `" is not a valid choice.`}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists && email != "" {
		fields["email"] = []string{"custom user with this email already exists."}
	}
	if len(fields) > 0 {
		writeFieldErrors(w, "Failed to create user", fields)
		return
	}

	account := Account{
		ID:          s.allocateUserID(),
		Username:    req.Username,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       email,
		PhoneNumber: req.PhoneNumber,
		CompanyName: req.CompanyName,
		Role:        req.Role,
		Password:    req.Password,
		TenantID:    "1",
	}
	if account.Username == "" {
		account.Username = strings.SplitN(email, "@", 2)[0]
	}
	s.accounts[email] = account
	s.logger.Info("mockapi: user registered", slog.String("email", email), slog.String("role", account.Role))

	writeJSON(w, http.StatusCreated, envelope{
		Message: "User Created Successfully",
		Data: userResponse{
			ID:          account.ID,
			FirstName:   account.FirstName,
			LastName:    account.LastName,
			Username:    account.Username,
			Email:       account.Email,
			PhoneNumber: account.PhoneNumber,
			CompanyName: account.CompanyName,
			Role:        account.Role,
		},
	})
}

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-onboard/pkg/session"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Username        string `json:"username,omitempty" validate:"omitempty,max=100"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required,e164"`
	CompanyName     string `json:"company_name,omitempty" validate:"max=255"`
	Role            string `json:"role" validate:"required,oneof=admin client"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// RegisteredUser is the created user echoed by the register endpoint.
type RegisteredUser struct {
	ID          flexID `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
}

var (
	registerValidatorOnce sync.Once
	registerValidator     *validator.Validate
)

func requestValidator() *validator.Validate {
	registerValidatorOnce.Do(func() {
		registerValidator = validator.New(validator.WithRequiredStructEnabled())
		registerValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return snakeToCamel(name)
		})
	})
	return registerValidator
}

// Validate runs the local checks Register performs before any request.
func (r RegisterRequest) Validate() error {
	err := requestValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("apiclient: validate registration: %w", err)
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], registrationMessage(fe))
	}
	return &FieldErrors{Message: "invalid registration", Fields: fields}
}

func registrationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "e164":
		return "Enter a phone number in international format"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Invalid value"
	}
}

// Login exchanges credentials for tokens and stores them in the session.
func (c *Client) Login(ctx context.Context, email, password string) (session.User, error) {
	body, err := c.postJSON(ctx, PathLogin, authNone, map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Detail == "" {
			if fields := decodeFieldErrors(body); len(fields) > 0 {
				return session.User{}, &FieldErrors{Message: "login failed", Fields: fields}
			}
		}
		return session.User{}, err
	}

	var tokens session.Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return session.User{}, fmt.Errorf("apiclient: decode login: %w", err)
	}
	if tokens.Access == "" {
		var wrapped envelope[session.Tokens]
		if err := json.Unmarshal(body, &wrapped); err == nil {
			tokens = wrapped.Data
		}
	}
	return c.session.SaveLogin(tokens)
}

// Register validates req locally and creates the account. A 400 response is
// returned as *FieldErrors keyed by camelCase field names.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisteredUser, error) {
	if err := req.Validate(); err != nil {
		return RegisteredUser{}, err
	}

	body, err := c.postJSON(ctx, PathRegister, authNone, req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			if fields := decodeFieldErrors(body); len(fields) > 0 {
				return RegisteredUser{}, &FieldErrors{Message: apiErr.Detail, Fields: fields}
			}
		}
		return RegisteredUser{}, err
	}

	var created envelope[RegisteredUser]
	if err := json.Unmarshal(body, &created); err != nil {
		return RegisteredUser{}, fmt.Errorf("apiclient: decode registration: %w", err)
	}
	return created.Data, nil
}

// decodeFieldErrors reads per-field messages from either the {data: {...}}
// envelope or a top-level object. Values may be a string or a list.
func decodeFieldErrors(body []byte) map[string][]string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil
	}
	source := top
	if nested, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			source = inner
		}
	}

	fields := make(map[string][]string)
	for key, raw := range source {
		if key == "message" || key == "detail" || key == "data" {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			var single string
			if err := json.Unmarshal(raw, &single); err != nil {
				continue
			}
			list = []string{single}
		}
		if len(list) > 0 {
			fields[snakeToCamel(key)] = list
		}
	}
	return fields
}

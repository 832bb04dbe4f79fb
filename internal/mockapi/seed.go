package mockapi

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-onboard/pkg/formdef"
	"github.com/goliatone/go-onboard/pkg/model"
)

//go:embed seed/*.yaml
var seedFiles embed.FS

// SeedFS returns the bundled form definitions.
func SeedFS() fs.FS {
	sub, err := fs.Sub(seedFiles, "seed")
	if err != nil {
		panic(err)
	}
	return sub
}

// SeedForms loads the bundled form definitions.
func SeedForms() ([]model.FormDefinition, error) {
	store, err := formdef.LoadFS(SeedFS())
	if err != nil {
		return nil, fmt.Errorf("mockapi: load seed forms: %w", err)
	}
	return store.Forms(), nil
}

// Account is a user known to the mock server.
type Account struct {
	ID          string
	Username    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	CompanyName string
	Role        string
	Password    string
	TenantID    string
}

// Name is the display name snapshotted on submissions.
func (a Account) Name() string {
	if a.FirstName == "" && a.LastName == "" {
		return a.Username
	}
	return a.FirstName + " " + a.LastName
}

// Seed accounts.
var (
	AdminAccount = Account{
		ID: "1", Username: "admin", FirstName: "Grace", LastName: "Hopper",
		Email: "admin@example.com", Role: "admin", Password: "admin-pass-123", TenantID: "1",
	}
	ClientAccount = Account{
		ID: "2", Username: "ada", FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Role: "client", Password: "client-pass-123", TenantID: "1",
	}
)

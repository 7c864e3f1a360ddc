// Package auth abstracts the identity collaborator. The real identity
// provider lives outside this repo; the coordinator only needs a stable
// user id and a way to fetch a revocable access token.
package auth

import (
	"context"
	"errors"
	"os"
)

// ErrNoToken is returned when no access token is configured.
var ErrNoToken = errors.New("no access token available")

// Provider supplies the authenticated user identity.
// An empty UserID means no session operations are permitted.
type Provider interface {
	// UserID returns the stable user identifier, or "" when signed out.
	UserID() string

	// Token returns a current access token for remote calls.
	Token(ctx context.Context) (string, error)
}

// StaticProvider is a Provider backed by fixed values, used by the CLI
// (configured user) and by tests.
type StaticProvider struct {
	userID string
	token  string
}

// NewStaticProvider creates a provider with a fixed user id and token.
func NewStaticProvider(userID, token string) *StaticProvider {
	return &StaticProvider{userID: userID, token: token}
}

// FromEnv builds a provider from RESTOCK_USER_ID and RESTOCK_TOKEN.
func FromEnv() *StaticProvider {
	return &StaticProvider{
		userID: os.Getenv("RESTOCK_USER_ID"),
		token:  os.Getenv("RESTOCK_TOKEN"),
	}
}

// UserID returns the configured user id.
func (p *StaticProvider) UserID() string { return p.userID }

// Token returns the configured token.
func (p *StaticProvider) Token(_ context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNoToken
	}
	return p.token, nil
}

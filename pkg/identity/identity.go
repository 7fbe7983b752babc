// Package identity verifies tokens issued by the external identity provider.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for any token the provider does not vouch for.
var ErrInvalidToken = errors.New("invalid federated token")

// ErrDisabled is returned when no provider is configured.
var ErrDisabled = errors.New("federated identity is not configured")

// Identity is the subset of provider claims used to find or provision a principal.
type Identity struct {
	Subject     string `json:"sub"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"picture"`
}

// Verifier checks a raw federated token.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

// Disabled rejects every token.
type Disabled struct{}

func (Disabled) Verify(context.Context, string) (Identity, error) {
	return Identity{}, ErrDisabled
}

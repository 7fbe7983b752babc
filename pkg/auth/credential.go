// Package auth parses bearer credentials into a tagged union so callers branch
// on the scheme explicitly instead of probing verifiers in turn.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	bearerPrefix    = "Bearer "
	compositeSep    = "|"
	compositeFields = 3
)

var (
	// ErrMissingCredential is returned when no bearer token was supplied.
	ErrMissingCredential = errors.New("missing bearer credential")
	// ErrMalformedComposite is returned for a `|`-delimited token that does not decode.
	ErrMalformedComposite = errors.New("malformed composite token")
)

type CredentialKind int

const (
	CredentialComposite CredentialKind = iota + 1
	CredentialFederated
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialComposite:
		return "composite"
	case CredentialFederated:
		return "federated"
	default:
		return "unknown"
	}
}

// Credential is the parsed form of a bearer token. Composite fields are set
// only when Kind is CredentialComposite.
type Credential struct {
	Kind        CredentialKind
	Raw         string
	Email       string
	PrincipalID uuid.UUID
	IssuedAt    time.Time
}

// BearerToken extracts the token from an Authorization header value. The
// scheme name is matched case-insensitively.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingCredential
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// ParseCredential classifies raw by the presence of the composite separator.
// Anything without `|` is handed to the federated verifier untouched.
func ParseCredential(raw string) (Credential, error) {
	if raw == "" {
		return Credential{}, ErrMissingCredential
	}
	if !strings.Contains(raw, compositeSep) {
		return Credential{Kind: CredentialFederated, Raw: raw}, nil
	}

	parts := strings.Split(raw, compositeSep)
	// The issuance timestamp was optional in older clients.
	if len(parts) < compositeFields-1 || len(parts) > compositeFields {
		return Credential{}, ErrMalformedComposite
	}
	email := parts[0]
	if email == "" || !strings.Contains(email, "@") {
		return Credential{}, ErrMalformedComposite
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: principal id", ErrMalformedComposite)
	}

	cred := Credential{
		Kind:        CredentialComposite,
		Raw:         raw,
		Email:       email,
		PrincipalID: id,
	}
	if len(parts) == compositeFields {
		millis, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || millis < 0 {
			return Credential{}, fmt.Errorf("%w: timestamp", ErrMalformedComposite)
		}
		cred.IssuedAt = time.UnixMilli(millis).UTC()
	}
	return cred, nil
}

// IssueToken builds the composite `email|principalID|unixMillis` token handed to clients.
func IssueToken(email string, principalID uuid.UUID, now time.Time) string {
	return strings.Join([]string{email, principalID.String(), strconv.FormatInt(now.UnixMilli(), 10)}, compositeSep)
}

// Stale reports whether a composite credential is older than maxAge.
// A non-positive maxAge disables the check.
func (c Credential) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 || c.Kind != CredentialComposite {
		return false
	}
	if c.IssuedAt.IsZero() {
		return true
	}
	return now.Sub(c.IssuedAt) > maxAge
}

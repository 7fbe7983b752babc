package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loredrop/campus-backend/internal/principals"
	pkgauth "github.com/loredrop/campus-backend/pkg/auth"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/models"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/identity"
	"github.com/loredrop/campus-backend/pkg/logger"
)

const unauthorizedMessage = "unauthorized"

// AuthenticatorParams wires the credential verifier.
type AuthenticatorParams struct {
	Principals principals.Repository
	Federated  identity.Verifier
	// TokenMaxAge enables a staleness check on composite tokens when positive.
	TokenMaxAge time.Duration
	Logger      *logger.Logger
}

// Authenticator resolves a bearer credential to exactly one principal.
type Authenticator struct {
	principals principals.Repository
	federated  identity.Verifier
	maxAge     time.Duration
	logg       *logger.Logger
	now        func() time.Time
}

func NewAuthenticator(params AuthenticatorParams) (*Authenticator, error) {
	if params.Principals == nil {
		return nil, errors.New("principals repository is required")
	}
	federated := params.Federated
	if federated == nil {
		federated = identity.Disabled{}
	}
	return &Authenticator{
		principals: params.Principals,
		federated:  federated,
		maxAge:     params.TokenMaxAge,
		logg:       params.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Authenticate parses raw and dispatches on its scheme. Every credential
// failure is the same unauthorized error with the cause only logged; a store
// failure is a dependency error so callers do not read an outage as a bad token.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*models.Principal, error) {
	cred, err := pkgauth.ParseCredential(raw)
	if err != nil {
		return nil, a.reject(ctx, "credential parse failed", err)
	}

	switch cred.Kind {
	case pkgauth.CredentialComposite:
		return a.composite(ctx, cred)
	case pkgauth.CredentialFederated:
		return a.federatedPrincipal(ctx, cred.Raw)
	default:
		return nil, a.reject(ctx, "unknown credential kind", nil)
	}
}

func (a *Authenticator) composite(ctx context.Context, cred pkgauth.Credential) (*models.Principal, error) {
	if cred.Stale(a.now(), a.maxAge) {
		return nil, a.reject(ctx, "composite token stale", nil)
	}
	p, err := a.principals.FindByID(ctx, cred.PrincipalID)
	if db.IsNotFound(err) {
		return nil, a.reject(ctx, "composite principal not found", err)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load principal")
	}
	if p.Email != cred.Email {
		return nil, a.reject(ctx, "composite email mismatch", nil)
	}
	return p, nil
}

// federatedPrincipal finds or provisions the principal for a provider identity.
// An existing principal is never overwritten; if provisioning collides on
// email with a principal that has no federated link, the token is rejected.
func (a *Authenticator) federatedPrincipal(ctx context.Context, raw string) (*models.Principal, error) {
	id, err := a.federated.Verify(ctx, raw)
	if err != nil {
		return nil, a.reject(ctx, "federated verification failed", err)
	}
	if id.Subject == "" || id.Email == "" {
		return nil, a.reject(ctx, "federated identity missing subject or email", nil)
	}

	p, err := a.principals.FindByFederatedID(ctx, id.Subject)
	if err == nil {
		return p, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load federated principal")
	}

	subject := id.Subject
	candidate := &models.Principal{
		Email:       strings.ToLower(id.Email),
		FederatedID: &subject,
		DisplayName: id.DisplayName,
		AvatarURL:   id.AvatarURL,
	}
	created, err := a.principals.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision federated principal")
	}
	if created {
		if a.logg != nil {
			a.logg.Info(a.logg.WithPrincipalID(ctx, candidate.ID.String()), "provisioned federated principal")
		}
		return candidate, nil
	}

	p, err = a.principals.FindByFederatedID(ctx, id.Subject)
	if db.IsNotFound(err) {
		return nil, a.reject(ctx, "federated principal conflicts with existing email", err)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load federated principal")
	}
	return p, nil
}

func (a *Authenticator) reject(ctx context.Context, reason string, cause error) error {
	if a.logg != nil {
		logCtx := a.logg.WithField(ctx, "reason", reason)
		if cause != nil {
			logCtx = a.logg.WithField(logCtx, "cause", cause.Error())
		}
		a.logg.Debug(logCtx, "authentication rejected")
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, unauthorizedMessage)
}

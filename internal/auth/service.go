package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/internal/principals"
	pkgauth "github.com/loredrop/campus-backend/pkg/auth"
	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/email"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
)

const (
	invalidCredentialsMessage = "invalid email or password"
	defaultSendTimeout        = 20 * time.Second
)

// Service implements the email-code signup state machine and password login.
type Service interface {
	SendVerificationCode(ctx context.Context, req SendCodeRequest) (*SendCodeResponse, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResponse, error)
	SetPassword(ctx context.Context, req SetPasswordRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	// Wait blocks until background email deliveries finish.
	Wait()
}

type codeLedger interface {
	Issue(ctx context.Context, email string) (*models.VerificationCode, error)
	Verify(ctx context.Context, email, code string) error
	Consume(ctx context.Context, tx *gorm.DB, email string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Config      config.AuthConfig
	EchoCode    bool
	SendTimeout time.Duration
	DB          txRunner
	Principals  principals.Repository
	Ledger      codeLedger
	Hasher      passwordHasher
	Email       email.Sender
	Logger      *logger.Logger
}

type service struct {
	cfg         config.AuthConfig
	echoCode    bool
	sendTimeout time.Duration
	tx          txRunner
	principals  principals.Repository
	ledger      codeLedger
	hasher      passwordHasher
	email       email.Sender
	logg        *logger.Logger
	now         func() time.Time
	deliveries  sync.WaitGroup
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Principals == nil {
		return nil, fmt.Errorf("principals repository is required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("verification ledger is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := params.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &service{
		cfg:         params.Config,
		echoCode:    params.EchoCode,
		sendTimeout: timeout,
		tx:          params.DB,
		principals:  params.Principals,
		ledger:      params.Ledger,
		hasher:      params.Hasher,
		email:       params.Email,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) SendVerificationCode(ctx context.Context, req SendCodeRequest) (*SendCodeResponse, error) {
	addr, err := s.institutionalEmail(req.Email)
	if err != nil {
		return nil, err
	}

	code, err := s.ledger.Issue(ctx, addr)
	if err != nil {
		return nil, err
	}

	s.deliveries.Add(1)
	go s.deliver(context.WithoutCancel(ctx), addr, code.Code)

	resp := &SendCodeResponse{Success: true, Message: "Verification code sent to email"}
	if s.echoCode {
		resp.Code = code.Code
	}
	return resp, nil
}

// deliver never reports back to the request; failures leave the code in the log.
func (s *service) deliver(ctx context.Context, addr, code string) {
	defer s.deliveries.Done()

	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	logCtx := s.logg.WithField(ctx, "email", addr)

	if s.email == nil {
		s.logg.Warn(s.logg.WithField(logCtx, "code", code), "no email provider configured; verification code fallback")
		return
	}
	delivered, err := s.email.Send(ctx, addr, code)
	switch {
	case err != nil:
		s.logg.Error(logCtx, "verification email failed", err)
		s.logg.Warn(s.logg.WithField(logCtx, "code", code), "verification code fallback")
	case !delivered:
		s.logg.Warn(s.logg.WithField(logCtx, "code", code), "verification email not delivered; verification code fallback")
	default:
		s.logg.Info(logCtx, "verification email delivered")
	}
}

func (s *service) Wait() {
	s.deliveries.Wait()
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResponse, error) {
	addr := normalizeEmail(req.Email)
	if addr == "" || strings.TrimSpace(req.Code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields: email and code")
	}
	if err := s.ledger.Verify(ctx, addr, req.Code); err != nil {
		return nil, err
	}

	resp := &VerifyCodeResponse{Success: true, Message: "Email verified successfully", NeedsPassword: true}

	p, err := s.principals.FindByEmail(ctx, addr)
	if err != nil {
		if db.IsNotFound(err) {
			return resp, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load principal")
	}
	if !p.HasPassword() {
		dto := principals.FromModel(p)
		resp.User = &dto
		return resp, nil
	}

	// the code is spent on this sign-in
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.Consume(ctx, tx, addr)
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume verification code")
		}
		return nil, err
	}
	token, dto, err := s.signIn(ctx, p)
	if err != nil {
		return nil, err
	}
	resp.NeedsPassword = false
	resp.Token = token
	resp.User = dto
	return resp, nil
}

func (s *service) SetPassword(ctx context.Context, req SetPasswordRequest) (*AuthResponse, error) {
	addr := normalizeEmail(req.Email)
	if addr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(req.Password) < s.minPasswordLength() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", s.minPasswordLength()))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var p *models.Principal
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.Consume(ctx, tx, addr); err != nil {
			return err
		}
		repo := s.principals.WithTx(tx)
		found, err := findOrCreateByEmail(ctx, repo, addr)
		if err != nil {
			return err
		}
		if err := repo.SetPasswordHash(ctx, found.ID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
		}
		p = found
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set password")
		}
		return nil, err
	}
	p.PasswordHash = &hash

	token, dto, err := s.signIn(ctx, p)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Success: true, Message: "Password set successfully", Token: token, User: dto}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	addr, err := s.institutionalEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing email or password")
	}

	p, err := s.principals.FindByEmail(ctx, addr)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load principal")
	}
	if !p.HasPassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := s.hasher.Verify(req.Password, *p.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, dto, err := s.signIn(ctx, p)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Success: true, Message: "Login successful", Token: token, User: dto}, nil
}

func (s *service) signIn(ctx context.Context, p *models.Principal) (string, *principals.PrincipalDTO, error) {
	now := s.now()
	if err := s.principals.TouchLastLogin(ctx, p.ID, now); err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	p.LastLoginAt = &now
	dto := principals.FromModel(p)
	return pkgauth.IssueToken(p.Email, p.ID, now), &dto, nil
}

// findOrCreateByEmail provisions a student principal; a concurrent creator wins
// and its row is reused.
func findOrCreateByEmail(ctx context.Context, repo principals.Repository, addr string) (*models.Principal, error) {
	p, err := repo.FindByEmail(ctx, addr)
	if err == nil {
		return p, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load principal")
	}

	local := addr
	if at := strings.Index(addr, "@"); at > 0 {
		local = addr[:at]
	}
	candidate := &models.Principal{Email: addr, DisplayName: local}
	created, err := repo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create principal")
	}
	if created {
		return candidate, nil
	}
	p, err = repo.FindByEmail(ctx, addr)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload principal")
	}
	return p, nil
}

func (s *service) institutionalEmail(raw string) (string, error) {
	addr := normalizeEmail(raw)
	suffix := strings.ToLower(s.cfg.EmailDomain)
	if addr == "" || (suffix != "" && !strings.HasSuffix(addr, suffix)) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid institutional email address")
	}
	return addr, nil
}

func (s *service) minPasswordLength() int {
	if s.cfg.MinPasswordLength > 0 {
		return s.cfg.MinPasswordLength
	}
	return 6
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

package auth

import "github.com/loredrop/campus-backend/internal/principals"

// SendCodeRequest asks for a verification code to be mailed to Email.
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SendCodeResponse acknowledges issuance. Code is only populated in dev.
type SendCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// VerifyCodeRequest submits the mailed code.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyCodeResponse tells the client whether password setup is still needed.
// Token is present only when the principal already has a password.
type VerifyCodeResponse struct {
	Success       bool                     `json:"success"`
	Message       string                   `json:"message"`
	NeedsPassword bool                     `json:"needsPassword"`
	Token         string                   `json:"token,omitempty"`
	User          *principals.PrincipalDTO `json:"user,omitempty"`
}

type SetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the composite token issued after password setup or login.
type AuthResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Token   string                   `json:"token"`
	User    *principals.PrincipalDTO `json:"user"`
}

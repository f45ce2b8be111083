package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode"

	"order-desk-backend/internal/models"
)

// AuthProvider is the hosted auth service. Token-bound calls take the
// caller's access token.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password, fullName string) (*models.AuthResponse, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	SendPasswordReset(ctx context.Context, email string) error
	ResendVerification(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
	SignOut(ctx context.Context, accessToken string) error
}

type AuthService struct {
	provider AuthProvider
}

func NewAuthService(provider AuthProvider) *AuthService {
	return &AuthService{provider: provider}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	email, err := validateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(req.FullName)
	if len([]rune(fullName)) < 2 {
		return nil, invalid("full_name", "name must be at least 2 characters")
	}

	resp, err := s.provider.SignUp(ctx, email, req.Password, fullName)
	if err != nil {
		return nil, backend("sign up", err)
	}
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email, err := validateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < 6 {
		return nil, invalid("password", "password must be at least 6 characters")
	}

	resp, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		return nil, backend("sign in", err)
	}
	return resp, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, invalid("refresh_token", "refresh token is required")
	}
	resp, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, backend("refresh session", err)
	}
	return resp, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email, err := validateEmail(email)
	if err != nil {
		return err
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return backend("send password reset", err)
	}
	return nil
}

// ResendVerification sends a new confirmation link to an account that has
// not verified its email yet.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email, err := validateEmail(email)
	if err != nil {
		return err
	}
	if err := s.provider.ResendVerification(ctx, email); err != nil {
		return backend("resend verification", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, accessToken string, req models.ResetPasswordRequest) error {
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}
	if err := s.provider.UpdatePassword(ctx, accessToken, req.Password); err != nil {
		return backend("update password", err)
	}
	return nil
}

func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return backend("sign out", err)
	}
	return nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "invalid email")
	}
	return email, nil
}

// validatePassword requires six characters with at least one lower case
// letter, one upper case letter and one digit.
func validatePassword(password, confirm string) error {
	if len(password) < 6 {
		return invalid("password", "password must be at least 6 characters")
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return invalid("password", "password must contain an upper case letter, a lower case letter and a number")
	}
	if password != confirm {
		return invalid("confirm_password", "passwords do not match")
	}
	return nil
}

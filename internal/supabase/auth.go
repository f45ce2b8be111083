package supabase

import (
	"context"
	"fmt"

	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"order-desk-backend/internal/models"
)

// AuthClient proxies the account flows to Supabase Auth (GoTrue).
type AuthClient struct {
	auth gotrue.Client
}

func NewAuthClient(auth gotrue.Client) *AuthClient {
	return &AuthClient{auth: auth}
}

func (a *AuthClient) SignUp(ctx context.Context, email, password, fullName string) (*models.AuthResponse, error) {
	resp, err := a.auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"full_name": fullName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	// With email confirmation enabled only the user is returned.
	if resp.Session.AccessToken != "" {
		return sessionResponse(resp.Session), nil
	}
	return &models.AuthResponse{
		UserID: fmt.Sprint(resp.User.ID),
		Email:  resp.User.Email,
	}, nil
}

func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	resp, err := a.auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return sessionResponse(resp.Session), nil
}

func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	resp, err := a.auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return sessionResponse(resp.Session), nil
}

func (a *AuthClient) SendPasswordReset(ctx context.Context, email string) error {
	if err := a.auth.Recover(types.RecoverRequest{Email: email}); err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}
	return nil
}

// ResendVerification requests a new email link for the address. For an
// unconfirmed account, following the link confirms the email.
func (a *AuthClient) ResendVerification(ctx context.Context, email string) error {
	if err := a.auth.Magiclink(types.MagiclinkRequest{Email: email}); err != nil {
		return fmt.Errorf("failed to resend verification email: %w", err)
	}
	return nil
}

func (a *AuthClient) UpdatePassword(ctx context.Context, accessToken, password string) error {
	_, err := a.auth.WithToken(accessToken).UpdateUser(types.UpdateUserRequest{
		Password: &password,
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if err := a.auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func sessionResponse(s types.Session) *models.AuthResponse {
	return &models.AuthResponse{
		UserID:       fmt.Sprint(s.User.ID),
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    int(s.ExpiresIn),
		ExpiresAt:    int64(s.ExpiresAt),
	}
}

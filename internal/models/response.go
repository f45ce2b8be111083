package models

type OrderListResponse struct {
	Orders []Order `json:"orders"`
}

type ProgressListResponse struct {
	Entries []ProgressEntry `json:"entries"`
}

type ProgressResponse struct {
	Order *Order         `json:"order"`
	Entry *ProgressEntry `json:"entry"`
}

type ProfileListResponse struct {
	Profiles []Profile `json:"profiles"`
}

// AuthResponse carries the session issued by the auth service. Tokens are
// empty when sign-up requires email confirmation first.
type AuthResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

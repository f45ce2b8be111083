package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"order-desk-backend/internal/config"
)

// Client bundles the hosted Supabase services the API proxies to: Auth for
// account flows and Storage for avatars. Orders and profiles go through
// DatabaseClient instead.
type Client struct {
	Supabase *supabase.Client
	Auth     *AuthClient
	Storage  *StorageClient
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}

	storage, err := NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseAvatarBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	return &Client{
		Supabase: client,
		Auth:     NewAuthClient(client.Auth),
		Storage:  storage,
	}, nil
}

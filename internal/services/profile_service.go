package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/repository"
)

// Identity is what the auth token tells us about the caller.
type Identity struct {
	UserID        uuid.UUID
	Email         string
	EmailVerified bool
	FullName      string
}

// Session is the per-request caller context: the verified identity and its
// application profile.
type Session struct {
	Identity
	Profile *models.Profile
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Profile != nil && s.Profile.Role == models.RoleAdmin
}

// ProfileCache keeps resolved profiles between requests. A nil cache is valid.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Set(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AvatarStore uploads avatar images and returns their public URL.
type AvatarStore interface {
	UploadAvatar(userID uuid.UUID, filename, contentType string, data []byte) (string, error)
}

var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileService struct {
	profiles repository.Profiles
	cache    ProfileCache
	avatars  AvatarStore
}

func NewProfileService(profiles repository.Profiles, cache ProfileCache, avatars AvatarStore) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		cache:    cache,
		avatars:  avatars,
	}
}

// Resolve returns the session for identity, creating the profile on first
// access.
func (s *ProfileService) Resolve(ctx context.Context, identity Identity) (*Session, error) {
	if s.cache != nil {
		if p, err := s.cache.Get(ctx, identity.UserID); err == nil && p != nil {
			return &Session{Identity: identity, Profile: p}, nil
		} else if err != nil {
			log.Printf("profile cache get failed for %s: %v", identity.UserID, err)
		}
	}

	profile, err := s.profiles.GetProfile(ctx, identity.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		profile, err = s.profiles.CreateProfile(ctx, newProfile(identity))
	}
	if err != nil {
		return nil, backend("resolve profile", err)
	}

	s.remember(ctx, profile)
	return &Session{Identity: identity, Profile: profile}, nil
}

func newProfile(identity Identity) *models.Profile {
	name := strings.TrimSpace(identity.FullName)
	if name == "" {
		name = identity.Email
	}
	return &models.Profile{
		ID:       identity.UserID,
		Email:    identity.Email,
		FullName: name,
		Role:     models.RoleWorker,
	}
}

func (s *ProfileService) UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if len([]rune(fullName)) < 2 {
		return nil, invalid("full_name", "name must be at least 2 characters")
	}
	return s.update(ctx, id, models.ProfilePatch{FullName: &fullName})
}

func (s *ProfileService) UploadAvatar(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*models.Profile, error) {
	if s.avatars == nil {
		return nil, backend("upload avatar", errors.New("avatar storage not configured"))
	}
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, invalid("avatar", "avatar must be a jpeg, png or webp image")
	}
	if len(data) == 0 {
		return nil, invalid("avatar", "avatar file is empty")
	}
	url, err := s.avatars.UploadAvatar(id, fmt.Sprintf("%s%s", uuid.NewString(), ext), contentType, data)
	if err != nil {
		return nil, backend("upload avatar", err)
	}
	return s.update(ctx, id, models.ProfilePatch{AvatarURL: &url})
}

func (s *ProfileService) update(ctx context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.Profile, error) {
	profile, err := s.profiles.UpdateProfile(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, backend("update profile", err)
	}
	s.forget(ctx, id)
	return profile, nil
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, backend("list profiles", err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, nil
}

func (s *ProfileService) WorkerStats(ctx context.Context, id uuid.UUID) (*models.WorkerStats, error) {
	stats, err := s.profiles.GetWorkerStats(ctx, id)
	if err != nil {
		return nil, backend("worker stats", err)
	}
	return stats, nil
}

func (s *ProfileService) remember(ctx context.Context, p *models.Profile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		log.Printf("profile cache set failed for %s: %v", p.ID, err)
	}
}

func (s *ProfileService) forget(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		log.Printf("profile cache delete failed for %s: %v", id, err)
	}
}

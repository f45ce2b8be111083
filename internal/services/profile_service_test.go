package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/repository"
	"order-desk-backend/internal/services"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]models.Profile
	gets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[uuid.UUID]models.Profile)}
}

func (c *mapCache) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	p, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *mapCache) Set(ctx context.Context, p *models.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = *p
	return nil
}

func (c *mapCache) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

type fakeAvatars struct {
	uploads  int
	filename string
	err      error
}

func (a *fakeAvatars) UploadAvatar(userID uuid.UUID, filename, contentType string, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.uploads++
	a.filename = filename
	return "https://cdn.example.com/avatars/" + userID.String() + "/" + filename, nil
}

func TestResolve_CreatesWorkerProfile(t *testing.T) {
	store := repository.NewMemory()
	svc := services.NewProfileService(store, nil, nil)
	ctx := context.Background()
	id := uuid.New()

	session, err := svc.Resolve(ctx, services.Identity{UserID: id, Email: "rosa@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, session.Profile.Role)
	assert.Equal(t, "rosa@example.com", session.Profile.FullName)
	assert.False(t, session.IsAdmin())

	again, err := svc.Resolve(ctx, services.Identity{UserID: id, Email: "rosa@example.com", FullName: "Rosa Díaz"})
	require.NoError(t, err)
	assert.Equal(t, "rosa@example.com", again.Profile.FullName, "existing profile is not overwritten")
}

func TestResolve_UsesFullNameFromToken(t *testing.T) {
	svc := services.NewProfileService(repository.NewMemory(), nil, nil)

	session, err := svc.Resolve(context.Background(), services.Identity{UserID: uuid.New(), Email: "x@example.com", FullName: " Rosa Díaz "})
	require.NoError(t, err)
	assert.Equal(t, "Rosa Díaz", session.Profile.FullName)
}

func TestResolve_AdminFromStore(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()
	id := uuid.New()
	_, err := store.CreateProfile(ctx, &models.Profile{ID: id, Email: "boss@example.com", FullName: "Boss", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc := services.NewProfileService(store, nil, nil)
	session, err := svc.Resolve(ctx, services.Identity{UserID: id})
	require.NoError(t, err)
	assert.True(t, session.IsAdmin())
}

func TestResolve_CacheHitAndInvalidation(t *testing.T) {
	store := repository.NewMemory()
	cache := newMapCache()
	svc := services.NewProfileService(store, cache, nil)
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.Resolve(ctx, services.Identity{UserID: id, Email: "ana@example.com"})
	require.NoError(t, err)
	_, cached := cache.entries[id]
	assert.True(t, cached)

	_, err = svc.UpdateFullName(ctx, id, "Ana María")
	require.NoError(t, err)
	_, cached = cache.entries[id]
	assert.False(t, cached, "update evicts the cached profile")

	session, err := svc.Resolve(ctx, services.Identity{UserID: id})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", session.Profile.FullName)
}

func TestUpdateFullName_Validation(t *testing.T) {
	svc := services.NewProfileService(repository.NewMemory(), nil, nil)

	_, err := svc.UpdateFullName(context.Background(), uuid.New(), " A ")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.UpdateFullName(context.Background(), uuid.New(), "Nobody")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUploadAvatar(t *testing.T) {
	store := repository.NewMemory()
	avatars := &fakeAvatars{}
	svc := services.NewProfileService(store, nil, avatars)
	ctx := context.Background()
	id := uuid.New()
	_, err := svc.Resolve(ctx, services.Identity{UserID: id, Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = svc.UploadAvatar(ctx, id, "image/gif", []byte("GIF89a"))
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.UploadAvatar(ctx, id, "image/png", nil)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, 0, avatars.uploads)

	profile, err := svc.UploadAvatar(ctx, id, "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.NotNil(t, profile.AvatarURL)
	assert.Contains(t, *profile.AvatarURL, id.String())
	assert.Contains(t, avatars.filename, ".png")
}

func TestUploadAvatar_StorageFailure(t *testing.T) {
	store := repository.NewMemory()
	svc := services.NewProfileService(store, nil, &fakeAvatars{err: errors.New("bucket missing")})
	id := uuid.New()

	_, err := svc.UploadAvatar(context.Background(), id, "image/jpeg", []byte{0xff, 0xd8})
	var backendErr *services.BackendError
	assert.ErrorAs(t, err, &backendErr)

	unconfigured := services.NewProfileService(store, nil, nil)
	_, err = unconfigured.UploadAvatar(context.Background(), id, "image/jpeg", []byte{0xff, 0xd8})
	assert.ErrorAs(t, err, &backendErr)
}

func TestWorkerStats(t *testing.T) {
	store := repository.NewMemory()
	orders := services.NewOrderService(store)
	profiles := services.NewProfileService(store, nil, nil)
	ctx := context.Background()
	worker := uuid.New()

	first := createOrder(t, orders)
	second := createOrder(t, orders)
	_, err := orders.ClaimOrder(ctx, first.ID, worker)
	require.NoError(t, err)
	_, err = orders.ClaimOrder(ctx, second.ID, worker)
	require.NoError(t, err)
	_, _, err = orders.RecordProgress(ctx, first.ID, worker, models.StatusCompleted, "done")
	require.NoError(t, err)

	stats, err := profiles.WorkerStats(ctx, worker)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAssigned)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.TotalUpdates)
	assert.Equal(t, 50, stats.CompletionRate)
}

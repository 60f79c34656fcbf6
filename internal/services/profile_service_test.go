package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-go/internal/config"
	"aura-go/internal/leaderboard"
	"aura-go/internal/media"
	"aura-go/internal/session"
)

type memMedia struct {
	uploaded map[string]string
	deleted  []string
	fail     error
}

func (m *memMedia) UploadFile(ctx context.Context, reader io.Reader, size int64, fileName, mimeType string) (*media.FileInfo, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	path := "avatars/" + fileName
	if m.uploaded == nil {
		m.uploaded = map[string]string{}
	}
	m.uploaded[path] = string(data)
	return &media.FileInfo{URL: "/uploads/" + path, Path: path, Size: size, MimeType: mimeType, FileName: fileName}, nil
}

func (m *memMedia) DeleteFile(ctx context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	delete(m.uploaded, path)
	return nil
}

func newProfileService(store *memStore, files *memMedia, cache LeaderboardCache) ProfileService {
	return NewProfileService(
		store.repos().Profiles,
		files,
		cache,
		config.StorageConfig{MaxFileSizeMB: 1},
		config.LeaderboardConfig{GlobalLimit: 2},
	)
}

func TestEnsureProfileCreatesOnce(t *testing.T) {
	store := newMemStore()
	svc := newProfileService(store, &memMedia{}, &memCache{})
	sess := &session.Session{UserID: 77, Username: "newcomer", Email: "new@example.com"}

	p, err := svc.EnsureProfile(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, uint(77), p.ID)
	assert.Zero(t, p.Aura)

	again, err := svc.EnsureProfile(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Len(t, store.profiles, 1)
}

func TestGetProfileNotFound(t *testing.T) {
	store := newMemStore()
	svc := newProfileService(store, &memMedia{}, &memCache{})
	_, err := svc.GetProfile(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	store.failures["profiles.get"] = errors.New("timeout")
	_, err = svc.GetProfile(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStore)
}

func TestSearchProfiles(t *testing.T) {
	store := newMemStore()
	svc := newProfileService(store, &memMedia{}, &memCache{})
	alice := store.addProfile("alice", 0)
	store.addProfile("alicia", 0)
	store.addProfile("bob", 0)

	found, err := svc.SearchProfiles(context.Background(), "  ALI ", alice.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alicia", found[0].Username)

	found, err = svc.SearchProfiles(context.Background(), "", alice.ID)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUpdateAvatar(t *testing.T) {
	store := newMemStore()
	files := &memMedia{}
	cache := &memCache{}
	svc := newProfileService(store, files, cache)
	alice := store.addProfile("alice", 0)
	ctx := context.Background()

	_, err := svc.UpdateAvatar(ctx, alice.ID, strings.NewReader("text"), 4, "notes.txt", "text/plain")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateAvatar(ctx, alice.ID, strings.NewReader("big"), 2<<20, "huge.png", "image/png")
	assert.ErrorIs(t, err, ErrInvalidAvatar)

	p, err := svc.UpdateAvatar(ctx, alice.ID, strings.NewReader("png"), 3, "me.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/me.png", p.Avatar)
	assert.Equal(t, "/uploads/avatars/me.png", store.profile(alice.ID).Avatar)
	assert.Equal(t, 1, cache.invalidated)
}

func TestUpdateAvatarRemovesOrphanedUpload(t *testing.T) {
	store := newMemStore()
	files := &memMedia{}
	svc := newProfileService(store, files, nil)
	alice := store.addProfile("alice", 0)

	store.failures["profiles.update_avatar"] = errors.New("read only transaction")
	_, err := svc.UpdateAvatar(context.Background(), alice.ID, strings.NewReader("png"), 3, "me.png", "image/png")
	assert.ErrorIs(t, err, ErrStore)
	assert.Equal(t, []string{"avatars/me.png"}, files.deleted)
	assert.Empty(t, files.uploaded)
}

func TestUpdateAvatarStorageFailure(t *testing.T) {
	store := newMemStore()
	svc := newProfileService(store, &memMedia{fail: errors.New("bucket gone")}, nil)
	alice := store.addProfile("alice", 0)

	_, err := svc.UpdateAvatar(context.Background(), alice.ID, strings.NewReader("png"), 3, "me.png", "image/png")
	assert.ErrorIs(t, err, ErrStore)
	assert.Empty(t, store.profile(alice.ID).Avatar)
}

func TestGlobalLeaderboardCaches(t *testing.T) {
	store := newMemStore()
	cache := &memCache{}
	svc := newProfileService(store, &memMedia{}, cache)
	store.addProfile("low", 1)
	store.addProfile("high", 2500000)
	store.addProfile("mid", 40)
	ctx := context.Background()

	board, err := svc.GlobalLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2, "limited by GlobalLimit")
	assert.Equal(t, "high", board[0].Name)
	assert.Equal(t, "2.5m", board[0].Display)
	assert.Equal(t, "mid", board[1].Name)
	assert.Equal(t, 1, cache.sets)

	// served from cache while the store is down
	store.failures["profiles.top"] = errors.New("down")
	cached, err := svc.GlobalLeaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, board, cached)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = svc.GlobalLeaderboard(ctx)
	assert.ErrorIs(t, err, ErrStore)
}

func TestGlobalLeaderboardWithoutCache(t *testing.T) {
	store := newMemStore()
	svc := NewProfileService(store.repos().Profiles, &memMedia{}, nil, config.StorageConfig{}, config.LeaderboardConfig{GlobalLimit: 10})
	store.addProfile("a", 5)
	store.addProfile("b", 5)

	board, err := svc.GlobalLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []leaderboard.Entry{
		{ID: 1, Name: "a", Aura: 5, Display: "5"},
		{ID: 2, Name: "b", Aura: 5, Display: "5"},
	}, board)
}

func TestSetAvatarURL(t *testing.T) {
	store := newMemStore()
	cache := &memCache{}
	svc := newProfileService(store, &memMedia{}, cache)
	alice := store.addProfile("alice", 0)

	p, err := svc.SetAvatarURL(context.Background(), alice.ID, " https://cdn.example.com/a.png ")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", p.Avatar)
	assert.Equal(t, p.Avatar, store.profile(alice.ID).Avatar)
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.SetAvatarURL(context.Background(), 9999, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"aura-go/internal/config"
	"aura-go/internal/leaderboard"
	"aura-go/internal/media"
	"aura-go/internal/models"
	"aura-go/internal/session"
	"aura-go/internal/storage"
)

const maxSearchResults = 20

// LeaderboardCache stores the ranked global leaderboard.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]leaderboard.Entry, bool, error)
	Set(ctx context.Context, entries []leaderboard.Entry) error
	LeaderboardInvalidator
}

// ProfileService 定义了个人资料相关服务的接口。
type ProfileService interface {
	EnsureProfile(ctx context.Context, sess *session.Session) (*models.Profile, error)
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	SearchProfiles(ctx context.Context, query string, currentUserID uint) ([]models.ProfileBasicInfo, error)
	UpdateAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, fileName, mimeType string) (*models.Profile, error)
	SetAvatarURL(ctx context.Context, userID uint, avatarURL string) (*models.Profile, error)
	GlobalLeaderboard(ctx context.Context) ([]leaderboard.Entry, error)
}

type profileService struct {
	profiles storage.ProfileRepository
	storage  media.StorageService
	cache    LeaderboardCache
	lbCfg    config.LeaderboardConfig
	maxBytes int64
}

// NewProfileService creates a ProfileService. cache may be nil.
func NewProfileService(
	profiles storage.ProfileRepository,
	store media.StorageService,
	cache LeaderboardCache,
	storageCfg config.StorageConfig,
	lbCfg config.LeaderboardConfig,
) ProfileService {
	return &profileService{
		profiles: profiles,
		storage:  store,
		cache:    cache,
		lbCfg:    lbCfg,
		maxBytes: storageCfg.MaxFileSizeMB << 20,
	}
}

// EnsureProfile returns the caller's profile, creating it from the session on
// first sight. Tokens issued by this server always have a profile already.
func (s *profileService) EnsureProfile(ctx context.Context, sess *session.Session) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, sess.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("load profile", err)
	}

	profile = &models.Profile{Username: sess.Username, Email: sess.Email}
	profile.ID = sess.UserID
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, storeError("create profile", err)
	}
	logrus.WithField("user_id", sess.UserID).Info("profile created on first sign-in")
	return profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError("load profile", err, ErrProfileNotFound)
	}
	return profile, nil
}

// SearchProfiles matches usernames case-insensitively, excluding the caller.
func (s *profileService) SearchProfiles(ctx context.Context, query string, currentUserID uint) ([]models.ProfileBasicInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ProfileBasicInfo{}, nil
	}
	profiles, err := s.profiles.Search(ctx, query, currentUserID, maxSearchResults)
	if err != nil {
		return nil, storeError("search profiles", err)
	}
	result := make([]models.ProfileBasicInfo, len(profiles))
	for i := range profiles {
		result[i] = *profiles[i].BasicInfo()
	}
	return result, nil
}

// UpdateAvatar stores a new avatar image and points the profile at it.
func (s *profileService) UpdateAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, fileName, mimeType string) (*models.Profile, error) {
	if !strings.HasPrefix(mimeType, "image/") || size <= 0 || (s.maxBytes > 0 && size > s.maxBytes) {
		return nil, ErrInvalidAvatar
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError("load profile", err, ErrProfileNotFound)
	}

	info, err := s.storage.UploadFile(ctx, reader, size, fileName, mimeType)
	if err != nil {
		return nil, storeError("upload avatar", err)
	}

	if err := s.profiles.UpdateAvatar(ctx, userID, info.URL); err != nil {
		// do not leave an orphaned object behind
		if delErr := s.storage.DeleteFile(ctx, info.Path); delErr != nil {
			logrus.WithError(delErr).WithField("path", info.Path).Warn("failed to remove orphaned avatar")
		}
		return nil, lookupError("update avatar", err, ErrProfileNotFound)
	}
	profile.Avatar = info.URL
	s.invalidate(ctx)
	return profile, nil
}

// SetAvatarURL points the profile at an externally hosted avatar. An empty
// URL clears it.
func (s *profileService) SetAvatarURL(ctx context.Context, userID uint, avatarURL string) (*models.Profile, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError("load profile", err, ErrProfileNotFound)
	}
	if err := s.profiles.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, lookupError("update avatar", err, ErrProfileNotFound)
	}
	profile.Avatar = avatarURL
	s.invalidate(ctx)
	return profile, nil
}

// the global leaderboard shows avatars
func (s *profileService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logrus.WithError(err).Warn("failed to invalidate leaderboard cache")
	}
}

// GlobalLeaderboard returns the top profiles by aura. The store applies the
// limit, the result is cached until the next resolution or the TTL.
func (s *profileService) GlobalLeaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx)
		if err != nil {
			logrus.WithError(err).Warn("leaderboard cache unavailable, reading from store")
		} else if ok {
			return entries, nil
		}
	}

	profiles, err := s.profiles.TopByAura(ctx, s.lbCfg.GlobalLimit)
	if err != nil {
		return nil, storeError("load leaderboard", err)
	}
	entries := leaderboard.Rank(leaderboard.FromProfiles(profiles))

	if s.cache != nil {
		if err := s.cache.Set(ctx, entries); err != nil {
			logrus.WithError(err).Warn("failed to cache leaderboard")
		}
	}
	return entries, nil
}

package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"aura-go/internal/auth"
	"aura-go/internal/config"
	"aura-go/internal/models"
	"aura-go/internal/session"
	"aura-go/internal/storage"
)

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.Profile, error)
	Login(ctx context.Context, usernameOrEmail, password string) (token string, profile *models.Profile, err error)
	Logout(ctx context.Context, sess *session.Session) error
}

type authService struct {
	profiles  storage.ProfileRepository
	blacklist auth.TokenBlacklist
	cfg       config.AuthConfig
}

// NewAuthService creates an AuthService. blacklist may be nil, then logout is a no-op.
func NewAuthService(profiles storage.ProfileRepository, blacklist auth.TokenBlacklist, cfg config.AuthConfig) AuthService {
	return &authService{profiles: profiles, blacklist: blacklist, cfg: cfg}
}

// Register 处理用户注册逻辑。新用户的 aura 为 0。
func (s *authService) Register(ctx context.Context, username, email, password string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || len(password) < auth.MinPasswordLength {
		return nil, ErrInvalidRegistration
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidRegistration
	}

	if _, err := s.profiles.GetByUsername(ctx, username); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("check username", err)
	}
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("check email", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{Username: username, Email: email, PasswordHash: hashedPassword}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storeError("create profile", err)
	}
	logrus.WithField("user_id", profile.ID).Info("user registered")
	return profile, nil
}

// Login 通过用户名或邮箱登录，成功后签发 JWT。
func (s *authService) Login(ctx context.Context, usernameOrEmail, password string) (string, *models.Profile, error) {
	profile, err := s.profiles.GetByUsername(ctx, usernameOrEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile, err = s.profiles.GetByEmail(ctx, usernameOrEmail)
	}
	if err != nil {
		// unknown users get the same answer as a wrong password
		return "", nil, lookupError("load profile", err, ErrInvalidCredentials)
	}

	if !auth.CheckPasswordHash(password, profile.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(profile.ID, profile.Username, profile.Email, s.cfg)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

// Logout revokes the session's token until it would have expired.
func (s *authService) Logout(ctx context.Context, sess *session.Session) error {
	if s.blacklist == nil || sess.TokenID == "" {
		return nil
	}
	if err := s.blacklist.Add(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return storeError("revoke token", err)
	}
	logrus.WithField("user_id", sess.UserID).Info("user logged out")
	return nil
}

package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"aura-go/internal/models"
)

// ProfileRepository defines the interface for profile data operations.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Profile, error)
	Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.Profile, error)
	UpdateAvatar(ctx context.Context, id uint, avatar string) error
	TopByAura(ctx context.Context, limit int) ([]models.Profile, error)
	AddAura(ctx context.Context, id uint, delta int64) error
}

type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-based ProfileRepository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByID retrieves a profile by ID. Returns gorm.ErrRecordNotFound when absent.
func (r *gormProfileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormProfileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByIDs returns the profiles whose id is in ids, in no particular order.
func (r *gormProfileRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Profile, error) {
	var profiles []models.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

// Search does a case-insensitive username match, excluding the caller.
func (r *gormProfileRepository) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	searchTerm := "%" + strings.ToLower(query) + "%"

	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? AND id != ?", searchTerm, excludeID).
		Select("id", "username", "aura", "avatar", "created_at").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return profiles, nil
		}
		return nil, err
	}
	return profiles, nil
}

func (r *gormProfileRepository) UpdateAvatar(ctx context.Context, id uint, avatar string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("avatar", avatar)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TopByAura returns at most limit profiles ordered by aura, highest first.
// Ties are broken by id so the store order is deterministic.
func (r *gormProfileRepository) TopByAura(ctx context.Context, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Order("aura DESC").Order("id ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// AddAura increments aura in place, aura = aura + delta.
func (r *gormProfileRepository) AddAura(ctx context.Context, id uint, delta int64) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		UpdateColumn("aura", gorm.Expr("aura + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

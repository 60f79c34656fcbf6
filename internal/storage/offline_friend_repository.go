package storage

import (
	"context"

	"gorm.io/gorm"

	"aura-go/internal/models"
)

// OfflineFriendRepository defines the interface for offline friend data operations.
type OfflineFriendRepository interface {
	Create(ctx context.Context, friend *models.OfflineFriend) error
	GetByID(ctx context.Context, id uint) (*models.OfflineFriend, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.OfflineFriend, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]models.OfflineFriend, error)
	DeleteByCreator(ctx context.Context, id, creatorID uint) (bool, error)
	AddAura(ctx context.Context, id uint, delta int64) error
}

type gormOfflineFriendRepository struct {
	db *gorm.DB
}

func NewGormOfflineFriendRepository(db *gorm.DB) OfflineFriendRepository {
	return &gormOfflineFriendRepository{db: db}
}

func (r *gormOfflineFriendRepository) Create(ctx context.Context, friend *models.OfflineFriend) error {
	return r.db.WithContext(ctx).Create(friend).Error
}

func (r *gormOfflineFriendRepository) GetByID(ctx context.Context, id uint) (*models.OfflineFriend, error) {
	var friend models.OfflineFriend
	if err := r.db.WithContext(ctx).First(&friend, id).Error; err != nil {
		return nil, err
	}
	return &friend, nil
}

func (r *gormOfflineFriendRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.OfflineFriend, error) {
	var friends []models.OfflineFriend
	if len(ids) == 0 {
		return friends, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&friends).Error
	return friends, err
}

// ListByCreator returns the creator's offline friends in creation order.
func (r *gormOfflineFriendRepository) ListByCreator(ctx context.Context, creatorID uint) ([]models.OfflineFriend, error) {
	var friends []models.OfflineFriend
	err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).Order("id ASC").Find(&friends).Error
	return friends, err
}

// DeleteByCreator deletes the row only if creatorID owns it. Reports whether a row was removed.
func (r *gormOfflineFriendRepository) DeleteByCreator(ctx context.Context, id, creatorID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND creator_id = ?", id, creatorID).Delete(&models.OfflineFriend{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormOfflineFriendRepository) AddAura(ctx context.Context, id uint, delta int64) error {
	res := r.db.WithContext(ctx).Model(&models.OfflineFriend{}).
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

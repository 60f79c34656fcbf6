package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aura-go/internal/models"
)

// FriendLinkRepository defines the interface for directed friend edges.
type FriendLinkRepository interface {
	CreatePair(ctx context.Context, userID1, userID2 uint) error
	AreFriends(ctx context.Context, userID, friendID uint) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.Profile, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type gormFriendLinkRepository struct {
	db *gorm.DB
}

// NewGormFriendLinkRepository creates a new GORM-based FriendLinkRepository.
func NewGormFriendLinkRepository(db *gorm.DB) FriendLinkRepository {
	return &gormFriendLinkRepository{db: db}
}

// CreatePair inserts both directions. Existing edges are left alone.
func (r *gormFriendLinkRepository) CreatePair(ctx context.Context, userID1, userID2 uint) error {
	links := []models.FriendLink{
		{UserID: userID1, FriendID: userID2},
		{UserID: userID2, FriendID: userID1},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&links).Error
}

// AreFriends checks the userID->friendID edge.
func (r *gormFriendLinkRepository) AreFriends(ctx context.Context, userID, friendID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FriendLink{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFriends resolves every outgoing edge of userID to the linked profile,
// in link creation order.
func (r *gormFriendLinkRepository) ListFriends(ctx context.Context, userID uint) ([]models.Profile, error) {
	var links []models.FriendLink
	err := r.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]models.Profile, 0, len(links))
	for _, l := range links {
		if l.Friend.ID == 0 {
			// dangling edge, the profile was removed
			continue
		}
		profiles = append(profiles, l.Friend)
	}
	return profiles, nil
}

func (r *gormFriendLinkRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.FriendLink{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("friend_id", &ids).Error
	return ids, err
}

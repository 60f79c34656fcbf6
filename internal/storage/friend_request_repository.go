package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"aura-go/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error)
	GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	UpdateStatusIfPending(ctx context.Context, requestID uint, status models.FriendRequestStatus) (bool, error)
	ListPendingForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	CountPendingForRecipient(ctx context.Context, recipientID uint) (int64, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Omit("Sender", "Recipient").Create(request).Error
}

// FindPendingBetween checks if there is a pending request between two users (in either direction).
// Returns nil, nil when there is none.
func (r *gormFriendRequestRepository) FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userID1, userID2, userID2, userID1).
		Where("status = ?", models.FriendRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateStatusIfPending moves a pending request to status. Reports false if it was not pending anymore.
func (r *gormFriendRequestRepository) UpdateStatusIfPending(ctx context.Context, requestID uint, status models.FriendRequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

// ListPendingForUser returns pending requests sent or received by userID, with both profiles loaded.
func (r *gormFriendRequestRepository) ListPendingForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").Preload("Recipient").
		Where("(sender_id = ? OR recipient_id = ?) AND status = ?", userID, userID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) CountPendingForRecipient(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("recipient_id = ? AND status = ?", recipientID, models.FriendRequestStatusPending).
		Count(&count).Error
	return count, err
}

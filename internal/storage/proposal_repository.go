package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"aura-go/internal/models"
)

// ProposalRepository defines the interface for aura proposal data operations.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *models.AuraProposal) error
	GetByID(ctx context.Context, id uint) (*models.AuraProposal, error)
	ListPending(ctx context.Context) ([]models.AuraProposal, error)
	ListVisibleTo(ctx context.Context, userIDs []uint) ([]models.AuraProposal, error)
	ListForRecipient(ctx context.Context, recipientID uint, offline bool) ([]models.AuraProposal, error)
	Resolve(ctx context.Context, id uint, status models.ProposalStatus, resolvedAt time.Time) (bool, error)
}

type gormProposalRepository struct {
	db *gorm.DB
}

// NewGormProposalRepository creates a new GORM-based ProposalRepository.
func NewGormProposalRepository(db *gorm.DB) ProposalRepository {
	return &gormProposalRepository{db: db}
}

func (r *gormProposalRepository) Create(ctx context.Context, proposal *models.AuraProposal) error {
	return r.db.WithContext(ctx).Omit("Proposer").Create(proposal).Error
}

func (r *gormProposalRepository) GetByID(ctx context.Context, id uint) (*models.AuraProposal, error) {
	var proposal models.AuraProposal
	if err := r.db.WithContext(ctx).First(&proposal, id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ListPending returns every pending proposal, oldest first.
func (r *gormProposalRepository) ListPending(ctx context.Context) ([]models.AuraProposal, error) {
	var proposals []models.AuraProposal
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ProposalStatusPending).
		Order("created_at ASC").
		Find(&proposals).Error
	return proposals, err
}

// ListVisibleTo returns proposals proposed by, or addressed to the profile of, any of userIDs. Newest first.
func (r *gormProposalRepository) ListVisibleTo(ctx context.Context, userIDs []uint) ([]models.AuraProposal, error) {
	var proposals []models.AuraProposal
	if len(userIDs) == 0 {
		return proposals, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Proposer").
		Where("proposer_id IN ? OR (recipient_id IN ? AND is_recipient_offline = ?)", userIDs, userIDs, false).
		Order("created_at DESC").Order("id DESC").
		Find(&proposals).Error
	return proposals, err
}

// ListForRecipient returns the proposals addressed to one recipient, newest first.
func (r *gormProposalRepository) ListForRecipient(ctx context.Context, recipientID uint, offline bool) ([]models.AuraProposal, error) {
	var proposals []models.AuraProposal
	err := r.db.WithContext(ctx).
		Preload("Proposer").
		Where("recipient_id = ? AND is_recipient_offline = ?", recipientID, offline).
		Order("created_at DESC").Order("id DESC").
		Find(&proposals).Error
	return proposals, err
}

// Resolve moves a pending proposal to status. The update is guarded by
// status = pending, so of two concurrent callers only one sees true.
func (r *gormProposalRepository) Resolve(ctx context.Context, id uint, status models.ProposalStatus, resolvedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.AuraProposal{}).
		Where("id = ? AND status = ?", id, models.ProposalStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

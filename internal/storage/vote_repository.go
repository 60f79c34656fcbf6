package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aura-go/internal/models"
)

// VoteRepository defines the interface for proposal vote data operations.
type VoteRepository interface {
	Upsert(ctx context.Context, vote *models.ProposalVote) error
	Get(ctx context.Context, proposalID, voterID uint) (*models.ProposalVote, error)
	ListByProposal(ctx context.Context, proposalID uint) ([]models.ProposalVote, error)
	ListByProposals(ctx context.Context, proposalIDs []uint) ([]models.ProposalVote, error)
}

type gormVoteRepository struct {
	db *gorm.DB
}

// NewGormVoteRepository creates a new GORM-based VoteRepository.
func NewGormVoteRepository(db *gorm.DB) VoteRepository {
	return &gormVoteRepository{db: db}
}

// Upsert inserts the vote, or overwrites the boolean when the voter already voted.
func (r *gormVoteRepository) Upsert(ctx context.Context, vote *models.ProposalVote) error {
	vote.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "updated_at"}),
	}).Create(vote).Error
}

func (r *gormVoteRepository) Get(ctx context.Context, proposalID, voterID uint) (*models.ProposalVote, error) {
	var vote models.ProposalVote
	err := r.db.WithContext(ctx).
		Where("proposal_id = ? AND voter_id = ?", proposalID, voterID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *gormVoteRepository) ListByProposal(ctx context.Context, proposalID uint) ([]models.ProposalVote, error) {
	var votes []models.ProposalVote
	err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Order("id ASC").Find(&votes).Error
	return votes, err
}

// ListByProposals loads the votes of several proposals in one query.
func (r *gormVoteRepository) ListByProposals(ctx context.Context, proposalIDs []uint) ([]models.ProposalVote, error) {
	var votes []models.ProposalVote
	if len(proposalIDs) == 0 {
		return votes, nil
	}
	err := r.db.WithContext(ctx).Where("proposal_id IN ?", proposalIDs).Order("id ASC").Find(&votes).Error
	return votes, err
}

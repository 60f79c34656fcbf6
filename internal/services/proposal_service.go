package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"aura-go/internal/config"
	"aura-go/internal/events"
	"aura-go/internal/metrics"
	"aura-go/internal/models"
	"aura-go/internal/storage"
)

// Resolution triggers, used as the metrics label.
const (
	TriggerManual  = "manual"
	TriggerRequest = "request"
	TriggerSweep   = "sweep"
)

// SweepResult summarizes one SweepPending run.
type SweepResult struct {
	Examined int `json:"examined"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"` // already resolved by a concurrent caller
	Failed   int `json:"failed"`
}

// LeaderboardInvalidator drops cached rankings after aura changed.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProposalService runs the aura proposal workflow: create, vote, resolve.
type ProposalService interface {
	CreateProposal(ctx context.Context, proposerID, recipientID uint, isRecipientOffline bool, value int64, reason string) (*models.AuraProposal, error)
	CastVote(ctx context.Context, proposalID, voterID uint, approve bool) (*models.ProposalVote, error)
	ResolveProposal(ctx context.Context, proposalID uint) (*models.AuraProposal, error)
	ResolveIfDue(ctx context.Context, proposalID uint) (*models.AuraProposal, error)
	SweepPending(ctx context.Context, now time.Time) (SweepResult, error)
	ListProposals(ctx context.Context, viewerID uint) ([]models.ProposalView, error)
	AuraHistory(ctx context.Context, viewerID, recipientID uint, isOffline bool) ([]models.ProposalView, error)
}

type proposalService struct {
	repos     storage.Repositories
	tx        storage.Transactor
	publisher events.Publisher
	cache     LeaderboardInvalidator
	cfg       config.ProposalsConfig
	now       func() time.Time
}

// NewProposalService creates a ProposalService. cache may be nil.
func NewProposalService(
	repos storage.Repositories,
	tx storage.Transactor,
	publisher events.Publisher,
	cache LeaderboardInvalidator,
	cfg config.ProposalsConfig,
) ProposalService {
	return &proposalService{
		repos:     repos,
		tx:        tx,
		publisher: publisher,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateProposal stores a pending proposal together with the proposer's own
// approving vote.
func (s *proposalService) CreateProposal(ctx context.Context, proposerID, recipientID uint, isRecipientOffline bool, value int64, reason string) (*models.AuraProposal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	if isRecipientOffline {
		friend, err := s.repos.OfflineFriends.GetByID(ctx, recipientID)
		if err != nil {
			return nil, lookupError("load offline friend", err, ErrOfflineFriendMissing)
		}
		// offline friends are private to their creator
		if friend.CreatorID != proposerID {
			return nil, ErrOfflineFriendMissing
		}
	} else {
		if recipientID == proposerID {
			return nil, ErrSelfProposal
		}
		if _, err := s.repos.Profiles.GetByID(ctx, recipientID); err != nil {
			return nil, lookupError("load recipient profile", err, ErrProfileNotFound)
		}
		areFriends, err := s.repos.FriendLinks.AreFriends(ctx, proposerID, recipientID)
		if err != nil {
			return nil, storeError("check friendship", err)
		}
		if !areFriends {
			return nil, ErrRecipientNotFriend
		}
	}

	proposal := &models.AuraProposal{
		ProposerID:         proposerID,
		RecipientID:        recipientID,
		IsRecipientOffline: isRecipientOffline,
		Value:              value,
		Reason:             reason,
		Status:             models.ProposalStatusPending,
	}

	err := s.tx.WithinTransaction(ctx, func(repos storage.Repositories) error {
		if err := repos.Proposals.Create(ctx, proposal); err != nil {
			return storeError("create proposal", err)
		}
		selfVote := &models.ProposalVote{ProposalID: proposal.ID, VoterID: proposerID, Vote: true}
		if err := repos.Votes.Upsert(ctx, selfVote); err != nil {
			return storeError("record proposer vote", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"proposal_id":  proposal.ID,
		"user_id":      proposerID,
		"recipient_id": recipientID,
		"offline":      isRecipientOffline,
		"value":        value,
	}).Info("aura proposal created")
	metrics.ProposalCreated()

	// the proposer's friends are the electorate
	recipients, err := s.repos.FriendLinks.GetFriendIDs(ctx, proposerID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", proposerID).Warn("could not load friends to notify")
	}
	if !isRecipientOffline {
		recipients = append(recipients, recipientID)
	}
	publish(ctx, s.publisher, events.ProposalCreated, proposal.ID, proposerID, recipients, proposal)

	return proposal, nil
}

// CastVote records or overwrites voterID's vote, the proposer's own assent
// included. It never resolves the proposal.
func (s *proposalService) CastVote(ctx context.Context, proposalID, voterID uint, approve bool) (*models.ProposalVote, error) {
	proposal, err := s.repos.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, lookupError("load proposal", err, ErrProposalNotFound)
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, ErrVotingConcluded
	}

	vote := &models.ProposalVote{ProposalID: proposalID, VoterID: voterID, Vote: approve}
	if err := s.repos.Votes.Upsert(ctx, vote); err != nil {
		return nil, storeError("upsert vote", err)
	}

	logrus.WithFields(logrus.Fields{"proposal_id": proposalID, "user_id": voterID, "approve": approve}).Info("vote cast")
	metrics.VoteCast()
	publish(ctx, s.publisher, events.VoteCast, proposalID, voterID, []uint{proposal.ProposerID}, vote)

	return vote, nil
}

// ResolveProposal tallies the votes and closes the proposal regardless of quorum.
// Resolving a proposal that is already closed returns it unchanged.
func (s *proposalService) ResolveProposal(ctx context.Context, proposalID uint) (*models.AuraProposal, error) {
	proposal, err := s.repos.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, lookupError("load proposal", err, ErrProposalNotFound)
	}
	resolved, _, err := s.resolve(ctx, proposal, TriggerManual, false)
	return resolved, err
}

// ResolveIfDue resolves the proposal only when the sweep would: quorum reached
// and voting window passed, or expired. Otherwise it fails with
// ErrResolutionNotDue. A proposal that is already closed is returned unchanged.
func (s *proposalService) ResolveIfDue(ctx context.Context, proposalID uint) (*models.AuraProposal, error) {
	proposal, err := s.repos.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, lookupError("load proposal", err, ErrProposalNotFound)
	}
	if proposal.Status.IsTerminal() {
		return proposal, nil
	}

	votes, err := s.repos.Votes.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, storeError("list votes", err)
	}
	if !s.due(proposal, models.TallyVotes(votes), s.now()) {
		return nil, ErrResolutionNotDue
	}
	resolved, _, err := s.resolve(ctx, proposal, TriggerRequest, true)
	return resolved, err
}

// resolve applies the pending -> terminal transition in one transaction. The
// status-guarded update decides the race between concurrent resolvers, so the
// aura delta is applied at most once. applied reports whether this call won.
// With requireQuorum, a proposal that never reached MinVotes is rejected.
func (s *proposalService) resolve(ctx context.Context, proposal *models.AuraProposal, trigger string, requireQuorum bool) (result *models.AuraProposal, applied bool, err error) {
	if proposal.Status.IsTerminal() {
		return proposal, false, nil
	}

	now := s.now()
	var (
		outcome models.ProposalStatus
		tally   models.VoteTally
	)
	err = s.tx.WithinTransaction(ctx, func(repos storage.Repositories) error {
		votes, err := repos.Votes.ListByProposal(ctx, proposal.ID)
		if err != nil {
			return storeError("list votes", err)
		}
		tally = models.TallyVotes(votes)
		outcome = tally.Outcome()
		if requireQuorum && tally.Total() < s.cfg.MinVotes {
			outcome = models.ProposalStatusRejected
		}

		applied, err = repos.Proposals.Resolve(ctx, proposal.ID, outcome, now)
		if err != nil {
			return storeError("resolve proposal", err)
		}
		if !applied || outcome != models.ProposalStatusApproved {
			return nil
		}

		if proposal.IsRecipientOffline {
			err = repos.OfflineFriends.AddAura(ctx, proposal.RecipientID, proposal.Value)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOfflineFriendMissing
			}
		} else {
			err = repos.Profiles.AddAura(ctx, proposal.RecipientID, proposal.Value)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
		}
		if err != nil {
			return storeError("apply aura delta", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	log := logrus.WithFields(logrus.Fields{"proposal_id": proposal.ID, "trigger": trigger})
	if !applied {
		// lost the race, report what the winner stored
		log.Info("proposal already resolved")
		current, err := s.repos.Proposals.GetByID(ctx, proposal.ID)
		if err != nil {
			return nil, false, lookupError("reload proposal", err, ErrProposalNotFound)
		}
		return current, false, nil
	}

	resolved := *proposal
	resolved.Status = outcome
	resolved.ResolvedAt = &now
	resolved.UpdatedAt = now

	log.WithFields(logrus.Fields{
		"status":  outcome,
		"approve": tally.Approve,
		"reject":  tally.Reject,
	}).Info("proposal resolved")
	metrics.ProposalResolved(string(outcome), trigger)

	if outcome == models.ProposalStatusApproved && !proposal.IsRecipientOffline && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("failed to invalidate leaderboard cache")
		}
	}

	recipients := []uint{proposal.ProposerID}
	if !proposal.IsRecipientOffline {
		recipients = append(recipients, proposal.RecipientID)
	}
	publish(ctx, s.publisher, events.ProposalResolved, proposal.ID, 0, recipients, &resolved)

	return &resolved, true, nil
}

// SweepPending resolves every pending proposal that is due at now: it has
// reached quorum and its voting window has passed, or it has expired.
// An expired proposal that never reached quorum is rejected.
func (s *proposalService) SweepPending(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	start := time.Now()
	defer func() { metrics.ObserveSweep(time.Since(start)) }()

	pending, err := s.repos.Proposals.ListPending(ctx)
	if err != nil {
		return result, storeError("list pending proposals", err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	ids := make([]uint, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}
	votes, err := s.repos.Votes.ListByProposals(ctx, ids)
	if err != nil {
		return result, storeError("list votes", err)
	}
	tallies := tallyByProposal(votes)

	for i := range pending {
		p := &pending[i]
		result.Examined++
		if !s.due(p, tallies[p.ID], now) {
			continue
		}

		resolved, applied, err := s.resolve(ctx, p, TriggerSweep, true)
		switch {
		case err != nil:
			result.Failed++
			logrus.WithError(err).WithField("proposal_id", p.ID).Error("sweep failed to resolve proposal")
		case !applied:
			result.Skipped++
		case resolved.Status == models.ProposalStatusApproved:
			result.Approved++
		default:
			result.Rejected++
		}
	}

	logrus.WithFields(logrus.Fields{
		"examined": result.Examined,
		"approved": result.Approved,
		"rejected": result.Rejected,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("pending proposal sweep finished")
	return result, nil
}

func (s *proposalService) due(p *models.AuraProposal, tally models.VoteTally, now time.Time) bool {
	age := now.Sub(p.CreatedAt)
	if s.cfg.ExpireAfter > 0 && age >= s.cfg.ExpireAfter {
		return true
	}
	return tally.Total() >= s.cfg.MinVotes && age >= s.cfg.VotingWindow
}

// ListProposals returns the proposals made by or addressed to the viewer or
// any of the viewer's friends, newest first.
func (s *proposalService) ListProposals(ctx context.Context, viewerID uint) ([]models.ProposalView, error) {
	friendIDs, err := s.repos.FriendLinks.GetFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, storeError("list friend ids", err)
	}
	ids := append([]uint{viewerID}, friendIDs...)

	proposals, err := s.repos.Proposals.ListVisibleTo(ctx, ids)
	if err != nil {
		return nil, storeError("list proposals", err)
	}
	return s.buildViews(ctx, viewerID, proposals)
}

// AuraHistory lists the proposals addressed to one recipient, newest first.
// An offline recipient is only visible to its creator.
func (s *proposalService) AuraHistory(ctx context.Context, viewerID, recipientID uint, isOffline bool) ([]models.ProposalView, error) {
	if isOffline {
		friend, err := s.repos.OfflineFriends.GetByID(ctx, recipientID)
		if err != nil {
			return nil, lookupError("load offline friend", err, ErrOfflineFriendMissing)
		}
		if friend.CreatorID != viewerID {
			return nil, ErrOfflineFriendMissing
		}
	} else if _, err := s.repos.Profiles.GetByID(ctx, recipientID); err != nil {
		return nil, lookupError("load profile", err, ErrProfileNotFound)
	}

	proposals, err := s.repos.Proposals.ListForRecipient(ctx, recipientID, isOffline)
	if err != nil {
		return nil, storeError("list aura history", err)
	}
	return s.buildViews(ctx, viewerID, proposals)
}

// buildViews attaches vote counts, the viewer's vote and recipient display data.
func (s *proposalService) buildViews(ctx context.Context, viewerID uint, proposals []models.AuraProposal) ([]models.ProposalView, error) {
	views := make([]models.ProposalView, 0, len(proposals))
	if len(proposals) == 0 {
		return views, nil
	}

	var proposalIDs, onlineIDs, offlineIDs []uint
	for _, p := range proposals {
		proposalIDs = append(proposalIDs, p.ID)
		if p.IsRecipientOffline {
			offlineIDs = append(offlineIDs, p.RecipientID)
		} else {
			onlineIDs = append(onlineIDs, p.RecipientID)
		}
	}

	votes, err := s.repos.Votes.ListByProposals(ctx, proposalIDs)
	if err != nil {
		return nil, storeError("list votes", err)
	}
	tallies := tallyByProposal(votes)
	myVotes := make(map[uint]bool)
	for _, v := range votes {
		if v.VoterID == viewerID {
			myVotes[v.ProposalID] = v.Vote
		}
	}

	profiles, err := s.repos.Profiles.GetByIDs(ctx, onlineIDs)
	if err != nil {
		return nil, storeError("load recipients", err)
	}
	profileByID := make(map[uint]models.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	offline, err := s.repos.OfflineFriends.GetByIDs(ctx, offlineIDs)
	if err != nil {
		return nil, storeError("load offline recipients", err)
	}
	offlineByID := make(map[uint]models.OfflineFriend, len(offline))
	for _, f := range offline {
		offlineByID[f.ID] = f
	}

	for _, p := range proposals {
		view := models.ProposalView{AuraProposal: p}
		tally := tallies[p.ID]
		view.TotalVotes = tally.Total()
		view.ApproveVotes = tally.Approve
		if v, ok := myVotes[p.ID]; ok {
			vote := v
			view.MyVote = &vote
		}
		if p.Proposer != nil {
			view.Proposer = p.Proposer.BasicInfo()
		}
		if p.IsRecipientOffline {
			if f, ok := offlineByID[p.RecipientID]; ok {
				view.RecipientName, view.RecipientAvatar = f.Name, f.Avatar
			}
		} else if r, ok := profileByID[p.RecipientID]; ok {
			view.RecipientName, view.RecipientAvatar = r.Username, r.Avatar
		}
		views = append(views, view)
	}
	return views, nil
}

func tallyByProposal(votes []models.ProposalVote) map[uint]models.VoteTally {
	tallies := make(map[uint]models.VoteTally)
	for _, v := range votes {
		t := tallies[v.ProposalID]
		if v.Vote {
			t.Approve++
		} else {
			t.Reject++
		}
		tallies[v.ProposalID] = t
	}
	return tallies
}

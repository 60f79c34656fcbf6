package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"aura-go/internal/events"
	"aura-go/internal/friendgraph"
	"aura-go/internal/leaderboard"
	"aura-go/internal/models"
	"aura-go/internal/storage"
)

// FriendService manages friend requests, the friend list and offline friends.
type FriendService interface {
	SendFriendRequest(ctx context.Context, senderID, recipientID uint) (*models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, recipientID, requestID uint) error
	RejectFriendRequest(ctx context.Context, recipientID, requestID uint) error
	ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequestWithUsers, error)
	ListFriends(ctx context.Context, userID uint) ([]models.CombinedFriend, error)
	FriendLeaderboard(ctx context.Context, userID uint) ([]leaderboard.Entry, error)
	AddOfflineFriend(ctx context.Context, creatorID uint, name, email string) (*models.OfflineFriend, error)
	RemoveOfflineFriend(ctx context.Context, creatorID, offlineFriendID uint) error
}

type friendService struct {
	repos     storage.Repositories
	tx        storage.Transactor
	publisher events.Publisher
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(repos storage.Repositories, tx storage.Transactor, publisher events.Publisher) FriendService {
	return &friendService{repos: repos, tx: tx, publisher: publisher}
}

// SendFriendRequest creates a pending request. At most one pending request may
// exist between two users, whoever sent it.
func (s *friendService) SendFriendRequest(ctx context.Context, senderID, recipientID uint) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrFriendRequestSelf
	}

	if _, err := s.repos.Profiles.GetByID(ctx, recipientID); err != nil {
		return nil, lookupError("load recipient", err, ErrProfileNotFound)
	}

	areFriends, err := s.repos.FriendLinks.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, storeError("check friendship", err)
	}
	if areFriends {
		return nil, ErrAlreadyFriends
	}

	existing, err := s.repos.FriendRequests.FindPendingBetween(ctx, senderID, recipientID)
	if err != nil {
		return nil, storeError("check pending request", err)
	}
	if existing != nil {
		return nil, ErrFriendRequestExists
	}

	request := &models.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      models.FriendRequestStatusPending,
	}
	if err := s.repos.FriendRequests.Create(ctx, request); err != nil {
		// a crossing request won the pending pair index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrFriendRequestExists
		}
		return nil, storeError("create friend request", err)
	}

	logrus.WithFields(logrus.Fields{"request_id": request.ID, "user_id": senderID, "recipient_id": recipientID}).Info("friend request sent")
	publish(ctx, s.publisher, events.FriendRequestCreated, request.ID, senderID, []uint{recipientID}, request)
	return request, nil
}

// AcceptFriendRequest marks the request accepted and links both users in each
// direction, all in one transaction.
func (s *friendService) AcceptFriendRequest(ctx context.Context, recipientID, requestID uint) error {
	var request *models.FriendRequest
	err := s.tx.WithinTransaction(ctx, func(repos storage.Repositories) error {
		var err error
		request, err = s.claimRequest(ctx, repos, recipientID, requestID, models.FriendRequestStatusAccepted)
		if err != nil {
			return err
		}
		if err := repos.FriendLinks.CreatePair(ctx, request.SenderID, request.RecipientID); err != nil {
			return storeError("create friend links", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"request_id": requestID, "user_id": recipientID, "sender_id": request.SenderID}).Info("friend request accepted")
	publish(ctx, s.publisher, events.FriendRequestAnswered, requestID, recipientID, []uint{request.SenderID}, request)
	return nil
}

func (s *friendService) RejectFriendRequest(ctx context.Context, recipientID, requestID uint) error {
	request, err := s.claimRequest(ctx, s.repos, recipientID, requestID, models.FriendRequestStatusRejected)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"request_id": requestID, "user_id": recipientID}).Info("friend request rejected")
	publish(ctx, s.publisher, events.FriendRequestAnswered, requestID, recipientID, []uint{request.SenderID}, request)
	return nil
}

// claimRequest checks that recipientID may answer the request and moves it out of pending.
func (s *friendService) claimRequest(ctx context.Context, repos storage.Repositories, recipientID, requestID uint, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	request, err := repos.FriendRequests.GetByID(ctx, requestID)
	if err != nil {
		return nil, lookupError("load friend request", err, ErrFriendRequestMissing)
	}
	if request.RecipientID != recipientID {
		return nil, ErrNotRecipientOfRequest
	}
	if request.Status != models.FriendRequestStatusPending {
		return nil, ErrRequestNotPending
	}

	updated, err := repos.FriendRequests.UpdateStatusIfPending(ctx, requestID, status)
	if err != nil {
		return nil, storeError("update friend request", err)
	}
	if !updated {
		// answered concurrently
		return nil, ErrRequestNotPending
	}
	request.Status = status
	return request, nil
}

// ListPendingRequests returns the pending requests the user sent or received.
func (s *friendService) ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequestWithUsers, error) {
	requests, err := s.repos.FriendRequests.ListPendingForUser(ctx, userID)
	if err != nil {
		return nil, storeError("list friend requests", err)
	}

	result := make([]models.FriendRequestWithUsers, 0, len(requests))
	for _, req := range requests {
		item := models.FriendRequestWithUsers{FriendRequest: req}
		if req.Sender != nil {
			item.SenderInfo = req.Sender.BasicInfo()
		}
		if req.Recipient != nil {
			item.RecipientInfo = req.Recipient.BasicInfo()
		}
		result = append(result, item)
	}
	return result, nil
}

// ListFriends merges the user's registered and offline friends, ranked by aura.
func (s *friendService) ListFriends(ctx context.Context, userID uint) ([]models.CombinedFriend, error) {
	online, err := s.repos.FriendLinks.ListFriends(ctx, userID)
	if err != nil {
		return nil, storeError("list friends", err)
	}
	offline, err := s.repos.OfflineFriends.ListByCreator(ctx, userID)
	if err != nil {
		return nil, storeError("list offline friends", err)
	}
	return friendgraph.Combine(online, offline), nil
}

// FriendLeaderboard ranks the full combined friend list. It is never truncated.
func (s *friendService) FriendLeaderboard(ctx context.Context, userID uint) ([]leaderboard.Entry, error) {
	friends, err := s.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return leaderboard.Rank(leaderboard.FromCombined(friends)), nil
}

func (s *friendService) AddOfflineFriend(ctx context.Context, creatorID uint, name, email string) (*models.OfflineFriend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	friend := &models.OfflineFriend{
		CreatorID: creatorID,
		Name:      name,
		Email:     strings.TrimSpace(email),
	}
	if err := s.repos.OfflineFriends.Create(ctx, friend); err != nil {
		return nil, storeError("create offline friend", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": creatorID, "offline_friend_id": friend.ID}).Info("offline friend added")
	return friend, nil
}

// RemoveOfflineFriend deletes an offline friend owned by creatorID. Someone
// else's offline friend is reported as not found.
func (s *friendService) RemoveOfflineFriend(ctx context.Context, creatorID, offlineFriendID uint) error {
	removed, err := s.repos.OfflineFriends.DeleteByCreator(ctx, offlineFriendID, creatorID)
	if err != nil {
		return storeError("delete offline friend", err)
	}
	if !removed {
		return ErrOfflineFriendMissing
	}
	return nil
}

package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// so callers classify with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrStore        = errors.New("store operation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrReasonRequired        = fmt.Errorf("%w: reason must not be empty", ErrValidation)
	ErrInvalidValue          = fmt.Errorf("%w: value must be an integer", ErrValidation)
	ErrNameRequired          = fmt.Errorf("%w: name must not be empty", ErrValidation)
	ErrSelfProposal          = fmt.Errorf("%w: cannot propose a change to your own aura", ErrValidation)
	ErrFriendRequestSelf     = fmt.Errorf("%w: cannot send a friend request to yourself", ErrValidation)
	ErrAlreadyFriends        = fmt.Errorf("%w: users are already friends", ErrInvalidState)
	ErrFriendRequestExists   = fmt.Errorf("%w: a pending friend request already exists", ErrInvalidState)
	ErrRequestNotPending     = fmt.Errorf("%w: friend request is not pending", ErrInvalidState)
	ErrVotingConcluded       = fmt.Errorf("%w: voting concluded", ErrInvalidState)
	ErrResolutionNotDue      = fmt.Errorf("%w: voting is still open", ErrInvalidState)
	ErrUserAlreadyExists     = fmt.Errorf("%w: username or email already taken", ErrInvalidState)
	ErrProfileNotFound       = fmt.Errorf("profile %w", ErrNotFound)
	ErrRecipientNotFriend    = fmt.Errorf("friend %w", ErrNotFound)
	ErrOfflineFriendMissing  = fmt.Errorf("offline friend %w", ErrNotFound)
	ErrProposalNotFound      = fmt.Errorf("proposal %w", ErrNotFound)
	ErrFriendRequestMissing  = fmt.Errorf("friend request %w", ErrNotFound)
	ErrNotRecipientOfRequest = fmt.Errorf("%w: not the recipient of this friend request", ErrUnauthorized)
	ErrInvalidCredentials    = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrInvalidAvatar         = fmt.Errorf("%w: avatar must be an image within the size limit", ErrValidation)
	ErrInvalidRegistration   = fmt.Errorf("%w: username, email and a password of at least 6 characters are required", ErrValidation)
)

// storeError wraps a repository failure so it classifies as ErrStore
// while keeping the original cause reachable through errors.Is/As.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// lookupError maps a missing row to notFound and anything else to a store error.
func lookupError(op string, err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storeError(op, err)
}

package models

import "time"

// FriendKind discriminates the two sources of a friend entry.
type FriendKind int

const (
	FriendKindOnline FriendKind = iota
	FriendKindOffline
)

// FriendEntry is either an online friend (a Profile reached through a FriendLink)
// or an offline friend. Exactly one of Online and Offline is set, matching Kind.
type FriendEntry struct {
	Kind    FriendKind
	Online  *Profile
	Offline *OfflineFriend
}

// OnlineEntry wraps a profile.
func OnlineEntry(p *Profile) FriendEntry {
	return FriendEntry{Kind: FriendKindOnline, Online: p}
}

// OfflineEntry wraps an offline friend.
func OfflineEntry(f *OfflineFriend) FriendEntry {
	return FriendEntry{Kind: FriendKindOffline, Offline: f}
}

// Aura returns the score of whichever side is set.
func (e FriendEntry) Aura() int64 {
	if e.Kind == FriendKindOffline {
		return e.Offline.Aura
	}
	return e.Online.Aura
}

// Combined flattens the entry for display.
func (e FriendEntry) Combined() CombinedFriend {
	switch e.Kind {
	case FriendKindOffline:
		f := e.Offline
		return CombinedFriend{
			ID:        f.ID,
			Name:      f.Name,
			Email:     f.Email,
			Aura:      f.Aura,
			Avatar:    f.Avatar,
			IsOffline: true,
			CreatedAt: f.CreatedAt,
		}
	default:
		p := e.Online
		return CombinedFriend{
			ID:        p.ID,
			Name:      p.Username,
			Email:     p.Email,
			Aura:      p.Aura,
			Avatar:    p.Avatar,
			CreatedAt: p.CreatedAt,
		}
	}
}

// CombinedFriend is the unified, derived view used for ranking. It is never persisted.
type CombinedFriend struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Aura      int64     `json:"aura"`
	Avatar    string    `json:"avatar,omitempty"`
	IsOffline bool      `json:"isOffline"`
	CreatedAt time.Time `json:"createdAt"`
}

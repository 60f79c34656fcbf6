// Package friendgraph merges registered and offline friends into one ranked list.
package friendgraph

import (
	"sort"

	"aura-go/internal/models"
)

// Entries tags online friends then offline friends, each side in the order given.
func Entries(online []models.Profile, offline []models.OfflineFriend) []models.FriendEntry {
	entries := make([]models.FriendEntry, 0, len(online)+len(offline))
	for i := range online {
		entries = append(entries, models.OnlineEntry(&online[i]))
	}
	for i := range offline {
		entries = append(entries, models.OfflineEntry(&offline[i]))
	}
	return entries
}

// Combine returns both friend lists flattened and sorted by aura, highest first.
// The sort is stable, so on equal aura online friends stay ahead of offline ones
// and each side keeps its enumeration order.
func Combine(online []models.Profile, offline []models.OfflineFriend) []models.CombinedFriend {
	entries := Entries(online, offline)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Aura() > entries[j].Aura()
	})

	combined := make([]models.CombinedFriend, len(entries))
	for i, e := range entries {
		combined[i] = e.Combined()
	}
	return combined
}

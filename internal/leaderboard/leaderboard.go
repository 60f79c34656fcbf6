// Package leaderboard ranks aura holders and formats scores for display.
package leaderboard

import (
	"sort"
	"strconv"

	"aura-go/internal/models"
)

// Entry is one row of a leaderboard.
type Entry struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Aura      int64  `json:"aura"`
	Display   string `json:"display"`
	IsOffline bool   `json:"isOffline"`
}

// FromProfiles builds entries in the order given.
func FromProfiles(profiles []models.Profile) []Entry {
	entries := make([]Entry, len(profiles))
	for i, p := range profiles {
		entries[i] = Entry{ID: p.ID, Name: p.Username, Avatar: p.Avatar, Aura: p.Aura}
	}
	return entries
}

// FromCombined builds entries from an already merged friend list.
func FromCombined(friends []models.CombinedFriend) []Entry {
	entries := make([]Entry, len(friends))
	for i, f := range friends {
		entries[i] = Entry{ID: f.ID, Name: f.Name, Avatar: f.Avatar, Aura: f.Aura, IsOffline: f.IsOffline}
	}
	return entries
}

// Rank returns a copy of entries stably sorted by aura, highest first, with Display filled in.
func Rank(entries []Entry) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Aura > ranked[j].Aura
	})
	for i := range ranked {
		ranked[i].Display = FormatAura(ranked[i].Aura)
	}
	return ranked
}

var auraUnits = []struct {
	size   uint64
	suffix string
}{
	{1e3, "k"},
	{1e6, "m"},
	{1e9, "b"},
}

// FormatAura abbreviates large magnitudes to one decimal, rounding half up:
// 1500 -> "1.5k", -2300000 -> "-2.3m", 999950 -> "1.0m".
// Values below one thousand are printed as is.
func FormatAura(aura int64) string {
	if aura > -1000 && aura < 1000 {
		return strconv.FormatInt(aura, 10)
	}
	sign := ""
	mag := uint64(aura)
	if aura < 0 {
		sign = "-"
		mag = -mag
	}

	unit := 0
	for unit+1 < len(auraUnits) && mag >= auraUnits[unit+1].size {
		unit++
	}
	tenths := roundTenths(mag, auraUnits[unit].size)
	// rounding can carry into the next unit
	if tenths >= 10000 && unit+1 < len(auraUnits) {
		unit++
		tenths = roundTenths(mag, auraUnits[unit].size)
	}
	return sign + strconv.FormatUint(tenths/10, 10) + "." + strconv.FormatUint(tenths%10, 10) + auraUnits[unit].suffix
}

func roundTenths(mag, size uint64) uint64 {
	return mag/size*10 + ((mag%size)*10+size/2)/size
}

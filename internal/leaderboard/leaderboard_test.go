package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAura(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{-999, "-999"},
		{1000, "1.0k"},
		{1500, "1.5k"},
		{-1500, "-1.5k"},
		{2_300_000, "2.3m"},
		{-2_300_000, "-2.3m"},
		{7_100_000_000, "7.1b"},
		{1_050, "1.1k"},
		{999_949, "999.9k"},
		{999_950, "1.0m"},
		{-999_950, "-1.0m"},
		{999_950_000, "1.0b"},
		{-9_223_372_036_854_775_808, "-9223372036.9b"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatAura(c.in), "FormatAura(%d)", c.in)
	}
}

func TestRankStableAndNonMutating(t *testing.T) {
	in := []Entry{
		{ID: 1, Name: "a", Aura: 10},
		{ID: 2, Name: "b", Aura: 50},
		{ID: 3, Name: "c", Aura: 10},
		{ID: 4, Name: "d", Aura: 1200},
	}

	out := Rank(in)
	require.Len(t, out, 4)
	assert.Equal(t, []uint{4, 2, 1, 3}, []uint{out[0].ID, out[1].ID, out[2].ID, out[3].ID})
	assert.Equal(t, "1.2k", out[0].Display)

	assert.Equal(t, uint(1), in[0].ID)
	assert.Empty(t, in[0].Display)
}

package season

import (
	"testing"

	"guild-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFiltersByGuildAndRenumbers(t *testing.T) {
	sub := initial("s", "S", 5_000, 0)
	sub.Guild = domain.GuildSub
	obs := []domain.Observation{
		initial("a", "A", 100, 0),
		sub,
		initial("b", "B", 300, 0),
		{ID: "u", DisplayName: "ghost", Kind: domain.KindInitial, TotalDamageAtCapture: 9_000, CapturedAt: at(1)},
	}

	lb := Build(obs, at(10), Options{Guild: domain.GuildMain})
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "B", lb.Entries[0].PlayerKey)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, "A", lb.Entries[1].PlayerKey)
	assert.Equal(t, 2, lb.Entries[1].Rank)
	require.Len(t, lb.Unattributed, 1)
	assert.Equal(t, "u", lb.Unattributed[0].ID)
	assert.Equal(t, at(10), lb.GeneratedAt)
}

func TestBuildLimit(t *testing.T) {
	obs := []domain.Observation{
		initial("a", "A", 100, 0),
		initial("b", "B", 300, 0),
		initial("c", "C", 200, 0),
	}
	lb := Build(obs, at(10), Options{Limit: 2})
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "B", lb.Entries[0].PlayerKey)
	assert.Equal(t, "C", lb.Entries[1].PlayerKey)
}

func TestHistory(t *testing.T) {
	obs := []domain.Observation{
		ticket("b", "p1", 50, 10),
		initial("x", "p2", 10_000, 0),
		initial("a", "p1", 1_000, 0),
	}

	history, stats, ok := History(obs, "p1", at(20), BaselineFirstRecord)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].ID)
	assert.Equal(t, "b", history[1].ID)
	assert.Equal(t, domain.Damage(1_050), stats.AccumulatedTotal)
	assert.Equal(t, 2, stats.Rank)

	_, _, ok = History(obs, "missing", at(20), BaselineFirstRecord)
	assert.False(t, ok)
}

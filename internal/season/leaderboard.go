package season

import (
	"time"

	"guild-tracker/internal/domain"
)

type Leaderboard struct {
	Entries []domain.PlayerSeasonStats
	// Unattributed holds observations that carry no player identity. They
	// are never merged into anyone's total.
	Unattributed []domain.Observation
	GeneratedAt  time.Time
}

// Build ranks the whole observation set and then applies the guild filter
// and limit. Ranks are re-numbered after filtering so they stay contiguous
// within the returned view.
func Build(observations []domain.Observation, now time.Time, opts Options) Leaderboard {
	lb := Leaderboard{GeneratedAt: now}
	for _, o := range observations {
		if !o.Identified() {
			lb.Unattributed = append(lb.Unattributed, o)
		}
	}
	sortChronological(lb.Unattributed)

	all := ComputeStats(observations, now, opts.Policy)
	entries := make([]domain.PlayerSeasonStats, 0, len(all))
	for _, st := range all {
		if opts.Guild != "" && st.Guild != opts.Guild {
			continue
		}
		entries = append(entries, st)
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	lb.Entries = entries
	return lb
}

// History returns one player's observations in capture order together with
// their current stats and overall rank. ok is false when the player has no
// observations.
func History(observations []domain.Observation, playerKey string, now time.Time, policy BaselinePolicy) (history []domain.Observation, stats domain.PlayerSeasonStats, ok bool) {
	for _, o := range observations {
		if o.Identified() && o.PlayerKey == playerKey {
			history = append(history, o)
		}
	}
	if len(history) == 0 {
		return nil, domain.PlayerSeasonStats{}, false
	}
	sortChronological(history)
	for _, st := range ComputeStats(observations, now, policy) {
		if st.PlayerKey == playerKey {
			stats = st
			break
		}
	}
	return history, stats, true
}

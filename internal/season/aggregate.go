// Package season projects the append-only observation log into per-player
// season statistics and the ranked leaderboard.
package season

import (
	"sort"
	"time"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
)

// BaselinePolicy decides what counts as a player's baseline when none of
// their observations is INITIAL.
type BaselinePolicy string

const (
	// BaselineFirstRecord treats the chronologically first observation as the
	// baseline. Its ticket value is absorbed, not summed.
	BaselineFirstRecord BaselinePolicy = "first_record"
	// BaselineZero starts the player at 0 and sums every INCREMENTAL ticket.
	BaselineZero BaselinePolicy = "zero"
)

func ParseBaselinePolicy(s string) (BaselinePolicy, bool) {
	switch BaselinePolicy(s) {
	case BaselineFirstRecord, "":
		return BaselineFirstRecord, true
	case BaselineZero:
		return BaselineZero, true
	}
	return BaselineFirstRecord, false
}

type Options struct {
	Policy BaselinePolicy
	// Guild filters the ranked entries. Empty keeps every guild.
	Guild domain.Guild
	// Limit truncates the ranked entries. Zero keeps all of them.
	Limit int
}

// ComputeStats aggregates observations into one entry per identified player,
// ranked by accumulated total.
//
// Rules:
//   - Observations are grouped by PlayerKey and ordered by CapturedAt.
//   - The baseline is the earliest INITIAL observation, or per Policy when
//     the player has none.
//   - AccumulatedTotal is the baseline total plus every INCREMENTAL ticket
//     captured strictly after the baseline, saturating at MaxInt64.
//   - MaxDailyTicket only looks at tickets captured less than 24h before now.
//   - Ties on AccumulatedTotal go to the player who updated first, then to
//     the lower PlayerKey.
//
// Observations without a PlayerKey are ignored here; see Build.
func ComputeStats(observations []domain.Observation, now time.Time, policy BaselinePolicy) []domain.PlayerSeasonStats {
	byPlayer := make(map[string][]domain.Observation)
	for _, o := range observations {
		if !o.Identified() {
			continue
		}
		byPlayer[o.PlayerKey] = append(byPlayer[o.PlayerKey], o)
	}

	stats := make([]domain.PlayerSeasonStats, 0, len(byPlayer))
	for key, obs := range byPlayer {
		stats = append(stats, playerStats(key, obs, now, policy))
	}

	sortRanking(stats)
	for i := range stats {
		stats[i].Rank = i + 1
	}
	return stats
}

func playerStats(key string, obs []domain.Observation, now time.Time, policy BaselinePolicy) domain.PlayerSeasonStats {
	sorted := make([]domain.Observation, len(obs))
	copy(sorted, obs)
	sortChronological(sorted)

	latest := sorted[len(sorted)-1]
	st := domain.PlayerSeasonStats{
		PlayerKey:     key,
		DisplayName:   latest.DisplayName,
		AvatarURL:     latest.AvatarURL,
		Guild:         latest.Guild,
		EntryCount:    len(sorted),
		LastUpdatedAt: latest.CapturedAt,
	}

	baseIdx := baselineIndex(sorted, policy)
	var total domain.Damage
	for i, o := range sorted {
		if o.Kind != domain.KindIncremental {
			continue
		}
		if baseIdx >= 0 && (i == baseIdx || !o.CapturedAt.After(sorted[baseIdx].CapturedAt)) {
			continue
		}
		total = total.Add(o.TicketDamage)
	}
	if baseIdx >= 0 {
		st.BaselineTotal = sorted[baseIdx].TotalDamageAtCapture
	}
	st.AccumulatedTotal = st.BaselineTotal.Add(total)
	st.MaxDailyTicket = maxDailyTicket(sorted, now)
	return st
}

// baselineIndex returns -1 when the player has no baseline at all, which
// only happens under BaselineZero.
func baselineIndex(sorted []domain.Observation, policy BaselinePolicy) int {
	for i, o := range sorted {
		if o.Kind == domain.KindInitial {
			return i
		}
	}
	if policy == BaselineZero {
		return -1
	}
	return 0
}

func maxDailyTicket(obs []domain.Observation, now time.Time) domain.Damage {
	var best domain.Damage
	for _, o := range obs {
		if o.Kind != domain.KindIncremental {
			continue
		}
		if now.Sub(o.CapturedAt) >= constants.DailyWindow {
			continue
		}
		if o.TicketDamage > best {
			best = o.TicketDamage
		}
	}
	return best
}

func sortChronological(obs []domain.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if !obs[i].CapturedAt.Equal(obs[j].CapturedAt) {
			return obs[i].CapturedAt.Before(obs[j].CapturedAt)
		}
		return obs[i].ID < obs[j].ID
	})
}

func sortRanking(stats []domain.PlayerSeasonStats) {
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.AccumulatedTotal != b.AccumulatedTotal {
			return a.AccumulatedTotal > b.AccumulatedTotal
		}
		if !a.LastUpdatedAt.Equal(b.LastUpdatedAt) {
			return a.LastUpdatedAt.Before(b.LastUpdatedAt)
		}
		return a.PlayerKey < b.PlayerKey
	})
}

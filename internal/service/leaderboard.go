package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/repository"
	"guild-tracker/internal/season"

	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("player has no observations")

type PlayerHistory struct {
	Stats        domain.PlayerSeasonStats
	Observations []domain.Observation
}

// LeaderboardService derives every view from the full observation log on
// each call. Nothing is cached.
type LeaderboardService struct {
	store  repository.ObservationStore
	policy season.BaselinePolicy
	now    func() time.Time
	logger zerolog.Logger
}

func NewLeaderboardService(store repository.ObservationStore, cfg *config.Config, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		policy: cfg.BaselinePolicy,
		now:    time.Now,
		logger: logger,
	}
}

// Leaderboard ranks the season. A limit of zero returns every player.
func (s *LeaderboardService) Leaderboard(ctx context.Context, guild domain.Guild, limit int) (season.Leaderboard, error) {
	if guild != "" && !guild.Valid() {
		return season.Leaderboard{}, fmt.Errorf("%w: %q", ErrInvalidGuild, guild)
	}
	if limit < 0 {
		limit = 0
	}

	observations, err := s.list(ctx)
	if err != nil {
		return season.Leaderboard{}, err
	}

	board := season.Build(observations, s.now(), season.Options{Policy: s.policy, Guild: guild, Limit: limit})
	s.logger.Debug().
		Str("guild", string(guild)).
		Int("observations", len(observations)).
		Int("entries", len(board.Entries)).
		Int("unattributed", len(board.Unattributed)).
		Msg("leaderboard computed")
	return board, nil
}

func (s *LeaderboardService) PlayerHistory(ctx context.Context, playerKey string) (PlayerHistory, error) {
	if playerKey == "" {
		return PlayerHistory{}, ErrPlayerNotFound
	}

	observations, err := s.list(ctx)
	if err != nil {
		return PlayerHistory{}, err
	}

	history, stats, ok := season.History(observations, playerKey, s.now(), s.policy)
	if !ok {
		return PlayerHistory{}, ErrPlayerNotFound
	}
	return PlayerHistory{Stats: stats, Observations: history}, nil
}

// Standing returns the current stats of one player.
func (s *LeaderboardService) Standing(ctx context.Context, playerKey string) (domain.PlayerSeasonStats, error) {
	h, err := s.PlayerHistory(ctx, playerKey)
	if err != nil {
		return domain.PlayerSeasonStats{}, err
	}
	return h.Stats, nil
}

func (s *LeaderboardService) list(ctx context.Context) ([]domain.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	observations, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return observations, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// MirroredStore writes to the remote table first and then to the local
// mirror. Reads prefer remote and fall back to the mirror when remote is
// unconfigured or failing, in which case results may be stale.
type MirroredStore struct {
	remote *RemoteStore
	local  *LocalStore
	logger zerolog.Logger
}

func NewMirroredStore(remote *RemoteStore, local *LocalStore, logger zerolog.Logger) *MirroredStore {
	return &MirroredStore{remote: remote, local: local, logger: logger.With().Str("store", "mirrored").Logger()}
}

func (s *MirroredStore) RemoteConfigured() bool {
	return s.remote != nil && s.remote.Configured()
}

func (s *MirroredStore) Append(ctx context.Context, obs domain.Observation) (domain.Observation, error) {
	if err := ensureID(&obs); err != nil {
		return domain.Observation{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	if !s.RemoteConfigured() {
		// The mirror drops inline screenshots, but callers still get the
		// reference they submitted so the notification can carry it.
		if _, err := s.local.Append(ctx, obs); err != nil {
			return domain.Observation{}, err
		}
		return obs, nil
	}
	stored, err := s.remote.Append(ctx, obs)
	if err != nil {
		return domain.Observation{}, err
	}

	// The mirror is best effort; the remote row is already committed.
	if _, err := s.local.Append(ctx, stored); err != nil {
		s.logger.Warn().Err(err).Str("id", stored.ID).Msg("failed to mirror observation locally")
	}
	return stored, nil
}

func (s *MirroredStore) ListAll(ctx context.Context) ([]domain.Observation, error) {
	if s.RemoteConfigured() {
		obs, err := s.remote.ListAll(ctx)
		if err == nil {
			return obs, nil
		}
		s.logger.Warn().Err(err).Msg("remote unavailable, reading local mirror")
	}
	return s.local.ListAll(ctx)
}

func (s *MirroredStore) Remove(ctx context.Context, id string) error {
	var errs []error
	if s.RemoteConfigured() {
		if err := s.remote.Remove(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.local.Remove(ctx, id); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *MirroredStore) Clear(ctx context.Context) error {
	var errs []error
	if s.RemoteConfigured() {
		if err := s.remote.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.local.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SyncMirror refreshes the local mirror from the remote table so a later
// remote outage serves a recent snapshot.
func (s *MirroredStore) SyncMirror(ctx context.Context) (int, error) {
	if !s.RemoteConfigured() {
		return 0, nil
	}
	obs, err := s.remote.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.local.ReplaceAll(ctx, obs); err != nil {
		return 0, fmt.Errorf("failed to replace mirror: %w", err)
	}
	s.logger.Info().Int("count", len(obs)).Msg("local mirror synced")
	return len(obs), nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/db"
	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// LocalStore is the sqlite mirror. It keeps screenshot links but never the
// inline image payload.
type LocalStore struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewLocalStore(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *LocalStore {
	return &LocalStore{
		queries: queries,
		db:      sqlDB,
		logger:  logger.With().Str("store", "local").Logger(),
	}
}

func (s *LocalStore) Append(ctx context.Context, obs domain.Observation) (domain.Observation, error) {
	if err := ensureID(&obs); err != nil {
		return domain.Observation{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	if err := s.queries.InsertObservation(ctx, s.insertParams(obs, time.Now())); err != nil {
		return domain.Observation{}, fmt.Errorf("failed to insert observation %s: %w", obs.ID, err)
	}
	if isInlinePayload(obs.ScreenshotRef) {
		obs.ScreenshotRef = ""
	}
	return obs, nil
}

func (s *LocalStore) ListAll(ctx context.Context) ([]domain.Observation, error) {
	rows, err := s.queries.ListObservations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Observation, len(rows))
	for i, row := range rows {
		result[i] = domain.Observation{
			ID:                   row.ID,
			PlayerKey:            row.PlayerKey,
			DisplayName:          row.DisplayName,
			AvatarURL:            row.AvatarUrl,
			Guild:                domain.Guild(row.Guild),
			Kind:                 domain.Kind(row.Kind),
			TotalDamageAtCapture: domain.Damage(row.TotalDamage),
			TicketDamage:         domain.Damage(row.TicketDamage),
			CapturedAt:           time.UnixMilli(row.CapturedAtMs).UTC(),
			ScreenshotRef:        row.ScreenshotRef,
		}
	}
	return result, nil
}

func (s *LocalStore) Remove(ctx context.Context, id string) error {
	n, err := s.queries.DeleteObservation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete observation %s: %w", id, err)
	}
	s.logger.Debug().Str("id", id).Int64("rows", n).Msg("observation removed")
	return nil
}

func (s *LocalStore) Clear(ctx context.Context) error {
	return s.queries.DeleteAllObservations(ctx)
}

// ReplaceAll swaps the mirror contents for observations in one transaction.
func (s *LocalStore) ReplaceAll(ctx context.Context, observations []domain.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	if err := qtx.DeleteAllObservations(ctx); err != nil {
		return fmt.Errorf("failed to clear mirror: %w", err)
	}

	now := time.Now()
	for i := 0; i < len(observations); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(observations) {
			end = len(observations)
		}

		for _, obs := range observations[i:end] {
			if err := ensureID(&obs); err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
			if err := qtx.InsertObservation(ctx, s.insertParams(obs, now)); err != nil {
				return fmt.Errorf("failed to insert observation %s: %w", obs.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (s *LocalStore) insertParams(obs domain.Observation, mirroredAt time.Time) db.InsertObservationParams {
	ref := obs.ScreenshotRef
	if isInlinePayload(ref) {
		ref = ""
	}
	return db.InsertObservationParams{
		ID:            obs.ID,
		PlayerKey:     obs.PlayerKey,
		DisplayName:   obs.DisplayName,
		AvatarUrl:     obs.AvatarURL,
		Guild:         string(obs.Guild),
		Kind:          string(obs.Kind),
		TotalDamage:   obs.TotalDamageAtCapture.Int64(),
		TicketDamage:  obs.TicketDamage.Int64(),
		CapturedAtMs:  obs.CapturedAt.UnixMilli(),
		ScreenshotRef: ref,
		MirroredAtMs:  mirroredAt.UnixMilli(),
	}
}

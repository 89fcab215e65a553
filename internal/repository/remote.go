package repository

import (
	"context"
	"fmt"
	"strings"

	"guild-tracker/internal/api"
	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RemoteStore is the shared, authoritative table.
type RemoteStore struct {
	client *api.SupabaseClient
	logger zerolog.Logger
}

func NewRemoteStore(client *api.SupabaseClient, logger zerolog.Logger) *RemoteStore {
	return &RemoteStore{client: client, logger: logger.With().Str("store", "remote").Logger()}
}

func (s *RemoteStore) Configured() bool {
	return s.client.Configured()
}

func (s *RemoteStore) Append(ctx context.Context, obs domain.Observation) (domain.Observation, error) {
	if err := ensureID(&obs); err != nil {
		return domain.Observation{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	row, err := s.client.InsertRow(ctx, toRow(obs))
	if err != nil {
		return domain.Observation{}, fmt.Errorf("failed to insert remote row: %w", err)
	}
	stored, ok := fromRow(*row)
	if !ok {
		return obs, nil
	}
	return stored, nil
}

func (s *RemoteStore) ListAll(ctx context.Context) ([]domain.Observation, error) {
	rows, err := s.client.ListRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote rows: %w", err)
	}

	result := make([]domain.Observation, 0, len(rows))
	for _, row := range rows {
		obs, ok := fromRow(row)
		if !ok {
			s.logger.Warn().Str("id", string(row.ID)).Str("record_type", row.RecordType).Msg("skipping row with unknown record type")
			continue
		}
		result = append(result, obs)
	}
	return result, nil
}

func (s *RemoteStore) Remove(ctx context.Context, id string) error {
	if err := s.client.DeleteRow(ctx, id); err != nil {
		return fmt.Errorf("failed to delete remote row %s: %w", id, err)
	}
	return nil
}

func (s *RemoteStore) Clear(ctx context.Context) error {
	if err := s.client.DeleteAllRows(ctx); err != nil {
		return fmt.Errorf("failed to clear remote table: %w", err)
	}
	return nil
}

func toRow(obs domain.Observation) api.Row {
	row := api.Row{
		ID:           api.FlexString(obs.ID),
		PlayerName:   obs.DisplayName,
		Guild:        string(obs.Guild),
		RecordType:   string(obs.Kind),
		TotalDamage:  obs.TotalDamageAtCapture,
		TicketDamage: obs.TicketDamage,
		Timestamp:    api.EpochMillis(obs.CapturedAt.UnixMilli()),
	}
	if obs.ScreenshotRef != "" {
		row.ScreenshotURL = &obs.ScreenshotRef
	}
	if obs.PlayerKey != "" {
		row.DiscordID = &obs.PlayerKey
		row.DiscordUsername = &obs.DisplayName
	}
	if obs.AvatarURL != "" {
		row.DiscordAvatar = &obs.AvatarURL
	}
	return row
}

// fromRow maps a table row back to an observation. Rows written without a
// discord id stay unidentified even when they carry a player name.
func fromRow(row api.Row) (domain.Observation, bool) {
	kind := domain.Kind(strings.ToUpper(strings.TrimSpace(row.RecordType)))
	if !kind.Valid() {
		return domain.Observation{}, false
	}

	obs := domain.Observation{
		ID:                   string(row.ID),
		DisplayName:          row.PlayerName,
		Guild:                domain.Guild(row.Guild),
		Kind:                 kind,
		TotalDamageAtCapture: row.TotalDamage,
		TicketDamage:         row.TicketDamage,
		CapturedAt:           row.Timestamp.Time(),
	}
	if row.DiscordID != nil {
		obs.PlayerKey = strings.TrimSpace(*row.DiscordID)
	}
	if obs.DisplayName == "" && row.DiscordUsername != nil {
		obs.DisplayName = *row.DiscordUsername
	}
	if row.DiscordAvatar != nil {
		obs.AvatarURL = *row.DiscordAvatar
	}
	if row.ScreenshotURL != nil {
		obs.ScreenshotRef = *row.ScreenshotURL
	}
	return obs, true
}

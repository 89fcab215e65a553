package repository

import (
	"context"
	"strings"

	"guild-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ObservationStore persists the append-only damage log.
type ObservationStore interface {
	Append(ctx context.Context, obs domain.Observation) (domain.Observation, error)
	ListAll(ctx context.Context) ([]domain.Observation, error)
	// Remove deletes one observation. Removing an unknown id is not an error.
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

func ensureID(obs *domain.Observation) error {
	if obs.ID != "" {
		return nil
	}
	id, err := gonanoid.New()
	if err != nil {
		return err
	}
	obs.ID = id
	return nil
}

// isInlinePayload reports whether ref embeds the image itself rather than
// pointing at it.
func isInlinePayload(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"guild-tracker/internal/domain"
)

// DamageRecorded is published once an observation is committed.
type DamageRecorded struct {
	ObservationID    string        `json:"observationId"`
	PlayerKey        string        `json:"playerKey"`
	DisplayName      string        `json:"displayName"`
	AvatarURL        string        `json:"avatarUrl,omitempty"`
	Guild            domain.Guild  `json:"guild"`
	Kind             domain.Kind   `json:"kind"`
	TicketDamage     domain.Damage `json:"ticketDamage"`
	TotalDamage      domain.Damage `json:"totalDamage"`
	AccumulatedTotal domain.Damage `json:"accumulatedTotal"`
	Rank             int           `json:"rank,omitempty"`
	ScreenshotRef    string        `json:"screenshotRef,omitempty"`
	CapturedAt       time.Time     `json:"capturedAt"`
}

// EventFor describes obs together with the player's standing after it.
func EventFor(obs domain.Observation, stats domain.PlayerSeasonStats) DamageRecorded {
	return DamageRecorded{
		ObservationID:    obs.ID,
		PlayerKey:        obs.PlayerKey,
		DisplayName:      obs.DisplayName,
		AvatarURL:        obs.AvatarURL,
		Guild:            obs.Guild,
		Kind:             obs.Kind,
		TicketDamage:     obs.TicketDamage,
		TotalDamage:      obs.TotalDamageAtCapture,
		AccumulatedTotal: stats.AccumulatedTotal,
		Rank:             stats.Rank,
		ScreenshotRef:    obs.ScreenshotRef,
		CapturedAt:       obs.CapturedAt,
	}
}

func encodeEvent(ev DamageRecorded) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}

func decodeEvent(payload []byte) (DamageRecorded, error) {
	var ev DamageRecorded
	if err := json.Unmarshal(payload, &ev); err != nil {
		return DamageRecorded{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}

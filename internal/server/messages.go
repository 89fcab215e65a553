package server

import (
	"time"

	"guild-tracker/internal/domain"
	"guild-tracker/internal/season"
	"guild-tracker/internal/service"
)

type Observation struct {
	ID            string `json:"id"`
	PlayerKey     string `json:"playerKey,omitempty"`
	DisplayName   string `json:"displayName"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Guild         string `json:"guild"`
	Kind          string `json:"kind"`
	TotalDamage   int64  `json:"totalDamage"`
	TicketDamage  int64  `json:"ticketDamage"`
	CapturedAt    string `json:"capturedAt"`
	ScreenshotRef string `json:"screenshotRef,omitempty"`
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	PlayerKey        string `json:"playerKey"`
	DisplayName      string `json:"displayName"`
	AvatarURL        string `json:"avatarUrl,omitempty"`
	Guild            string `json:"guild"`
	BaselineTotal    int64  `json:"baselineTotal"`
	AccumulatedTotal int64  `json:"accumulatedTotal"`
	MaxDailyTicket   int64  `json:"maxDailyTicket"`
	EntryCount       int    `json:"entryCount"`
	LastUpdatedAt    string `json:"lastUpdatedAt"`
}

type GetLeaderboardRequest struct {
	Guild string `json:"guild,omitempty"`
	Limit int    `json:"limit,omitempty"` // zero returns every player
}

type GetLeaderboardResponse struct {
	Entries      []LeaderboardEntry `json:"entries"`
	Unattributed []Observation      `json:"unattributed"`
	GeneratedAt  string             `json:"generatedAt"`
}

type GetPlayerHistoryRequest struct {
	PlayerKey string `json:"playerKey"`
}

type GetPlayerHistoryResponse struct {
	Stats        LeaderboardEntry `json:"stats"`
	Observations []Observation    `json:"observations"`
}

type ExtractScreenshotRequest struct {
	ContentType string `json:"contentType"`
	Image       []byte `json:"image"`
}

type ExtractScreenshotResponse struct {
	PlayerName   string `json:"playerName"`
	Kind         string `json:"kind"`
	TotalDamage  int64  `json:"totalDamage"`
	TicketDamage int64  `json:"ticketDamage"`
	Degraded     bool   `json:"degraded"`
	Reason       string `json:"reason,omitempty"`
}

// SubmitObservationRequest accepts damage figures as numbers or numeric
// strings; anything unreadable counts as zero.
type SubmitObservationRequest struct {
	Guild        string        `json:"guild"`
	Kind         string        `json:"kind"`
	PlayerName   string        `json:"playerName,omitempty"`
	TotalDamage  domain.Damage `json:"totalDamage"`
	TicketDamage domain.Damage `json:"ticketDamage"`
	ContentType  string        `json:"contentType,omitempty"`
	Image        []byte        `json:"image,omitempty"`
}

type SubmitObservationResponse struct {
	Observation Observation      `json:"observation"`
	Stats       LeaderboardEntry `json:"stats"`
	Notified    bool             `json:"notified"`
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type GetSettingsRequest struct {
	State string `json:"state,omitempty"`
}

type GetSettingsResponse struct {
	DiscordClientID     string          `json:"discordClientId,omitempty"`
	DiscordAuthorizeURL string          `json:"discordAuthorizeUrl,omitempty"`
	Guilds              []string        `json:"guilds"`
	RecruitmentOpen     map[string]bool `json:"recruitmentOpen"`
	ExtractionEnabled   bool            `json:"extractionEnabled"`
	RemoteEnabled       bool            `json:"remoteEnabled"`
	AdminEnabled        bool            `json:"adminEnabled"`
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type DeleteObservationRequest struct {
	ID string `json:"id"`
}

type DeleteObservationResponse struct{}

type ClearSeasonRequest struct {
	Confirm bool `json:"confirm"`
}

type ClearSeasonResponse struct{}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toObservation(o domain.Observation) Observation {
	return Observation{
		ID:            o.ID,
		PlayerKey:     o.PlayerKey,
		DisplayName:   o.DisplayName,
		AvatarURL:     o.AvatarURL,
		Guild:         string(o.Guild),
		Kind:          string(o.Kind),
		TotalDamage:   o.TotalDamageAtCapture.Int64(),
		TicketDamage:  o.TicketDamage.Int64(),
		CapturedAt:    formatTime(o.CapturedAt),
		ScreenshotRef: o.ScreenshotRef,
	}
}

func toObservations(list []domain.Observation) []Observation {
	out := make([]Observation, len(list))
	for i, o := range list {
		out[i] = toObservation(o)
	}
	return out
}

func toEntry(s domain.PlayerSeasonStats) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:             s.Rank,
		PlayerKey:        s.PlayerKey,
		DisplayName:      s.DisplayName,
		AvatarURL:        s.AvatarURL,
		Guild:            string(s.Guild),
		BaselineTotal:    s.BaselineTotal.Int64(),
		AccumulatedTotal: s.AccumulatedTotal.Int64(),
		MaxDailyTicket:   s.MaxDailyTicket.Int64(),
		EntryCount:       s.EntryCount,
		LastUpdatedAt:    formatTime(s.LastUpdatedAt),
	}
}

func toLeaderboardResponse(board season.Leaderboard) *GetLeaderboardResponse {
	entries := make([]LeaderboardEntry, len(board.Entries))
	for i, e := range board.Entries {
		entries[i] = toEntry(e)
	}
	return &GetLeaderboardResponse{
		Entries:      entries,
		Unattributed: toObservations(board.Unattributed),
		GeneratedAt:  formatTime(board.GeneratedAt),
	}
}

func toSettingsResponse(s service.PublicSettings) *GetSettingsResponse {
	guilds := make([]string, len(s.Guilds))
	for i, g := range s.Guilds {
		guilds[i] = string(g)
	}
	recruitment := make(map[string]bool, len(s.RecruitmentOpen))
	for g, open := range s.RecruitmentOpen {
		recruitment[string(g)] = open
	}
	return &GetSettingsResponse{
		DiscordClientID:     s.DiscordClientID,
		DiscordAuthorizeURL: s.DiscordAuthorizeURL,
		Guilds:              guilds,
		RecruitmentOpen:     recruitment,
		ExtractionEnabled:   s.ExtractionEnabled,
		RemoteEnabled:       s.RemoteEnabled,
		AdminEnabled:        s.AdminEnabled,
	}
}

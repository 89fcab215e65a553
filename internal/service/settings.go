package service

import (
	"guild-tracker/internal/config"
	"guild-tracker/internal/domain"
)

// PublicSettings is the configuration safe to hand to any client.
type PublicSettings struct {
	DiscordClientID     string
	DiscordAuthorizeURL string
	Guilds              []domain.Guild
	RecruitmentOpen     map[domain.Guild]bool
	ExtractionEnabled   bool
	RemoteEnabled       bool
	AdminEnabled        bool
}

type AuthorizeURLBuilder interface {
	AuthorizeURL(state string) string
}

type SettingsService struct {
	cfg     *config.Config
	discord AuthorizeURLBuilder
}

func NewSettingsService(cfg *config.Config, discord AuthorizeURLBuilder) *SettingsService {
	return &SettingsService{cfg: cfg, discord: discord}
}

func (s *SettingsService) Public(state string) PublicSettings {
	recruitment := make(map[domain.Guild]bool, len(domain.Guilds))
	for _, g := range domain.Guilds {
		recruitment[g] = s.cfg.RecruitmentOpen[g]
	}

	settings := PublicSettings{
		DiscordClientID:   s.cfg.DiscordClientID,
		Guilds:            append([]domain.Guild(nil), domain.Guilds...),
		RecruitmentOpen:   recruitment,
		ExtractionEnabled: s.cfg.VisionAPIKey != "",
		RemoteEnabled:     s.cfg.RemoteEnabled(),
		AdminEnabled:      s.cfg.AdminEnabled(),
	}
	if s.cfg.DiscordClientID != "" {
		settings.DiscordAuthorizeURL = s.discord.AuthorizeURL(state)
	}
	return settings
}

package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
)

// Bundle is the settings payload shared as a base64 URL parameter so a new
// deployment can be configured in one step.
type Bundle struct {
	WebhookMain       string `json:"webhookMain,omitempty"`
	WebhookSub        string `json:"webhookSub,omitempty"`
	WebhookShared     string `json:"webhookShared,omitempty"`
	RemoteURL         string `json:"supabaseUrl,omitempty"`
	RemoteKey         string `json:"supabaseKey,omitempty"`
	DiscordClientID   string `json:"discordClientId,omitempty"`
	AdminPasswordHash string `json:"adminPasswordHash,omitempty"`
	RecruitmentMain   *bool  `json:"recruitmentMain,omitempty"`
	RecruitmentSub    *bool  `json:"recruitmentSub,omitempty"`
}

func DecodeBundle(encoded string) (*Bundle, error) {
	encoded = strings.TrimSpace(encoded)
	raw, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle json: %w", err)
	}
	return &b, nil
}

// decodeBase64 accepts both the standard and URL-safe alphabets, padded or
// not, since links get re-encoded by chat clients.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func (b *Bundle) Encode() (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Link builds a shareable onboarding URL on top of baseURL.
func (b *Bundle) Link(baseURL string) (string, error) {
	encoded, err := b.Encode()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set(constants.OnboardingParamName, encoded)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Apply overrides cfg with every field set in the bundle.
func (b *Bundle) Apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Webhooks.Main, b.WebhookMain)
	set(&cfg.Webhooks.Sub, b.WebhookSub)
	set(&cfg.Webhooks.Shared, b.WebhookShared)
	set(&cfg.RemoteURL, strings.TrimRight(b.RemoteURL, "/"))
	set(&cfg.RemoteKey, b.RemoteKey)
	set(&cfg.DiscordClientID, b.DiscordClientID)
	set(&cfg.AdminPasswordHash, b.AdminPasswordHash)

	if cfg.RecruitmentOpen == nil {
		cfg.RecruitmentOpen = make(map[domain.Guild]bool)
	}
	if b.RecruitmentMain != nil {
		cfg.RecruitmentOpen[domain.GuildMain] = *b.RecruitmentMain
	}
	if b.RecruitmentSub != nil {
		cfg.RecruitmentOpen[domain.GuildSub] = *b.RecruitmentSub
	}
}

// BundleFrom captures the shareable subset of cfg.
func BundleFrom(cfg *Config) *Bundle {
	main := cfg.RecruitmentOpen[domain.GuildMain]
	sub := cfg.RecruitmentOpen[domain.GuildSub]
	return &Bundle{
		WebhookMain:       cfg.Webhooks.Main,
		WebhookSub:        cfg.Webhooks.Sub,
		WebhookShared:     cfg.Webhooks.Shared,
		RemoteURL:         cfg.RemoteURL,
		RemoteKey:         cfg.RemoteKey,
		DiscordClientID:   cfg.DiscordClientID,
		AdminPasswordHash: cfg.AdminPasswordHash,
		RecruitmentMain:   &main,
		RecruitmentSub:    &sub,
	}
}

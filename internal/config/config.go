package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/season"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	ServerPort string
	LogLevel   string
	DBPath     string

	BaselinePolicy season.BaselinePolicy

	RemoteURL   string
	RemoteKey   string
	RemoteTable string

	Webhooks Webhooks

	DiscordClientID    string
	DiscordRedirectURI string
	DiscordAPIBase     string

	VisionAPIKey  string
	VisionModel   string
	VisionBaseURL string

	AdminPasswordHash string
	JWTSecret         string

	RecruitmentOpen map[domain.Guild]bool

	S3 S3Config

	MirrorSyncInterval time.Duration
}

type Webhooks struct {
	Main   string
	Sub    string
	Shared string
}

// ForGuild returns the webhook dedicated to a guild, empty when none is set.
func (w Webhooks) ForGuild(g domain.Guild) string {
	switch g {
	case domain.GuildMain:
		return w.Main
	case domain.GuildSub:
		return w.Sub
	}
	return ""
}

type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	CDNBaseURL      string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != ""
}

func (c *Config) RemoteEnabled() bool {
	return c.RemoteURL != "" && c.RemoteKey != ""
}

func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" && c.JWTSecret != ""
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DBPath:      getEnv("DB_PATH", "guild.db"),
		RemoteURL:   strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		RemoteKey:   getEnv("SUPABASE_KEY", ""),
		RemoteTable: getEnv("SUPABASE_TABLE", "damage_records"),
		Webhooks: Webhooks{
			Main:   getEnv("WEBHOOK_MAIN", ""),
			Sub:    getEnv("WEBHOOK_SUB", ""),
			Shared: getEnv("WEBHOOK_SHARED", ""),
		},
		DiscordClientID:    getEnv("DISCORD_CLIENT_ID", ""),
		DiscordRedirectURI: getEnv("DISCORD_REDIRECT_URI", ""),
		DiscordAPIBase:     strings.TrimRight(getEnv("DISCORD_API_BASE", "https://discord.com/api"), "/"),
		VisionAPIKey:       getEnv("GEMINI_API_KEY", ""),
		VisionModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		VisionBaseURL:      strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"), "/"),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RecruitmentOpen: map[domain.Guild]bool{
			domain.GuildMain: getEnvBool("RECRUITMENT_MAIN", false),
			domain.GuildSub:  getEnvBool("RECRUITMENT_SUB", false),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			AccessKeySecret: getEnv("S3_ACCESS_KEY_SECRET", ""),
			CDNBaseURL:      strings.TrimRight(getEnv("CDN_BASE_URL", ""), "/"),
		},
	}

	policy, ok := season.ParseBaselinePolicy(getEnv("BASELINE_POLICY", string(season.BaselineFirstRecord)))
	if !ok {
		return nil, fmt.Errorf("BASELINE_POLICY must be %q or %q", season.BaselineFirstRecord, season.BaselineZero)
	}
	cfg.BaselinePolicy = policy

	interval, err := time.ParseDuration(getEnv("MIRROR_SYNC_INTERVAL", constants.MirrorSyncInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid MIRROR_SYNC_INTERVAL: %w", err)
	}
	cfg.MirrorSyncInterval = interval

	if encoded := getEnv("ONBOARDING_BUNDLE", ""); encoded != "" {
		bundle, err := DecodeBundle(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid ONBOARDING_BUNDLE: %w", err)
		}
		bundle.Apply(cfg)
		logger.Info().Msg("onboarding bundle applied")
	}

	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("baseline_policy", string(cfg.BaselinePolicy)).
		Bool("remote_enabled", cfg.RemoteEnabled()).
		Bool("vision_enabled", cfg.VisionAPIKey != "").
		Bool("admin_enabled", cfg.AdminEnabled()).
		Bool("s3_enabled", cfg.S3.Enabled()).
		Dur("mirror_sync_interval", cfg.MirrorSyncInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

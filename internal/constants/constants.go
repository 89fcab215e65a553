package constants

import "time"

const (
	DailyWindow         = 24 * time.Hour
	MirrorSyncInterval  = 10 * time.Minute
	AdminTokenDuration  = 12 * time.Hour
	OnboardingParamName = "config"
)

const (
	ExternalAPITimeout = 10 * time.Second
	VisionAPITimeout   = 30 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	NotifyTimeout      = 15 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	MaxScreenshotBytes = 8 << 20
)

const (
	NotificationTopic = "damage.recorded"
)

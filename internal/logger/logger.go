package logger

import (
	"os"

	"guild-tracker/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Bootstrap is the logger used while configuration is loading.
func Bootstrap() zerolog.Logger {
	return SetLevel(zerolog.InfoLevel)
}

// New builds the process logger at level. Unknown or empty levels log at
// info.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return SetLevel(lvl)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

func FromConfig(cfg *config.Config) zerolog.Logger {
	return New(cfg.LogLevel)
}

var Module = fx.Provide(FromConfig)

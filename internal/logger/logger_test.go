package logger

import (
	"testing"

	"guild-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, New(in).GetLevel())
		})
	}
}

func TestFromConfigAppliesLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, FromConfig(&config.Config{LogLevel: "warn"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, Bootstrap().GetLevel())
}

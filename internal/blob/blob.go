package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var ErrTooLarge = errors.New("screenshot exceeds size limit")

// ImageStore keeps submitted screenshots and returns a reference that
// can be rendered by clients and linked from notifications.
type ImageStore interface {
	Put(ctx context.Context, playerKey, contentType string, data []byte) (string, error)
}

// New picks the bucket store when one is configured and falls back to
// inline data URLs otherwise.
func New(cfg *config.Config, logger zerolog.Logger) (ImageStore, error) {
	if !cfg.S3.Enabled() {
		logger.Info().Msg("no screenshot bucket configured, storing screenshots inline")
		return InlineStore{}, nil
	}
	return NewS3Store(context.Background(), cfg.S3, logger)
}

// InlineStore encodes the image into the reference itself.
type InlineStore struct{}

func (InlineStore) Put(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	if len(data) > constants.MaxScreenshotBytes {
		return "", ErrTooLarge
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// objectKey returns screenshots/<player>/<id>.<ext>.
func objectKey(playerKey, contentType string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}
	owner := slug.Make(playerKey)
	if owner == "" {
		owner = "anonymous"
	}
	return fmt.Sprintf("screenshots/%s/%s.%s", owner, id, extension(contentType)), nil
}

func extension(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(ct)) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}

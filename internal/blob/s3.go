package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Store uploads screenshots to an S3 compatible bucket (R2 included)
// and hands out public CDN links.
type S3Store struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
	logger     zerolog.Logger
}

func NewS3Store(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	cdn := strings.TrimRight(cfg.CDNBaseURL, "/")
	if cdn == "" {
		cdn = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		cdnBaseURL: cdn,
		logger:     logger.With().Str("store", "s3").Logger(),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, playerKey, contentType string, data []byte) (string, error) {
	if len(data) > constants.MaxScreenshotBytes {
		return "", ErrTooLarge
	}

	key, err := objectKey(playerKey, contentType)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload screenshot: %w", err)
	}

	url := fmt.Sprintf("%s/%s", s.cdnBaseURL, key)
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("screenshot uploaded")
	return url, nil
}

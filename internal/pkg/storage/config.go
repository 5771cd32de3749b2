package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
	"github.com/google/uuid"
)

// Config holds S3 asset storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads asset storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_STORAGE_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when asset storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when asset storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when asset storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if asset storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// NewObjectKey generates a standardized object key for a course asset.
// Format: <kind>/YYYY/MM/<uuid><ext>, e.g. videos/2026/08/3f1c....mp4
func NewObjectKey(kind, fileExtension string, now time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%s%s", kind, now.Year(), int(now.Month()), uuid.NewString(), fileExtension)
}

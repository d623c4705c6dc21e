package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

// Config holds S3 archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnvBool("S3_ARCHIVE_ENABLED", false),
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the certificate archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the certificate archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the certificate archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if archiving is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey is certificates/YYYY/MM/<folio>.png
func ObjectKey(folio string, at time.Time) string {
	return fmt.Sprintf("certificates/%04d/%02d/%s.png", at.Year(), int(at.Month()), folio)
}

// Package archive stores rendered certificates in an S3 compatible bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

// objectAPI is the subset of the S3 client used here
type objectAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads certificate images
type Client struct {
	api    objectAPI
	config *Config
}

// NewClient creates a new S3 archive client and checks the bucket
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("certificate archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := newClientWithAPI(s3Client, cfg)
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Archive] Initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

func newClientWithAPI(api objectAPI, cfg *Config) *Client {
	return &Client{api: api, config: cfg}
}

// ensureBucket creates the bucket outside prod when it does not exist
func (c *Client) ensureBucket(ctx context.Context) error {
	bucket := c.config.BucketName
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if env.GetEnv("APP_ENV", "dev") == "prod" {
		return fmt.Errorf("bucket %s not accessible: %w", bucket, err)
	}

	log.Warnf("[Archive] Bucket %s not found, attempting to create it", bucket)
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}
	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// Store uploads one PNG and returns its object key
func (c *Client) Store(ctx context.Context, folio string, at time.Time, png []byte) (string, error) {
	key := ObjectKey(folio, at)
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(png),
		ContentLength: aws.Int64(int64(len(png))),
		ContentType:   aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Debugf("[Archive] Stored %s (%d bytes)", key, len(png))
	return key, nil
}

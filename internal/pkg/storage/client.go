package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

const presignTTL = 15 * time.Minute

// Client wraps the S3 client with course-asset functionality: admin uploads
// and presigned GET URLs handed out after the access gate passes.
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	config   *Config
}

// NewClient creates a new asset storage client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("asset storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
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
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Storage] Initialized asset storage for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection checks the bucket is reachable
func (c *Client) testConnection() error {
	_, err := c.s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	return err
}

// Upload stores an asset under the given object key.
func (c *Client) Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload of %s failed: %w", objectKey, err)
	}
	return nil
}

// Delete removes an asset.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	return err
}

// PresignGet issues a time-limited download URL for an asset. Only called
// after the caller's entitlement has been verified.
func (c *Client) PresignGet(ctx context.Context, objectKey string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign of %s failed: %w", objectKey, err)
	}
	return req.URL, nil
}

var (
	globalClient *Client
	globalOnce   sync.Once
	globalErr    error
)

// GetClient returns the process-wide asset storage client, initializing it
// from the environment on first use. Returns an error when storage is
// disabled or misconfigured.
func GetClient() (*Client, error) {
	globalOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			globalErr = err
			return
		}
		if !cfg.IsEnabled() {
			globalErr = fmt.Errorf("asset storage is disabled")
			return
		}
		globalClient, globalErr = NewClient(cfg)
	})
	return globalClient, globalErr
}

// Package s3 stores product media in an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

type Client struct {
	api        *awss3.Client
	bucket     string
	publicBase string
	logg       *logger.Logger
}

// NewClient builds a path-style client for the configured endpoint.
func NewClient(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid storage endpoint %q", cfg.Endpoint)
	}
	if logg == nil {
		logg = logger.Nop()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// most S3-compatible stores reject the newer default checksum headers
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	host := endpoint.Host
	if cfg.PublicHost != "" {
		host = cfg.PublicHost
	}

	return &Client{
		api:        api,
		bucket:     cfg.Bucket,
		publicBase: fmt.Sprintf("%s://%s/%s", endpoint.Scheme, host, cfg.Bucket),
		logg:       logg,
	}, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// ObjectKey derives a unique key under prefix that keeps the upload's extension.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

// URL returns the public URL of key.
func (c *Client) URL(key string) string {
	return c.publicBase + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL recovers the object key from a URL produced by URL.
func (c *Client) KeyFromURL(raw string) (string, bool) {
	prefix := c.publicBase + "/"
	if strings.HasPrefix(raw, prefix) {
		key := strings.TrimPrefix(raw, prefix)
		return key, key != ""
	}
	// tolerate host changes as long as the bucket segment matches
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	bucketPrefix := "/" + c.bucket + "/"
	if !strings.HasPrefix(parsed.Path, bucketPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(parsed.Path, bucketPrefix)
	return key, key != ""
}

// Put uploads body under key and returns the public URL.
func (c *Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	input := &awss3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{"bucket": c.bucket, "key": key}), "storage.object_uploaded")
	return c.URL(key), nil
}

// Delete removes key; deleting a missing object succeeds.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	_, err := c.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{"bucket": c.bucket, "key": key}), "storage.object_deleted")
	return nil
}

// Ping checks the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", c.bucket, err)
	}
	return nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	c.logg.Info(c.logg.WithField(ctx, "bucket", c.bucket), "storage.creating_bucket")
	_, err = c.api.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	return nil
}

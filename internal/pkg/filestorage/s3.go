package filestorage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

// S3Config configures the S3 driver.
type S3Config struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicURL     string
	PresignExpiry time.Duration
}

// S3Storage stores media in an S3 bucket.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       S3Config
}

// NewS3Storage loads AWS credentials from the default chain.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)

	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}

	logger.Info().Str("bucket", cfg.Bucket).Str("region", cfg.Region).Msg("S3 storage configured")
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
	}, nil
}

func (s *S3Storage) objectKey(folder string, ownerID int64, fileName string) string {
	key := NewKey(folder, ownerID, fileName)
	if s.cfg.Prefix != "" {
		key = s.cfg.Prefix + "/" + key
	}
	return key
}

func (s *S3Storage) urlFor(key string) string {
	return s.cfg.PublicURL + "/" + key
}

// Save uploads the content with a PutObject call.
func (s *S3Storage) Save(ctx context.Context, ownerID int64, r io.Reader, size int64, fileName, contentType, folder string) (Object, error) {
	key := s.objectKey(folder, ownerID, fileName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to upload object to S3")
		return Object{}, fmt.Errorf("failed to upload object: %w", err)
	}

	logger.Info().Str("key", key).Int64("size", size).Msg("Object uploaded to S3")
	return Object{Key: key, URL: s.urlFor(key)}, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	key, ok := cleanKey(key)
	if !ok {
		return fmt.Errorf("invalid object key: %q", key)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to delete object from S3")
		return fmt.Errorf("failed to delete object: %w", err)
	}

	logger.Info().Str("key", key).Msg("Object deleted from S3")
	return nil
}

// KeyFromURL strips the bucket's public URL.
func (s *S3Storage) KeyFromURL(url string) string {
	prefix := s.cfg.PublicURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	key, ok := cleanKey(strings.TrimPrefix(url, prefix))
	if !ok {
		return ""
	}
	return key
}

// PresignUpload returns a presigned PUT URL for a new object.
func (s *S3Storage) PresignUpload(ctx context.Context, ownerID int64, fileName, contentType, folder string) (PresignedUpload, error) {
	key := s.objectKey(folder, ownerID, fileName)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.cfg.PresignExpiry))
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to presign upload")
		return PresignedUpload{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	return PresignedUpload{
		UploadURL: req.URL,
		Method:    req.Method,
		ExpiresIn: s.cfg.PresignExpiry,
		Object:    Object{Key: key, URL: s.urlFor(key)},
	}, nil
}

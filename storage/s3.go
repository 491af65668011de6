// Package storage persists buffered uploads to S3 or an S3-compatible store.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/segmentio/ksuid"
)

type Config struct {
	AccessKey    string
	AccessSecret string
	Region       string
	Bucket       string
	// Endpoint is set for S3-compatible stores such as MinIO; it switches
	// on path-style addressing.
	Endpoint string
	// PublicURL overrides the base of returned object URLs.
	PublicURL string
}

type S3 struct {
	api      *s3.S3
	uploader *s3manager.Uploader
	cfg      Config
}

func New(cfg Config) (*S3, error) {
	awsCfg := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.AccessSecret, ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return &S3{
		api:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		cfg:      cfg,
	}, nil
}

// NewKey returns a unique object key under prefix keeping ext.
func NewKey(prefix, ext string) string {
	return prefix + "/" + ksuid.New().String() + ext
}

// Upload stores body under key and returns its public URL.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3) URL(key string) string {
	return URL(s.cfg, key)
}

// URL builds the public address of key.
func URL(cfg Config, key string) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + key
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", cfg.Region, cfg.Bucket, key)
}

// KeyFromURL reverses URL for objects in this bucket. ok is false for
// foreign URLs.
func KeyFromURL(cfg Config, url string) (string, bool) {
	base := URL(cfg, "")
	if url == "" || !strings.HasPrefix(url, base) {
		return "", false
	}
	return strings.TrimPrefix(url, base), true
}

func (s *S3) KeyFromURL(url string) (string, bool) {
	return KeyFromURL(s.cfg, url)
}

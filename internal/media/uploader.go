// Package media stores user uploads in an S3-compatible bucket (Cloudflare R2)
// and hands back their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	DefaultMimeType = "application/octet-stream"
	DefaultFilename = "upload.bin"
	keyPrefix       = "threads/"
)

var (
	ErrNotConfigured          = errors.New("media: object storage is not configured")
	ErrPublicURLNotConfigured = errors.New("media: public base URL is not configured")
)

var extPattern = regexp.MustCompile(`\.[a-zA-Z0-9]+$`)

// Config locates the bucket.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

// Object is a stored upload.
type Object struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Uploader writes objects with the MinIO S3 client.
type Uploader struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewUploader returns ErrNotConfigured when any bucket setting is missing.
// A missing public base URL is reported later by Ready, so the server can
// still start.
func NewUploader(cfg Config) (*Uploader, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	endpoint := cfg.Endpoint
	secure := !strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimRight(endpoint, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       "auto",
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("media: create client: %w", err)
	}

	return &Uploader{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: cfg.PublicBaseURL,
	}, nil
}

// Ready reports whether uploaded objects can be linked publicly.
func (u *Uploader) Ready() error {
	if u.publicBase == "" {
		return ErrPublicURLNotConfigured
	}
	return nil
}

// Upload stores size bytes from r under a fresh key derived from filename.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, size int64, filename, mimeType string) (Object, error) {
	if err := u.Ready(); err != nil {
		return Object{}, err
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	key := ObjectKey(filename)
	_, err := u.client.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("media: put object %s: %w", key, err)
	}

	return Object{Key: key, URL: PublicURL(u.publicBase, key), MimeType: mimeType}, nil
}

// ObjectKey returns threads/<uuid><ext>, keeping the filename's extension
// when it has a plain alphanumeric one.
func ObjectKey(filename string) string {
	if filename == "" {
		filename = DefaultFilename
	}
	return keyPrefix + uuid.NewString() + extPattern.FindString(filename)
}

// PublicURL joins the public base and an object key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"salonpro-crm/logger"
)

// PhotoStore keeps client photos in object storage and hands out
// time-limited URLs for them.
type PhotoStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) (string, error)
}

type gcsPhotoStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	ttl    time.Duration
}

func NewGCSPhotoStore(ctx context.Context, bucket string, ttl time.Duration, log *logger.Logger) (PhotoStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("missing GCS_BUCKET")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &gcsPhotoStore{
		log:    log.With("service", "PhotoStore"),
		client: client,
		bucket: bucket,
		ttl:    ttl,
	}, nil
}

func (s *gcsPhotoStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", key, err)
	}
	return nil
}

func (s *gcsPhotoStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *gcsPhotoStore) URL(key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(s.ttl),
	})
	if err != nil {
		s.log.Warn("signing photo url failed", "key", key, "error", err)
		return "", err
	}
	return url, nil
}

// PhotoKey is the object name for a client's photo.
func PhotoKey(salonID, clientID fmt.Stringer, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("salons/%s/clients/%s.%s", salonID, clientID, ext)
}

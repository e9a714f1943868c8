package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

const (
	backendGCS        = "gcs"
	deleteConcurrency = 8
)

// gcsBucket is the subset of bucket operations GCSStorage relies on.
type gcsBucket interface {
	Write(ctx context.Context, key, contentType string, data []byte) error
	SignedURL(key string, ttl time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// GCSStorage stores artifacts in a Cloud Storage bucket. Video jobs may write
// straight into it, so it advertises gs:// destinations.
type GCSStorage struct {
	bucket   gcsBucket
	name     string
	observer Observer
	closer   io.Closer
}

// NewGCSStorage opens a client with application default credentials.
func NewGCSStorage(ctx context.Context, bucket string, observer Observer) (*GCSStorage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("gcs storage: bucket is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: create client: %w", err)
	}
	s := newGCSStorage(&gcsBucketHandle{handle: client.Bucket(bucket)}, bucket, observer)
	s.closer = client
	return s, nil
}

func newGCSStorage(bucket gcsBucket, name string, observer Observer) *GCSStorage {
	if observer == nil {
		observer = nopObserver{}
	}
	return &GCSStorage{bucket: bucket, name: name, observer: observer}
}

// Save writes data under key and returns its gs:// reference.
func (s *GCSStorage) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	err = s.bucket.Write(ctx, key, contentType, data)
	s.observer.ObserveStorage(backendGCS, "save", err, len(data))
	if err != nil {
		return "", fmt.Errorf("gcs storage upload %s: %w", key, err)
	}
	return Ref{Scheme: schemeGCS, Bucket: s.name, Key: key}.String(), nil
}

// SignedURL returns a V4 signed GET link for ref.
func (s *GCSStorage) SignedURL(_ context.Context, ref string, ttl time.Duration) (string, error) {
	if err := validTTL(ttl); err != nil {
		return "", err
	}
	key, err := keyFor(ref, schemeGCS, s.name)
	if err != nil {
		return "", err
	}
	url, err := s.bucket.SignedURL(key, ttl)
	s.observer.ObserveStorage(backendGCS, "sign", err, 0)
	if err != nil {
		return "", fmt.Errorf("gcs storage sign %s: %w", key, err)
	}
	return url, nil
}

// DeletePrefix removes every object under prefix. An empty folder is not an error.
func (s *GCSStorage) DeletePrefix(ctx context.Context, prefix string) error {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return err
	}
	keys, err := s.bucket.List(ctx, prefix)
	if err != nil {
		s.observer.ObserveStorage(backendGCS, "delete", err, 0)
		return fmt.Errorf("gcs storage list %s: %w", prefix, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := s.bucket.Delete(gctx, key); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
				return fmt.Errorf("gcs storage delete %s: %w", key, err)
			}
			return nil
		})
	}
	err = g.Wait()
	s.observer.ObserveStorage(backendGCS, "delete", err, 0)
	return err
}

// DestinationURI is the gs:// folder a video job should write into.
func (s *GCSStorage) DestinationURI(prefix string) string {
	return fmt.Sprintf("gs://%s/%s", s.name, strings.TrimLeft(prefix, "/"))
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type gcsBucketHandle struct {
	handle *gcs.BucketHandle
}

func (b *gcsBucketHandle) Write(ctx context.Context, key, contentType string, data []byte) error {
	w := b.handle.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if contentType == "" {
		w.ContentType = http.DetectContentType(data)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (b *gcsBucketHandle) SignedURL(key string, ttl time.Duration) (string, error) {
	return b.handle.SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
}

func (b *gcsBucketHandle) List(ctx context.Context, prefix string) ([]string, error) {
	query := &gcs.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	var keys []string
	it := b.handle.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
}

func (b *gcsBucketHandle) Delete(ctx context.Context, key string) error {
	return b.handle.Object(key).Delete(ctx)
}

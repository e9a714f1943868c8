package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	gcs "cloud.google.com/go/storage"
)

type fakeBucket struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	writeErr  error
	listErr   error
	deleteErr map[string]error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}, deleteErr: map[string]error{}}
}

func (b *fakeBucket) Write(_ context.Context, key, contentType string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *fakeBucket) SignedURL(key string, ttl time.Duration) (string, error) {
	return "https://storage.googleapis.com/bucket/" + key + "?X-Goog-Expires=" + ttl.String(), nil
}

func (b *fakeBucket) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *fakeBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.deleteErr[key]; ok {
		return err
	}
	delete(b.objects, key)
	return nil
}

type countingObserver struct {
	mu  sync.Mutex
	ops map[string]int
}

func (o *countingObserver) ObserveStorage(_, op string, err error, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ops == nil {
		o.ops = map[string]int{}
	}
	key := op
	if err != nil {
		key += ":error"
	}
	o.ops[key]++
}

func TestGCSStorageSaveAndSign(t *testing.T) {
	bucket := newFakeBucket()
	obs := &countingObserver{}
	s := newGCSStorage(bucket, "canvas", obs)

	ref, err := s.Save(context.Background(), "/creative-canvas/u1/a1b2c3/drawing.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != "gs://canvas/creative-canvas/u1/a1b2c3/drawing.png" {
		t.Fatalf("unexpected ref %s", ref)
	}
	if bucket.types["creative-canvas/u1/a1b2c3/drawing.png"] != "image/png" {
		t.Fatal("expected content type to be forwarded")
	}

	url, err := s.SignedURL(context.Background(), ref, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.Contains(url, "creative-canvas/u1/a1b2c3/drawing.png") {
		t.Fatalf("unexpected url %s", url)
	}
	if obs.ops["save"] != 1 || obs.ops["sign"] != 1 {
		t.Fatalf("unexpected observations %v", obs.ops)
	}
}

func TestGCSStorageSignRejectsForeignRefs(t *testing.T) {
	s := newGCSStorage(newFakeBucket(), "canvas", nil)

	if _, err := s.SignedURL(context.Background(), "gs://elsewhere/key", time.Minute); !errors.Is(err, ErrForeignRef) {
		t.Fatalf("expected ErrForeignRef got %v", err)
	}
	if _, err := s.SignedURL(context.Background(), "gs://canvas/key", 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestGCSStorageDeletePrefix(t *testing.T) {
	bucket := newFakeBucket()
	for _, key := range []string{"p/u1/a1b2c3/drawing.png", "p/u1/a1b2c3/image.png", "p/u1/a1b2c3/123/sample_0.mp4", "p/u1/a1b2c30/drawing.png"} {
		bucket.objects[key] = []byte("x")
	}
	bucket.deleteErr["p/u1/a1b2c3/image.png"] = gcs.ErrObjectNotExist
	s := newGCSStorage(bucket, "canvas", nil)

	if err := s.DeletePrefix(context.Background(), "p/u1/a1b2c3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := bucket.objects["p/u1/a1b2c30/drawing.png"]; !ok {
		t.Fatal("sibling creation with a longer id must survive")
	}
	if _, ok := bucket.objects["p/u1/a1b2c3/123/sample_0.mp4"]; ok {
		t.Fatal("nested video should be removed")
	}

	if err := s.DeletePrefix(context.Background(), "p/u1/empty/"); err != nil {
		t.Fatalf("empty folder delete: %v", err)
	}
	if err := s.DeletePrefix(context.Background(), "/"); err == nil {
		t.Fatal("expected refusal for bucket-wide delete")
	}
}

func TestGCSStorageDeletePrefixFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["p/u1/a1b2c3/drawing.png"] = []byte("x")
	bucket.deleteErr["p/u1/a1b2c3/drawing.png"] = errors.New("permission denied")
	s := newGCSStorage(bucket, "canvas", nil)

	err := s.DeletePrefix(context.Background(), "p/u1/a1b2c3/")
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected delete failure, got %v", err)
	}
}

func TestGCSStorageDestinationURI(t *testing.T) {
	s := newGCSStorage(newFakeBucket(), "canvas", nil)
	if got := s.DestinationURI("creative-canvas/u1/a1b2c3/"); got != "gs://canvas/creative-canvas/u1/a1b2c3/" {
		t.Fatalf("unexpected destination %s", got)
	}
}

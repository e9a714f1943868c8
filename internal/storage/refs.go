// Package storage keeps creation artifacts in object storage and signs read links for them.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	schemeGCS = "gs"
	schemeS3  = "s3"
)

// ErrForeignRef is returned for references that point outside the configured bucket.
var ErrForeignRef = errors.New("storage: reference outside configured bucket")

// Observer receives one observation per storage operation.
type Observer interface {
	ObserveStorage(backend, op string, err error, written int)
}

type nopObserver struct{}

func (nopObserver) ObserveStorage(string, string, error, int) {}

// Ref is a parsed object reference such as gs://bucket/key.
type Ref struct {
	Scheme string
	Bucket string
	Key    string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s://%s/%s", r.Scheme, r.Bucket, r.Key)
}

// ParseRef splits a scheme://bucket/key reference.
func ParseRef(ref string) (Ref, error) {
	scheme, rest, ok := strings.Cut(ref, "://")
	if !ok || (scheme != schemeGCS && scheme != schemeS3) {
		return Ref{}, fmt.Errorf("storage: unsupported reference %q", ref)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Ref{}, fmt.Errorf("storage: incomplete reference %q", ref)
	}
	return Ref{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// keyFor resolves ref to an object key in bucket.
func keyFor(ref, scheme, bucket string) (string, error) {
	parsed, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != scheme || parsed.Bucket != bucket {
		return "", fmt.Errorf("%w: %s", ErrForeignRef, ref)
	}
	return parsed.Key, nil
}

func validTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("storage: signed url ttl must be positive")
	}
	return nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", errors.New("storage: empty key")
	}
	return key, nil
}

// cleanPrefix refuses empty prefixes so a delete can never address the whole bucket.
func cleanPrefix(prefix string) (string, error) {
	prefix = strings.TrimLeft(prefix, "/")
	if strings.Trim(prefix, "/") == "" {
		return "", errors.New("storage: refusing to delete an empty prefix")
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix, nil
}

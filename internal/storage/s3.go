package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/creativecanvas/backend/internal/config"
)

const backendS3 = "s3"

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type s3Lister interface {
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Storage stores artifacts in an S3-compatible bucket. The video platform cannot
// write into it, so finished videos arrive as bytes and are uploaded by the relay.
type S3Storage struct {
	uploader  s3Uploader
	presigner s3Presigner
	client    s3Lister
	bucket    string
	observer  Observer
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig, observer Observer) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Storage(uploader, s3.NewPresignClient(client), client, cfg.Bucket, observer), nil
}

func newS3Storage(uploader s3Uploader, presigner s3Presigner, client s3Lister, bucket string, observer Observer) *S3Storage {
	if observer == nil {
		observer = nopObserver{}
	}
	return &S3Storage{uploader: uploader, presigner: presigner, client: client, bucket: bucket, observer: observer}
}

// Save uploads data under key and returns its s3:// reference.
func (s *S3Storage) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	s.observer.ObserveStorage(backendS3, "save", err, len(data))
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return Ref{Scheme: schemeS3, Bucket: s.bucket, Key: key}.String(), nil
}

// SignedURL presigns a GET request for ref.
func (s *S3Storage) SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	if err := validTTL(ttl); err != nil {
		return "", err
	}
	key, err := keyFor(ref, schemeS3, s.bucket)
	if err != nil {
		return "", err
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	s.observer.ObserveStorage(backendS3, "sign", err, 0)
	if err != nil {
		return "", fmt.Errorf("s3 storage presign %s: %w", key, err)
	}
	return req.URL, nil
}

// DeletePrefix removes every object under prefix, one listing page at a time.
func (s *S3Storage) DeletePrefix(ctx context.Context, prefix string) (err error) {
	defer func() { s.observer.ObserveStorage(backendS3, "delete", err, 0) }()

	prefix, err = cleanPrefix(prefix)
	if err != nil {
		return err
	}

	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 storage list %s: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, s3types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3 storage delete %s: %w", prefix, err)
		}
		if len(out.Errors) > 0 {
			errs := make([]error, 0, len(out.Errors))
			for _, e := range out.Errors {
				errs = append(errs, fmt.Errorf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
			}
			return fmt.Errorf("s3 storage delete %s: %w", prefix, errors.Join(errs...))
		}
	}
	return nil
}

// DestinationURI is always empty; the platform only writes to Cloud Storage.
func (s *S3Storage) DestinationURI(string) string {
	return ""
}

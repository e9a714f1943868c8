// Package relay orchestrates the creative canvas workflow from an uploaded drawing to
// the generated image and video kept among a user's saved creations.
package relay

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/creativecanvas/backend/internal/models"
	"github.com/creativecanvas/backend/internal/videos"
)

// Platform is the generative AI platform every remote step talks to.
type Platform interface {
	Describe(ctx context.Context, req DescribeRequest) (string, error)
	GenerateImage(ctx context.Context, req ImageRequest) ([]GeneratedPart, error)
	SubmitVideo(ctx context.Context, req VideoRequest) (string, error)
	PollVideo(ctx context.Context, operationName string) (videos.Job, error)
}

// ObjectStore persists artifacts and hands out time-limited read links for them.
type ObjectStore interface {
	// Save writes data under key and returns the object reference to persist.
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
	// DestinationURI returns where the platform may write job output directly, or ""
	// when the store cannot receive platform writes.
	DestinationURI(prefix string) string
}

// CreationStore captures metadata persistence for creations.
type CreationStore interface {
	Save(ctx context.Context, creation models.Creation) error
	AttachVideo(ctx context.Context, userID, creationID, videoRef, videoPrompt string) error
	ListByUser(ctx context.Context, userID string) ([]models.Creation, error)
	Delete(ctx context.Context, userID, creationID string) error
}

// UserStore provisions user records.
type UserStore interface {
	Ensure(ctx context.Context, user models.User) (models.User, error)
}

// DescribeRequest asks a multimodal model for a structured description of an image.
type DescribeRequest struct {
	Model       string
	Instruction string
	Image       []byte
	MIMEType    string
}

// ImageRequest asks an image model to regenerate an image.
type ImageRequest struct {
	Model    string
	Prompt   string
	Image    []byte
	MIMEType string
}

// GeneratedPart is one part of an image model answer; Data is set for binary parts.
type GeneratedPart struct {
	Text     string
	MIMEType string
	Data     []byte
}

// VideoRequest submits a long-running video generation job.
type VideoRequest struct {
	Model            string
	Prompt           string
	Image            []byte
	MIMEType         string
	AspectRatio      string
	DestinationURI   string
	DurationSeconds  int32
	Resolution       string
	PersonGeneration string
	SampleCount      int32
	GenerateAudio    bool
	AddWatermark     bool
	IncludeRAIReason bool
}

// Fixed video generation parameters.
const (
	videoDurationSeconds  = 8
	videoResolution       = "720p"
	videoPersonGeneration = "allow_all"
	videoSampleCount      = 1
)

// ModelSet names the default model of each remote step.
type ModelSet struct {
	Understand string
	Image      string
	Video      string
}

// Options tune a Service. Zero values fall back to production defaults.
type Options struct {
	Models       ModelSet
	Prefix       string
	SignedURLTTL time.Duration
	NowFunc      func() time.Time
	IDFunc       func() (string, error)
}

// Service implements every relay operation over explicitly injected collaborators.
type Service struct {
	platform  Platform
	objects   ObjectStore
	creations CreationStore
	users     UserStore

	models       ModelSet
	prefix       string
	signedURLTTL time.Duration
	now          func() time.Time
	newID        func() (string, error)
}

// NewService validates collaborators and constructs a Service.
func NewService(platform Platform, objects ObjectStore, creations CreationStore, users UserStore, opts Options) (*Service, error) {
	if platform == nil {
		return nil, errors.New("relay: platform is required")
	}
	if objects == nil {
		return nil, errors.New("relay: object store is required")
	}
	if creations == nil {
		return nil, errors.New("relay: creation store is required")
	}
	if users == nil {
		return nil, errors.New("relay: user store is required")
	}

	if opts.Models.Understand == "" {
		opts.Models.Understand = "gemini-2.5-flash-lite"
	}
	if opts.Models.Image == "" {
		opts.Models.Image = "gemini-3-pro-image-preview"
	}
	if opts.Models.Video == "" {
		opts.Models.Video = "veo-3.1-generate-001"
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 15 * time.Minute
	}
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	if opts.IDFunc == nil {
		opts.IDFunc = newCreationID
	}

	return &Service{
		platform:     platform,
		objects:      objects,
		creations:    creations,
		users:        users,
		models:       opts.Models,
		prefix:       strings.Trim(opts.Prefix, "/"),
		signedURLTTL: opts.SignedURLTTL,
		now:          opts.NowFunc,
		newID:        opts.IDFunc,
	}, nil
}

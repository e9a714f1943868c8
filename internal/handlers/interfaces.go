package handlers

import (
	"context"

	"github.com/creativecanvas/backend/internal/models"
	"github.com/creativecanvas/backend/internal/relay"
)

// Relay captures the workflow operations exposed over HTTP.
type Relay interface {
	Understand(ctx context.Context, in relay.UnderstandInput) (models.Analysis, error)
	GenerateImage(ctx context.Context, in relay.GenerateInput) (models.ImagePart, error)
	SaveCreation(ctx context.Context, in relay.SaveInput) (string, error)
	ListCreations(ctx context.Context, userID string) ([]models.CreationView, error)
	DeleteCreations(ctx context.Context, userID string, creationIDs []string) (int, error)
	CurrentUser(ctx context.Context, identity models.User) (models.User, error)
	StartVideo(ctx context.Context, in relay.StartVideoInput) (string, error)
	VideoStatus(ctx context.Context, in relay.VideoStatusInput) (relay.VideoStatus, error)
}

// RateLimitRecorder counts requests rejected by the rate limiter.
type RateLimitRecorder interface {
	RecordRateLimited(path string)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/creativecanvas/backend/internal/logging"
	"github.com/creativecanvas/backend/internal/models"
	"github.com/creativecanvas/backend/internal/repositories"
)

const pngContentType = "image/png"

// SaveInput is the payload of the creation persistence step.
type SaveInput struct {
	UserID        string
	DrawingData   string
	GeneratedData string
	Prompt        string
	Description   string
	Style         string
}

// SaveCreation uploads the drawing and the generated image, then records the creation.
// The uploads and the metadata write are not atomic.
func (s *Service) SaveCreation(ctx context.Context, in SaveInput) (string, error) {
	ctx, span := logging.StartSpan(ctx, "relay.save_creation")
	defer span.End()

	if strings.TrimSpace(in.DrawingData) == "" || strings.TrimSpace(in.GeneratedData) == "" {
		return "", invalidInput("drawingData and generatedData are required.")
	}
	if !validUserID(in.UserID) {
		return "", invalidInput("a valid user identity is required.")
	}
	drawing, _, err := decodeImage(in.DrawingData)
	if err != nil {
		return "", invalidInput("drawingData must be base64 encoded image data.")
	}
	generated, _, err := decodeImage(in.GeneratedData)
	if err != nil {
		return "", invalidInput("generatedData must be base64 encoded image data.")
	}

	creationID, err := s.newID()
	if err != nil {
		return "", persistenceFailure("Failed to save creation.", err)
	}

	var drawingRef, imageRef string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref, err := s.objects.Save(gctx, s.objectKey(in.UserID, creationID, roleDrawing), pngContentType, drawing)
		drawingRef = ref
		return err
	})
	g.Go(func() error {
		ref, err := s.objects.Save(gctx, s.objectKey(in.UserID, creationID, roleImage), pngContentType, generated)
		imageRef = ref
		return err
	})
	if err := g.Wait(); err != nil {
		return "", persistenceFailure("Failed to save creation.", err)
	}

	creation := models.Creation{
		ID:          creationID,
		UserID:      in.UserID,
		DrawingRef:  drawingRef,
		ImageRef:    imageRef,
		ImagePrompt: orDefault(in.Prompt, DefaultImagePrompt),
		Description: models.StringPtr(in.Description),
		Style:       models.StringPtr(in.Style),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.creations.Save(ctx, creation); err != nil {
		logging.FromContext(ctx).Error("creation artifacts uploaded without metadata", "creationId", creationID, "error", err)
		return "", persistenceFailure("Failed to save creation.", err)
	}

	return creationID, nil
}

// ListCreations returns the user's creations, newest first, with signed read links
// for every artifact on file. Absent artifacts stay nil and are never signed.
func (s *Service) ListCreations(ctx context.Context, userID string) ([]models.CreationView, error) {
	ctx, span := logging.StartSpan(ctx, "relay.list_creations")
	defer span.End()

	records, err := s.creations.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceFailure("Failed to fetch creations", err)
	}

	views := make([]models.CreationView, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for i, record := range records {
		views[i] = models.CreationView{ID: record.ID, Timestamp: record.CreatedAt}
		s.signInto(gctx, g, &views[i].DrawingURL, record.DrawingRef)
		s.signInto(gctx, g, &views[i].ImageURL, record.ImageRef)
		if record.VideoRef != nil {
			s.signInto(gctx, g, &views[i].VideoURL, *record.VideoRef)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, persistenceFailure("Failed to fetch creations", err)
	}

	return views, nil
}

func (s *Service) signInto(ctx context.Context, g *errgroup.Group, dst **string, ref string) {
	if ref == "" {
		return
	}
	g.Go(func() error {
		url, err := s.objects.SignedURL(ctx, ref, s.signedURLTTL)
		if err != nil {
			return fmt.Errorf("sign %s: %w", ref, err)
		}
		*dst = &url
		return nil
	})
}

// DeleteCreations removes every listed creation's artifacts and metadata record.
// Each id is processed independently; failures are reported after all ids ran.
func (s *Service) DeleteCreations(ctx context.Context, userID string, creationIDs []string) (int, error) {
	ctx, span := logging.StartSpan(ctx, "relay.delete_creations")
	defer span.End()

	if len(creationIDs) == 0 {
		return 0, invalidInput("creationIds must be a non-empty array.")
	}
	if !validUserID(userID) {
		return 0, invalidInput("a valid user identity is required.")
	}
	for _, id := range creationIDs {
		if !validCreationID(id) {
			return 0, invalidInput(fmt.Sprintf("creationIds contains an invalid id %q.", id))
		}
	}

	failures := make([]error, len(creationIDs))
	var g errgroup.Group
	for i, id := range creationIDs {
		g.Go(func() error {
			failures[i] = s.deleteCreation(ctx, userID, id)
			return failures[i]
		})
	}
	if g.Wait() != nil {
		return 0, persistenceFailure("An error occurred while deleting creations.", errors.Join(failures...))
	}

	return len(creationIDs), nil
}

func (s *Service) deleteCreation(ctx context.Context, userID, creationID string) error {
	var storageErr, recordErr error
	if err := s.objects.DeletePrefix(ctx, s.creationPrefix(userID, creationID)); err != nil {
		storageErr = fmt.Errorf("delete artifacts of %s: %w", creationID, err)
	}
	if err := s.creations.Delete(ctx, userID, creationID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		recordErr = fmt.Errorf("delete record of %s: %w", creationID, err)
	}
	return errors.Join(storageErr, recordErr)
}

// CurrentUser provisions the user record on first sight and returns the caller as
// identified by this request. A stored record never overrides the current email.
func (s *Service) CurrentUser(ctx context.Context, identity models.User) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "relay.current_user")
	defer span.End()

	if !validUserID(identity.ID) {
		return models.User{}, invalidInput("a valid user identity is required.")
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = s.now().UTC()
	}

	stored, err := s.users.Ensure(ctx, identity)
	if err != nil {
		return models.User{}, persistenceFailure("Failed to process user information", err)
	}
	if !stored.CreatedAt.IsZero() {
		identity.CreatedAt = stored.CreatedAt
	}
	return identity, nil
}

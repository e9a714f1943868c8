package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creativecanvas/backend/internal/models"
)

func TestSaveCreationUploadsArtifactsThenRecords(t *testing.T) {
	f := newFixture(t)

	id, err := f.service.SaveCreation(context.Background(), SaveInput{
		UserID:        "user-1",
		DrawingData:   pngBase64(t, 4, 4),
		GeneratedData: pngBase64(t, 8, 8),
		Description:   "一只猫",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != "a1b2c3" {
		t.Fatalf("unexpected id %q", id)
	}

	for _, key := range []string{"creative-canvas/user-1/a1b2c3/drawing.png", "creative-canvas/user-1/a1b2c3/image.png"} {
		if _, ok := f.objects.saved[key]; !ok {
			t.Fatalf("expected object %s to be written", key)
		}
	}

	record, ok := f.creations.records["user-1/a1b2c3"]
	if !ok {
		t.Fatal("expected creation record")
	}
	if record.DrawingRef != "gs://bucket/creative-canvas/user-1/a1b2c3/drawing.png" {
		t.Fatalf("unexpected drawing ref %q", record.DrawingRef)
	}
	if record.ImagePrompt != DefaultImagePrompt || record.Style != nil || record.VideoRef != nil {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Description == nil || *record.Description != "一只猫" {
		t.Fatalf("unexpected description %v", record.Description)
	}
	if !record.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected timestamp %s", record.CreatedAt)
	}
}

func TestSaveCreationRequiresBothPayloads(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SaveCreation(context.Background(), SaveInput{
		UserID:      "user-1",
		DrawingData: pngBase64(t, 4, 4),
	})
	relayErr := assertKind(t, err, ErrInvalidInput)
	if relayErr.Message != "drawingData and generatedData are required." {
		t.Fatalf("unexpected message %q", relayErr.Message)
	}
	if len(f.objects.saved) != 0 || len(f.creations.records) != 0 {
		t.Fatal("no writes expected for invalid input")
	}
}

func TestSaveCreationStorageFailureSkipsRecord(t *testing.T) {
	f := newFixture(t)
	f.objects.saveErr = errors.New("bucket unavailable")

	_, err := f.service.SaveCreation(context.Background(), SaveInput{
		UserID:        "user-1",
		DrawingData:   pngBase64(t, 4, 4),
		GeneratedData: pngBase64(t, 4, 4),
	})
	assertKind(t, err, ErrPersistence)
	if len(f.creations.records) != 0 {
		t.Fatal("record must not be written when uploads fail")
	}
}

func TestListCreationsSignsOnlyPresentArtifacts(t *testing.T) {
	video := "gs://bucket/creative-canvas/user-1/d4e5f6/video.mp4"
	f := newFixture(t,
		models.Creation{
			ID: "a1b2c3", UserID: "user-1",
			DrawingRef: "gs://bucket/creative-canvas/user-1/a1b2c3/drawing.png",
			ImageRef:   "gs://bucket/creative-canvas/user-1/a1b2c3/image.png",
			CreatedAt:  fixedNow.Add(-time.Hour),
		},
		models.Creation{
			ID: "d4e5f6", UserID: "user-1",
			DrawingRef: "gs://bucket/creative-canvas/user-1/d4e5f6/drawing.png",
			ImageRef:   "gs://bucket/creative-canvas/user-1/d4e5f6/image.png",
			VideoRef:   &video,
			CreatedAt:  fixedNow,
		},
		models.Creation{ID: "0f0f0f", UserID: "someone-else", DrawingRef: "gs://x", ImageRef: "gs://y", CreatedAt: fixedNow},
	)

	views, err := f.service.ListCreations(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 creations got %d", len(views))
	}
	if views[0].ID != "d4e5f6" || views[1].ID != "a1b2c3" {
		t.Fatalf("expected newest first, got %s then %s", views[0].ID, views[1].ID)
	}
	if views[0].VideoURL == nil || !strings.Contains(*views[0].VideoURL, "video.mp4") {
		t.Fatalf("expected signed video url, got %v", views[0].VideoURL)
	}
	if views[1].VideoURL != nil {
		t.Fatalf("expected nil video url, got %q", *views[1].VideoURL)
	}
	if views[1].DrawingURL == nil || views[1].ImageURL == nil {
		t.Fatal("expected signed drawing and image urls")
	}

	if len(f.objects.signed) != 5 {
		t.Fatalf("expected 5 sign calls got %d: %v", len(f.objects.signed), f.objects.signed)
	}
	for _, ref := range f.objects.signed {
		if ref == "" || strings.Contains(ref, "a1b2c3/video") {
			t.Fatalf("unexpected sign call for %q", ref)
		}
	}
}

func TestListCreationsEmpty(t *testing.T) {
	f := newFixture(t)

	views, err := f.service.ListCreations(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no creations got %d", len(views))
	}
}

func TestListCreationsSigningFailure(t *testing.T) {
	f := newFixture(t, models.Creation{ID: "a1b2c3", UserID: "user-1", DrawingRef: "gs://d", ImageRef: "gs://i", CreatedAt: fixedNow})
	f.objects.signErr = errors.New("no signer")

	_, err := f.service.ListCreations(context.Background(), "user-1")
	relayErr := assertKind(t, err, ErrPersistence)
	if relayErr.Message != "Failed to fetch creations" {
		t.Fatalf("unexpected message %q", relayErr.Message)
	}
}

func TestDeleteCreationsProcessesEveryIDIndependently(t *testing.T) {
	f := newFixture(t,
		models.Creation{ID: "a1b2c3", UserID: "user-1", CreatedAt: fixedNow},
		models.Creation{ID: "d4e5f6", UserID: "user-1", CreatedAt: fixedNow},
	)
	f.objects.deleteErrOn["creative-canvas/user-1/a1b2c3/"] = errors.New("permission denied")

	_, err := f.service.DeleteCreations(context.Background(), "user-1", []string{"a1b2c3", "d4e5f6"})
	relayErr := assertKind(t, err, ErrPersistence)
	if !strings.Contains(relayErr.Details, "a1b2c3") || strings.Contains(relayErr.Details, "d4e5f6") {
		t.Fatalf("expected only a1b2c3 in failure details, got %q", relayErr.Details)
	}

	if len(f.objects.deleted) != 1 || f.objects.deleted[0] != "creative-canvas/user-1/d4e5f6/" {
		t.Fatalf("expected d4e5f6 folder removed, got %v", f.objects.deleted)
	}
	if len(f.creations.records) != 0 {
		t.Fatalf("expected both records deleted, %d left", len(f.creations.records))
	}
}

func TestDeleteCreationsSuccessCountsIDs(t *testing.T) {
	f := newFixture(t, models.Creation{ID: "a1b2c3", UserID: "user-1", CreatedAt: fixedNow})

	n, err := f.service.DeleteCreations(context.Background(), "user-1", []string{"a1b2c3", "ffffff"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 got %d", n)
	}
}

func TestDeleteCreationsValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.DeleteCreations(context.Background(), "user-1", nil)
	relayErr := assertKind(t, err, ErrInvalidInput)
	if relayErr.Message != "creationIds must be a non-empty array." {
		t.Fatalf("unexpected message %q", relayErr.Message)
	}

	_, err = f.service.DeleteCreations(context.Background(), "user-1", []string{"a1b2c3", "../other"})
	assertKind(t, err, ErrInvalidInput)
	if len(f.objects.deleted) != 0 {
		t.Fatal("nothing should be deleted when an id is invalid")
	}
}

func TestCurrentUserEnsuresRecord(t *testing.T) {
	f := newFixture(t)

	user, err := f.service.CurrentUser(context.Background(), models.User{ID: "1234", Email: "someone@example.com"})
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.ID != "1234" || !user.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected user %+v", user)
	}

	again, err := f.service.CurrentUser(context.Background(), models.User{ID: "1234", Email: "someone@example.com"})
	if err != nil {
		t.Fatalf("current user again: %v", err)
	}
	if !again.CreatedAt.Equal(user.CreatedAt) || len(f.users.users) != 1 {
		t.Fatal("expected the existing record to be reused")
	}
}

func TestCurrentUserReportsRequestEmail(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.CurrentUser(context.Background(), models.User{ID: "1234", Email: "unknown"}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	user, err := f.service.CurrentUser(context.Background(), models.User{ID: "1234", Email: "someone@example.com"})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if user.ID != "1234" || user.Email != "someone@example.com" {
		t.Fatalf("expected the caller's current email, got %+v", user)
	}
	if f.users.users["1234"].Email != "unknown" {
		t.Fatal("existing record should be left as provisioned")
	}
}

func TestCurrentUserStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("connection refused")

	_, err := f.service.CurrentUser(context.Background(), models.User{ID: "1234"})
	relayErr := assertKind(t, err, ErrPersistence)
	if relayErr.Message != "Failed to process user information" {
		t.Fatalf("unexpected message %q", relayErr.Message)
	}
}

func TestNewCreationIDIsShortHex(t *testing.T) {
	id, err := newCreationID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(id) != 2*creationIDBytes || !validCreationID(id) {
		t.Fatalf("unexpected id %q", id)
	}
}

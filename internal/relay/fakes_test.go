package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creativecanvas/backend/internal/models"
	"github.com/creativecanvas/backend/internal/repositories"
	"github.com/creativecanvas/backend/internal/videos"
)

type platformStub struct {
	mu sync.Mutex

	describeText string
	describeErr  error
	describeReq  DescribeRequest

	imageParts []GeneratedPart
	imageErr   error
	imageReq   ImageRequest

	operation string
	submitErr error
	videoReq  VideoRequest

	job     videos.Job
	pollErr error
	polled  []string
}

func (p *platformStub) Describe(_ context.Context, req DescribeRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.describeReq = req
	return p.describeText, p.describeErr
}

func (p *platformStub) GenerateImage(_ context.Context, req ImageRequest) ([]GeneratedPart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageReq = req
	return p.imageParts, p.imageErr
}

func (p *platformStub) SubmitVideo(_ context.Context, req VideoRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoReq = req
	return p.operation, p.submitErr
}

func (p *platformStub) PollVideo(_ context.Context, operationName string) (videos.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polled = append(p.polled, operationName)
	return p.job, p.pollErr
}

type objectStoreStub struct {
	mu sync.Mutex

	saved       map[string][]byte
	saveErr     error
	signed      []string
	signErr     error
	deleted     []string
	deleteErrOn map[string]error
	destination string
}

func newObjectStoreStub() *objectStoreStub {
	return &objectStoreStub{saved: make(map[string][]byte), deleteErrOn: make(map[string]error)}
}

func (s *objectStoreStub) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved[key] = data
	return "gs://bucket/" + key, nil
}

func (s *objectStoreStub) SignedURL(_ context.Context, ref string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signed = append(s.signed, ref)
	return "https://signed.example.com/" + strings.TrimPrefix(ref, "gs://") + "?ttl=" + ttl.String(), nil
}

func (s *objectStoreStub) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.deleteErrOn[prefix]; ok {
		return err
	}
	s.deleted = append(s.deleted, prefix)
	for key := range s.saved {
		if strings.HasPrefix(key, prefix) {
			delete(s.saved, key)
		}
	}
	return nil
}

func (s *objectStoreStub) DestinationURI(prefix string) string {
	if s.destination == "" {
		return ""
	}
	return s.destination + prefix
}

type creationStoreStub struct {
	mu sync.Mutex

	records   map[string]models.Creation
	saveErr   error
	attachErr error
	listErr   error
	deleteErr error
	attached  []string
}

func newCreationStoreStub(records ...models.Creation) *creationStoreStub {
	s := &creationStoreStub{records: make(map[string]models.Creation)}
	for _, r := range records {
		s.records[r.UserID+"/"+r.ID] = r
	}
	return s
}

func (s *creationStoreStub) Save(_ context.Context, creation models.Creation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[creation.UserID+"/"+creation.ID] = creation
	return nil
}

func (s *creationStoreStub) AttachVideo(_ context.Context, userID, creationID, videoRef, videoPrompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachErr != nil {
		return s.attachErr
	}
	key := userID + "/" + creationID
	record, ok := s.records[key]
	if !ok {
		return repositories.ErrNotFound
	}
	record.VideoRef = &videoRef
	record.VideoPrompt = &videoPrompt
	s.records[key] = record
	s.attached = append(s.attached, creationID)
	return nil
}

func (s *creationStoreStub) ListByUser(_ context.Context, userID string) ([]models.Creation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Creation
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *creationStoreStub) Delete(_ context.Context, userID, creationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	key := userID + "/" + creationID
	if _, ok := s.records[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

type userStoreStub struct {
	users map[string]models.User
	err   error
}

func (s *userStoreStub) Ensure(_ context.Context, user models.User) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	if s.users == nil {
		s.users = make(map[string]models.User)
	}
	if existing, ok := s.users[user.ID]; ok {
		return existing, nil
	}
	s.users[user.ID] = user
	return user, nil
}

var fixedNow = time.Date(2024, time.May, 4, 9, 30, 0, 0, time.UTC)

type fixture struct {
	platform  *platformStub
	objects   *objectStoreStub
	creations *creationStoreStub
	users     *userStoreStub
	service   *Service
}

func newFixture(t *testing.T, records ...models.Creation) *fixture {
	t.Helper()
	f := &fixture{
		platform:  &platformStub{},
		objects:   newObjectStoreStub(),
		creations: newCreationStoreStub(records...),
		users:     &userStoreStub{},
	}
	svc, err := NewService(f.platform, f.objects, f.creations, f.users, Options{
		Prefix:  "creative-canvas",
		NowFunc: func() time.Time { return fixedNow },
		IDFunc:  func() (string, error) { return "a1b2c3", nil },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.service = svc
	return f
}

func pngBase64(t *testing.T, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func assertKind(t *testing.T, err error, kind error) *Error {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected error kind %v got %v", kind, err)
	}
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *relay.Error got %T", err)
	}
	return relayErr
}

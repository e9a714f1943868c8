package relay

import (
	"context"
	"errors"
	"strings"

	"github.com/creativecanvas/backend/internal/logging"
	"github.com/creativecanvas/backend/internal/repositories"
	"github.com/creativecanvas/backend/internal/videos"
)

// Video job states reported to clients.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"

	defaultVideoContentType = "video/mp4"
)

// StartVideoInput is the payload of the video generation step.
type StartVideoInput struct {
	UserID     string
	ImageData  string
	Prompt     string
	CreationID string
	Model      string
}

// VideoStatusInput is the payload of the video status step.
type VideoStatusInput struct {
	UserID        string
	OperationName string
	CreationID    string
	Prompt        string
}

// VideoStatus is the client-facing state of a video job.
type VideoStatus struct {
	Status   string `json:"status"`
	VideoURL string `json:"videoUrl,omitempty"`
}

// StartVideo submits a video job for the creation and returns the operation name
// without waiting for the job. The operation name is not persisted.
func (s *Service) StartVideo(ctx context.Context, in StartVideoInput) (string, error) {
	ctx, span := logging.StartSpan(ctx, "relay.start_video")
	defer span.End()

	if strings.TrimSpace(in.ImageData) == "" || strings.TrimSpace(in.CreationID) == "" {
		return "", invalidInput("imageData and creationId are required")
	}
	if !validCreationID(in.CreationID) {
		return "", invalidInput("creationId is not a valid creation id")
	}
	if !validUserID(in.UserID) {
		return "", invalidInput("a valid user identity is required")
	}
	image, _, err := decodeImage(in.ImageData)
	if err != nil {
		return "", invalidInput("imageData must be base64 encoded image data")
	}
	frame, err := videos.InspectFrame(image)
	if err != nil {
		return "", invalidInput("imageData must be a PNG, JPEG or GIF image")
	}

	operationName, err := s.platform.SubmitVideo(ctx, VideoRequest{
		Model:            orDefault(in.Model, s.models.Video),
		Prompt:           orDefault(in.Prompt, DefaultVideoPrompt),
		Image:            image,
		MIMEType:         frame.MIMEType,
		AspectRatio:      frame.AspectRatio(),
		DestinationURI:   s.objects.DestinationURI(s.creationPrefix(in.UserID, in.CreationID)),
		DurationSeconds:  videoDurationSeconds,
		Resolution:       videoResolution,
		PersonGeneration: videoPersonGeneration,
		SampleCount:      videoSampleCount,
		GenerateAudio:    true,
		AddWatermark:     true,
		IncludeRAIReason: true,
	})
	if err != nil {
		return "", upstreamFailure("Failed to start Video Generation API job", err)
	}
	if operationName == "" {
		return "", missingPayload("Could not get operation name from predict response.", "")
	}

	logging.FromContext(ctx).Info("video job submitted", "creationId", in.CreationID, "operation", operationName, "aspectRatio", frame.AspectRatio())
	return operationName, nil
}

// VideoStatus polls the job once. A finished job is attached to its creation and
// answered with a signed read link; an unfinished job has no side effects.
func (s *Service) VideoStatus(ctx context.Context, in VideoStatusInput) (VideoStatus, error) {
	ctx, span := logging.StartSpan(ctx, "relay.video_status")
	defer span.End()

	if strings.TrimSpace(in.OperationName) == "" || strings.TrimSpace(in.CreationID) == "" {
		return VideoStatus{}, invalidInput("operationName and creationId are required")
	}
	if !validCreationID(in.CreationID) {
		return VideoStatus{}, invalidInput("creationId is not a valid creation id")
	}
	if !validUserID(in.UserID) {
		return VideoStatus{}, invalidInput("a valid user identity is required")
	}

	job, err := s.platform.PollVideo(ctx, in.OperationName)
	if err != nil {
		return VideoStatus{}, upstreamFailure("Failed to check video status", err)
	}
	if !job.Done() {
		return VideoStatus{Status: StatusProcessing}, nil
	}
	if job.Failed() {
		return VideoStatus{}, upstreamDetail("Video generation completed with an error", job.Error)
	}
	if !job.HasVideo() {
		return VideoStatus{}, missingPayload("No video reference found in the successful video generation response.", job.Name)
	}

	ref := job.VideoURI
	if ref == "" {
		contentType := job.MIMEType
		if contentType == "" {
			contentType = defaultVideoContentType
		}
		ref, err = s.objects.Save(ctx, s.objectKey(in.UserID, in.CreationID, roleVideo), contentType, job.VideoBytes)
		if err != nil {
			return VideoStatus{}, persistenceFailure("Failed to store generated video", err)
		}
	}

	if err := s.creations.AttachVideo(ctx, in.UserID, in.CreationID, ref, orDefault(in.Prompt, DefaultVideoPrompt)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return VideoStatus{}, &Error{Kind: ErrCreationNotFound, Message: "Creation not found", Details: in.CreationID, Err: err}
		}
		return VideoStatus{}, persistenceFailure("Failed to record generated video", err)
	}

	url, err := s.objects.SignedURL(ctx, ref, s.signedURLTTL)
	if err != nil {
		return VideoStatus{}, persistenceFailure("Failed to sign video url", err)
	}

	return VideoStatus{Status: StatusCompleted, VideoURL: url}, nil
}

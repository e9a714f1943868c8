package vertex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/creativecanvas/backend/internal/relay"
	"github.com/creativecanvas/backend/internal/videos"
)

// SubmitVideo starts an image-to-video job and returns its operation name.
func (c *Client) SubmitVideo(ctx context.Context, req relay.VideoRequest) (string, error) {
	config := &genai.GenerateVideosConfig{
		NumberOfVideos:   req.SampleCount,
		OutputGCSURI:     req.DestinationURI,
		AspectRatio:      req.AspectRatio,
		Resolution:       req.Resolution,
		PersonGeneration: req.PersonGeneration,
		GenerateAudio:    genai.Ptr(req.GenerateAudio),
	}
	if req.DurationSeconds > 0 {
		config.DurationSeconds = genai.Ptr(req.DurationSeconds)
	}
	if extra := videoExtraParameters(req); len(extra) > 0 {
		config.HTTPOptions = &genai.HTTPOptions{ExtraBody: map[string]any{"parameters": extra}}
	}

	start := time.Now()
	op, err := c.video.GenerateVideos(ctx, req.Model, req.Prompt, &genai.Image{
		ImageBytes: req.Image,
		MIMEType:   req.MIMEType,
	}, config)
	c.observe(stepVideo, req.Model, start, err)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", nil
	}
	return op.Name, nil
}

// PollVideo fetches the operation once and reports what it currently holds.
func (c *Client) PollVideo(ctx context.Context, operationName string) (videos.Job, error) {
	start := time.Now()
	op, err := c.operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: operationName}, nil)
	c.observe(stepVideoPoll, "", start, err)
	if err != nil {
		return videos.Job{}, err
	}
	if op == nil {
		return videos.Job{Name: operationName, State: videos.StatePending}, nil
	}
	return jobFromOperation(operationName, op), nil
}

// videoExtraParameters carries request flags GenerateVideosConfig has no field for.
// The client merges them into the predict request's parameters.
func videoExtraParameters(req relay.VideoRequest) map[string]any {
	extra := map[string]any{}
	if req.AddWatermark {
		extra["addWatermark"] = true
	}
	if req.IncludeRAIReason {
		extra["includeRaiReason"] = true
	}
	return extra
}

func jobFromOperation(name string, op *genai.GenerateVideosOperation) videos.Job {
	if op.Name != "" {
		name = op.Name
	}
	job := videos.Job{Name: name, State: videos.StatePending}
	if !op.Done {
		return job
	}
	job.State = videos.StateDone

	if len(op.Error) > 0 {
		job.Error = describeOperationError(op.Error)
		return job
	}
	if op.Response == nil {
		return job
	}
	for _, generated := range op.Response.GeneratedVideos {
		if generated == nil || generated.Video == nil {
			continue
		}
		if generated.Video.URI == "" && len(generated.Video.VideoBytes) == 0 {
			continue
		}
		job.VideoURI = generated.Video.URI
		job.VideoBytes = generated.Video.VideoBytes
		job.MIMEType = generated.Video.MIMEType
		return job
	}
	if len(op.Response.RAIMediaFilteredReasons) > 0 {
		job.Error = fmt.Sprintf("video filtered by responsible AI policy: %v", op.Response.RAIMediaFilteredReasons)
	}
	return job
}

func describeOperationError(opErr map[string]any) string {
	raw, err := json.Marshal(opErr)
	if err != nil {
		return fmt.Sprint(opErr)
	}
	return string(raw)
}

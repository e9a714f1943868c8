package vertex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/creativecanvas/backend/internal/relay"
	"github.com/creativecanvas/backend/internal/videos"
)

type mockModels struct {
	contentResp *genai.GenerateContentResponse
	contentErr  error
	model       string
	contents    []*genai.Content
	config      *genai.GenerateContentConfig

	videoOp     *genai.GenerateVideosOperation
	videoErr    error
	prompt      string
	image       *genai.Image
	videoConfig *genai.GenerateVideosConfig
}

func (m *mockModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.model, m.contents, m.config = model, contents, config
	return m.contentResp, m.contentErr
}

func (m *mockModels) GenerateVideos(_ context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	m.model, m.prompt, m.image, m.videoConfig = model, prompt, image, config
	return m.videoOp, m.videoErr
}

type mockOperations struct {
	op        *genai.GenerateVideosOperation
	err       error
	requested string
}

func (m *mockOperations) GetVideosOperation(_ context.Context, operation *genai.GenerateVideosOperation, _ *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	m.requested = operation.Name
	return m.op, m.err
}

type recordingObserver struct {
	steps []string
	errs  []error
}

func (r *recordingObserver) ObserveUpstream(step, _ string, err error, _ time.Duration) {
	r.steps = append(r.steps, step)
	r.errs = append(r.errs, err)
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}}}
}

func TestDescribe(t *testing.T) {
	models := &mockModels{contentResp: textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: `{"image_prompt":`},
		&genai.Part{Text: `"cat"}`},
	)}
	obs := &recordingObserver{}
	c := newClient(models, models, &mockOperations{}, obs)

	text, err := c.Describe(context.Background(), relay.DescribeRequest{
		Model: "gemini-2.5-flash-lite", Instruction: "describe", Image: []byte("img"), MIMEType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"image_prompt":"cat"}`, text)

	require.Len(t, models.contents, 1)
	parts := models.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "describe", parts[0].Text)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, genai.RoleUser, models.contents[0].Role)
	assert.Equal(t, "application/json", models.config.ResponseMIMEType)
	assert.Equal(t, []string{stepDescribe}, obs.steps)
}

func TestDescribeEmptyCandidates(t *testing.T) {
	models := &mockModels{contentResp: &genai.GenerateContentResponse{}}
	c := newClient(models, models, &mockOperations{}, nil)

	text, err := c.Describe(context.Background(), relay.DescribeRequest{Model: "m"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDescribePropagatesAPIError(t *testing.T) {
	apiErr := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}
	models := &mockModels{contentErr: apiErr}
	obs := &recordingObserver{}
	c := newClient(models, models, &mockOperations{}, obs)

	_, err := c.Describe(context.Background(), relay.DescribeRequest{Model: "m"})
	require.Error(t, err)
	var got genai.APIError
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, 429, got.Code)
	assert.Error(t, obs.errs[0])
}

func TestGenerateImage(t *testing.T) {
	models := &mockModels{contentResp: textResponse(
		&genai.Part{Text: "Here is your image"},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png")}},
	)}
	c := newClient(models, models, &mockOperations{}, nil)

	parts, err := c.GenerateImage(context.Background(), relay.ImageRequest{Model: "img", Prompt: "p", Image: []byte("x"), MIMEType: "image/jpeg"})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "Here is your image", parts[0].Text)
	assert.Equal(t, []byte("png"), parts[1].Data)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, models.config.ResponseModalities)
}

func TestSubmitVideo(t *testing.T) {
	models := &mockModels{videoOp: &genai.GenerateVideosOperation{Name: "operations/42"}}
	c := newClient(models, models, &mockOperations{}, nil)

	name, err := c.SubmitVideo(context.Background(), relay.VideoRequest{
		Model:            "veo",
		Prompt:           "dance",
		Image:            []byte("img"),
		MIMEType:         "image/png",
		AspectRatio:      videos.AspectWide,
		DestinationURI:   "gs://bucket/p/u/a1b2c3/",
		DurationSeconds:  8,
		Resolution:       "720p",
		PersonGeneration: "allow_all",
		SampleCount:      1,
		GenerateAudio:    true,
		AddWatermark:     true,
		IncludeRAIReason: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "operations/42", name)

	cfg := models.videoConfig
	assert.Equal(t, "gs://bucket/p/u/a1b2c3/", cfg.OutputGCSURI)
	assert.Equal(t, "16:9", cfg.AspectRatio)
	assert.Equal(t, int32(8), *cfg.DurationSeconds)
	assert.Equal(t, int32(1), cfg.NumberOfVideos)
	assert.True(t, *cfg.GenerateAudio)
	assert.Equal(t, []byte("img"), models.image.ImageBytes)
	require.NotNil(t, cfg.HTTPOptions)
	assert.Equal(t, map[string]any{"parameters": map[string]any{
		"addWatermark":     true,
		"includeRaiReason": true,
	}}, cfg.HTTPOptions.ExtraBody)
}

func TestSubmitVideoWithoutFlagsSendsNoExtraBody(t *testing.T) {
	models := &mockModels{videoOp: &genai.GenerateVideosOperation{Name: "operations/43"}}
	c := newClient(models, models, &mockOperations{}, nil)

	_, err := c.SubmitVideo(context.Background(), relay.VideoRequest{Model: "veo", Prompt: "dance", Image: []byte("img")})
	require.NoError(t, err)
	assert.Nil(t, models.videoConfig.HTTPOptions)
}

func TestPollVideo(t *testing.T) {
	tests := []struct {
		name string
		op   *genai.GenerateVideosOperation
		want videos.Job
	}{
		{
			name: "pending",
			op:   &genai.GenerateVideosOperation{Name: "op"},
			want: videos.Job{Name: "op", State: videos.StatePending},
		},
		{
			name: "uri",
			op: &genai.GenerateVideosOperation{Name: "op", Done: true, Response: &genai.GenerateVideosResponse{
				GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "gs://b/v.mp4", MIMEType: "video/mp4"}}},
			}},
			want: videos.Job{Name: "op", State: videos.StateDone, VideoURI: "gs://b/v.mp4", MIMEType: "video/mp4"},
		},
		{
			name: "bytes",
			op: &genai.GenerateVideosOperation{Name: "op", Done: true, Response: &genai.GenerateVideosResponse{
				GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{VideoBytes: []byte("mp4")}}},
			}},
			want: videos.Job{Name: "op", State: videos.StateDone, VideoBytes: []byte("mp4")},
		},
		{
			name: "error",
			op:   &genai.GenerateVideosOperation{Name: "op", Done: true, Error: map[string]any{"code": 3, "message": "bad prompt"}},
			want: videos.Job{Name: "op", State: videos.StateDone, Error: `{"code":3,"message":"bad prompt"}`},
		},
		{
			name: "filtered",
			op: &genai.GenerateVideosOperation{Name: "op", Done: true, Response: &genai.GenerateVideosResponse{
				RAIMediaFilteredCount: 1, RAIMediaFilteredReasons: []string{"celebrity"},
			}},
			want: videos.Job{Name: "op", State: videos.StateDone, Error: "video filtered by responsible AI policy: [celebrity]"},
		},
		{
			name: "done without response",
			op:   &genai.GenerateVideosOperation{Name: "op", Done: true},
			want: videos.Job{Name: "op", State: videos.StateDone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &mockOperations{op: tt.op}
			c := newClient(&mockModels{}, &mockModels{}, ops, nil)

			job, err := c.PollVideo(context.Background(), "op")
			require.NoError(t, err)
			assert.Equal(t, tt.want, job)
			assert.Equal(t, "op", ops.requested)
		})
	}
}

func TestPollVideoError(t *testing.T) {
	c := newClient(&mockModels{}, &mockModels{}, &mockOperations{err: errors.New("not found")}, nil)

	_, err := c.PollVideo(context.Background(), "op")
	assert.EqualError(t, err, "not found")
}

// Package vertex adapts the Vertex AI generative models to the relay platform.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	stepDescribe   = "describe"
	stepImage      = "image"
	stepVideo      = "video_submit"
	stepVideoPoll  = "video_poll"
	describeTokens = 8192
	imageTokens    = 8192
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type videoGenerator interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

type operationGetter interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

// Observer receives one observation per platform call.
type Observer interface {
	ObserveUpstream(step, model string, err error, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstream(string, string, error, time.Duration) {}

// Config selects the Vertex AI project. Content models are served from Location,
// video models from VideoLocation.
type Config struct {
	Project       string
	Location      string
	VideoLocation string
}

// Client implements the relay platform against Vertex AI.
type Client struct {
	content    contentGenerator
	video      videoGenerator
	operations operationGetter
	observer   Observer
}

// New dials both regional endpoints with application default credentials.
func New(ctx context.Context, cfg Config, observer Observer) (*Client, error) {
	if cfg.Project == "" {
		return nil, errors.New("vertex: project is required")
	}

	contentClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  cfg.Project,
		Location: cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex: create content client: %w", err)
	}

	videoClient := contentClient
	if cfg.VideoLocation != "" && cfg.VideoLocation != cfg.Location {
		videoClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.Project,
			Location: cfg.VideoLocation,
		})
		if err != nil {
			return nil, fmt.Errorf("vertex: create video client: %w", err)
		}
	}

	return newClient(contentClient.Models, videoClient.Models, videoClient.Operations, observer), nil
}

func newClient(content contentGenerator, video videoGenerator, operations operationGetter, observer Observer) *Client {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Client{content: content, video: video, operations: operations, observer: observer}
}

func (c *Client) observe(step, model string, start time.Time, err error) {
	c.observer.ObserveUpstream(step, model, err, time.Since(start))
}

package relay

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/creativecanvas/backend/internal/logging"
	"github.com/creativecanvas/backend/internal/models"
)

// UnderstandInput is the payload of the understanding step.
type UnderstandInput struct {
	ImageData string
	Style     string
	Notes     string
}

// GenerateInput is the payload of the image regeneration step.
type GenerateInput struct {
	ImageData string
	Prompt    string
	Model     string
}

// Understand asks the multimodal model for prompts, a description and a style label.
func (s *Service) Understand(ctx context.Context, in UnderstandInput) (models.Analysis, error) {
	ctx, span := logging.StartSpan(ctx, "relay.understand")
	defer span.End()

	if strings.TrimSpace(in.ImageData) == "" {
		return models.Analysis{}, invalidInput("imageData is required")
	}
	image, mimeType, err := decodeImage(in.ImageData)
	if err != nil {
		return models.Analysis{}, invalidInput("imageData must be base64 encoded image data")
	}

	text, err := s.platform.Describe(ctx, DescribeRequest{
		Model:       s.models.Understand,
		Instruction: BuildUnderstandInstruction(in.Style, in.Notes),
		Image:       image,
		MIMEType:    mimeType,
	})
	if err != nil {
		return models.Analysis{}, upstreamFailure("Failed to call Vertex AI API", err)
	}
	if strings.TrimSpace(text) == "" {
		return models.Analysis{}, missingPayload("Could not find valid text in the API response", "")
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		logging.FromContext(ctx).Warn("unparseable analysis answer", "error", err)
		return models.Analysis{}, malformedAnswer("Failed to parse response from AI", text)
	}

	return analysis, nil
}

// GenerateImage regenerates the drawing and returns the first image part of the answer.
func (s *Service) GenerateImage(ctx context.Context, in GenerateInput) (models.ImagePart, error) {
	ctx, span := logging.StartSpan(ctx, "relay.generate_image")
	defer span.End()

	if strings.TrimSpace(in.ImageData) == "" {
		return models.ImagePart{}, invalidInput("imageData is required")
	}
	image, mimeType, err := decodeImage(in.ImageData)
	if err != nil {
		return models.ImagePart{}, invalidInput("imageData must be base64 encoded image data")
	}

	parts, err := s.platform.GenerateImage(ctx, ImageRequest{
		Model:    orDefault(in.Model, s.models.Image),
		Prompt:   orDefault(in.Prompt, DefaultImagePrompt),
		Image:    image,
		MIMEType: mimeType,
	})
	if err != nil {
		return models.ImagePart{}, upstreamFailure("Failed to generate image", err)
	}

	for _, part := range parts {
		if len(part.Data) == 0 {
			continue
		}
		return models.ImagePart{InlineData: models.InlineData{
			MimeType: part.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(part.Data),
		}}, nil
	}

	return models.ImagePart{}, missingPayload("Could not find valid image data in the API response", summarizeParts(parts))
}

func summarizeParts(parts []GeneratedPart) string {
	var texts []string
	for _, part := range parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

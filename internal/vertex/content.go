package vertex

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/creativecanvas/backend/internal/relay"
)

// Describe sends the instruction and the image in a single user turn and returns
// the text of the first candidate.
func (c *Client) Describe(ctx context.Context, req relay.DescribeRequest) (string, error) {
	start := time.Now()
	resp, err := c.content.GenerateContent(ctx, req.Model, userTurn(req.Instruction, req.Image, req.MIMEType), &genai.GenerateContentConfig{
		MaxOutputTokens:  describeTokens,
		Temperature:      genai.Ptr[float32](1),
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
		ResponseMIMEType: "application/json",
	})
	c.observe(stepDescribe, req.Model, start, err)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, part := range firstCandidateParts(resp) {
		if part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

// GenerateImage asks an image model for a new rendition of the drawing.
func (c *Client) GenerateImage(ctx context.Context, req relay.ImageRequest) ([]relay.GeneratedPart, error) {
	start := time.Now()
	resp, err := c.content.GenerateContent(ctx, req.Model, userTurn(req.Prompt, req.Image, req.MIMEType), &genai.GenerateContentConfig{
		MaxOutputTokens:    imageTokens,
		Temperature:        genai.Ptr[float32](0.5),
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
	})
	c.observe(stepImage, req.Model, start, err)
	if err != nil {
		return nil, err
	}

	var parts []relay.GeneratedPart
	for _, part := range firstCandidateParts(resp) {
		switch {
		case part.InlineData != nil:
			parts = append(parts, relay.GeneratedPart{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data})
		case part.Text != "":
			parts = append(parts, relay.GeneratedPart{Text: part.Text})
		}
	}
	return parts, nil
}

func userTurn(text string, image []byte, mimeType string) []*genai.Content {
	return []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		{Text: text},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
	}, genai.RoleUser)}
}

func firstCandidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}

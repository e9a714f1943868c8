package models

import "time"

// User is an account identified by the authenticating proxy.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Creation is a saved drawing together with the artifacts generated from it.
// References are storage URIs (gs:// or s3://), never signed URLs.
type Creation struct {
	ID          string
	UserID      string
	DrawingRef  string
	ImageRef    string
	VideoRef    *string
	ImagePrompt string
	VideoPrompt *string
	Description *string
	Style       *string
	CreatedAt   time.Time
}

// Analysis is the structured answer of the understanding step.
type Analysis struct {
	ImagePrompt   string `json:"image_prompt"`
	VideoPrompt   string `json:"video_prompt"`
	CnDescription string `json:"cn_description"`
	CnStyle       string `json:"cn_style"`
}

// InlineData carries a base64 encoded binary payload.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ImagePart is a generated image in the shape returned to clients.
type ImagePart struct {
	InlineData InlineData `json:"inlineData"`
}

// CreationView is a creation with short-lived read links in place of references.
type CreationView struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	DrawingURL *string   `json:"drawingUrl"`
	ImageURL   *string   `json:"imageUrl"`
	VideoURL   *string   `json:"videoUrl"`
}

// StringPtr returns nil for empty strings so optional fields persist as NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

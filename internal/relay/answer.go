package relay

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/creativecanvas/backend/internal/models"
)

var errNotAnObject = errors.New("answer is not a JSON object")

// ParseAnalysis decodes the understanding answer, tolerating a markdown code fence
// (```json ... ``` or ``` ... ```) around the JSON object.
func ParseAnalysis(text string) (models.Analysis, error) {
	body := stripCodeFence(text)
	if !strings.HasPrefix(body, "{") {
		return models.Analysis{}, errNotAnObject
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return models.Analysis{}, err
	}
	return analysis, nil
}

func stripCodeFence(text string) string {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		body = body[newline+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// decodeImage accepts raw base64 or a data URL and returns the bytes with a sniffed MIME type.
func decodeImage(encoded string) ([]byte, string, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		if comma := strings.IndexByte(payload, ','); comma >= 0 {
			payload = payload[comma+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image payload")
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}

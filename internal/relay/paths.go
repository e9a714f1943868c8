package relay

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

const (
	roleDrawing = "drawing.png"
	roleImage   = "image.png"
	roleVideo   = "video.mp4"

	creationIDBytes  = 8
	maxCreationIDLen = 64
)

// creationPrefix is the folder holding every artifact of one creation, with a trailing slash.
func (s *Service) creationPrefix(userID, creationID string) string {
	return path.Join(s.prefix, userID, creationID) + "/"
}

func (s *Service) objectKey(userID, creationID, role string) string {
	return path.Join(s.prefix, userID, creationID, role)
}

func newCreationID() (string, error) {
	buf := make([]byte, creationIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate creation id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// validCreationID accepts lowercase hexadecimal tokens only, so an id can never
// address anything outside its own folder.
func validCreationID(id string) bool {
	if id == "" || len(id) > maxCreationIDLen {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func validUserID(id string) bool {
	if strings.TrimSpace(id) == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

package videos

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	// AspectWide is requested for landscape sources.
	AspectWide = "16:9"
	// AspectTall is requested for everything else, square images included.
	AspectTall = "9:16"
)

// Frame describes the decoded header of a source image.
type Frame struct {
	Width    int
	Height   int
	MIMEType string
}

// AspectRatio returns the video aspect ratio matching the frame orientation.
func (f Frame) AspectRatio() string {
	return AspectRatioFor(f.Width, f.Height)
}

// AspectRatioFor picks the wide ratio only when width strictly exceeds height.
func AspectRatioFor(width, height int) string {
	if width > height {
		return AspectWide
	}
	return AspectTall
}

// InspectFrame reads the image header without decoding pixel data.
func InspectFrame(data []byte) (Frame, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return Frame{
		Width:    cfg.Width,
		Height:   cfg.Height,
		MIMEType: "image/" + format,
	}, nil
}

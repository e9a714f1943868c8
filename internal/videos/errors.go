package videos

import "errors"

var (
	// ErrUnsupportedImage indicates the payload could not be decoded as a known image format.
	ErrUnsupportedImage = errors.New("unsupported image payload")
)

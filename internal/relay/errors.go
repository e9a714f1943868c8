package relay

import (
	"errors"
)

var (
	// ErrInvalidInput marks requests missing required fields or carrying malformed ones.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks non-success answers from the generative platform.
	ErrUpstream = errors.New("upstream request failed")
	// ErrMalformedAnswer marks model answers that do not match the expected structure.
	ErrMalformedAnswer = errors.New("malformed model answer")
	// ErrMissingPayload marks successful upstream answers lacking the expected payload.
	ErrMissingPayload = errors.New("expected payload missing")
	// ErrCreationNotFound marks operations on a creation that is not on file.
	ErrCreationNotFound = errors.New("creation not found")
	// ErrPersistence marks object storage or metadata store failures.
	ErrPersistence = errors.New("persistence failure")
)

// Error is the failure returned by every Service operation. Kind is one of the
// sentinels above; Details carries raw upstream or model text for diagnostics.
type Error struct {
	Kind    error
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func invalidInput(message string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

func upstreamFailure(message string, err error) *Error {
	return &Error{Kind: ErrUpstream, Message: message, Details: err.Error(), Err: err}
}

func upstreamDetail(message, details string) *Error {
	return &Error{Kind: ErrUpstream, Message: message, Details: details}
}

func malformedAnswer(message, raw string) *Error {
	return &Error{Kind: ErrMalformedAnswer, Message: message, Details: raw}
}

func missingPayload(message, details string) *Error {
	return &Error{Kind: ErrMissingPayload, Message: message, Details: details}
}

func persistenceFailure(message string, err error) *Error {
	return &Error{Kind: ErrPersistence, Message: message, Details: err.Error(), Err: err}
}

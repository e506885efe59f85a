package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestFailed matches any non-success outcome of a completion request
	ErrRequestFailed = errors.New("llm: completion request failed")

	// ErrResolutionFailed matches failures to determine which model to use
	ErrResolutionFailed = errors.New("llm: model resolution failed")
)

// RequestFailedError carries the HTTP status and body of a rejected completion request.
// Status is 0 when the request never got a response.
type RequestFailedError struct {
	Status int
	Body   string
	Err    error
}

func (e *RequestFailedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("completion request failed: %v", e.Err)
	}
	return fmt.Sprintf("completion request failed (status %d): %s", e.Status, e.Body)
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// ResolutionFailedError is returned when the model list could not be used to pick a model
type ResolutionFailedError struct {
	Status int
	Reason string
	Err    error
}

func (e *ResolutionFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model resolution failed (status %d): %s", e.Status, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("model resolution failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("model resolution failed: %s", e.Reason)
}

func (e *ResolutionFailedError) Is(target error) bool {
	return target == ErrResolutionFailed
}

func (e *ResolutionFailedError) Unwrap() error {
	return e.Err
}

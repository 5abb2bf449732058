package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for analyzer client failures.
var (
	ErrUploadRejected = errors.New("upload rejected")
	ErrUnreachable    = errors.New("analyzer unreachable")
	ErrTimeout        = errors.New("analyzer request timeout")
	ErrStatusQuery    = errors.New("status query failed")
	ErrResultFetch    = errors.New("result fetch failed")
	ErrNotFound       = errors.New("video not found")
)

// UploadError is returned when the analyzer answers an upload with a
// non-success status. Message carries the server's own error text.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return e.Message
}

func (e *UploadError) Unwrap() error {
	return ErrUploadRejected
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

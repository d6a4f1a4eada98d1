// file: internal/dispatch/errors.go
// version: 1.1.1
// guid: 6b8c0d2e-4f6a-4b8c-9d1e-3f5a7b9c1d3e

package dispatch

import (
	"fmt"
	"time"
)

// Category classifies a download failure for reporting and metrics.
type Category int

const (
	// CategoryValidation marks user-correctable input problems.
	CategoryValidation Category = iota
	// CategoryNetwork marks connection or timeout failures during a fetch.
	CategoryNetwork
	// CategoryUnavailable marks remote content that is private, removed or
	// requires login.
	CategoryUnavailable
	// CategoryRateLimit marks an externally imposed rate limit with a wait
	// hint.
	CategoryRateLimit
	// CategoryInternal marks unexpected failures inside the pipeline.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryNetwork:
		return "network"
	case CategoryUnavailable:
		return "unavailable"
	case CategoryRateLimit:
		return "rate_limit"
	default:
		return "internal"
	}
}

// DownloadError is the uniform failure type returned by all strategies. The
// message is user-facing.
type DownloadError struct {
	Category   Category
	Message    string
	RetryAfter time.Duration // only set for CategoryRateLimit
}

func (e *DownloadError) Error() string { return e.Message }

func networkError(format string, args ...any) *DownloadError {
	return &DownloadError{Category: CategoryNetwork, Message: fmt.Sprintf(format, args...)}
}

func unavailableError(format string, args ...any) *DownloadError {
	return &DownloadError{Category: CategoryUnavailable, Message: fmt.Sprintf(format, args...)}
}

func rateLimitError(wait time.Duration) *DownloadError {
	msg := "The server is rate limiting downloads. Please try again later."
	if wait > 0 {
		msg = fmt.Sprintf("The server is rate limiting downloads. Please try again in %s.", wait)
	}
	return &DownloadError{Category: CategoryRateLimit, Message: msg, RetryAfter: wait}
}

func internalError(format string, args ...any) *DownloadError {
	return &DownloadError{Category: CategoryInternal, Message: fmt.Sprintf(format, args...)}
}

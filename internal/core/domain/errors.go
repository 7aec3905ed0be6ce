package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSiteNotConfigured means the inbound hostname has no site mapping.
	ErrSiteNotConfigured = errors.New("site not configured")

	// ErrNotHTML means the origin response cannot enter the HTML pipeline.
	ErrNotHTML = errors.New("origin response is not html")

	// ErrTranslationFailed means at least one translation batch failed after
	// retries; the orchestrator serves the original markup.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrEmptyDocument means parsing produced no usable document element.
	ErrEmptyDocument = errors.New("empty document")
)

// UpstreamError wraps a failure talking to the origin server.
type UpstreamError struct {
	Host string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream fetch from %s failed: %v", e.Host, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// BatchError identifies which translation batch failed and why.
type BatchError struct {
	Batch int
	Size  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("translation batch %d (%d segments) failed: %v", e.Batch, e.Size, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

package fetcher

import (
	"fmt"
	"time"

	"github.com/tinyshop/storefront/internal/core"
)

// FetchError describes a failed upstream call. It unwraps to
// core.ErrFetchFailed.
type FetchError struct {
	URL        string
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", core.ErrFetchFailed, e.Err)
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s: unexpected status code: %d", core.ErrFetchFailed, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status code: %d, body: %s", core.ErrFetchFailed, e.StatusCode, string(e.Body))
}

// Unwrap exposes both the sentinel and the transport cause to errors.Is.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{core.ErrFetchFailed}
	}
	return []error{core.ErrFetchFailed, e.Err}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

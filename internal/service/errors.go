package service

import "fmt"

// UpstreamError reports a failed generative-text call: network failures,
// auth/quota rejections, or an empty reply. StatusCode is zero when the
// provider did not surface an HTTP status. Calls are never retried.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError reports a reply that could not be processed at all. A reply
// that merely misses labels is not an error; missing fields get fallbacks.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "cannot parse model reply: " + e.Reason
}

// BatchError wraps the first failure among concurrently generated batch
// items. Index is the position of the failed input; in-flight results for
// the other items are discarded.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch item %d failed: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

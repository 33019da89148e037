package llm

import (
	"encoding/json"
	"fmt"
)

// ErrQuotaExceeded indicates the provider rejected the request for
// quota/billing reasons (429). Never retried.
type ErrQuotaExceeded struct {
	Err error
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("provider quota exceeded: %v", e.Err)
}

func (e *ErrQuotaExceeded) Unwrap() error { return e.Err }

// ErrModelNotFound indicates the requested model does not exist or is
// not available to this account (404). Never retried.
type ErrModelNotFound struct {
	Model string
	Err   error
}

func (e *ErrModelNotFound) Error() string {
	return fmt.Sprintf("model %q not found: %v", e.Model, e.Err)
}

func (e *ErrModelNotFound) Unwrap() error { return e.Err }

// ErrMalformedOutput indicates the completion could not be parsed as a
// JSON object, even after stripping code fences and extracting the
// first balanced object.
type ErrMalformedOutput struct {
	Raw string
	Err error
}

func (e *ErrMalformedOutput) Error() string {
	return fmt.Sprintf("completion is not valid JSON: %v", e.Err)
}

func (e *ErrMalformedOutput) Unwrap() error { return e.Err }

// ErrInvalidData indicates the completion parsed but is not a usable
// object, or violated the requested schema.
type ErrInvalidData struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidData) Error() string {
	return fmt.Sprintf("invalid completion data: %v", e.Err)
}

func (e *ErrInvalidData) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates the model returned no usable text.
type ErrEmptyResponse struct{}

func (e *ErrEmptyResponse) Error() string {
	return "empty completion"
}

// ErrProviderUnavailable indicates the provider is down, unreachable,
// or failed in a way worth retrying.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable: %v", e.Err)
	}
	return "provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

package completion

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the provider does not answer within the client timeout.
	ErrTimeout = errors.New("openai_timeout")
	// ErrEmptyContent is returned when the first choice carries no message content.
	ErrEmptyContent = errors.New("openai_empty_content")
)

// HTTPStatusError is returned for a non-2xx provider response.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("OpenAI request failed with status %d", e.StatusCode)
}

// Code is the ledger error code for the status.
func (e *HTTPStatusError) Code() string {
	return fmt.Sprintf("openai_http_%d", e.StatusCode)
}

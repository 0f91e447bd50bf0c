package services

import (
	"errors"
	"fmt"
)

// AIErrorKind separates the failure classes of the AI pipeline so callers can
// branch without string matching.
type AIErrorKind string

const (
	// AIErrorConfig means credentials or provider settings are missing or
	// placeholders; detected before any network call.
	AIErrorConfig AIErrorKind = "config"
	// AIErrorUpstream means an external service call failed.
	AIErrorUpstream AIErrorKind = "upstream"
	// AIErrorParse means the model returned output we could not use.
	AIErrorParse AIErrorKind = "parse"
)

type AIError struct {
	Kind    AIErrorKind
	Message string
	Err     error
}

func (e *AIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AIError) Unwrap() error { return e.Err }

func NewConfigError(msg string) *AIError {
	return &AIError{Kind: AIErrorConfig, Message: msg}
}

func NewUpstreamError(msg string, err error) *AIError {
	return &AIError{Kind: AIErrorUpstream, Message: msg, Err: err}
}

func NewParseError(msg string, err error) *AIError {
	return &AIError{Kind: AIErrorParse, Message: msg, Err: err}
}

// AsAIError normalizes an arbitrary error into an *AIError, defaulting to the
// upstream kind for plain errors.
func AsAIError(err error) *AIError {
	if err == nil {
		return nil
	}
	var ae *AIError
	if errors.As(err, &ae) {
		return ae
	}
	return &AIError{Kind: AIErrorUpstream, Message: err.Error(), Err: err}
}

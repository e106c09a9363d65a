package actions

import "errors"

// RateLimitError carries the user-facing retry-later message for a denied
// check. Never escalated; callers show the message and nothing else.
type RateLimitError struct {
	Category string
	Message  string
}

func (e *RateLimitError) Error() string { return e.Message }

func rateLimited(category, message string) *RateLimitError {
	return &RateLimitError{Category: category, Message: message}
}

func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// ValidationError is a structured rejection of a typed action input,
// produced before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return "invalid " + e.Field + ": " + e.Reason }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package coursegate

import (
	"errors"
	"fmt"

	"github.com/coursegate/coursegate/lesson"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("coursegate: invalid input")

	// Webhook processing errors
	ErrInvalidSignature = errors.New("coursegate: webhook signature verification failed")
	ErrMalformedEvent   = errors.New("coursegate: malformed provider event")

	// Checkout errors
	ErrCheckoutFailed  = errors.New("coursegate: checkout session creation failed")
	ErrMissingIdentity = errors.New("coursegate: missing user identity")

	// Store errors
	ErrStoreUnavailable = errors.New("coursegate: store unavailable")
	ErrStoreClosed      = errors.New("coursegate: store is closed")

	// Watch errors
	ErrWatchCanceled = errors.New("coursegate: watch subscription canceled")

	// Catalog errors. Re-exported so facade callers match with errors.Is
	// without importing the lesson package.
	ErrLessonNotFound = lesson.ErrNotFound
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("coursegate: validation failed for %s: %s", e.Field, e.Message)
}

// IsRetryable returns true if the error is temporary and the provider or
// caller should retry the operation. Signature and validation failures are
// never retryable: redelivering the same payload cannot fix them.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrCheckoutFailed)
}

// IsRejected returns true if the error means the request was refused without
// any state mutation.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMissingIdentity) ||
		errors.Is(err, ErrInvalidInput)
}

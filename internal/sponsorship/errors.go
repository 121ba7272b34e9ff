package sponsorship

import (
	"errors"

	"github.com/i474232898/raincheck/internal/store"
)

var (
	// ErrInvalidContent is returned when a message trips the content policy.
	ErrInvalidContent = errors.New("message contains disallowed content")
	// ErrInvalidSubmission is returned when a required field is missing or out of range.
	ErrInvalidSubmission = errors.New("invalid sponsorship submission")

	ErrNotFound           = store.ErrNotFound
	ErrStorageUnavailable = store.ErrStorageUnavailable
)

package types

import "errors"

var (
	// ErrInvalidPayload marks a queue message that can never be processed.
	// Invalid payloads go straight to the dead-letter table.
	ErrInvalidPayload = errors.New("invalid image request payload")

	// ErrUnreadableImage marks an image that the region calculator could not
	// open or decode. Buffering such a job would waste scheduler capacity, so
	// it is dead-lettered immediately.
	ErrUnreadableImage = errors.New("image unreadable")
)

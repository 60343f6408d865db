package entity

import "errors"

var (
	// ErrValidation marks caller input that breaks a precondition. Nothing is written.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a reservation, user or branch does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition covers moves out of a terminal status and reserved targets.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrExhaustedRetries is returned by the minter when every candidate collided.
	ErrExhaustedRetries = errors.New("identifier minting exhausted retries")
	// ErrStoreUnavailable wraps transport and driver failures from the store.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrConflict       = errors.New("concurrent update detected")
	ErrForbidden      = errors.New("forbidden operation")
	ErrBookingsPaused = errors.New("bookings are paused for this branch")
)

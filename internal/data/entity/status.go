package entity

import (
	"encoding/json"
	"fmt"
)

// ReservationStatus is the wire-level status code of a reservation.
type ReservationStatus int

const (
	StatusPending   ReservationStatus = 0
	StatusConfirmed ReservationStatus = 1
	StatusRejected  ReservationStatus = 2
	StatusCompleted ReservationStatus = 3
	StatusCancelled ReservationStatus = 4
	StatusPaused    ReservationStatus = 5
)

var statusNames = map[ReservationStatus]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusRejected:  "rejected",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
	StatusPaused:    "paused",
}

func (s ReservationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s ReservationStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether s still holds a table (pending or confirmed).
func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s *ReservationStatus) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("status must be an integer code: %w", err)
	}
	parsed, err := ParseStatus(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a wire code into a status, rejecting unknown codes.
func ParseStatus(code int) (ReservationStatus, error) {
	s := ReservationStatus(code)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: unknown status code %d", ErrValidation, code)
	}
	return s, nil
}

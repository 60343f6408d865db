package entity

import (
	"time"
)

type Reservation struct {
	Base
	UserID          string            `db:"user_id"`
	Branch          Branch            `db:"branch"`
	Restaurant      *Restaurant       `db:"restaurant"`
	DateOfArrival   time.Time         `db:"date_of_arrival"`
	Guests          int               `db:"guests"`
	BookingName     string            `db:"booking_name"`
	Message         string            `db:"message"`
	Status          ReservationStatus `db:"status"`
	RejectionReason *string           `db:"rejection_reason"`
}

// IsUpcoming reports whether the slot is still ahead of now.
func (r *Reservation) IsUpcoming(now time.Time) bool {
	return r.DateOfArrival.After(now)
}

// ReservationStatusEvent is one row of the append-only status history.
type ReservationStatusEvent struct {
	BaseSimple
	ReservationID string             `db:"reservation_id"`
	FromStatus    *ReservationStatus `db:"from_status"`
	ToStatus      ReservationStatus  `db:"to_status"`
	Reason        *string            `db:"reason"`
	Trigger       string             `db:"trigger"`
	ActorID       *string            `db:"actor_id"`
}

package request

import (
	"time"

	"table-booking/internal/data/entity"
)

type CreateReservationRequest struct {
	Branch        *int      `json:"branch" validate:"required,min=0,max=2"`
	DateOfArrival time.Time `json:"date_of_arrival" validate:"required"`
	Guests        int       `json:"guests" validate:"required,gt=0"`
	BookingName   string    `json:"booking_name" validate:"max=120"`
	Message       string    `json:"message" validate:"max=500"`
}

type SetStatusRequest struct {
	Status *entity.ReservationStatus `json:"status" validate:"required"`
	Reason string                    `json:"reason" validate:"max=500"`
}

// ListReservationsRequest is read from the query string: ?status=&branch=
type ListReservationsRequest struct {
	Status *entity.ReservationStatus
	Branch *entity.Branch
}

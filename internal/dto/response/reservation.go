package response

import (
	"time"

	"table-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Branch          int       `json:"branch"`
	BranchName      string    `json:"branch_name"`
	Restaurant      *int      `json:"restaurant,omitempty"`
	DateOfArrival   time.Time `json:"date_of_arrival"`
	Guests          int       `json:"guests"`
	BookingName     string    `json:"booking_name"`
	Message         string    `json:"message"`
	Status          int       `json:"status"`
	StatusName      string    `json:"status_name"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type StatusEventResponse struct {
	FromStatus *int      `json:"from_status,omitempty"`
	ToStatus   int       `json:"to_status"`
	Reason     *string   `json:"reason,omitempty"`
	Trigger    string    `json:"trigger"`
	ActorID    *string   `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Helper converters
func ReservationToResponse(r *entity.Reservation) ReservationResponse {
	var restaurant *int
	if r.Restaurant != nil {
		code := int(*r.Restaurant)
		restaurant = &code
	}

	return ReservationResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		Branch:          int(r.Branch),
		BranchName:      r.Branch.String(),
		Restaurant:      restaurant,
		DateOfArrival:   r.DateOfArrival,
		Guests:          r.Guests,
		BookingName:     r.BookingName,
		Message:         r.Message,
		Status:          int(r.Status),
		StatusName:      r.Status.String(),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func ReservationsToResponse(list []*entity.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(list))
	for i, r := range list {
		out[i] = ReservationToResponse(r)
	}
	return out
}

func StatusEventToResponse(e *entity.ReservationStatusEvent) StatusEventResponse {
	var from *int
	if e.FromStatus != nil {
		code := int(*e.FromStatus)
		from = &code
	}

	return StatusEventResponse{
		FromStatus: from,
		ToStatus:   int(e.ToStatus),
		Reason:     e.Reason,
		Trigger:    e.Trigger,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt,
	}
}

package request

import "time"

type SetPauseRequest struct {
	Enabled         *bool      `json:"enabled" validate:"required"`
	Reason          string     `json:"reason" validate:"max=500"`
	Until           *time.Time `json:"until,omitempty"`
	ExpectedVersion *int64     `json:"expected_version,omitempty" validate:"omitempty,min=0"`
}

type CancelPendingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

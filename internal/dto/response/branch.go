package response

import (
	"time"

	"table-booking/internal/data/entity"
)

type BranchSettingsResponse struct {
	Branch        int        `json:"branch"`
	BranchName    string     `json:"branch_name"`
	PauseBookings bool       `json:"pause_bookings"`
	PauseReason   *string    `json:"pause_reason,omitempty"`
	PauseUntil    *time.Time `json:"pause_until,omitempty"`
	Version       int64      `json:"version"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type PauseResponse struct {
	Settings BranchSettingsResponse `json:"settings"`
	Mutated  int                    `json:"mutated"`
}

type BulkResponse struct {
	Branch  int `json:"branch"`
	Mutated int `json:"mutated"`
}

func BranchSettingsToResponse(s *entity.BranchSettings) BranchSettingsResponse {
	resp := BranchSettingsResponse{
		Branch:        int(s.Branch),
		BranchName:    s.Branch.String(),
		PauseBookings: s.PauseBookings,
		PauseReason:   s.PauseReason,
		PauseUntil:    s.PauseUntil,
		Version:       s.Version,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

package entity

import "time"

type SortOrder int

const (
	SortArrivalAsc SortOrder = iota
	SortArrivalDesc
)

// ReservationQuery is a composable predicate over reservations. Nil/empty
// fields do not constrain the result.
type ReservationQuery struct {
	UserID          *string
	Branch          *Branch
	Restaurant      *Restaurant
	Statuses        []ReservationStatus
	ExcludeStatuses []ReservationStatus
	ArrivalAfter    *time.Time
	Sort            SortOrder
	Limit           int
}

// Matches evaluates the predicate in memory. Stores that cannot push a
// filter down use it, and so do live subscribers deciding relevance.
func (q ReservationQuery) Matches(r *Reservation) bool {
	if q.UserID != nil && r.UserID != *q.UserID {
		return false
	}
	if q.Branch != nil && r.Branch != *q.Branch {
		return false
	}
	if q.Restaurant != nil && (r.Restaurant == nil || *r.Restaurant != *q.Restaurant) {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, r.Status) {
		return false
	}
	if containsStatus(q.ExcludeStatuses, r.Status) {
		return false
	}
	if q.ArrivalAfter != nil && !r.DateOfArrival.After(*q.ArrivalAfter) {
		return false
	}
	return true
}

// Touches reports whether a change in branch could alter the query result.
func (q ReservationQuery) Touches(branch Branch, userID string) bool {
	if q.UserID != nil && *q.UserID != userID {
		return false
	}
	if q.Branch != nil && *q.Branch != branch {
		return false
	}
	if q.Restaurant != nil {
		info, ok := LookupBranch(branch)
		if !ok || info.Restaurant != *q.Restaurant {
			return false
		}
	}
	return true
}

func containsStatus(list []ReservationStatus, s ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

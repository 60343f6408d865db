package usecase

import (
	"fmt"
	"time"

	"table-booking/internal/data/entity"
)

// ViewFilter is what an observer asks for; the actor decides what it gets.
type ViewFilter struct {
	Status *entity.ReservationStatus
	Branch *entity.Branch
}

// ResolveVisibility maps an actor and a requested view onto the query the
// store runs. It does no I/O.
func ResolveVisibility(actor entity.Actor, filter ViewFilter, now time.Time) (entity.ReservationQuery, error) {
	switch actor.Role {
	case entity.RoleCustomer:
		userID := actor.ID
		q := entity.ReservationQuery{
			UserID: &userID,
			Branch: filter.Branch,
			Sort:   entity.SortArrivalDesc,
		}
		if filter.Status != nil {
			q.Statuses = []entity.ReservationStatus{*filter.Status}
		} else {
			q.ExcludeStatuses = []entity.ReservationStatus{entity.StatusCancelled}
		}
		return q, nil

	case entity.RoleStaff, entity.RoleAdmin:
		if actor.Branch == nil {
			return entity.ReservationQuery{}, fmt.Errorf("%w: %s has no branch assignment", entity.ErrForbidden, actor.Role)
		}
		if filter.Branch != nil && *filter.Branch != *actor.Branch {
			return entity.ReservationQuery{}, fmt.Errorf("%w: branch %d is outside the actor's branch", entity.ErrForbidden, *filter.Branch)
		}
		branch := *actor.Branch
		return queueQuery(filter, now, &branch, nil), nil

	case entity.RoleSuperAdmin:
		if actor.Restaurant == nil {
			return entity.ReservationQuery{}, fmt.Errorf("%w: super admin has no restaurant assignment", entity.ErrForbidden)
		}
		restaurant := *actor.Restaurant
		if filter.Branch != nil {
			info, ok := entity.LookupBranch(*filter.Branch)
			if !ok || info.Restaurant != restaurant {
				return entity.ReservationQuery{}, fmt.Errorf("%w: branch %d is outside the actor's restaurant", entity.ErrForbidden, *filter.Branch)
			}
			branch := *filter.Branch
			return queueQuery(filter, now, &branch, nil), nil
		}
		return queueQuery(filter, now, nil, &restaurant), nil
	}

	return entity.ReservationQuery{}, fmt.Errorf("%w: unknown role %d", entity.ErrForbidden, actor.Role)
}

// queueQuery is the staff triage view: one status, upcoming only, soonest first.
func queueQuery(filter ViewFilter, now time.Time, branch *entity.Branch, restaurant *entity.Restaurant) entity.ReservationQuery {
	status := entity.StatusPending
	if filter.Status != nil {
		status = *filter.Status
	}
	after := now
	return entity.ReservationQuery{
		Branch:       branch,
		Restaurant:   restaurant,
		Statuses:     []entity.ReservationStatus{status},
		ArrivalAfter: &after,
		Sort:         entity.SortArrivalAsc,
	}
}

// canView decides single-record read access with the same scoping rules.
func canView(actor entity.Actor, r *entity.Reservation) bool {
	if actor.Role == entity.RoleCustomer {
		return r.UserID == actor.ID
	}
	return inScope(actor, r.Branch)
}

// inScope reports whether a staff-level actor governs branch.
func inScope(actor entity.Actor, branch entity.Branch) bool {
	switch actor.Role {
	case entity.RoleStaff, entity.RoleAdmin:
		return actor.Branch != nil && *actor.Branch == branch
	case entity.RoleSuperAdmin:
		info, ok := entity.LookupBranch(branch)
		return ok && actor.Restaurant != nil && info.Restaurant == *actor.Restaurant
	}
	return false
}

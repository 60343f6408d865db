package usecase

import (
	"testing"
	"time"

	"table-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func statusPtr(s entity.ReservationStatus) *entity.ReservationStatus { return &s }

func TestResolveVisibilityCustomer(t *testing.T) {
	q, err := ResolveVisibility(customer("100001"), ViewFilter{}, testNow)
	require.NoError(t, err)

	require.NotNil(t, q.UserID)
	assert.Equal(t, "100001", *q.UserID)
	assert.Equal(t, []entity.ReservationStatus{entity.StatusCancelled}, q.ExcludeStatuses)
	assert.Empty(t, q.Statuses)
	assert.Nil(t, q.ArrivalAfter)
	assert.Equal(t, entity.SortArrivalDesc, q.Sort)

	q, err = ResolveVisibility(customer("100001"), ViewFilter{Status: statusPtr(entity.StatusCancelled)}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []entity.ReservationStatus{entity.StatusCancelled}, q.Statuses)
	assert.Empty(t, q.ExcludeStatuses)
}

func TestResolveVisibilityCustomerNeverSeesOthers(t *testing.T) {
	own := &entity.Reservation{UserID: "A", Branch: entity.BranchCentral, Status: entity.StatusPending, DateOfArrival: testNow.Add(time.Hour)}
	other := &entity.Reservation{UserID: "B", Branch: entity.BranchCentral, Status: entity.StatusPending, DateOfArrival: testNow.Add(time.Hour)}

	filters := []ViewFilter{
		{},
		{Status: statusPtr(entity.StatusPending)},
		{Branch: branchPtr(entity.BranchCentral)},
		{Status: statusPtr(entity.StatusPending), Branch: branchPtr(entity.BranchCentral)},
	}

	for _, f := range filters {
		q, err := ResolveVisibility(customer("A"), f, testNow)
		require.NoError(t, err)
		assert.True(t, q.Matches(own))
		assert.False(t, q.Matches(other))
	}
}

func TestResolveVisibilityStaff(t *testing.T) {
	for _, actor := range []entity.Actor{staff("200001", entity.BranchRiverside), admin("200002", entity.BranchRiverside)} {
		t.Run(actor.Role.String(), func(t *testing.T) {
			q, err := ResolveVisibility(actor, ViewFilter{Status: statusPtr(entity.StatusConfirmed)}, testNow)
			require.NoError(t, err)

			require.NotNil(t, q.Branch)
			assert.Equal(t, entity.BranchRiverside, *q.Branch)
			assert.Nil(t, q.UserID)
			assert.Equal(t, []entity.ReservationStatus{entity.StatusConfirmed}, q.Statuses)
			require.NotNil(t, q.ArrivalAfter)
			assert.Equal(t, testNow, *q.ArrivalAfter)
			assert.Equal(t, entity.SortArrivalAsc, q.Sort)
		})
	}

	q, err := ResolveVisibility(staff("200001", entity.BranchRiverside), ViewFilter{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []entity.ReservationStatus{entity.StatusPending}, q.Statuses, "queue defaults to pending")

	_, err = ResolveVisibility(staff("200001", entity.BranchRiverside), ViewFilter{Branch: branchPtr(entity.BranchCentral)}, testNow)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	_, err = ResolveVisibility(entity.Actor{ID: "200003", Role: entity.RoleStaff}, ViewFilter{}, testNow)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestResolveVisibilitySuperAdmin(t *testing.T) {
	actor := superAdmin("300001", entity.RestaurantFlagship)

	q, err := ResolveVisibility(actor, ViewFilter{}, testNow)
	require.NoError(t, err)
	require.NotNil(t, q.Restaurant)
	assert.Equal(t, entity.RestaurantFlagship, *q.Restaurant)
	assert.Nil(t, q.Branch)

	q, err = ResolveVisibility(actor, ViewFilter{Branch: branchPtr(entity.BranchRiverside)}, testNow)
	require.NoError(t, err)
	require.NotNil(t, q.Branch)
	assert.Equal(t, entity.BranchRiverside, *q.Branch)

	_, err = ResolveVisibility(actor, ViewFilter{Branch: branchPtr(entity.BranchAirport)}, testNow)
	assert.ErrorIs(t, err, entity.ErrForbidden, "airport belongs to another restaurant")
}

func TestCanView(t *testing.T) {
	r := &entity.Reservation{UserID: "A", Branch: entity.BranchAirport}

	assert.True(t, canView(customer("A"), r))
	assert.False(t, canView(customer("B"), r))
	assert.True(t, canView(staff("s", entity.BranchAirport), r))
	assert.False(t, canView(staff("s", entity.BranchCentral), r))
	assert.True(t, canView(superAdmin("x", entity.RestaurantExpress), r))
	assert.False(t, canView(superAdmin("x", entity.RestaurantFlagship), r))
}

package entity

import (
	"fmt"
	"time"
)

// Branch is a single restaurant location.
type Branch int

const (
	BranchCentral   Branch = 0
	BranchRiverside Branch = 1
	BranchAirport   Branch = 2
)

// Restaurant is the brand owning one or more branches.
type Restaurant int

const (
	RestaurantFlagship Restaurant = 0
	RestaurantExpress  Restaurant = 1
)

type BranchInfo struct {
	Code       Branch
	Name       string
	Restaurant Restaurant
}

var branchCatalogue = map[Branch]BranchInfo{
	BranchCentral:   {Code: BranchCentral, Name: "Central", Restaurant: RestaurantFlagship},
	BranchRiverside: {Code: BranchRiverside, Name: "Riverside", Restaurant: RestaurantFlagship},
	BranchAirport:   {Code: BranchAirport, Name: "Airport", Restaurant: RestaurantExpress},
}

// LookupBranch resolves a branch code against the catalogue.
func LookupBranch(code Branch) (BranchInfo, bool) {
	info, ok := branchCatalogue[code]
	return info, ok
}

func (b Branch) Valid() bool {
	_, ok := branchCatalogue[b]
	return ok
}

func (b Branch) String() string {
	if info, ok := branchCatalogue[b]; ok {
		return info.Name
	}
	return fmt.Sprintf("branch(%d)", int(b))
}

// BranchesOf returns the branch codes under a restaurant, in code order.
func BranchesOf(r Restaurant) []Branch {
	var out []Branch
	for code := BranchCentral; code <= BranchAirport; code++ {
		if info, ok := branchCatalogue[code]; ok && info.Restaurant == r {
			out = append(out, code)
		}
	}
	return out
}

// BranchSettings holds the per-branch pause flag. Version grows on every write.
type BranchSettings struct {
	Branch        Branch     `db:"branch"`
	PauseBookings bool       `db:"pause_bookings"`
	PauseReason   *string    `db:"pause_reason"`
	PauseUntil    *time.Time `db:"pause_until"`
	Version       int64      `db:"version"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

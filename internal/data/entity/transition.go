package entity

// Trigger names who is allowed to drive a transition.
type Trigger int

const (
	// TriggerStaff is an explicit staff/admin decision.
	TriggerStaff Trigger = iota
	// TriggerCustomer is the owning customer withdrawing.
	TriggerCustomer
	// TriggerBranchPause is the control plane pausing a branch.
	TriggerBranchPause
	// TriggerBranchResume is the control plane resuming a branch.
	TriggerBranchResume
	// TriggerQueueReset is the administrative clear-the-queue action.
	TriggerQueueReset
)

func (t Trigger) String() string {
	switch t {
	case TriggerStaff:
		return "staff"
	case TriggerCustomer:
		return "customer"
	case TriggerBranchPause:
		return "branch_pause"
	case TriggerBranchResume:
		return "branch_resume"
	case TriggerQueueReset:
		return "queue_reset"
	}
	return "unknown"
}

// Transition is one allowed edge of the reservation lifecycle.
type Transition struct {
	From          ReservationStatus
	To            ReservationStatus
	Trigger       Trigger
	RequireReason bool
}

var transitionsTable = []Transition{
	// staff decisions
	{From: StatusPending, To: StatusConfirmed, Trigger: TriggerStaff},
	{From: StatusPending, To: StatusRejected, Trigger: TriggerStaff, RequireReason: true},
	{From: StatusConfirmed, To: StatusRejected, Trigger: TriggerStaff, RequireReason: true},
	{From: StatusConfirmed, To: StatusCompleted, Trigger: TriggerStaff},

	// customer withdrawal, any non-terminal status
	{From: StatusPending, To: StatusCancelled, Trigger: TriggerCustomer},
	{From: StatusConfirmed, To: StatusCancelled, Trigger: TriggerCustomer},
	{From: StatusPaused, To: StatusCancelled, Trigger: TriggerCustomer},

	// branch control plane
	{From: StatusPending, To: StatusPaused, Trigger: TriggerBranchPause},
	{From: StatusConfirmed, To: StatusPaused, Trigger: TriggerBranchPause},
	{From: StatusPaused, To: StatusRejected, Trigger: TriggerBranchResume, RequireReason: true},
	{From: StatusPending, To: StatusRejected, Trigger: TriggerQueueReset, RequireReason: true},
}

// TransitionFor returns the allowed edge from -> to for the trigger.
func TransitionFor(from, to ReservationStatus, trigger Trigger) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.To == to && tr.Trigger == trigger {
			return tr, true
		}
	}
	return Transition{}, false
}

// SourcesFor lists every status the trigger may move into to.
func SourcesFor(to ReservationStatus, trigger Trigger) []ReservationStatus {
	var from []ReservationStatus
	for _, tr := range transitionsTable {
		if tr.To == to && tr.Trigger == trigger {
			from = append(from, tr.From)
		}
	}
	return from
}

// Targets lists the statuses a trigger can ever produce.
func Targets(trigger Trigger) []ReservationStatus {
	seen := make(map[ReservationStatus]bool)
	var to []ReservationStatus
	for _, tr := range transitionsTable {
		if tr.Trigger == trigger && !seen[tr.To] {
			seen[tr.To] = true
			to = append(to, tr.To)
		}
	}
	return to
}

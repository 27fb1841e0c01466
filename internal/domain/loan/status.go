package loan

// Status is the closed set of loan lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

// AllStatuses lists every state, in graph order.
var AllStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusDefaulted,
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusDefaulted:
		return st, true
	}
	return "", false
}

// CanTransition reports whether from → to is an edge of the lifecycle graph:
//
//	pending  → approved | rejected
//	approved → active
//	active   → completed | defaulted
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusActive
	case StatusActive:
		return to == StatusCompleted || to == StatusDefaulted
	case StatusRejected, StatusCompleted, StatusDefaulted:
		return false
	}
	return false
}

// Terminal reports whether no edge leaves s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusDefaulted:
		return true
	case StatusPending, StatusApproved, StatusActive:
		return false
	}
	return false
}

// Reachable reports whether to can be reached from from in one or more steps.
func Reachable(from, to Status) bool {
	for _, next := range AllStatuses {
		if CanTransition(from, next) && (next == to || Reachable(next, to)) {
			return true
		}
	}
	return false
}

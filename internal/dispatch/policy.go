package dispatch

import "fmt"

// TransitionPolicy decides whether a delivery may move from one status to
// another. The default policy is unrestricted because dispatchers use status
// edits for manual corrections; a stricter policy can be plugged in without
// touching the status machine.
type TransitionPolicy interface {
	Allow(from, to Status) error
}

// UnrestrictedPolicy permits every transition.
type UnrestrictedPolicy struct{}

// Allow always succeeds.
func (UnrestrictedPolicy) Allow(from, to Status) error { return nil }

// ForwardOnlyPolicy permits only forward movement through the lifecycle,
// plus cancellation from any non-terminal status.
type ForwardOnlyPolicy struct{}

var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusDelivered:  3,
}

// Allow rejects backward movement and transitions out of terminal statuses.
func (ForwardOnlyPolicy) Allow(from, to Status) error {
	if from == to {
		return nil
	}
	if from == StatusDelivered || from == StatusCancelled {
		return fmt.Errorf("delivery is already %s", from)
	}
	if to == StatusCancelled {
		return nil
	}
	if statusOrder[to] < statusOrder[from] {
		return fmt.Errorf("cannot move delivery from %s back to %s", from, to)
	}
	return nil
}

package app

import "time"

// Legal status transitions. CONFIRMED and CANCELLED are terminal; there is
// no reopen path.
var transitions = map[Status][]Status{
	StatusAwaitingInterviewer:    {StatusAwaitingCandidate, StatusCancelled},
	StatusAwaitingCandidate:      {StatusConfirmed, StatusAwaitingReconciliation, StatusCancelled},
	StatusAwaitingReconciliation: {StatusAwaitingCandidate, StatusCancelled},
	StatusConfirmed:              {},
	StatusCancelled:              {},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition advances the request or rejects without mutating anything.
func (r *InterviewRequest) Transition(to Status, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return ErrIllegalTransition
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

package app

import "errors"

// The conditions callers must tell apart: a lost reservation race is
// retry-with-fresh-slots, missing interviewer responses is wait-and-poll,
// an empty intersection is escalation, an illegal transition is a
// user-correctable precondition failure.
var (
	ErrNotFound          = errors.New("request not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrSlotTaken         = errors.New("slot already reserved for this position")
	ErrSlotNotOffered    = errors.New("slot is not in the offered set")
	ErrAwaitingResponses = errors.New("awaiting interviewer responses")
	ErrNoMutualSlots     = errors.New("no mutual availability across interviewers")
)

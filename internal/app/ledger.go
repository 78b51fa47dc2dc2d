package app

import (
	"context"
	"sync"
	"time"
)

// ReservationStore is the slice of the request store the ledger needs.
type ReservationStore interface {
	// ConfirmedSlotKeys returns the slot keys of CONFIRMED requests for a
	// position, excluding the given request id.
	ConfirmedSlotKeys(ctx context.Context, position, excludeID string) (map[string]struct{}, error)
	// RequestStatus returns the currently persisted status of a request.
	RequestStatus(ctx context.Context, id string) (Status, error)
	// ConfirmRequest persists selected_slot, CONFIRMED status and updated_at.
	ConfirmRequest(ctx context.Context, id string, slot InterviewSlot, now time.Time) error
}

// Ledger enforces at most one CONFIRMED request per (position, date, time)
// across concurrently racing candidates. The check-then-set runs under a
// per-position mutex; the lock is never held across external-store I/O.
// Mirroring happens after the reservation settles.
type Ledger struct {
	store ReservationStore

	mu        sync.Mutex
	positions map[string]*sync.Mutex
}

func NewLedger(store ReservationStore) *Ledger {
	return &Ledger{store: store, positions: make(map[string]*sync.Mutex)}
}

func (l *Ledger) positionLock(position string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.positions[position]
	if !ok {
		m = &sync.Mutex{}
		l.positions[position] = m
	}
	return m
}

// Reserve claims chosen for req. Returns false when another request for
// the same position already holds the slot key; the caller must re-fetch
// the now-shrunk offer set rather than treat this as a hard error. On
// success the request is mutated to CONFIRMED with the slot attached.
//
// The persisted status is re-read under the lock: callers hold a copy of
// the request fetched before the critical section, and a copy confirmed
// in the meantime must not reach ConfirmRequest and overwrite the slot.
func (l *Ledger) Reserve(ctx context.Context, req *InterviewRequest, chosen InterviewSlot) (bool, error) {
	lock := l.positionLock(req.PositionName)
	lock.Lock()
	defer lock.Unlock()

	status, err := l.store.RequestStatus(ctx, req.ID)
	if err != nil {
		return false, err
	}
	if status != StatusAwaitingCandidate {
		return false, ErrIllegalTransition
	}

	taken, err := l.store.ConfirmedSlotKeys(ctx, req.PositionName, req.ID)
	if err != nil {
		return false, err
	}
	if _, clash := taken[chosen.Key()]; clash {
		return false, nil
	}

	now := time.Now().UTC()
	if err := l.store.ConfirmRequest(ctx, req.ID, chosen, now); err != nil {
		return false, err
	}

	slot := chosen
	req.SelectedSlot = &slot
	req.Status = StatusConfirmed
	req.UpdatedAt = now
	return true, nil
}

// FilterReserved drops slots already held by other CONFIRMED requests for
// the same position. Read-time filtering only shrinks the collision window
// for candidates; Reserve remains the actual guarantee.
func (l *Ledger) FilterReserved(ctx context.Context, req *InterviewRequest, slots []InterviewSlot) ([]InterviewSlot, error) {
	taken, err := l.store.ConfirmedSlotKeys(ctx, req.PositionName, req.ID)
	if err != nil {
		return nil, err
	}
	if len(taken) == 0 {
		return slots, nil
	}
	out := make([]InterviewSlot, 0, len(slots))
	for _, s := range slots {
		if _, clash := taken[s.Key()]; !clash {
			out = append(out, s)
		}
	}
	return out, nil
}

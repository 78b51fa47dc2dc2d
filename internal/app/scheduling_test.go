package app

import (
	"context"
	"errors"
	"testing"
)

func TestLifecycleSingleInterviewer(t *testing.T) {
	store := newFakeStore()
	a, notifier, mirror := newTestApp(store)
	ctx := context.Background()

	req, err := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs:  []string{"alice"},
		CandidateName:   "Kim",
		CandidateEmail:  "kim@mail.test",
		PositionName:    "Data Analyst",
		PreferredRanges: []TimeRange{{Date: "2025-03-10", Start: "09:00", End: "10:00"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != StatusAwaitingInterviewer {
		t.Fatalf("expected AWAITING_INTERVIEWER, got %s", req.Status)
	}
	if len(req.PreferredSlots) != 2 {
		t.Fatalf("preferred ranges not expanded: %v", req.PreferredSlots)
	}
	if notifier.interviewer != 1 {
		t.Fatalf("expected interviewer invitation, got %d", notifier.interviewer)
	}

	req, err = a.SubmitAvailability(ctx, req.ID, "alice", nil, []InterviewSlot{
		slot("2025-03-10", "09:00"), slot("2025-03-10", "09:30"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != StatusAwaitingCandidate || len(req.AvailableSlots) != 2 {
		t.Fatalf("expected offer to candidate, got %+v", req)
	}
	if notifier.candidate != 1 {
		t.Fatalf("expected candidate invitation, got %d", notifier.candidate)
	}

	req, err = a.ReserveSlot(ctx, req.ID, slot("2025-03-10", "09:30"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if req.Status != StatusConfirmed || req.SelectedSlot == nil {
		t.Fatalf("expected CONFIRMED with slot, got %+v", req)
	}
	if notifier.confirmations != 1 {
		t.Fatalf("expected confirmation mail, got %d", notifier.confirmations)
	}
	if len(mirror.seen) != 3 {
		t.Fatalf("expected 3 mirror calls, got %v", mirror.seen)
	}
}

func TestSubmitAvailabilityMultiInterviewerWaits(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	req, err := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice", "bob"},
		CandidateName:  "Lee",
		CandidateEmail: "lee@mail.test",
		PositionName:   "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := a.SubmitAvailability(ctx, req.ID, "alice", nil, []InterviewSlot{
		slot("2025-03-10", "09:00"), slot("2025-03-10", "09:30"),
	})
	if !errors.Is(err, ErrAwaitingResponses) {
		t.Fatalf("expected ErrAwaitingResponses, got %v", err)
	}
	if got.Status != StatusAwaitingInterviewer {
		t.Fatalf("request advanced early: %s", got.Status)
	}

	got, err = a.SubmitAvailability(ctx, req.ID, "bob", nil, []InterviewSlot{
		slot("2025-03-10", "09:30"), slot("2025-03-10", "10:00"),
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if got.Status != StatusAwaitingCandidate {
		t.Fatalf("expected AWAITING_CANDIDATE, got %s", got.Status)
	}
	if len(got.AvailableSlots) != 1 || got.AvailableSlots[0].Key() != "2025-03-10 09:30" {
		t.Fatalf("expected reconciled offer {09:30}, got %v", got.AvailableSlots)
	}
}

func TestSubmitAvailabilityNoMutualSlots(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	req, _ := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice", "bob"},
		CandidateName:  "Lee",
		CandidateEmail: "lee@mail.test",
		PositionName:   "Backend Engineer",
	})

	_, _ = a.SubmitAvailability(ctx, req.ID, "alice", nil, []InterviewSlot{slot("2025-03-10", "09:00")})
	got, err := a.SubmitAvailability(ctx, req.ID, "bob", nil, []InterviewSlot{slot("2025-03-10", "10:00")})
	if !errors.Is(err, ErrNoMutualSlots) {
		t.Fatalf("expected ErrNoMutualSlots, got %v", err)
	}
	if got.Status != StatusAwaitingInterviewer {
		t.Fatalf("request advanced with empty offer: %s", got.Status)
	}
}

func TestSubmitAvailabilityZeroSlotsDoesNotAdvance(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	req, _ := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice"},
		CandidateName:  "Kim",
		CandidateEmail: "kim@mail.test",
		PositionName:   "Data Analyst",
	})

	got, err := a.SubmitAvailability(ctx, req.ID, "alice", nil, nil)
	if !errors.Is(err, ErrNoMutualSlots) {
		t.Fatalf("expected ErrNoMutualSlots, got %v", err)
	}
	if got.Status != StatusAwaitingInterviewer {
		t.Fatalf("expected request to stay put, got %s", got.Status)
	}
}

func TestReserveBeforeOfferIsPreconditionFailure(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	req, _ := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice"},
		CandidateName:  "Kim",
		CandidateEmail: "kim@mail.test",
		PositionName:   "Data Analyst",
	})

	_, err := a.ReserveSlot(ctx, req.ID, slot("2025-03-10", "09:30"))
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	stored, _ := store.GetRequest(ctx, req.ID)
	if stored.Status != StatusAwaitingInterviewer {
		t.Fatalf("request mutated: %s", stored.Status)
	}
}

func TestReserveRaceBetweenTwoRequests(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()
	target := slot("2025-03-10", "09:30")

	x := seedCandidateRequest(store, "REQX", "Data Analyst", target)
	y := seedCandidateRequest(store, "REQY", "Data Analyst", target)

	if _, err := a.ReserveSlot(ctx, x.ID, target); err != nil {
		t.Fatalf("candidate X reserve: %v", err)
	}
	_, err := a.ReserveSlot(ctx, y.ID, target)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	stored, _ := store.GetRequest(ctx, "REQY")
	if stored.Status != StatusAwaitingCandidate {
		t.Fatalf("losing request must stay AWAITING_CANDIDATE, got %s", stored.Status)
	}
}

func TestReserveUnofferedSlot(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	seedCandidateRequest(store, "REQX", "Data Analyst", slot("2025-03-10", "09:30"))
	_, err := a.ReserveSlot(ctx, "REQX", slot("2025-03-10", "11:00"))
	if !errors.Is(err, ErrSlotNotOffered) {
		t.Fatalf("expected ErrSlotNotOffered, got %v", err)
	}
}

func TestDeclineOffersRestartsCycle(t *testing.T) {
	store := newFakeStore()
	a, notifier, _ := newTestApp(store)
	ctx := context.Background()

	req, _ := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice"},
		CandidateName:  "Kim",
		CandidateEmail: "kim@mail.test",
		PositionName:   "Data Analyst",
	})
	req, err := a.SubmitAvailability(ctx, req.ID, "alice", nil, []InterviewSlot{slot("2025-03-10", "09:00")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	req, err = a.DeclineOffers(ctx, req.ID, "none of these work, afternoons please")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if req.Status != StatusAwaitingReconciliation {
		t.Fatalf("expected AWAITING_RECONCILIATION, got %s", req.Status)
	}
	if req.CandidateNote == "" || len(req.AvailableSlots) != 0 {
		t.Fatalf("decline side effects missing: %+v", req)
	}
	if responses, _ := store.ListResponses(ctx, req.ID); len(responses) != 0 {
		t.Fatal("interviewer responses should be cleared for resubmission")
	}
	if notifier.interviewer != 2 {
		t.Fatalf("expected re-invitation, got %d interviewer mails", notifier.interviewer)
	}

	// interviewer resubmits and the candidate gets a fresh offer
	req, err = a.SubmitAvailability(ctx, req.ID, "alice", nil, []InterviewSlot{slot("2025-03-10", "14:00")})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if req.Status != StatusAwaitingCandidate {
		t.Fatalf("expected AWAITING_CANDIDATE after resubmission, got %s", req.Status)
	}
}

func TestCancelIsTerminal(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	req, _ := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice"},
		CandidateName:  "Kim",
		CandidateEmail: "kim@mail.test",
		PositionName:   "Data Analyst",
	})
	req, err := a.CancelRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if req.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", req.Status)
	}
	if _, err := a.CancelRequest(ctx, req.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected terminal state to reject cancel, got %v", err)
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	store := newFakeStore()
	a, notifier, _ := newTestApp(store)
	notifier.fail = true
	ctx := context.Background()

	req, err := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice"},
		CandidateName:  "Kim",
		CandidateEmail: "kim@mail.test",
		PositionName:   "Data Analyst",
	})
	if err != nil {
		t.Fatalf("create must survive a failed mail: %v", err)
	}
	if _, err := store.GetRequest(ctx, req.ID); err != nil {
		t.Fatalf("request not persisted: %v", err)
	}
}

func TestMirrorFailureDoesNotRollBack(t *testing.T) {
	store := newFakeStore()
	a, _, mirror := newTestApp(store)
	ctx := context.Background()

	req, _ := a.CreateRequest(ctx, CreateRequestInput{
		InterviewerIDs: []string{"alice"},
		CandidateName:  "Kim",
		CandidateEmail: "kim@mail.test",
		PositionName:   "Data Analyst",
	})
	mirror.errOn = req.ID

	got, err := a.CancelRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("local mutation must succeed despite mirror failure: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", got.Status)
	}
}

func TestFindRequestByMangledID(t *testing.T) {
	store := newFakeStore()
	a, _, _ := newTestApp(store)
	ctx := context.Background()

	seedCandidateRequest(store, "TL2AUIKZ", "Data Analyst", slot("2025-03-10", "09:30"))
	req, err := a.Store.FindRequest(ctx, "tl2a uikz")
	if err != nil {
		t.Fatalf("expected lookup to survive mangling, got %v", err)
	}
	if req.ID != "TL2AUIKZ" {
		t.Fatalf("resolved wrong request: %s", req.ID)
	}
}

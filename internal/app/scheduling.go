package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// RequestStore is everything the lifecycle service needs from persistence.
// *Store implements it; tests use in-memory fakes.
type RequestStore interface {
	ReservationStore
	CreateRequest(ctx context.Context, r *InterviewRequest) error
	GetRequest(ctx context.Context, id string) (*InterviewRequest, error)
	FindRequest(ctx context.Context, externalID string) (*InterviewRequest, error)
	UpdateRequest(ctx context.Context, r *InterviewRequest) error
	ListRequests(ctx context.Context) ([]*InterviewRequest, error)
	UpsertResponse(ctx context.Context, resp *InterviewerResponse) error
	ListResponses(ctx context.Context, requestID string) ([]InterviewerResponse, error)
	DeleteResponses(ctx context.Context, requestID string) error
}

// Mirror reflects local mutations to the external sheet. Best-effort: the
// sheet is not in the transactional path of local state changes.
type Mirror interface {
	MirrorRequest(ctx context.Context, r *InterviewRequest) error
}

type App struct {
	Store     RequestStore
	Ledger    *Ledger
	Directory *Directory
	Notifier  Notifier
	Mirror    Mirror // nil when sheet sync is disabled
}

func (a *App) mirror(ctx context.Context, r *InterviewRequest) {
	if a.Mirror == nil {
		return
	}
	if err := a.Mirror.MirrorRequest(ctx, r); err != nil {
		log.Printf("mirror: request %s not reflected to sheet: %v", r.ID, err)
	}
}

func (a *App) interviewerEmployees(ctx context.Context, r *InterviewRequest) []Employee {
	out := make([]Employee, 0, len(r.InterviewerIDs))
	for _, id := range r.InterviewerIDs {
		out = append(out, a.Directory.EmployeeInfo(ctx, id))
	}
	return out
}

type CreateRequestInput struct {
	InterviewerIDs       []string        `json:"interviewer_ids" binding:"required"`
	CandidateName        string          `json:"candidate_name" binding:"required"`
	CandidateEmail       string          `json:"candidate_email" binding:"required,email"`
	CandidatePhone       string          `json:"candidate_phone"`
	PositionName         string          `json:"position_name" binding:"required"`
	DetailedPositionName string          `json:"detailed_position_name"`
	PreferredRanges      []TimeRange     `json:"preferred_ranges"`
	PreferredSlots       []InterviewSlot `json:"preferred_slots"`
}

// CreateRequest opens a scheduling process: mints the id, stores the
// aggregate in AWAITING_INTERVIEWER, mirrors it and invites the
// interviewers to submit availability.
func (a *App) CreateRequest(ctx context.Context, in CreateRequestInput) (*InterviewRequest, error) {
	interviewers := make([]string, 0, len(in.InterviewerIDs))
	for _, id := range in.InterviewerIDs {
		if id = strings.TrimSpace(id); id != "" {
			interviewers = append(interviewers, id)
		}
	}
	if len(interviewers) == 0 {
		return nil, fmt.Errorf("at least one interviewer required")
	}

	preferred := in.PreferredSlots
	for _, tr := range in.PreferredRanges {
		preferred = append(preferred, tr.Expand()...)
	}

	now := time.Now().UTC()
	req := &InterviewRequest{
		ID:                   NewRequestID(),
		InterviewerIDs:       interviewers,
		CandidateName:        in.CandidateName,
		CandidateEmail:       in.CandidateEmail,
		CandidatePhone:       in.CandidatePhone,
		PositionName:         in.PositionName,
		DetailedPositionName: in.DetailedPositionName,
		Status:               StatusAwaitingInterviewer,
		PreferredSlots:       SortSlots(preferred),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := a.Store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	a.mirror(ctx, req)
	if err := a.Notifier.SendInterviewerInvitation(req, a.interviewerEmployees(ctx, req)); err != nil {
		log.Printf("notify: interviewer invitation for %s failed: %v", req.ID, err)
	}
	return req, nil
}

// SubmitAvailability records one interviewer's slots and advances the
// request once every listed interviewer has responded with a non-empty
// intersection. ErrAwaitingResponses means keep waiting; ErrNoMutualSlots
// means everyone answered and nothing overlaps, which is an escalation
// rather than a retry. Either way the request is left untouched.
func (a *App) SubmitAvailability(ctx context.Context, requestID, interviewerID string, ranges []TimeRange, slots []InterviewSlot) (*InterviewRequest, error) {
	req, err := a.Store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusAwaitingInterviewer && req.Status != StatusAwaitingReconciliation {
		return nil, ErrIllegalTransition
	}

	interviewerID = strings.TrimSpace(interviewerID)
	listed := false
	for _, id := range req.InterviewerIDs {
		if id == interviewerID {
			listed = true
			break
		}
	}
	if !listed {
		return nil, fmt.Errorf("interviewer %s is not on request %s", interviewerID, req.ID)
	}

	for _, tr := range ranges {
		slots = append(slots, tr.Expand()...)
	}
	resp := &InterviewerResponse{
		RequestID:      req.ID,
		InterviewerID:  interviewerID,
		AvailableSlots: SortSlots(slots),
		RespondedAt:    time.Now().UTC(),
	}
	if err := a.Store.UpsertResponse(ctx, resp); err != nil {
		return nil, err
	}

	responses, err := a.Store.ListResponses(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	reconciled, err := ReconcileAvailability(req, responses)
	if err != nil {
		return req, err
	}
	if len(reconciled) == 0 {
		return req, ErrNoMutualSlots
	}

	req.AvailableSlots = reconciled
	if err := req.Transition(StatusAwaitingCandidate, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := a.Store.UpdateRequest(ctx, req); err != nil {
		return nil, err
	}

	a.mirror(ctx, req)
	if err := a.Notifier.SendCandidateInvitation(req); err != nil {
		log.Printf("notify: candidate invitation for %s failed: %v", req.ID, err)
	}
	return req, nil
}

// OfferedSlots is what the candidate sees: the reconciled set minus slots
// other CONFIRMED requests for the same position already hold.
func (a *App) OfferedSlots(ctx context.Context, requestID string) (*InterviewRequest, []InterviewSlot, error) {
	req, err := a.Store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != StatusAwaitingCandidate {
		return req, nil, ErrIllegalTransition
	}
	offered, err := a.Ledger.FilterReserved(ctx, req, req.AvailableSlots)
	if err != nil {
		return nil, nil, err
	}
	return req, offered, nil
}

// ReserveSlot is the candidate claiming a slot. A lost race surfaces as
// ErrSlotTaken with the refreshed offer set so the caller can re-offer.
func (a *App) ReserveSlot(ctx context.Context, requestID string, chosen InterviewSlot) (*InterviewRequest, error) {
	req, err := a.Store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusAwaitingCandidate {
		return nil, ErrIllegalTransition
	}

	var offered *InterviewSlot
	for _, s := range req.AvailableSlots {
		if s.Key() == chosen.Key() {
			slot := s
			offered = &slot
			break
		}
	}
	if offered == nil {
		return nil, ErrSlotNotOffered
	}

	ok, err := a.Ledger.Reserve(ctx, req, *offered)
	if err != nil {
		return nil, err
	}
	if !ok {
		return req, ErrSlotTaken
	}

	a.mirror(ctx, req)
	if err := a.Notifier.SendConfirmationNotification(req, a.interviewerEmployees(ctx, req)); err != nil {
		log.Printf("notify: confirmation for %s failed: %v", req.ID, err)
	}
	return req, nil
}

// DeclineOffers records a reschedule request: the candidate turned every
// offer down with a note, so interviewer responses are cleared and the
// cycle restarts.
func (a *App) DeclineOffers(ctx context.Context, requestID, note string) (*InterviewRequest, error) {
	req, err := a.Store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.Transition(StatusAwaitingReconciliation, time.Now().UTC()); err != nil {
		return nil, err
	}
	req.CandidateNote = note
	req.AvailableSlots = nil

	if err := a.Store.DeleteResponses(ctx, req.ID); err != nil {
		return nil, err
	}
	if err := a.Store.UpdateRequest(ctx, req); err != nil {
		return nil, err
	}

	a.mirror(ctx, req)
	if err := a.Notifier.SendInterviewerInvitation(req, a.interviewerEmployees(ctx, req)); err != nil {
		log.Printf("notify: reschedule invitation for %s failed: %v", req.ID, err)
	}
	return req, nil
}

// CancelRequest is the administrative cancel; legal from any non-terminal
// state.
func (a *App) CancelRequest(ctx context.Context, requestID string) (*InterviewRequest, error) {
	req, err := a.Store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.Transition(StatusCancelled, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := a.Store.UpdateRequest(ctx, req); err != nil {
		return nil, err
	}
	a.mirror(ctx, req)
	return req, nil
}

// ConfirmFromExternal drives a confirmation that was hand-written into the
// sheet through the same transition and reservation path as the UI. The
// hand-picked slot does not have to be in the offered set; the ledger
// still guards the position/slot uniqueness.
func (a *App) ConfirmFromExternal(ctx context.Context, req *InterviewRequest, slot InterviewSlot) error {
	if req.Status != StatusAwaitingCandidate {
		return ErrIllegalTransition
	}
	ok, err := a.Ledger.Reserve(ctx, req, slot)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSlotTaken
	}

	a.mirror(ctx, req)
	if err := a.Notifier.SendConfirmationNotification(req, a.interviewerEmployees(ctx, req)); err != nil {
		log.Printf("notify: confirmation for %s failed: %v", req.ID, err)
	}
	return nil
}

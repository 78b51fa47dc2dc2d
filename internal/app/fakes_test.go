package app

import (
	"context"
	"sync"
	"time"
)

// fakeStore is an in-memory RequestStore for tests.
type fakeStore struct {
	mu        sync.Mutex
	requests  map[string]*InterviewRequest
	responses map[string]map[string]InterviewerResponse
	employees map[string]Employee
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:  make(map[string]*InterviewRequest),
		responses: make(map[string]map[string]InterviewerResponse),
		employees: make(map[string]Employee),
	}
}

func cloneRequest(r *InterviewRequest) *InterviewRequest {
	copy := *r
	copy.InterviewerIDs = append([]string(nil), r.InterviewerIDs...)
	copy.PreferredSlots = append([]InterviewSlot(nil), r.PreferredSlots...)
	copy.AvailableSlots = append([]InterviewSlot(nil), r.AvailableSlots...)
	if r.SelectedSlot != nil {
		slot := *r.SelectedSlot
		copy.SelectedSlot = &slot
	}
	return &copy
}

func (s *fakeStore) CreateRequest(ctx context.Context, r *InterviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *fakeStore) GetRequest(ctx context.Context, id string) (*InterviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *fakeStore) FindRequest(ctx context.Context, externalID string) (*InterviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	norm := NormalizeID(externalID)
	if norm == "" {
		return nil, ErrNotFound
	}
	if r, ok := s.requests[norm]; ok {
		return cloneRequest(r), nil
	}
	for id, r := range s.requests {
		if NormalizeID(id) == norm {
			return cloneRequest(r), nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) UpdateRequest(ctx context.Context, r *InterviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return ErrNotFound
	}
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *fakeStore) ListRequests(ctx context.Context) ([]*InterviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*InterviewRequest
	for _, r := range s.requests {
		out = append(out, cloneRequest(r))
	}
	return out, nil
}

func (s *fakeStore) ConfirmedSlotKeys(ctx context.Context, position, excludeID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make(map[string]struct{})
	for _, r := range s.requests {
		if r.ID == excludeID || r.PositionName != position || r.Status != StatusConfirmed || r.SelectedSlot == nil {
			continue
		}
		keys[r.SelectedSlot.Key()] = struct{}{}
	}
	return keys, nil
}

func (s *fakeStore) RequestStatus(ctx context.Context, id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return "", ErrNotFound
	}
	return r.Status, nil
}

func (s *fakeStore) ConfirmRequest(ctx context.Context, id string, slot InterviewSlot, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	chosen := slot
	r.SelectedSlot = &chosen
	r.Status = StatusConfirmed
	r.UpdatedAt = now
	return nil
}

func (s *fakeStore) UpsertResponse(ctx context.Context, resp *InterviewerResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byInterviewer, ok := s.responses[resp.RequestID]
	if !ok {
		byInterviewer = make(map[string]InterviewerResponse)
		s.responses[resp.RequestID] = byInterviewer
	}
	byInterviewer[resp.InterviewerID] = *resp
	return nil
}

func (s *fakeStore) ListResponses(ctx context.Context, requestID string) ([]InterviewerResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []InterviewerResponse
	for _, resp := range s.responses[requestID] {
		out = append(out, resp)
	}
	return out, nil
}

func (s *fakeStore) DeleteResponses(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.responses, requestID)
	return nil
}

func (s *fakeStore) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// countingNotifier records how often each mail kind fired.
type countingNotifier struct {
	mu            sync.Mutex
	interviewer   int
	candidate     int
	confirmations int
	fail          bool
}

func (n *countingNotifier) SendInterviewerInvitation(*InterviewRequest, []Employee) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.interviewer++
	if n.fail {
		return errSendFailed
	}
	return nil
}

func (n *countingNotifier) SendCandidateInvitation(*InterviewRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.candidate++
	if n.fail {
		return errSendFailed
	}
	return nil
}

func (n *countingNotifier) SendConfirmationNotification(*InterviewRequest, []Employee) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations++
	if n.fail {
		return errSendFailed
	}
	return nil
}

var errSendFailed = &notifyError{}

type notifyError struct{}

func (*notifyError) Error() string { return "smtp relay unreachable" }

// recordingMirror captures outbound mirror calls.
type recordingMirror struct {
	mu    sync.Mutex
	seen  []string
	errOn string
}

func (m *recordingMirror) MirrorRequest(ctx context.Context, r *InterviewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, r.ID)
	if m.errOn != "" && m.errOn == r.ID {
		return &notifyError{}
	}
	return nil
}

func newTestApp(store *fakeStore) (*App, *countingNotifier, *recordingMirror) {
	notifier := &countingNotifier{}
	mirror := &recordingMirror{}
	directory, err := NewDirectory(store, 16)
	if err != nil {
		panic(err)
	}
	return &App{
		Store:     store,
		Ledger:    NewLedger(store),
		Directory: directory,
		Notifier:  notifier,
		Mirror:    mirror,
	}, notifier, mirror
}

package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx-backed local index. The sheet stays the system of
// record; this store exists so lookups and the reservation check-then-set
// don't pay a sheet round-trip.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// EnsureSchema creates the tables on startup. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interview_requests (
			id TEXT PRIMARY KEY,
			interviewer_ids TEXT NOT NULL,
			candidate_name TEXT NOT NULL,
			candidate_email TEXT NOT NULL,
			candidate_phone TEXT NOT NULL DEFAULT '',
			position_name TEXT NOT NULL,
			detailed_position_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			preferred_slots TEXT NOT NULL DEFAULT '',
			available_slots TEXT NOT NULL DEFAULT '',
			selected_slot TEXT NOT NULL DEFAULT '',
			candidate_note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_position_status
			ON interview_requests(position_name, status)`,
		`CREATE TABLE IF NOT EXISTS interviewer_responses (
			request_id TEXT NOT NULL,
			interviewer_id TEXT NOT NULL,
			available_slots TEXT NOT NULL DEFAULT '',
			responded_at TIMESTAMPTZ NOT NULL,
			UNIQUE (request_id, interviewer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			department TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.DB.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func joinIDs(ids []string) string {
	var cleaned []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			cleaned = append(cleaned, id)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func decodeSlots(s string) []InterviewSlot {
	if s == "" {
		return nil
	}
	slots, _ := ParseSlotList(s)
	return slots
}

const requestColumns = `id,interviewer_ids,candidate_name,candidate_email,candidate_phone,
	position_name,detailed_position_name,status,preferred_slots,available_slots,
	selected_slot,candidate_note,created_at,updated_at`

func scanRequest(row pgx.Row) (*InterviewRequest, error) {
	var r InterviewRequest
	var interviewers, preferred, available, selected string
	var status string
	if err := row.Scan(
		&r.ID, &interviewers, &r.CandidateName, &r.CandidateEmail, &r.CandidatePhone,
		&r.PositionName, &r.DetailedPositionName, &status, &preferred, &available,
		&selected, &r.CandidateNote, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.InterviewerIDs = splitIDs(interviewers)
	r.Status = Status(status)
	r.PreferredSlots = decodeSlots(preferred)
	r.AvailableSlots = decodeSlots(available)
	if selected != "" {
		if slot, err := ParseSlotExpr(selected); err == nil {
			r.SelectedSlot = &slot
		}
	}
	return &r, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *InterviewRequest) error {
	selected := ""
	if r.SelectedSlot != nil {
		selected = r.SelectedSlot.String()
	}
	q := `INSERT INTO interview_requests (` + requestColumns + `)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := s.DB.Exec(ctx, q,
		r.ID, joinIDs(r.InterviewerIDs), r.CandidateName, r.CandidateEmail, r.CandidatePhone,
		r.PositionName, r.DetailedPositionName, string(r.Status),
		EncodeSlots(r.PreferredSlots), EncodeSlots(r.AvailableSlots),
		selected, r.CandidateNote, r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (*InterviewRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM interview_requests WHERE id=$1`
	r, err := scanRequest(s.DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// FindRequest resolves an externally supplied id with degrading precision:
// exact match, then prefix match, then a full scan comparing normalized
// forms. Sheet ids arrive truncated or re-typed often enough that the last
// tier earns its keep.
func (s *Store) FindRequest(ctx context.Context, externalID string) (*InterviewRequest, error) {
	norm := NormalizeID(externalID)
	if norm == "" {
		return nil, ErrNotFound
	}

	if r, err := s.GetRequest(ctx, norm); err == nil {
		return r, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	q := `SELECT ` + requestColumns + ` FROM interview_requests
	      WHERE id LIKE $1 || '%' ORDER BY id LIMIT 1`
	if r, err := scanRequest(s.DB.QueryRow(ctx, q, norm)); err == nil {
		return r, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+` FROM interview_requests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		if NormalizeID(r.ID) == norm {
			return r, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

func (s *Store) UpdateRequest(ctx context.Context, r *InterviewRequest) error {
	selected := ""
	if r.SelectedSlot != nil {
		selected = r.SelectedSlot.String()
	}
	q := `UPDATE interview_requests
	      SET interviewer_ids=$2, candidate_name=$3, candidate_email=$4, candidate_phone=$5,
	          position_name=$6, detailed_position_name=$7, status=$8,
	          preferred_slots=$9, available_slots=$10, selected_slot=$11,
	          candidate_note=$12, updated_at=$13
	      WHERE id=$1`
	tag, err := s.DB.Exec(ctx, q,
		r.ID, joinIDs(r.InterviewerIDs), r.CandidateName, r.CandidateEmail, r.CandidatePhone,
		r.PositionName, r.DetailedPositionName, string(r.Status),
		EncodeSlots(r.PreferredSlots), EncodeSlots(r.AvailableSlots),
		selected, r.CandidateNote, r.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context) ([]*InterviewRequest, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+` FROM interview_requests ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*InterviewRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ConfirmedSlotKeys implements ReservationStore.
func (s *Store) ConfirmedSlotKeys(ctx context.Context, position, excludeID string) (map[string]struct{}, error) {
	q := `SELECT selected_slot FROM interview_requests
	      WHERE position_name=$1 AND status=$2 AND id<>$3 AND selected_slot<>''`
	rows, err := s.DB.Query(ctx, q, position, string(StatusConfirmed), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var selected string
		if err := rows.Scan(&selected); err != nil {
			return nil, err
		}
		slot, err := ParseSlotExpr(selected)
		if err != nil {
			continue
		}
		keys[slot.Key()] = struct{}{}
	}
	return keys, rows.Err()
}

// RequestStatus implements ReservationStore.
func (s *Store) RequestStatus(ctx context.Context, id string) (Status, error) {
	var status string
	err := s.DB.QueryRow(ctx, `SELECT status FROM interview_requests WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(status), nil
}

// ConfirmRequest implements ReservationStore.
func (s *Store) ConfirmRequest(ctx context.Context, id string, slot InterviewSlot, now time.Time) error {
	q := `UPDATE interview_requests
	      SET status=$2, selected_slot=$3, updated_at=$4 WHERE id=$1`
	tag, err := s.DB.Exec(ctx, q, id, string(StatusConfirmed), slot.String(), now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpsertResponse(ctx context.Context, resp *InterviewerResponse) error {
	q := `INSERT INTO interviewer_responses (request_id, interviewer_id, available_slots, responded_at)
	      VALUES ($1,$2,$3,$4)
	      ON CONFLICT (request_id, interviewer_id)
	      DO UPDATE SET available_slots=EXCLUDED.available_slots, responded_at=EXCLUDED.responded_at`
	_, err := s.DB.Exec(ctx, q,
		resp.RequestID, resp.InterviewerID, EncodeSlots(resp.AvailableSlots), resp.RespondedAt)
	return err
}

func (s *Store) ListResponses(ctx context.Context, requestID string) ([]InterviewerResponse, error) {
	q := `SELECT request_id, interviewer_id, available_slots, responded_at
	      FROM interviewer_responses WHERE request_id=$1 ORDER BY interviewer_id`
	rows, err := s.DB.Query(ctx, q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InterviewerResponse
	for rows.Next() {
		var resp InterviewerResponse
		var slots string
		if err := rows.Scan(&resp.RequestID, &resp.InterviewerID, &slots, &resp.RespondedAt); err != nil {
			return nil, err
		}
		resp.AvailableSlots = decodeSlots(slots)
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (s *Store) DeleteResponses(ctx context.Context, requestID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM interviewer_responses WHERE request_id=$1`, requestID)
	return err
}

// GetEmployee implements the directory source; misses map to ErrNotFound
// so the directory can substitute its placeholder.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	q := `SELECT id, name, department, email FROM employees WHERE id=$1`
	err := s.DB.QueryRow(ctx, q, id).Scan(&e.ID, &e.Name, &e.Department, &e.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

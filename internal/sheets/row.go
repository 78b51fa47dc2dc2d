package sheets

import (
	"fmt"
	"strings"
	"time"

	"interview-scheduler/internal/app"
)

// Column layout of the request tab. The sheet predates this service and is
// hand-edited, so ingest stays defensive: cells are parsed into typed
// values right here and nothing dict-shaped leaks further in.
const (
	colID = iota
	colStatus
	colInterviewers
	colCandidateName
	colCandidateEmail
	colCandidatePhone
	colPosition
	colDetailedPosition
	colPreferred
	colAvailable
	colConfirmed
	colNote
	colCreatedAt
	colUpdatedAt

	numCols
)

const sheetTimeLayout = "2006-01-02 15:04:05"

// Row is the typed projection of one sheet row.
type Row struct {
	ID               string
	Status           string
	InterviewerIDs   string
	CandidateName    string
	CandidateEmail   string
	CandidatePhone   string
	Position         string
	DetailedPosition string
	Preferred        string
	Available        string
	Confirmed        string
	Note             string
	CreatedAt        string
	UpdatedAt        string
}

func cell(raw []interface{}, i int) string {
	if i >= len(raw) || raw[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw[i]))
}

// ParseRow lifts a raw values row into a Row. Only identity is validated
// here; deeper parsing happens in ToRequest.
func ParseRow(raw []interface{}) (Row, error) {
	r := Row{
		ID:               cell(raw, colID),
		Status:           cell(raw, colStatus),
		InterviewerIDs:   cell(raw, colInterviewers),
		CandidateName:    cell(raw, colCandidateName),
		CandidateEmail:   cell(raw, colCandidateEmail),
		CandidatePhone:   cell(raw, colCandidatePhone),
		Position:         cell(raw, colPosition),
		DetailedPosition: cell(raw, colDetailedPosition),
		Preferred:        cell(raw, colPreferred),
		Available:        cell(raw, colAvailable),
		Confirmed:        cell(raw, colConfirmed),
		Note:             cell(raw, colNote),
		CreatedAt:        cell(raw, colCreatedAt),
		UpdatedAt:        cell(raw, colUpdatedAt),
	}
	if app.NormalizeID(r.ID) == "" {
		return Row{}, fmt.Errorf("row has no usable id")
	}
	return r, nil
}

var validStatuses = map[app.Status]bool{
	app.StatusAwaitingInterviewer:    true,
	app.StatusAwaitingCandidate:      true,
	app.StatusAwaitingReconciliation: true,
	app.StatusConfirmed:              true,
	app.StatusCancelled:              true,
}

// ToRequest converts the row into the local aggregate for first import.
// Malformed slot list entries are dropped (they are proposals, not state);
// a malformed confirmed cell is an error because it is state.
func (r Row) ToRequest() (*app.InterviewRequest, error) {
	if r.CandidateName == "" || r.Position == "" {
		return nil, fmt.Errorf("row %s missing candidate or position", r.ID)
	}

	status := app.Status(strings.ToUpper(strings.TrimSpace(r.Status)))
	if !validStatuses[status] {
		status = app.StatusAwaitingInterviewer
	}

	var interviewers []string
	for _, id := range strings.Split(r.InterviewerIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			interviewers = append(interviewers, id)
		}
	}

	preferred, _ := app.ParseSlotList(r.Preferred)
	available, _ := app.ParseSlotList(r.Available)

	req := &app.InterviewRequest{
		ID:                   app.NormalizeID(r.ID),
		InterviewerIDs:       interviewers,
		CandidateName:        r.CandidateName,
		CandidateEmail:       r.CandidateEmail,
		CandidatePhone:       r.CandidatePhone,
		PositionName:         r.Position,
		DetailedPositionName: r.DetailedPosition,
		Status:               status,
		PreferredSlots:       app.SortSlots(preferred),
		AvailableSlots:       app.SortSlots(available),
		CandidateNote:        r.Note,
		CreatedAt:            parseSheetTime(r.CreatedAt),
		UpdatedAt:            parseSheetTime(r.UpdatedAt),
	}

	if r.Confirmed != "" {
		slot, err := app.ParseSlotExpr(r.Confirmed)
		if err != nil {
			return nil, fmt.Errorf("row %s confirmed cell: %w", r.ID, err)
		}
		req.SelectedSlot = &slot
		req.Status = app.StatusConfirmed
	} else if req.Status == app.StatusConfirmed {
		// a CONFIRMED request always carries its slot; a hand-edited status
		// with no confirmed datetime is unusable state, not a default
		return nil, fmt.Errorf("row %s marked CONFIRMED without a confirmed slot", r.ID)
	}
	return req, nil
}

func parseSheetTime(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{sheetTimeLayout, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// RowValues renders the aggregate as a sheet row for mirroring.
func RowValues(req *app.InterviewRequest) []interface{} {
	confirmed := ""
	if req.SelectedSlot != nil {
		confirmed = req.SelectedSlot.String()
	}
	out := make([]interface{}, numCols)
	out[colID] = req.ID
	out[colStatus] = string(req.Status)
	out[colInterviewers] = strings.Join(req.InterviewerIDs, ",")
	out[colCandidateName] = req.CandidateName
	out[colCandidateEmail] = req.CandidateEmail
	out[colCandidatePhone] = req.CandidatePhone
	out[colPosition] = req.PositionName
	out[colDetailedPosition] = req.DetailedPositionName
	out[colPreferred] = app.EncodeSlots(req.PreferredSlots)
	out[colAvailable] = app.EncodeSlots(req.AvailableSlots)
	out[colConfirmed] = confirmed
	out[colNote] = req.CandidateNote
	out[colCreatedAt] = req.CreatedAt.UTC().Format(sheetTimeLayout)
	out[colUpdatedAt] = req.UpdatedAt.UTC().Format(sheetTimeLayout)
	return out
}

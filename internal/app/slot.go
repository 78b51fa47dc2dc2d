package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const slotGridMins = 30

// InterviewSlot is a bookable opening. Identity for collision purposes is
// (date, time) only; duration is what gets offered to the candidate.
type InterviewSlot struct {
	Date         string `json:"date"`          // YYYY-MM-DD
	Time         string `json:"time"`          // HH:MM, 30-minute grid
	DurationMins int    `json:"duration_mins"` // default 30
}

// Key returns the canonical (date, time) identity. Zero-padded formatting
// makes lexicographic order equal chronological order.
func (s InterviewSlot) Key() string {
	return s.Date + " " + s.Time
}

func (s InterviewSlot) String() string {
	d := s.DurationMins
	if d <= 0 {
		d = slotGridMins
	}
	return fmt.Sprintf("%s %s(%d분)", s.Date, s.Time, d)
}

// StartAt resolves the slot to a wall-clock time in UTC.
func (s InterviewSlot) StartAt() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", s.Key())
}

// TimeRange is a human-entered convenience input ("that day, 09:00 to 12:00").
type TimeRange struct {
	Date  string `json:"date"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Expand chunks the range into 30-minute slots covering [start, end).
// A trailing partial slot is dropped; an empty or inverted range yields nil.
func (r TimeRange) Expand() []InterviewSlot {
	start, err := parseHHMM(r.Start)
	if err != nil {
		return nil
	}
	end, err := parseHHMM(r.End)
	if err != nil {
		return nil
	}
	if !end.After(start) {
		return nil
	}

	slotLen := slotGridMins * time.Minute
	var out []InterviewSlot
	for t := start; !t.Add(slotLen).After(end); t = t.Add(slotLen) {
		out = append(out, InterviewSlot{
			Date:         r.Date,
			Time:         t.Format("15:04"),
			DurationMins: slotGridMins,
		})
	}
	return out
}

func parseHHMM(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("invalid time string: %s", s)
	}
	s = s[:5] // "09:00:00.000000" -> "09:00"
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, err
	}
	return tt, nil
}

// ParseSlotExpr accepts the datetime forms that show up in the sheet:
//
//	2025-03-10 14:00(30분)
//	2025-03-10 14:00~15:00
//	2025-03-10 14:00
//
// The range form derives its duration from the end time; the bare form
// defaults to 30 minutes.
func ParseSlotExpr(s string) (InterviewSlot, error) {
	s = strings.TrimSpace(s)
	if len(s) < 16 {
		return InterviewSlot{}, fmt.Errorf("slot expression too short: %q", s)
	}

	date, rest := s[:10], strings.TrimSpace(s[10:])
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return InterviewSlot{}, fmt.Errorf("bad slot date %q: %w", date, err)
	}

	// range form: HH:MM~HH:MM
	if i := strings.IndexByte(rest, '~'); i >= 0 {
		start, err := parseHHMM(rest[:i])
		if err != nil {
			return InterviewSlot{}, fmt.Errorf("bad slot start in %q: %w", s, err)
		}
		end, err := parseHHMM(rest[i+1:])
		if err != nil {
			return InterviewSlot{}, fmt.Errorf("bad slot end in %q: %w", s, err)
		}
		if !end.After(start) {
			return InterviewSlot{}, fmt.Errorf("inverted slot range %q", s)
		}
		return InterviewSlot{
			Date:         date,
			Time:         start.Format("15:04"),
			DurationMins: int(end.Sub(start) / time.Minute),
		}, nil
	}

	// duration form: HH:MM(D분)
	dur := slotGridMins
	if i := strings.IndexByte(rest, '('); i >= 0 {
		tail := rest[i+1:]
		tail = strings.TrimSuffix(strings.TrimSuffix(tail, ")"), "분)")
		tail = strings.TrimSuffix(tail, "분")
		n, err := strconv.Atoi(strings.TrimSpace(tail))
		if err != nil || n <= 0 {
			return InterviewSlot{}, fmt.Errorf("bad slot duration in %q", s)
		}
		dur = n
		rest = rest[:i]
	}

	start, err := parseHHMM(strings.TrimSpace(rest))
	if err != nil {
		return InterviewSlot{}, fmt.Errorf("bad slot time in %q: %w", s, err)
	}
	return InterviewSlot{Date: date, Time: start.Format("15:04"), DurationMins: dur}, nil
}

// ParseSlotList splits a delimited slot list (pipe, comma or semicolon) and
// parses each entry. Malformed entries are returned separately so one bad
// cell never discards its neighbours.
func ParseSlotList(s string) (slots []InterviewSlot, bad []string) {
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ';'
	}) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		slot, err := ParseSlotExpr(part)
		if err != nil {
			bad = append(bad, part)
			continue
		}
		slots = append(slots, slot)
	}
	return slots, bad
}

// EncodeSlots renders slots for a text column, pipe-delimited.
func EncodeSlots(slots []InterviewSlot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "|")
}

// SortSlots orders slots chronologically and drops duplicate keys,
// keeping the smallest duration among duplicates.
func SortSlots(slots []InterviewSlot) []InterviewSlot {
	byKey := make(map[string]InterviewSlot, len(slots))
	for _, s := range slots {
		if prev, ok := byKey[s.Key()]; ok && prev.DurationMins <= s.DurationMins {
			continue
		}
		byKey[s.Key()] = s
	}
	out := make([]InterviewSlot, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

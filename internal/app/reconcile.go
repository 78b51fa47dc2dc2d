package app

import "strings"

// ReconcileAvailability intersects the per-interviewer availability
// submissions for one request into the common bookable set.
//
// Pure and idempotent: the sheet is polled repeatedly and this gets re-run
// on every pass, so the same stored responses must always produce the same
// offer. A missing response is ErrAwaitingResponses, which callers must
// treat as "not ready" rather than "no slots available".
func ReconcileAvailability(req *InterviewRequest, responses []InterviewerResponse) ([]InterviewSlot, error) {
	byInterviewer := make(map[string][]InterviewSlot, len(responses))
	for _, resp := range responses {
		if resp.RequestID != "" && NormalizeID(resp.RequestID) != NormalizeID(req.ID) {
			continue
		}
		byInterviewer[strings.TrimSpace(resp.InterviewerID)] = resp.AvailableSlots
	}

	var sets [][]InterviewSlot
	for _, id := range req.InterviewerIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		slots, ok := byInterviewer[id]
		if !ok {
			return nil, ErrAwaitingResponses
		}
		sets = append(sets, slots)
	}
	if len(sets) == 0 {
		return nil, ErrAwaitingResponses
	}

	if len(sets) == 1 {
		return SortSlots(sets[0]), nil
	}

	// A slot survives only when every interviewer offered the same
	// (date, time) key. Durations may disagree; the survivor takes the
	// minimum so the candidate is never promised more time than the
	// tightest interviewer offered.
	common := make(map[string]InterviewSlot, len(sets[0]))
	for _, s := range SortSlots(sets[0]) {
		common[s.Key()] = s
	}
	for _, set := range sets[1:] {
		keys := make(map[string]InterviewSlot, len(set))
		for _, s := range SortSlots(set) {
			keys[s.Key()] = s
		}
		for key, held := range common {
			offered, ok := keys[key]
			if !ok {
				delete(common, key)
				continue
			}
			if offered.DurationMins < held.DurationMins {
				common[key] = offered
			}
		}
	}

	out := make([]InterviewSlot, 0, len(common))
	for _, s := range common {
		out = append(out, s)
	}
	return SortSlots(out), nil
}

package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"interview-scheduler/internal/app"
)

// SheetAPI is what the synchronizer needs from the spreadsheet; *Client
// implements it, tests use an in-memory fake.
type SheetAPI interface {
	FetchRows(ctx context.Context) ([][]interface{}, error)
	UpdateRow(ctx context.Context, idx int, values []interface{}) error
	AppendRow(ctx context.Context, values []interface{}) error
}

// Synchronizer reconciles the sheet with the local store in both
// directions: outbound mirroring after local mutations, and a background
// poll that imports unknown rows and picks up confirmations humans wrote
// straight into the confirmed column.
type Synchronizer struct {
	Sheet    SheetAPI
	App      *app.App
	Interval time.Duration
}

func NewSynchronizer(sheet SheetAPI, a *app.App, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Synchronizer{Sheet: sheet, App: a, Interval: interval}
}

// Run polls until ctx is cancelled. A failed pass stretches the next wait
// to double the interval instead of tight-looping against a sheet outage;
// nothing escapes the loop boundary into request handling.
func (s *Synchronizer) Run(ctx context.Context) error {
	delay := s.Interval
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.safeSync(ctx); err != nil {
			log.Printf("sync: pass failed: %v", err)
			delay = 2 * s.Interval
		} else {
			delay = s.Interval
		}
		timer.Reset(delay)
	}
}

func (s *Synchronizer) safeSync(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panic: %v", r)
		}
	}()
	return s.SyncOnce(ctx)
}

// SyncOnce runs one reconciliation pass. Per-row failures are logged and
// skipped so one mangled cell never blocks the rest of the sheet; only a
// failed fetch is returned, which drives the caller's backoff.
func (s *Synchronizer) SyncOnce(ctx context.Context) error {
	rows, err := s.Sheet.FetchRows(ctx)
	if err != nil {
		return err
	}

	for _, raw := range rows {
		row, err := ParseRow(raw)
		if err != nil {
			log.Printf("sync: skipping row: %v", err)
			continue
		}

		req, err := s.App.Store.FindRequest(ctx, row.ID)
		if errors.Is(err, app.ErrNotFound) {
			imported, err := row.ToRequest()
			if err != nil {
				log.Printf("sync: cannot import row %s: %v", row.ID, err)
				continue
			}
			if err := s.App.Store.CreateRequest(ctx, imported); err != nil {
				log.Printf("sync: import of %s failed: %v", imported.ID, err)
			}
			continue
		}
		if err != nil {
			log.Printf("sync: lookup for row %s failed: %v", row.ID, err)
			continue
		}

		// Known row: local state wins, except a hand-written confirmation
		// on a request we still consider open.
		if row.Confirmed == "" || req.IsTerminal() {
			continue
		}
		slot, err := app.ParseSlotExpr(row.Confirmed)
		if err != nil {
			log.Printf("sync: confirmed cell on %s unparseable: %v", req.ID, err)
			continue
		}
		if err := s.App.ConfirmFromExternal(ctx, req, slot); err != nil {
			log.Printf("sync: external confirmation of %s rejected: %v", req.ID, err)
		}
	}
	return nil
}

// MirrorRequest implements app.Mirror: update the row matching the request
// id, appending a fresh row when none exists yet.
func (s *Synchronizer) MirrorRequest(ctx context.Context, req *app.InterviewRequest) error {
	rows, err := s.Sheet.FetchRows(ctx)
	if err != nil {
		return err
	}

	want := app.NormalizeID(req.ID)
	for i, raw := range rows {
		if app.NormalizeID(cell(raw, colID)) == want {
			return s.Sheet.UpdateRow(ctx, i, RowValues(req))
		}
	}
	return s.Sheet.AppendRow(ctx, RowValues(req))
}

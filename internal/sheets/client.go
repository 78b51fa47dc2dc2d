package sheets

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	maxAttempts   = 3
	retryBaseWait = 500 * time.Millisecond
)

// Client wraps the Sheets values API for one spreadsheet tab. Every call
// runs through a rate limiter (the Sheets quota is per-minute and shared
// with humans using the document) and a bounded retry with exponential
// backoff plus jitter.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	readRange     string

	sheetName string
	firstRow  int
	lastCol   string

	limiter *rate.Limiter
}

// NewClient authenticates with a service-account key file. readRange is an
// A1 range like "requests!A2:N" covering data rows only, header excluded.
func NewClient(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(b, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	name, firstRow, lastCol, err := parseRange(readRange)
	if err != nil {
		return nil, err
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		sheetName:     name,
		firstRow:      firstRow,
		lastCol:       lastCol,
		limiter:       rate.NewLimiter(rate.Every(time.Second), 2),
	}, nil
}

// parseRange pulls the tab name, first data row and last column out of an
// A1 range like "requests!A2:N".
func parseRange(r string) (name string, firstRow int, lastCol string, err error) {
	bang := strings.IndexByte(r, '!')
	if bang < 0 {
		return "", 0, "", fmt.Errorf("range %q missing sheet name", r)
	}
	name = r[:bang]
	cells := r[bang+1:]

	colon := strings.IndexByte(cells, ':')
	if colon < 0 {
		return "", 0, "", fmt.Errorf("range %q missing end column", r)
	}
	start, end := cells[:colon], cells[colon+1:]

	i := 0
	for i < len(start) && start[i] >= 'A' && start[i] <= 'Z' {
		i++
	}
	firstRow = 1
	if i < len(start) {
		if _, err := fmt.Sscanf(start[i:], "%d", &firstRow); err != nil {
			return "", 0, "", fmt.Errorf("range %q has bad start row", r)
		}
	}

	j := 0
	for j < len(end) && end[j] >= 'A' && end[j] <= 'Z' {
		j++
	}
	lastCol = end[:j]
	if lastCol == "" {
		return "", 0, "", fmt.Errorf("range %q has bad end column", r)
	}
	return name, firstRow, lastCol, nil
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			wait += time.Duration(rand.Int63n(int64(wait)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err = c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("sheets %s after %d attempts: %w", op, maxAttempts, err)
}

// FetchRows returns every data row in the configured range. Row i maps to
// spreadsheet row firstRow+i for UpdateRow.
func (c *Client) FetchRows(ctx context.Context) ([][]interface{}, error) {
	var values [][]interface{}
	err := c.withRetry(ctx, "read", func() error {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).Context(ctx).Do()
		if err != nil {
			return err
		}
		values = resp.Values
		return nil
	})
	return values, err
}

func (c *Client) UpdateRow(ctx context.Context, idx int, values []interface{}) error {
	row := c.firstRow + idx
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, c.lastCol, row)
	vr := &gsheets.ValueRange{Values: [][]interface{}{values}}
	return c.withRetry(ctx, "update", func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

func (c *Client) AppendRow(ctx context.Context, values []interface{}) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{values}}
	return c.withRetry(ctx, "append", func() error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.readRange, vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}

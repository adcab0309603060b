package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simonvc/ledgersync/internal/ledger"
)

var ErrInvalidWindow = errors.New("invalid report window")

// Mode selects how a Window splits rows into opening and movement.
type Mode string

const (
	ModePeriod Mode = "PERIOD"
	ModeAsOf   Mode = "AS_OF"
)

// Window is the date range a report covers. PERIOD uses Start and End; AS_OF
// uses Date.
type Window struct {
	Mode  Mode      `json:"mode"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
	Date  time.Time `json:"date,omitempty"`
}

// PeriodWindow covers [start, end] inclusive.
func PeriodWindow(start, end time.Time) Window {
	return Window{Mode: ModePeriod, Start: ledger.Day(start), End: ledger.Day(end)}
}

// AsOfWindow reports balances at a single day, with that day's activity shown
// as movement.
func AsOfWindow(date time.Time) Window {
	return Window{Mode: ModeAsOf, Date: ledger.Day(date)}
}

// ParseWindow builds a window from query-string style values. asOf wins when
// set; otherwise both start and end are required.
func ParseWindow(start, end, asOf string) (Window, error) {
	if strings.TrimSpace(asOf) != "" {
		d, err := ledger.ParseDate(asOf)
		if err != nil {
			return Window{}, fmt.Errorf("%w: as_of: %v", ErrInvalidWindow, err)
		}
		return AsOfWindow(d), nil
	}
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return Window{}, fmt.Errorf("%w: need start and end, or as_of", ErrInvalidWindow)
	}
	s, err := ledger.ParseDate(start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start: %v", ErrInvalidWindow, err)
	}
	e, err := ledger.ParseDate(end)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end: %v", ErrInvalidWindow, err)
	}
	w := PeriodWindow(s, e)
	return w, w.Validate()
}

// Validate checks the window is well formed.
func (w Window) Validate() error {
	switch w.Mode {
	case ModePeriod:
		if w.Start.IsZero() || w.End.IsZero() {
			return fmt.Errorf("%w: period needs start and end", ErrInvalidWindow)
		}
		if w.End.Before(w.Start) {
			return fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow,
				w.End.Format(ledger.DateLayout), w.Start.Format(ledger.DateLayout))
		}
	case ModeAsOf:
		if w.Date.IsZero() {
			return fmt.Errorf("%w: as-of needs a date", ErrInvalidWindow)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidWindow, w.Mode)
	}
	return nil
}

// Last returns the last day the window includes.
func (w Window) Last() time.Time {
	if w.Mode == ModeAsOf {
		return w.Date
	}
	return w.End
}

// String renders the window for report headers.
func (w Window) String() string {
	if w.Mode == ModeAsOf {
		return "as of " + w.Date.Format(ledger.DateLayout)
	}
	return w.Start.Format(ledger.DateLayout) + " to " + w.End.Format(ledger.DateLayout)
}

type bucket int

const (
	bucketIgnore bucket = iota
	bucketOpening
	bucketMovement
)

func (w Window) classify(t time.Time) bucket {
	d := ledger.Day(t)
	first, last := w.Start, w.End
	if w.Mode == ModeAsOf {
		first, last = w.Date, w.Date
	}
	switch {
	case d.Before(first):
		return bucketOpening
	case d.After(last):
		return bucketIgnore
	default:
		return bucketMovement
	}
}

// Package eventdate decides whether an event's end date has passed.
//
// Comparison is day-granular: the start of the current local day is
// compared with the end date normalized to its own local day boundary. An
// event ending today is still active; it becomes past at the first instant
// of the following day.
//
// Bad input never hides content. An empty or unparseable end date is
// reported as not past.
package eventdate

import (
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/hanscompark/castleblock/pkg/clock"
)

// ErrEmpty is returned by Parse for a blank end date.
var ErrEmpty = errors.New("empty end date")

// layouts are tried in order. Zone-less layouts are read in the caller's
// location.
var layouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
}

// Parse reads endDate in loc. Inputs carrying their own offset are
// converted to loc. A nil loc means time.Local.
func Parse(endDate string, loc *time.Location) (time.Time, error) {
	endDate = strings.TrimSpace(endDate)
	if endDate == "" {
		return time.Time{}, ErrEmpty
	}
	if loc == nil {
		loc = time.Local
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, endDate, loc)
		if err == nil {
			return t.In(loc), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	cfg := &now.Config{TimeLocation: loc}
	return cfg.With(t).BeginningOfDay()
}

// IsPast reports whether the event ending on endDate is over at instant
// current, evaluated in loc.
func IsPast(endDate string, current time.Time, loc *time.Location) bool {
	end, err := Parse(endDate, loc)
	if err != nil {
		return false
	}
	today := StartOfDay(current, loc)
	return today.After(StartOfDay(end, loc))
}

// Evaluator binds a clock and a location so callers only pass the end date.
type Evaluator struct {
	Clock    clock.Clock
	Location *time.Location
}

// NewEvaluator returns an Evaluator on the system clock. A nil loc means
// time.Local.
func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{Clock: clock.NewSystem(), Location: loc}
}

// IsPast reports whether endDate is over as of the evaluator's clock.
func (e *Evaluator) IsPast(endDate string) bool {
	return IsPast(endDate, e.Now(), e.Location)
}

// Today returns the start of the evaluator's current day. It is used to
// scope cached renders to a single day.
func (e *Evaluator) Today() time.Time {
	return StartOfDay(e.Now(), e.Location)
}

// Now reads the evaluator's clock, falling back to time.Now when Clock is nil.
func (e *Evaluator) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

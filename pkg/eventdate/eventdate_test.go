package eventdate

import (
	"errors"
	"testing"
	"time"

	"github.com/hanscompark/castleblock/pkg/clock"
)

var castleTZ = time.FixedZone("CST", -6*60*60)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, castleTZ)
}

func TestIsPastEmptyNeverPast(t *testing.T) {
	for _, current := range []time.Time{
		at(1999, time.January, 1, 0, 0),
		at(2026, time.October, 16, 12, 0),
		at(2199, time.December, 31, 23, 59),
	} {
		if IsPast("", current, castleTZ) {
			t.Errorf("IsPast(\"\", %v) = true, want false", current)
		}
		if IsPast("   ", current, castleTZ) {
			t.Errorf("IsPast(blank, %v) = true, want false", current)
		}
	}
}

func TestIsPastDayBoundaries(t *testing.T) {
	current := at(2026, time.October, 16, 9, 30)

	tests := []struct {
		name    string
		endDate string
		want    bool
	}{
		{"today is still active", "2026-10-16", false},
		{"yesterday is past", "2026-10-15", true},
		{"tomorrow is active", "2026-10-17", false},
		{"far future", "2099-01-01", false},
		{"date picker today late", "2026-10-16T23:59:59", false},
		{"date picker yesterday noon", "2026-10-15T12:00:00", true},
		{"space separated yesterday", "2026-10-15 08:00:00", true},
		{"slashed today", "2026/10/16", false},
		{"us style yesterday", "10/15/2026", true},
		{"rfc3339 in same zone today", "2026-10-16T00:00:00-06:00", false},
		{"rfc3339 utc that is yesterday locally", "2026-10-16T03:00:00Z", true},
		{"rfc3339 nano today", "2026-10-16T10:00:00.123456789-06:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPast(tt.endDate, current, castleTZ); got != tt.want {
				t.Errorf("IsPast(%q) = %v, want %v", tt.endDate, got, tt.want)
			}
		})
	}
}

func TestIsPastJustAfterMidnight(t *testing.T) {
	if IsPast("2026-10-16", at(2026, time.October, 16, 23, 59), castleTZ) {
		t.Error("end date should be active until the end of its day")
	}
	if !IsPast("2026-10-16", at(2026, time.October, 17, 0, 0), castleTZ) {
		t.Error("end date should be past at the start of the next day")
	}
}

func TestIsPastUnparseableFailsOpen(t *testing.T) {
	current := at(2026, time.October, 16, 12, 0)
	for _, bad := range []string{"next tuesday", "2026-13-45", "yesterday", "16.10.2026", "0"} {
		if IsPast(bad, current, castleTZ) {
			t.Errorf("IsPast(%q) = true, want false for unparseable input", bad)
		}
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("", castleTZ); !errors.Is(err, ErrEmpty) {
		t.Errorf("Parse(\"\") error = %v, want ErrEmpty", err)
	}

	got, err := Parse("2026-10-16", castleTZ)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := at(2026, time.October, 16, 0, 0)
	if !got.Equal(want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}
	if got.Location() != castleTZ {
		t.Errorf("Parse location = %v, want %v", got.Location(), castleTZ)
	}
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(at(2026, time.October, 16, 18, 45), castleTZ)
	want := at(2026, time.October, 16, 0, 0)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}

	// 03:00 UTC on the 16th is still the 15th in CST.
	got = StartOfDay(time.Date(2026, time.October, 16, 3, 0, 0, 0, time.UTC), castleTZ)
	want = at(2026, time.October, 15, 0, 0)
	if !got.Equal(want) {
		t.Errorf("StartOfDay(utc) = %v, want %v", got, want)
	}
}

func TestEvaluator(t *testing.T) {
	e := &Evaluator{
		Clock:    clock.NewFixed(at(2026, time.October, 16, 8, 0)),
		Location: castleTZ,
	}

	if e.IsPast("2026-10-16") {
		t.Error("today should not be past")
	}
	if !e.IsPast("2026-10-15") {
		t.Error("yesterday should be past")
	}
	if !e.Today().Equal(at(2026, time.October, 16, 0, 0)) {
		t.Errorf("Today() = %v", e.Today())
	}
}

func TestEvaluatorNilClock(t *testing.T) {
	e := &Evaluator{Location: time.UTC}
	before := time.Now()
	if got := e.Now(); got.Before(before) {
		t.Errorf("Now() = %v, want wall clock", got)
	}
	if e.IsPast("") {
		t.Error("empty end date should never be past")
	}
	if !e.IsPast("2000-01-01") {
		t.Error("2000-01-01 should be past")
	}
}

func TestNewEvaluatorDefaultsLocation(t *testing.T) {
	e := NewEvaluator(nil)
	if e.Location != time.Local {
		t.Errorf("Location = %v, want Local", e.Location)
	}
	if e.IsPast("") {
		t.Error("empty end date should never be past")
	}
}

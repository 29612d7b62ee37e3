package availability

import (
	"testing"
	"time"
)

func TestEvent_IsWellFormed(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"positive span", ts(9, 0), ts(10, 0), true},
		{"zero length", ts(9, 0), ts(9, 0), false},
		{"inverted", ts(10, 0), ts(9, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := Event{StartTime: tc.start, EndTime: tc.end}
			if got := ev.IsWellFormed(); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDayKey(t *testing.T) {
	got := DayKey(time.Date(2025, time.March, 12, 23, 59, 0, 0, time.UTC))
	if got != "2025-03-12" {
		t.Errorf("expected 2025-03-12, got %s", got)
	}
}

func TestDayKey_ConvertsToUTC(t *testing.T) {
	// 23:00 in UTC+2 is 21:00 UTC of the same day; 01:00 in UTC+2 is still
	// the previous UTC day.
	loc := time.FixedZone("UTC+2", 2*3600)
	if got := DayKey(time.Date(2025, time.March, 12, 1, 0, 0, 0, loc)); got != "2025-03-11" {
		t.Errorf("expected 2025-03-11, got %s", got)
	}
}

func TestDayKey_FourDigitYear(t *testing.T) {
	got := DayKey(time.Date(1999, time.December, 31, 12, 0, 0, 0, time.UTC))
	if got != "1999-12-31" {
		t.Errorf("expected 1999-12-31, got %s", got)
	}
	if len(got) != 10 {
		t.Errorf("expected 10-character key, got %d", len(got))
	}
}

func TestDateOnly(t *testing.T) {
	got := DateOnly(time.Date(2025, time.March, 12, 15, 30, 45, 99, time.UTC))
	want := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInterval_Duration(t *testing.T) {
	iv := Interval{Start: ts(9, 0), End: ts(10, 30)}
	if got := iv.Duration(); got != 90*time.Minute {
		t.Errorf("expected 90m, got %v", got)
	}
}

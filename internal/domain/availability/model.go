package availability

import (
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes bookable time from booked time on a calendar.
type EventKind string

const (
	// KindOpening is a block of time a doctor has offered for booking.
	KindOpening EventKind = "opening"
	// KindAppointment is a block of time already claimed by a patient.
	KindAppointment EventKind = "appointment"
)

// Event maps to the calendar_events table. StartTime and EndTime describe a
// half-open range [StartTime, EndTime); nothing upstream guarantees the pair
// is ordered, so consumers must tolerate zero-length and inverted spans.
type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Kind      EventKind `db:"kind" json:"kind"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsWellFormed reports whether the event spans a positive amount of time.
func (e *Event) IsWellFormed() bool {
	return e.StartTime.Before(e.EndTime)
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// DayKeyFormat is the layout for calendar-day keys, four-digit year first so
// keys sort chronologically as strings.
const DayKeyFormat = "2006-01-02"

// DayKey returns the UTC calendar-day key for t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

// DateOnly strips t down to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayAvailability holds the free intervals of a single calendar day. Slots is
// never nil; a fully booked or empty day serializes as an empty list.
type DayAvailability struct {
	Date  string     `json:"date"`
	Slots []Interval `json:"slots"`
}

// Availability is the projection returned to callers: one DayAvailability per
// day of the lookahead window, in chronological order, days without free time
// included.
type Availability struct {
	DoctorID      uuid.UUID         `json:"doctor_id"`
	StartDate     string            `json:"start_date"`
	LookaheadDays int               `json:"lookahead_days"`
	Days          []DayAvailability `json:"days"`
}

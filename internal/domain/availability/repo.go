package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned when a calendar event id matches nothing.
var ErrEventNotFound = errors.New("calendar event not found")

// EventSource supplies a doctor's calendar events for a time range. The
// availability computation depends only on this read contract, so anything
// that can list events can back it.
type EventSource interface {
	// ListEventsInRange returns the doctor's events whose start time falls
	// in [rangeStart, rangeEnd), ordered by start time ascending.
	ListEventsInRange(ctx context.Context, doctorID uuid.UUID, rangeStart, rangeEnd time.Time) ([]Event, error)
}

// EventRepository is the full persistence contract for calendar events.
type EventRepository interface {
	EventSource
	Create(ctx context.Context, ev *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Event, int, error)
}

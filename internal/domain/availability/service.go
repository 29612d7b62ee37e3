package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/platform/cache"
	"github.com/praxishq/praxis/internal/platform/metrics"
)

// DefaultLookaheadDays is the window length used when the caller does not ask
// for a specific number of days.
const DefaultLookaheadDays = 7

var (
	// ErrStartDateInPast rejects availability queries anchored before today.
	ErrStartDateInPast = errors.New("start date cannot be in the past")
	// ErrNoEventsInWindow means the doctor has no calendar events at all in
	// the requested window, openings or appointments.
	ErrNoEventsInWindow = errors.New("no events found in the requested window")
)

// Service computes availability projections over a calendar event source and
// manages the events themselves.
type Service struct {
	repo  EventRepository
	store cache.Store
	ttl   time.Duration
	rec   metrics.Recorder
	now   func() time.Time
}

func NewService(repo EventRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetResultCache enables caching of computed projections. Cache failures are
// treated as misses and never surface to callers.
func (s *Service) SetResultCache(store cache.Store, ttl time.Duration) {
	s.store = store
	s.ttl = ttl
}

// SetMetrics wires a metrics recorder. A nil recorder disables recording.
func (s *Service) SetMetrics(rec metrics.Recorder) {
	s.rec = rec
}

// SetClock overrides the source of "now". Tests use this to pin the current
// date; production code never calls it.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// FindAvailableSlots returns the doctor's free intervals for every day of the
// window [startDate, startDate+lookaheadDays). A zero startDate means today
// and a non-positive lookaheadDays means DefaultLookaheadDays. The comparison
// against today is date-only: any moment of the current day is a valid start,
// any earlier day returns ErrStartDateInPast before the event source is
// consulted. A window containing no events at all returns ErrNoEventsInWindow.
func (s *Service) FindAvailableSlots(ctx context.Context, doctorID uuid.UUID, startDate time.Time, lookaheadDays int) (*Availability, error) {
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}

	today := DateOnly(s.now())
	windowStart := today
	if !startDate.IsZero() {
		windowStart = DateOnly(startDate)
	}
	if windowStart.Before(today) {
		if s.rec != nil {
			s.rec.RecordPastDateRejection()
		}
		return nil, ErrStartDateInPast
	}

	cacheKey := availCacheKey(doctorID, windowStart, lookaheadDays)
	if s.store != nil && s.ttl > 0 {
		if data, ok, err := s.store.Get(ctx, cacheKey); err == nil && ok {
			var cached Availability
			if err := json.Unmarshal(data, &cached); err == nil {
				if s.rec != nil {
					s.rec.RecordCacheHit()
				}
				return &cached, nil
			}
		}
		if s.rec != nil {
			s.rec.RecordCacheMiss()
		}
	}

	computeStart := time.Now()
	windowEnd := windowStart.AddDate(0, 0, lookaheadDays)
	events, err := s.repo.ListEventsInRange(ctx, doctorID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("list events for doctor %s: %w", doctorID, err)
	}
	if s.rec != nil {
		s.rec.RecordEventsFetched(len(events))
	}
	if len(events) == 0 {
		if s.rec != nil {
			s.rec.RecordEmptyWindow()
		}
		return nil, ErrNoEventsInWindow
	}

	buckets := make(map[string][]Event)
	for _, ev := range events {
		key := DayKey(ev.StartTime)
		buckets[key] = append(buckets[key], ev)
	}

	days := make([]DayAvailability, 0, lookaheadDays)
	for i := 0; i < lookaheadDays; i++ {
		key := DayKey(windowStart.AddDate(0, 0, i))
		days = append(days, DayAvailability{Date: key, Slots: AvailableIntervals(buckets[key])})
	}

	result := &Availability{
		DoctorID:      doctorID,
		StartDate:     DayKey(windowStart),
		LookaheadDays: lookaheadDays,
		Days:          days,
	}
	if s.rec != nil {
		s.rec.ObserveAvailabilityCompute(time.Since(computeStart))
	}

	if s.store != nil && s.ttl > 0 {
		if data, err := json.Marshal(result); err == nil {
			_ = s.store.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return result, nil
}

// CreateEvent validates and stores a calendar event, then drops any cached
// projections for its doctor.
func (s *Service) CreateEvent(ctx context.Context, ev *Event) error {
	if ev.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if ev.Kind != KindOpening && ev.Kind != KindAppointment {
		return fmt.Errorf("kind must be %q or %q", KindOpening, KindAppointment)
	}
	if ev.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if ev.EndTime.IsZero() {
		return fmt.Errorf("end_time is required")
	}
	if !ev.StartTime.Before(ev.EndTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if err := s.repo.Create(ctx, ev); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.InvalidateDoctor(ctx, ev.DoctorID)
	return nil
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// DeleteEvent removes a calendar event and drops any cached projections for
// its doctor.
func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	ev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateDoctor(ctx, ev.DoctorID)
	return nil
}

func (s *Service) ListEvents(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Event, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, from, to, limit, offset)
}

func availCacheKey(doctorID uuid.UUID, windowStart time.Time, lookaheadDays int) string {
	return fmt.Sprintf("avail:%s:%s:%d", doctorID, DayKey(windowStart), lookaheadDays)
}

// InvalidateDoctor drops every cached projection for the doctor. Callers that
// mutate a doctor's calendar outside this service use it to keep reads fresh.
func (s *Service) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) {
	if s.store == nil {
		return
	}
	_ = s.store.DeletePrefix(ctx, fmt.Sprintf("avail:%s:", doctorID))
}

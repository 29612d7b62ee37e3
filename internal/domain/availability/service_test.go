package availability

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/platform/cache"
)

// -- Mock Repository --

type mockEventRepo struct {
	events     map[uuid.UUID]*Event
	rangeCalls int
	rangeStart time.Time
	rangeEnd   time.Time
	fail       error
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[uuid.UUID]*Event)}
}

func (m *mockEventRepo) add(doctorID uuid.UUID, kind EventKind, start, end time.Time) *Event {
	ev := &Event{ID: uuid.New(), DoctorID: doctorID, Kind: kind, StartTime: start, EndTime: end}
	m.events[ev.ID] = ev
	return ev
}

func (m *mockEventRepo) ListEventsInRange(_ context.Context, doctorID uuid.UUID, rangeStart, rangeEnd time.Time) ([]Event, error) {
	m.rangeCalls++
	m.rangeStart = rangeStart
	m.rangeEnd = rangeEnd
	if m.fail != nil {
		return nil, m.fail
	}
	var out []Event
	for _, ev := range m.events {
		if ev.DoctorID == doctorID && !ev.StartTime.Before(rangeStart) && ev.StartTime.Before(rangeEnd) {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *mockEventRepo) Create(_ context.Context, ev *Event) error {
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = time.Now()
	cp := *ev
	m.events[ev.ID] = &cp
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id uuid.UUID) (*Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func (m *mockEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Event, int, error) {
	var out []*Event
	for _, ev := range m.events {
		if ev.DoctorID != doctorID {
			continue
		}
		if from != nil && ev.StartTime.Before(*from) {
			continue
		}
		if to != nil && !ev.StartTime.Before(*to) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

// testNow pins the clock to mid-morning of the reference test day.
func testNow() time.Time {
	return time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
}

// day returns midnight UTC, offset days from the reference test day.
func day(offset int) time.Time {
	return time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func newTestService(repo EventRepository) *Service {
	svc := NewService(repo)
	svc.SetClock(testNow)
	return svc
}

func TestService_FindAvailableSlots_PastDateRejected(t *testing.T) {
	repo := newMockEventRepo()
	svc := newTestService(repo)

	_, err := svc.FindAvailableSlots(context.Background(), uuid.New(), day(-1), 7)
	if !errors.Is(err, ErrStartDateInPast) {
		t.Fatalf("expected ErrStartDateInPast, got %v", err)
	}
	if err.Error() != "start date cannot be in the past" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if repo.rangeCalls != 0 {
		t.Errorf("event source should not be called for a past start date, got %d calls", repo.rangeCalls)
	}
}

func TestService_FindAvailableSlots_TodayIsNotPast(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	svc := newTestService(repo)

	// The clock reads 10:00 but midnight of the same day must still pass
	// the date-only check.
	avail, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.StartDate != "2025-03-12" {
		t.Errorf("expected start date 2025-03-12, got %s", avail.StartDate)
	}
}

func TestService_FindAvailableSlots_ZeroStartMeansToday(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	svc := newTestService(repo)

	avail, err := svc.FindAvailableSlots(context.Background(), doctorID, time.Time{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.StartDate != "2025-03-12" {
		t.Errorf("expected start date 2025-03-12, got %s", avail.StartDate)
	}
	if avail.LookaheadDays != DefaultLookaheadDays {
		t.Errorf("expected default lookahead %d, got %d", DefaultLookaheadDays, avail.LookaheadDays)
	}
}

func TestService_FindAvailableSlots_EmptyWindow(t *testing.T) {
	repo := newMockEventRepo()
	svc := newTestService(repo)

	_, err := svc.FindAvailableSlots(context.Background(), uuid.New(), day(0), 7)
	if !errors.Is(err, ErrNoEventsInWindow) {
		t.Fatalf("expected ErrNoEventsInWindow, got %v", err)
	}
	if repo.rangeCalls != 1 {
		t.Errorf("expected exactly one source call, got %d", repo.rangeCalls)
	}
}

func TestService_FindAvailableSlots_SevenDayEntries(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	repo.add(doctorID, KindAppointment, ts(10, 0), ts(11, 0))
	repo.add(doctorID, KindOpening, day(2).Add(14*time.Hour), day(2).Add(18*time.Hour))
	svc := newTestService(repo)

	avail, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(avail.Days) != 7 {
		t.Fatalf("expected 7 day entries, got %d", len(avail.Days))
	}
	for i, d := range avail.Days {
		want := DayKey(day(i))
		if d.Date != want {
			t.Errorf("day %d: expected key %s, got %s", i, want, d.Date)
		}
		if d.Slots == nil {
			t.Errorf("day %d: slots must never be nil", i)
		}
	}
	assertIntervals(t, avail.Days[0].Slots, []Interval{
		{Start: ts(9, 0), End: ts(10, 0)},
		{Start: ts(11, 0), End: ts(12, 0)},
	})
	if len(avail.Days[1].Slots) != 0 {
		t.Errorf("expected empty day 1, got %v", avail.Days[1].Slots)
	}
	assertIntervals(t, avail.Days[2].Slots, []Interval{
		{Start: day(2).Add(14 * time.Hour), End: day(2).Add(18 * time.Hour)},
	})
}

func TestService_FindAvailableSlots_WindowBounds(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	// Day 3 lies outside a 3-day window and must not be fetched.
	repo.add(doctorID, KindOpening, day(3).Add(9*time.Hour), day(3).Add(12*time.Hour))
	svc := newTestService(repo)

	avail, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(avail.Days) != 3 {
		t.Fatalf("expected 3 day entries, got %d", len(avail.Days))
	}
	if !repo.rangeStart.Equal(day(0)) {
		t.Errorf("expected range start %v, got %v", day(0), repo.rangeStart)
	}
	if !repo.rangeEnd.Equal(day(3)) {
		t.Errorf("expected range end %v, got %v", day(3), repo.rangeEnd)
	}
}

func TestService_FindAvailableSlots_BucketsByEventStartDay(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	// Spans midnight; the start day owns it.
	repo.add(doctorID, KindOpening, day(1).Add(23*time.Hour), day(2).Add(1*time.Hour))
	svc := newTestService(repo)

	avail, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(avail.Days[1].Slots) != 1 {
		t.Fatalf("expected the overnight opening under day 1, got %v", avail.Days[1].Slots)
	}
	if len(avail.Days[2].Slots) != 0 {
		t.Errorf("day 2 must not also own the overnight opening, got %v", avail.Days[2].Slots)
	}
}

func TestService_FindAvailableSlots_SourceError(t *testing.T) {
	repo := newMockEventRepo()
	repo.fail = errors.New("connection refused")
	svc := newTestService(repo)

	_, err := svc.FindAvailableSlots(context.Background(), uuid.New(), day(0), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNoEventsInWindow) || errors.Is(err, ErrStartDateInPast) {
		t.Errorf("source failure must not map to a domain sentinel, got %v", err)
	}
	if !errors.Is(err, repo.fail) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestService_FindAvailableSlots_CachesResult(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	svc := newTestService(repo)
	svc.SetResultCache(cache.NewMemoryStore(), time.Minute)

	first, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rangeCalls != 1 {
		t.Errorf("expected one source call with a warm cache, got %d", repo.rangeCalls)
	}
	if second.StartDate != first.StartDate || len(second.Days) != len(first.Days) {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
	assertIntervals(t, second.Days[0].Slots, first.Days[0].Slots)
}

func TestService_FindAvailableSlots_CacheKeyedByWindow(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	svc := newTestService(repo)
	svc.SetResultCache(cache.NewMemoryStore(), time.Minute)

	if _, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rangeCalls != 2 {
		t.Errorf("different windows must not share cache entries, got %d source calls", repo.rangeCalls)
	}
}

func TestService_CreateEvent_Validation(t *testing.T) {
	svc := newTestService(newMockEventRepo())

	cases := []struct {
		name string
		ev   Event
	}{
		{"missing doctor", Event{Kind: KindOpening, StartTime: ts(9, 0), EndTime: ts(10, 0)}},
		{"bad kind", Event{DoctorID: uuid.New(), Kind: "vacation", StartTime: ts(9, 0), EndTime: ts(10, 0)}},
		{"missing start", Event{DoctorID: uuid.New(), Kind: KindOpening, EndTime: ts(10, 0)}},
		{"missing end", Event{DoctorID: uuid.New(), Kind: KindOpening, StartTime: ts(9, 0)}},
		{"inverted", Event{DoctorID: uuid.New(), Kind: KindOpening, StartTime: ts(10, 0), EndTime: ts(9, 0)}},
		{"zero length", Event{DoctorID: uuid.New(), Kind: KindOpening, StartTime: ts(9, 0), EndTime: ts(9, 0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := tc.ev
			if err := svc.CreateEvent(context.Background(), &ev); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestService_CreateEvent_InvalidatesCachedProjections(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	svc := newTestService(repo)
	svc.SetResultCache(cache.NewMemoryStore(), time.Minute)

	if _, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	booked := &Event{DoctorID: doctorID, Kind: KindAppointment, StartTime: ts(10, 0), EndTime: ts(11, 0)}
	if err := svc.CreateEvent(context.Background(), booked); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	avail, err := svc.FindAvailableSlots(context.Background(), doctorID, day(0), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rangeCalls != 2 {
		t.Errorf("expected recompute after write, got %d source calls", repo.rangeCalls)
	}
	assertIntervals(t, avail.Days[0].Slots, []Interval{
		{Start: ts(9, 0), End: ts(10, 0)},
		{Start: ts(11, 0), End: ts(12, 0)},
	})
}

func TestService_CreateEvent_LeavesOtherDoctorsCached(t *testing.T) {
	repo := newMockEventRepo()
	doctorA := uuid.New()
	doctorB := uuid.New()
	repo.add(doctorA, KindOpening, ts(9, 0), ts(12, 0))
	repo.add(doctorB, KindOpening, ts(9, 0), ts(12, 0))
	svc := newTestService(repo)
	svc.SetResultCache(cache.NewMemoryStore(), time.Minute)

	if _, err := svc.FindAvailableSlots(context.Background(), doctorA, day(0), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.FindAvailableSlots(context.Background(), doctorB, day(0), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev := &Event{DoctorID: doctorA, Kind: KindAppointment, StartTime: ts(10, 0), EndTime: ts(11, 0)}
	if err := svc.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.FindAvailableSlots(context.Background(), doctorB, day(0), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rangeCalls != 2 {
		t.Errorf("doctor B's cache entry should have survived, got %d source calls", repo.rangeCalls)
	}
}

func TestService_DeleteEvent(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	ev := repo.add(doctorID, KindAppointment, ts(10, 0), ts(11, 0))
	svc := newTestService(repo)

	if err := svc.DeleteEvent(context.Background(), ev.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetEvent(context.Background(), ev.ID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound after delete, got %v", err)
	}
}

func TestService_DeleteEvent_NotFound(t *testing.T) {
	svc := newTestService(newMockEventRepo())
	if err := svc.DeleteEvent(context.Background(), uuid.New()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestService_ListEvents_FiltersByRange(t *testing.T) {
	repo := newMockEventRepo()
	doctorID := uuid.New()
	repo.add(doctorID, KindOpening, ts(9, 0), ts(12, 0))
	repo.add(doctorID, KindOpening, day(5).Add(9*time.Hour), day(5).Add(12*time.Hour))
	svc := newTestService(repo)

	from := day(0)
	to := day(2)
	items, total, err := svc.ListEvents(context.Background(), doctorID, &from, &to, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 event in range, got %d", total)
	}
	if !items[0].StartTime.Equal(ts(9, 0)) {
		t.Errorf("expected the day-0 event, got %v", items[0].StartTime)
	}
}

package availability

import "sort"

// AvailableIntervals computes the free time left in one calendar day's worth
// of events. Openings contribute bookable time and appointments carve pieces
// out of it. All ranges are half-open, so an appointment that only touches an
// opening at a boundary removes nothing.
//
// Each opening is processed independently in start order: when openings
// overlap each other their free intervals are reported separately, never
// merged. Events that span no time are skipped, as are events of a kind the
// engine does not know. The function never fails; any input yields a
// well-defined (possibly empty) result.
func AvailableIntervals(events []Event) []Interval {
	var openings, appointments []Event
	for _, ev := range events {
		switch ev.Kind {
		case KindOpening:
			if ev.IsWellFormed() {
				openings = append(openings, ev)
			}
		case KindAppointment:
			if ev.IsWellFormed() {
				appointments = append(appointments, ev)
			}
		}
	}

	sort.SliceStable(openings, func(i, j int) bool {
		return openings[i].StartTime.Before(openings[j].StartTime)
	})
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].StartTime.Before(appointments[j].StartTime)
	})

	free := []Interval{}
	for _, op := range openings {
		working := []Interval{{Start: op.StartTime, End: op.EndTime}}
		for _, ap := range appointments {
			working = subtract(working, Interval{Start: ap.StartTime, End: ap.EndTime})
			if len(working) == 0 {
				break
			}
		}
		free = append(free, working...)
	}
	return free
}

// subtract removes busy from every interval in working, preserving order.
// An interval overlaps busy only when the two share a positive amount of
// time; touching endpoints do not count.
func subtract(working []Interval, busy Interval) []Interval {
	var out []Interval
	for _, iv := range working {
		if !busy.Start.Before(iv.End) || !iv.Start.Before(busy.End) {
			out = append(out, iv)
			continue
		}
		if iv.Start.Before(busy.Start) {
			out = append(out, Interval{Start: iv.Start, End: busy.Start})
		}
		if busy.End.Before(iv.End) {
			out = append(out, Interval{Start: busy.End, End: iv.End})
		}
	}
	return out
}

package prayer

import (
	"sort"
	"time"
)

// mergeGap is the largest pause between consecutive events still treated as
// back-to-back. Walking between meeting rooms eats gaps of this size, so they
// cannot host a prayer.
const mergeGap = 5 * time.Minute

// Overlaps applies the half-open interval overlap test between an event and a
// prayer window.
func Overlaps(w Window, e CalendarEvent) bool {
	return e.Start.Before(w.End) && w.Start.Before(e.End)
}

// AvailableSlots computes the free intervals inside the window after the
// given events have been clipped to it and merged. Both the conflict detector
// and the suggestion engine rely on this single implementation.
func AvailableSlots(w Window, events []CalendarEvent) []Slot {
	busy := mergeBusy(clipToWindow(w, events))

	slots := make([]Slot, 0, len(busy)+1)
	cursor := w.Start
	for _, b := range busy {
		if b.Start.After(cursor) {
			slots = append(slots, Slot{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(w.End) {
		slots = append(slots, Slot{Start: cursor, End: w.End})
	}
	return slots
}

// busyMinutes reports how much of the window is covered by the merged events.
func busyMinutes(w Window, events []CalendarEvent) int {
	total := 0
	for _, b := range mergeBusy(clipToWindow(w, events)) {
		total += b.Minutes()
	}
	return total
}

// clipToWindow reduces each overlapping event to its intersection with the
// window. Events outside the window are dropped.
func clipToWindow(w Window, events []CalendarEvent) []Interval {
	clipped := make([]Interval, 0, len(events))
	for _, e := range events {
		if !Overlaps(w, e) {
			continue
		}
		iv := Interval{Start: e.Start, End: e.End}
		if iv.Start.Before(w.Start) {
			iv.Start = w.Start
		}
		if iv.End.After(w.End) {
			iv.End = w.End
		}
		clipped = append(clipped, iv)
	}
	return clipped
}

// mergeBusy coalesces intervals whose gap is at most mergeGap into single
// busy blocks. Input order does not matter; output is chronological.
func mergeBusy(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, iv := range sorted[1:] {
		if !iv.Start.After(current.End.Add(mergeGap)) {
			if iv.End.After(current.End) {
				current.End = iv.End
			}
			continue
		}
		merged = append(merged, current)
		current = iv
	}
	merged = append(merged, current)
	return merged
}

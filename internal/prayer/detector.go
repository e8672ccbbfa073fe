package prayer

import (
	"sort"
	"strings"
)

// FindConflicts reports which prayer windows cannot host an undisturbed
// prayer given the calendar events and the detection policy.
//
// Windows with no overlapping relevant event are never reported; neither are
// windows that still contain a single free slot long enough for the prayer
// plus its buffers. Malformed windows are skipped rather than failing the
// whole batch, since the caller validates upstream.
func FindConflicts(windows []Window, events []CalendarEvent, cfg Config) []Conflict {
	cfg = cfg.normalized()
	relevant := filterEvents(events, cfg)

	var conflicts []Conflict
	for _, w := range windows {
		if !w.Valid() {
			continue
		}

		overlapping := overlappingEvents(w, relevant)
		if len(overlapping) == 0 {
			continue
		}

		slots := AvailableSlots(w, overlapping)
		required := cfg.RequiredMinutes()
		if largestSlotMinutes(slots) >= required {
			// The prayer still fits; overlap alone is not a conflict.
			continue
		}

		conflicts = append(conflicts, Conflict{
			PrayerName: w.Name,
			Window:     w,
			Events:     overlapping,
			Analysis:   analyze(w, overlapping, slots, cfg),
		})
	}
	return conflicts
}

// filterEvents reduces the calendar to events that can actually block a
// prayer: busy-like statuses, not matching an ignored pattern, and long
// enough to matter.
func filterEvents(events []CalendarEvent, cfg Config) []CalendarEvent {
	kept := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		switch e.Status {
		case StatusBusy, StatusOutOfOffice:
		case StatusTentative:
			if !cfg.ConsiderTentative {
				continue
			}
		default:
			continue
		}
		if matchesIgnoredPattern(e.Subject, cfg.IgnoredEventPatterns) {
			continue
		}
		if int(e.Duration().Minutes()) < cfg.MinimumSlotSize {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// matchesIgnoredPattern performs a case-insensitive substring match of the
// full subject against each configured pattern.
func matchesIgnoredPattern(subject string, patterns []string) bool {
	lower := strings.ToLower(subject)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func overlappingEvents(w Window, events []CalendarEvent) []CalendarEvent {
	overlapping := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if Overlaps(w, e) {
			overlapping = append(overlapping, e)
		}
	}
	if len(overlapping) == 0 {
		return nil
	}
	sort.SliceStable(overlapping, func(i, j int) bool {
		return overlapping[i].Start.Before(overlapping[j].Start)
	})
	return overlapping
}

func largestSlotMinutes(slots []Slot) int {
	largest := 0
	for _, s := range slots {
		if m := s.Minutes(); m > largest {
			largest = m
		}
	}
	return largest
}

func analyze(w Window, events []CalendarEvent, slots []Slot, cfg Config) Analysis {
	largest := largestSlotMinutes(slots)
	required := cfg.RequiredMinutes()

	severity := SeverityMinor
	switch {
	case largest < cfg.MinimumSlotSize:
		severity = SeverityComplete
	case largest < required:
		severity = SeverityPartial
	}

	return Analysis{
		TotalBusyMinutes:     busyMinutes(w, events),
		LargestAvailableSlot: largest,
		RequiredMinutes:      required,
		Severity:             severity,
	}
}

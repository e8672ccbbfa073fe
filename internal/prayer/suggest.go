package prayer

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// onTimeThreshold is the offset from the window start within which a
	// prayer still counts as "on time". Fixed policy, not configurable.
	onTimeThreshold = 30 * time.Minute
	// slotGrace is pushed into the start of a chosen free slot so the user is
	// not asked to start praying the second a meeting ends.
	slotGrace = 5 * time.Minute
	// maxSuggestions caps the ranked list presented to the user.
	maxSuggestions = 5
)

// GenerateSuggestions produces a ranked list of at most five candidate
// resolutions for the conflict. A malformed conflict yields an empty list;
// absence of a viable suggestion family is not an error.
func GenerateSuggestions(conflict Conflict, cfg Config) []Suggestion {
	if !validConflict(conflict) {
		return nil
	}
	cfg = cfg.normalized()

	var candidates []Suggestion
	switch conflict.Analysis.Severity {
	case SeverityComplete:
		candidates = completeSuggestions(conflict, cfg)
	case SeverityPartial:
		candidates = partialSuggestions(conflict, cfg)
	case SeverityMinor:
		candidates = minorSuggestions(conflict, cfg)
	}

	if cfg.TravelMode {
		if s, ok := combineSuggestion(conflict); ok {
			candidates = append(candidates, s)
		}
	}

	return rank(conflict.PrayerName, candidates)
}

func validConflict(c Conflict) bool {
	if !c.PrayerName.Valid() || !c.Window.Valid() {
		return false
	}
	if len(c.Events) == 0 {
		return false
	}
	switch c.Analysis.Severity {
	case SeverityComplete, SeverityPartial, SeverityMinor:
		return true
	}
	return false
}

// completeSuggestions handles windows with no usable free time: squeeze the
// prayer in before the first event, after the last one, or fall back to the
// very start of the window.
func completeSuggestions(c Conflict, cfg Config) []Suggestion {
	duration := minutes(cfg.PrayerDuration)
	buffer := minutes(cfg.BufferTime)

	out := make([]Suggestion, 0, 3)

	first := c.Events[0]
	beforeEnd := first.Start.Add(-buffer)
	beforeStart := beforeEnd.Add(-duration)
	if !beforeStart.Before(c.Window.Start) && !beforeEnd.After(c.Window.End) {
		iv := Interval{Start: beforeStart, End: beforeEnd}
		out = append(out, Suggestion{
			Type:          SuggestPrayBefore,
			DisplayText:   fmt.Sprintf("Pray %s at %s, before %q begins", c.PrayerName, clock(iv.Start), first.Subject),
			NewPrayerTime: &iv,
			Reasoning: Reasoning{
				Rationale:       "fits the full prayer and buffer ahead of the first conflicting event",
				ConfidenceScore: 85,
				PreservesOnTime: onTime(c.Window, iv.Start),
			},
		})
	}

	last := latestEnding(c.Events)
	afterStart := last.End.Add(buffer)
	afterEnd := afterStart.Add(duration)
	if !afterStart.Before(c.Window.Start) && !afterEnd.After(c.Window.End) {
		iv := Interval{Start: afterStart, End: afterEnd}
		out = append(out, Suggestion{
			Type:          SuggestPrayAfter,
			DisplayText:   fmt.Sprintf("Pray %s at %s, once %q has finished", c.PrayerName, clock(iv.Start), last.Subject),
			NewPrayerTime: &iv,
			Reasoning: Reasoning{
				Rationale:       "fits the full prayer and buffer after the last conflicting event",
				ConfidenceScore: 70,
				PreservesOnTime: onTime(c.Window, iv.Start),
			},
		})
	}

	earliest := Interval{Start: c.Window.Start, End: c.Window.Start.Add(duration)}
	out = append(out, Suggestion{
		Type:          SuggestPrayEarliest,
		DisplayText:   fmt.Sprintf("Pray %s right at %s, when its time begins", c.PrayerName, clock(earliest.Start)),
		NewPrayerTime: &earliest,
		Reasoning: Reasoning{
			Rationale:       "the earliest possible moment is always available to start in",
			ConfidenceScore: 90,
			PreservesOnTime: true,
		},
	})

	return out
}

// partialSuggestions looks for a comfortable slot first and keeps the
// complete-severity fallbacks as alternatives.
func partialSuggestions(c Conflict, cfg Config) []Suggestion {
	out := make([]Suggestion, 0, 4)

	required := cfg.RequiredMinutes()
	var best *Slot
	bestScore := -1.0
	for _, slot := range AvailableSlots(c.Window, c.Events) {
		if slot.Minutes() < required {
			continue
		}
		if score := scoreSlot(c.Window, slot); score > bestScore {
			bestScore = score
			s := slot
			best = &s
		}
	}
	if best != nil {
		out = append(out, betweenSuggestion(c, cfg, *best))
	}

	return append(out, completeSuggestions(c, cfg)...)
}

// minorSuggestions offers the two best free slots. Minor severity is reserved
// for future multi-slot reasoning, so this path is defensive rather than
// routinely exercised.
func minorSuggestions(c Conflict, cfg Config) []Suggestion {
	slots := AvailableSlots(c.Window, c.Events)
	sort.SliceStable(slots, func(i, j int) bool {
		return scoreSlot(c.Window, slots[i]) > scoreSlot(c.Window, slots[j])
	})
	if len(slots) > 2 {
		slots = slots[:2]
	}

	out := make([]Suggestion, 0, len(slots))
	for _, slot := range slots {
		out = append(out, betweenSuggestion(c, cfg, slot))
	}
	return out
}

func betweenSuggestion(c Conflict, cfg Config, slot Slot) Suggestion {
	duration := minutes(cfg.PrayerDuration)

	start := slot.Start.Add(slotGrace)
	if start.Add(duration).After(slot.End) {
		start = slot.Start
	}
	iv := Interval{Start: start, End: start.Add(duration)}

	return Suggestion{
		Type:          SuggestPrayBetween,
		DisplayText:   fmt.Sprintf("Pray %s at %s, in the gap between meetings", c.PrayerName, clock(iv.Start)),
		NewPrayerTime: &iv,
		Reasoning: Reasoning{
			Rationale:       fmt.Sprintf("a free gap of %d minutes comfortably hosts the prayer", slot.Minutes()),
			ConfidenceScore: 80,
			PreservesOnTime: onTime(c.Window, iv.Start),
		},
	}
}

func combineSuggestion(c Conflict) (Suggestion, bool) {
	partner, ok := c.PrayerName.CombinationPartner()
	if !ok {
		return Suggestion{}, false
	}
	return Suggestion{
		Type:        SuggestCombinePrayers,
		DisplayText: fmt.Sprintf("Combine %s with %s under the travel allowance", c.PrayerName, partner),
		Reasoning: Reasoning{
			Rationale:       fmt.Sprintf("%s and %s may be joined while travelling", c.PrayerName, partner),
			ConfidenceScore: 60,
			PreservesOnTime: false,
		},
	}, true
}

// scoreSlot grades a free slot: earlier is spiritually preferable, longer is
// more comfortable, and anything over half an hour earns a comfort bonus.
func scoreSlot(w Window, slot Slot) float64 {
	windowMinutes := w.Duration().Minutes()
	if windowMinutes <= 0 {
		return 0
	}
	offset := slot.Start.Sub(w.Start).Minutes()

	earliness := 100 - (offset/windowMinutes)*50
	if earliness < 0 {
		earliness = 0
	}

	durationScore := float64(slot.Minutes()) * 2
	if durationScore > 100 {
		durationScore = 100
	}

	comfort := 0.0
	if slot.Minutes() > 30 {
		comfort = 20
	}

	return earliness + durationScore + comfort
}

// rank orders candidates by on-time preservation, then confidence, then a
// fixed strategy preference, truncates to the cap, and stamps IDs and
// priorities.
func rank(name Name, candidates []Suggestion) []Suggestion {
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Reasoning, candidates[j].Reasoning
		if a.PreservesOnTime != b.PreservesOnTime {
			return a.PreservesOnTime
		}
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		return typePreference[candidates[i].Type] > typePreference[candidates[j].Type]
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}

	for i := range candidates {
		candidates[i].ID = strings.ToLower(fmt.Sprintf("%s_%s_%d", name, candidates[i].Type, i))
		candidates[i].Priority = i + 1
	}
	return candidates
}

func onTime(w Window, start time.Time) bool {
	return !start.Before(w.Start) && start.Sub(w.Start) <= onTimeThreshold
}

func latestEnding(events []CalendarEvent) CalendarEvent {
	last := events[0]
	for _, e := range events[1:] {
		if e.End.After(last.End) {
			last = e
		}
	}
	return last
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

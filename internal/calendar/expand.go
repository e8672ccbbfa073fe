package calendar

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/example/prayer-companion/internal/prayer"
)

// maxOccurrences caps recurrence expansion per event so a pathological
// RRULE cannot flood the planner.
const maxOccurrences = 500

// Expand resolves recurrence rules and returns the concrete occurrences that
// overlap [rangeStart, rangeEnd). All-day events are dropped: they carry no
// usable busy interval for prayer planning.
func Expand(events []parsedEvent, rangeStart, rangeEnd time.Time, logger *slog.Logger) []prayer.CalendarEvent {
	if logger == nil {
		logger = slog.Default()
	}

	// Overridden instances (RECURRENCE-ID) replace the occurrence the master
	// rule would otherwise generate at that time.
	overrides := make(map[string]map[int64]bool)
	for _, ev := range events {
		if ev.RecurrenceID == nil {
			continue
		}
		if overrides[ev.UID] == nil {
			overrides[ev.UID] = make(map[int64]bool)
		}
		overrides[ev.UID][ev.RecurrenceID.Unix()] = true
	}

	var out []prayer.CalendarEvent
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if ev.RawRRule == "" {
			if ev.End.After(rangeStart) && ev.Start.Before(rangeEnd) {
				out = append(out, ev.occurrence(ev.Start, ev.End))
			}
			continue
		}

		occs, err := expandRecurring(ev, rangeStart, rangeEnd, overrides[ev.UID])
		if err != nil {
			logger.Warn("recurrence rule skipped",
				"source", ev.Source.Name, "uid", ev.UID, "error", err)
			continue
		}
		out = append(out, occs...)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func expandRecurring(ev parsedEvent, rangeStart, rangeEnd time.Time, overridden map[int64]bool) ([]prayer.CalendarEvent, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", ev.RawRRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	duration := ev.End.Sub(ev.Start)

	// Widen the left edge so an occurrence that started before the range but
	// still overlaps it is not missed.
	starts := set.Between(rangeStart.Add(-duration), rangeEnd, true)

	var out []prayer.CalendarEvent
	for _, start := range starts {
		if len(out) >= maxOccurrences {
			break
		}
		end := start.Add(duration)
		if !end.After(rangeStart) || !start.Before(rangeEnd) {
			continue
		}
		if overridden[start.Unix()] {
			continue
		}
		out = append(out, ev.occurrence(start, end))
	}
	return out, nil
}

func (ev parsedEvent) occurrence(start, end time.Time) prayer.CalendarEvent {
	id := ev.UID
	if ev.RawRRule != "" || ev.RecurrenceID != nil {
		id = fmt.Sprintf("%s@%s", ev.UID, start.UTC().Format("20060102T150405Z"))
	}
	subject, location, description := ev.Summary, ev.Location, ev.Description
	if ev.IsPrivate {
		subject, location, description = "Private event", "", ""
	}
	return prayer.CalendarEvent{
		ID:          id,
		Subject:     subject,
		Start:       start,
		End:         end,
		Status:      ev.Status,
		IsPrivate:   ev.IsPrivate,
		Location:    location,
		Description: description,
	}
}

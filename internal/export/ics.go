// Package export renders a day's prayer schedule as an iCalendar feed so it
// can be imported back into the user's own calendar.
package export

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/prayer-companion/internal/prayer"
)

// Options controls the generated feed.
type Options struct {
	// CalendarName becomes X-WR-CALNAME so calendar apps label the import.
	CalendarName string
	// ReminderLead adds a display alarm this long before each prayer block.
	// Zero disables alarms.
	ReminderLead time.Duration
	// BlockDuration is the length of each exported prayer block.
	BlockDuration time.Duration
}

// DefaultOptions mirrors the default planning configuration.
func DefaultOptions() Options {
	return Options{
		CalendarName:  "Prayer Schedule",
		ReminderLead:  10 * time.Minute,
		BlockDuration: 15 * time.Minute,
	}
}

// Block is one exported prayer entry. Adjusted carries over whether a
// suggestion moved this prayer away from its preferred time.
type Block struct {
	Prayer   prayer.Name
	Start    time.Time
	Note     string
	Adjusted bool
}

// BlocksFromWindows derives the default export blocks: each prayer at its
// preferred start inside its window.
func BlocksFromWindows(windows []prayer.Window) []Block {
	blocks := make([]Block, 0, len(windows))
	for _, w := range windows {
		if !w.Valid() {
			continue
		}
		start := w.Start
		if w.PreferredStartMinutes > 0 {
			preferred := w.Start.Add(time.Duration(w.PreferredStartMinutes) * time.Minute)
			if preferred.Before(w.End) {
				start = preferred
			}
		}
		blocks = append(blocks, Block{Prayer: w.Name, Start: start})
	}
	return blocks
}

// BuildCalendar assembles the feed for one day.
func BuildCalendar(date time.Time, blocks []Block, opts Options) *ical.Calendar {
	if opts.BlockDuration <= 0 {
		opts.BlockDuration = DefaultOptions().BlockDuration
	}
	if opts.CalendarName == "" {
		opts.CalendarName = DefaultOptions().CalendarName
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//prayer-companion//EN")
	cal.SetXWRCalName(opts.CalendarName)

	stamp := time.Now().UTC()
	for _, b := range blocks {
		uid := fmt.Sprintf("%s-%s@prayer-companion",
			strings.ToLower(string(b.Prayer)), date.Format("20060102"))
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(b.Start)
		ev.SetEndAt(b.Start.Add(opts.BlockDuration))
		ev.SetSummary(summaryFor(b))
		if b.Note != "" {
			ev.SetDescription(b.Note)
		}
		ev.SetProperty("TRANSP", "OPAQUE")

		if opts.ReminderLead > 0 {
			alarm := ev.AddAlarm()
			alarm.SetProperty("ACTION", "DISPLAY")
			alarm.SetProperty("DESCRIPTION", summaryFor(b))
			alarm.SetProperty("TRIGGER", triggerFor(opts.ReminderLead))
		}
	}
	return cal
}

// Serialize renders the feed body.
func Serialize(cal *ical.Calendar) string {
	return cal.Serialize()
}

func summaryFor(b Block) string {
	title := titleCase(string(b.Prayer))
	if b.Adjusted {
		return title + " prayer (adjusted)"
	}
	return title + " prayer"
}

// triggerFor formats a negative ISO 8601 duration, e.g. "-PT10M".
func triggerFor(lead time.Duration) string {
	minutes := int(lead.Minutes())
	if minutes <= 0 {
		minutes = 10
	}
	return fmt.Sprintf("-PT%dM", minutes)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

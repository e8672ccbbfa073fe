package calendar

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/prayer-companion/internal/prayer"
)

// parsedEvent is the raw VEVENT representation before recurrence expansion.
type parsedEvent struct {
	Source Source

	UID         string
	Summary     string
	Description string
	Location    string
	Status      prayer.EventStatus
	Cancelled   bool
	IsPrivate   bool

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time

	// RecurrenceID is set on an overridden instance of a recurring event.
	RecurrenceID *time.Time
}

// Parse turns one ICS payload into raw events. Individual malformed VEVENTs
// are logged and skipped so a single bad entry does not poison the feed.
func Parse(src Source, body []byte, logger *slog.Logger) ([]parsedEvent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(body) == 0 {
		return nil, errors.New("calendar: empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]parsedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(src, ve)
		if err != nil {
			logger.Warn("calendar event skipped", "source", src.Name, "error", err)
			continue
		}
		if ev.Cancelled {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (parsedEvent, error) {
	out := parsedEvent{Source: src, Status: prayer.StatusBusy}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if out.Summary == "" {
		out.Summary = "(untitled)"
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty("CLASS"); p != nil && strings.EqualFold(p.Value, "PRIVATE") {
		out.IsPrivate = true
	}

	out.Status, out.Cancelled = eventStatus(ve)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, errors.New("missing or invalid DTSTART")
	}
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		// DTEND is optional in ICS; fall back to a point event of one hour,
		// matching how busy-time providers render it.
		end = start.Add(time.Hour)
	}
	out.Start = start
	out.End = end

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			out.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, start.Location()); err == nil {
			out.RecurrenceID = &t
		}
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// eventStatus maps the various busy hints providers emit onto the normalized
// status enum. Outlook-style X-MICROSOFT-CDO-BUSYSTATUS wins over the
// standard STATUS/TRANSP pair because it is the more specific signal.
func eventStatus(ve *ical.VEvent) (status prayer.EventStatus, cancelled bool) {
	if p := ve.GetProperty("X-MICROSOFT-CDO-BUSYSTATUS"); p != nil {
		switch strings.ToUpper(strings.TrimSpace(p.Value)) {
		case "FREE":
			return prayer.StatusFree, false
		case "TENTATIVE":
			return prayer.StatusTentative, false
		case "OOF":
			return prayer.StatusOutOfOffice, false
		case "BUSY", "WORKINGELSEWHERE":
			return prayer.StatusBusy, false
		}
	}

	if p := ve.GetProperty("STATUS"); p != nil {
		switch strings.ToUpper(strings.TrimSpace(p.Value)) {
		case "CANCELLED":
			return prayer.StatusFree, true
		case "TENTATIVE":
			return prayer.StatusTentative, false
		}
	}

	if p := ve.GetProperty("TRANSP"); p != nil && strings.EqualFold(strings.TrimSpace(p.Value), "TRANSPARENT") {
		return prayer.StatusFree, false
	}

	return prayer.StatusBusy, false
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms used by EXDATE.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

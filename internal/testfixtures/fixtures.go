// Package testfixtures supplies deterministic clocks, identifier generators,
// and record builders shared by service and persistence tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/prayer-companion/internal/persistence"
	"github.com/example/prayer-companion/internal/prayer"
)

var (
	sourceCounter     uint64
	resolutionCounter uint64
	eventCounter      uint64
)

var referenceTime = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Settings fixtures ---------------------------

// SettingsOption configures the generated settings record.
type SettingsOption func(*persistence.Settings)

// NewSettingsFixture returns a deterministic settings record with optional
// overrides. The defaults describe a standard-school user in Mecca.
func NewSettingsFixture(opts ...SettingsOption) persistence.Settings {
	fixture := persistence.Settings{
		PrayerDurationMinutes: 15,
		BufferTimeMinutes:     5,
		ConsiderTentative:     false,
		MinimumSlotMinutes:    10,
		IgnoredEventPatterns:  []string{"lunch", "break", "personal time"},
		TravelMode:            false,
		Latitude:              21.4225,
		Longitude:             39.8262,
		Timezone:              "UTC",
		CalculationMethod:     "mwl",
		AsrSchool:             "standard",
		UpdatedAt:             referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTimezone overrides the settings timezone.
func WithTimezone(tz string) SettingsOption {
	return func(s *persistence.Settings) {
		s.Timezone = tz
	}
}

// WithCoordinates overrides the settings latitude and longitude.
func WithCoordinates(lat, lon float64) SettingsOption {
	return func(s *persistence.Settings) {
		s.Latitude = lat
		s.Longitude = lon
	}
}

// WithCalculationMethod overrides the calculation method name.
func WithCalculationMethod(method string) SettingsOption {
	return func(s *persistence.Settings) {
		s.CalculationMethod = method
	}
}

// WithTravelMode toggles the travel allowance.
func WithTravelMode(enabled bool) SettingsOption {
	return func(s *persistence.Settings) {
		s.TravelMode = enabled
	}
}

// ---------------------------- Source fixtures ----------------------------

// SourceOption configures the generated source record.
type SourceOption func(*persistence.Source)

// NewSourceFixture returns a deterministic calendar source record.
func NewSourceFixture(opts ...SourceOption) persistence.Source {
	idx := atomic.AddUint64(&sourceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := persistence.Source{
		ID:        fmt.Sprintf("source-%03d", idx),
		Name:      fmt.Sprintf("Calendar %03d", idx),
		URL:       fmt.Sprintf("https://calendars.example.com/feed-%03d.ics", idx),
		Enabled:   true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSourceID overrides the generated source ID.
func WithSourceID(id string) SourceOption {
	return func(s *persistence.Source) {
		s.ID = id
	}
}

// WithSourceURL overrides the generated feed URL.
func WithSourceURL(url string) SourceOption {
	return func(s *persistence.Source) {
		s.URL = url
	}
}

// WithSourceEnabled toggles the source.
func WithSourceEnabled(enabled bool) SourceOption {
	return func(s *persistence.Source) {
		s.Enabled = enabled
	}
}

// -------------------------- Resolution fixtures --------------------------

// ResolutionOption configures the generated resolution record.
type ResolutionOption func(*persistence.Resolution)

// NewResolutionFixture returns a deterministic resolution record.
func NewResolutionFixture(opts ...ResolutionOption) persistence.Resolution {
	idx := atomic.AddUint64(&resolutionCounter, 1)
	fixture := persistence.Resolution{
		ID:           fmt.Sprintf("resolution-%03d", idx),
		Date:         referenceTime.Format("2006-01-02"),
		PrayerName:   string(prayer.Dhuhr),
		SuggestionID: fmt.Sprintf("dhuhr_pray_before_%d", idx),
		Action:       "accepted",
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResolutionDate overrides the resolution date.
func WithResolutionDate(date string) ResolutionOption {
	return func(r *persistence.Resolution) {
		r.Date = date
	}
}

// WithResolutionPrayer overrides the prayer name and suggestion ID prefix.
func WithResolutionPrayer(name prayer.Name) ResolutionOption {
	return func(r *persistence.Resolution) {
		r.PrayerName = string(name)
	}
}

// WithResolutionAction overrides the recorded action.
func WithResolutionAction(action string) ResolutionOption {
	return func(r *persistence.Resolution) {
		r.Action = action
	}
}

// ---------------------------- Domain fixtures ----------------------------

// NewWindowFixture returns a prayer window anchored to the reference day.
// The offsets are hours from midnight UTC.
func NewWindowFixture(name prayer.Name, startHour, endHour float64) prayer.Window {
	midnight := time.Date(referenceTime.Year(), referenceTime.Month(), referenceTime.Day(), 0, 0, 0, 0, time.UTC)
	return prayer.Window{
		Name:  name,
		Start: midnight.Add(time.Duration(startHour * float64(time.Hour))),
		End:   midnight.Add(time.Duration(endHour * float64(time.Hour))),
	}
}

// EventOption configures the generated calendar event.
type EventOption func(*prayer.CalendarEvent)

// NewEventFixture returns a busy calendar event anchored to the reference day.
// The offsets are hours from midnight UTC.
func NewEventFixture(startHour, endHour float64, opts ...EventOption) prayer.CalendarEvent {
	idx := atomic.AddUint64(&eventCounter, 1)
	midnight := time.Date(referenceTime.Year(), referenceTime.Month(), referenceTime.Day(), 0, 0, 0, 0, time.UTC)
	fixture := prayer.CalendarEvent{
		ID:      fmt.Sprintf("event-%03d", idx),
		Subject: fmt.Sprintf("Meeting %03d", idx),
		Start:   midnight.Add(time.Duration(startHour * float64(time.Hour))),
		End:     midnight.Add(time.Duration(endHour * float64(time.Hour))),
		Status:  prayer.StatusBusy,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventSubject overrides the generated subject.
func WithEventSubject(subject string) EventOption {
	return func(e *prayer.CalendarEvent) {
		e.Subject = subject
	}
}

// WithEventStatus overrides the busy state.
func WithEventStatus(status prayer.EventStatus) EventOption {
	return func(e *prayer.CalendarEvent) {
		e.Status = status
	}
}

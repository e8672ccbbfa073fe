package prayer

import (
	"fmt"
	"time"
)

// Name identifies one of the five daily prayers.
type Name string

const (
	Fajr    Name = "Fajr"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Names lists the five daily prayers in canonical order.
var Names = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

// Valid reports whether the name belongs to the closed set of daily prayers.
func (n Name) Valid() bool {
	switch n {
	case Fajr, Dhuhr, Asr, Maghrib, Isha:
		return true
	}
	return false
}

// CombinationPartner returns the prayer this one may be combined with under
// the travel allowance. Dhuhr and Asr combine with each other, as do Maghrib
// and Isha. Fajr has no partner.
func (n Name) CombinationPartner() (Name, bool) {
	switch n {
	case Dhuhr:
		return Asr, true
	case Asr:
		return Dhuhr, true
	case Maghrib:
		return Isha, true
	case Isha:
		return Maghrib, true
	}
	return "", false
}

// EventStatus classifies a calendar event's busy state.
type EventStatus string

const (
	StatusBusy        EventStatus = "busy"
	StatusFree        EventStatus = "free"
	StatusTentative   EventStatus = "tentative"
	StatusOutOfOffice EventStatus = "out_of_office"
)

// CalendarEvent is a normalized busy/free interval from any calendar provider.
// Events are constructed by a calendar adapter and consumed read-only here.
type CalendarEvent struct {
	ID          string
	Subject     string
	Start       time.Time
	End         time.Time
	Status      EventStatus
	IsPrivate   bool
	Location    string
	Description string
}

// Duration returns the event length.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Validate checks the event shape at the adapter boundary.
func (e CalendarEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("prayer: event id is required")
	}
	if e.Subject == "" {
		return fmt.Errorf("prayer: event %s subject is required", e.ID)
	}
	if !e.Start.Before(e.End) {
		return fmt.Errorf("prayer: event %s start must precede end", e.ID)
	}
	switch e.Status {
	case StatusBusy, StatusFree, StatusTentative, StatusOutOfOffice:
	default:
		return fmt.Errorf("prayer: event %s has unknown status %q", e.ID, e.Status)
	}
	return nil
}

// Window is the span during which a given prayer may licitly be performed.
type Window struct {
	Name  Name
	Start time.Time
	End   time.Time
	// IsCurrent marks the window containing the present moment.
	IsCurrent bool
	// PreferredStartMinutes is a non-negative offset from Start considered ideal.
	PreferredStartMinutes int
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Valid reports whether the window can participate in conflict detection.
// Malformed windows are skipped silently by the detector rather than failing
// the whole batch.
func (w Window) Valid() bool {
	return w.Name.Valid() && w.Start.Before(w.End) && w.PreferredStartMinutes >= 0
}

// Interval is a concrete [Start, End) span of wall-clock time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the interval length in whole minutes.
func (i Interval) Minutes() int {
	return int(i.End.Sub(i.Start).Minutes())
}

// Slot is a free interval inside a prayer window.
type Slot = Interval

// Severity grades how badly a prayer window is blocked.
type Severity string

const (
	// SeverityComplete means no usable free time remains in the window.
	SeverityComplete Severity = "complete"
	// SeverityPartial means some free time remains, but less than required.
	SeverityPartial Severity = "partial"
	// SeverityMinor is reserved for future multi-slot combination logic; the
	// detector never emits it today.
	SeverityMinor Severity = "minor"
)

// Analysis summarizes the interval arithmetic behind a conflict.
type Analysis struct {
	TotalBusyMinutes     int
	LargestAvailableSlot int
	RequiredMinutes      int
	Severity             Severity
}

// Conflict reports one prayer window found incompatible with the calendar.
// Conflicts are ephemeral: produced per sync cycle and consumed immediately.
type Conflict struct {
	PrayerName Name
	Window     Window
	// Events holds the overlapping calendar events in chronological order.
	Events   []CalendarEvent
	Analysis Analysis
}

// SuggestionType enumerates candidate resolution strategies.
type SuggestionType string

const (
	SuggestPrayBefore     SuggestionType = "pray_before"
	SuggestPrayAfter      SuggestionType = "pray_after"
	SuggestPrayEarliest   SuggestionType = "pray_earliest"
	SuggestPrayBetween    SuggestionType = "pray_between"
	SuggestPrayLatest     SuggestionType = "pray_latest"
	SuggestCombinePrayers SuggestionType = "combine_prayers"
)

// typePreference breaks ranking ties between suggestion strategies.
var typePreference = map[SuggestionType]int{
	SuggestPrayBefore:     4,
	SuggestPrayBetween:    3,
	SuggestPrayAfter:      2,
	SuggestPrayEarliest:   1,
	SuggestCombinePrayers: 0,
}

// Reasoning explains why a suggestion was emitted and how trustworthy it is.
type Reasoning struct {
	Rationale string
	// ConfidenceScore is a 0-100 heuristic weight.
	ConfidenceScore int
	// PreservesOnTime is true when the suggested start falls within the first
	// 30 minutes of the prayer window.
	PreservesOnTime bool
}

// Suggestion is one ranked candidate resolution for a conflict.
type Suggestion struct {
	ID          string
	Type        SuggestionType
	DisplayText string
	// NewPrayerTime is nil only for combine-prayers suggestions, which carry
	// no discrete time of their own.
	NewPrayerTime *Interval
	// Priority is the 1-based rank; 1 is best.
	Priority  int
	Reasoning Reasoning
}

// Config carries the user-tunable detection policy.
type Config struct {
	// PrayerDuration is how long a prayer actually takes, in minutes.
	PrayerDuration int
	// BufferTime is the preparation margin in minutes, applied both before
	// and after the prayer itself.
	BufferTime int
	// ConsiderTentative includes tentative calendar events as conflicts.
	ConsiderTentative bool
	// MinimumSlotSize is the smallest free gap, in minutes, that can host a
	// prayer at all.
	MinimumSlotSize int
	// IgnoredEventPatterns excludes events whose subject contains one of
	// these substrings, compared case-insensitively.
	IgnoredEventPatterns []string
	// TravelMode enables prayer-combining suggestions.
	TravelMode bool
}

// DefaultConfig returns the documented policy defaults.
func DefaultConfig() Config {
	return Config{
		PrayerDuration:       15,
		BufferTime:           5,
		ConsiderTentative:    false,
		MinimumSlotSize:      10,
		IgnoredEventPatterns: []string{"lunch", "break", "personal time"},
		TravelMode:           false,
	}
}

// RequiredMinutes is the free-slot length needed for an undisturbed prayer:
// the prayer itself plus the buffer on each side.
func (c Config) RequiredMinutes() int {
	return c.PrayerDuration + 2*c.BufferTime
}

// normalized replaces non-positive tunables with their defaults so a
// partially filled config never breaks the interval arithmetic.
func (c Config) normalized() Config {
	defaults := DefaultConfig()
	if c.PrayerDuration <= 0 {
		c.PrayerDuration = defaults.PrayerDuration
	}
	if c.BufferTime < 0 {
		c.BufferTime = defaults.BufferTime
	}
	if c.MinimumSlotSize <= 0 {
		c.MinimumSlotSize = defaults.MinimumSlotSize
	}
	return c
}

// Validate checks the config at the settings boundary.
func (c Config) Validate() error {
	if c.PrayerDuration <= 0 {
		return fmt.Errorf("prayer: prayer duration must be positive")
	}
	if c.BufferTime < 0 {
		return fmt.Errorf("prayer: buffer time must not be negative")
	}
	if c.MinimumSlotSize <= 0 {
		return fmt.Errorf("prayer: minimum slot size must be positive")
	}
	return nil
}

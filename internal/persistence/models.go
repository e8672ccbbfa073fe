package persistence

import "time"

// Settings is the single persisted configuration row for the companion.
type Settings struct {
	// Planning knobs.
	PrayerDurationMinutes int
	BufferTimeMinutes     int
	ConsiderTentative     bool
	MinimumSlotMinutes    int
	IgnoredEventPatterns  []string
	TravelMode            bool

	// Prayer time calculation.
	Latitude          float64
	Longitude         float64
	Timezone          string
	CalculationMethod string
	AsrSchool         string

	UpdatedAt time.Time
}

// Source is a subscribed ICS calendar feed.
type Source struct {
	ID        string
	Name      string
	URL       string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolution records what the user did with one suggestion on one day.
type Resolution struct {
	ID           string
	Date         string // YYYY-MM-DD in the user's timezone
	PrayerName   string
	SuggestionID string
	Action       string // accepted or dismissed
	CreatedAt    time.Time
}

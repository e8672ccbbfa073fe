package application

import (
	"time"

	"github.com/example/prayer-companion/internal/prayer"
)

// Calculation holds the prayer time calculation settings.
type Calculation struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Method    string
	AsrSchool string
}

// Settings groups everything the user can tune.
type Settings struct {
	Planning    prayer.Config
	Calculation Calculation
	UpdatedAt   time.Time
}

// Source represents a subscribed calendar feed exposed by the services.
type Source struct {
	ID        string
	Name      string
	URL       string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SourceInput captures caller provided source fields.
type SourceInput struct {
	Name    string
	URL     string
	Enabled bool
}

// UpdateSourceParams wraps the data required to update a source.
type UpdateSourceParams struct {
	SourceID string
	Input    SourceInput
}

// ResolutionAction is what the user did with a suggestion.
type ResolutionAction string

const (
	ResolutionAccepted  ResolutionAction = "accepted"
	ResolutionDismissed ResolutionAction = "dismissed"
)

// Resolution represents a recorded suggestion outcome.
type Resolution struct {
	ID           string
	Date         string
	PrayerName   prayer.Name
	SuggestionID string
	Action       ResolutionAction
	CreatedAt    time.Time
}

// ResolveParams wraps the data required to record a suggestion outcome.
type ResolveParams struct {
	Date         string
	PrayerName   prayer.Name
	SuggestionID string
	Action       ResolutionAction
}

// ConflictReport pairs one detected conflict with its suggestions and any
// outcomes the user already recorded for them.
type ConflictReport struct {
	Conflict    prayer.Conflict
	Suggestions []prayer.Suggestion
	Resolutions []Resolution
}

// DayPlan is the full computed picture for one day.
type DayPlan struct {
	Date        string
	Timezone    string
	Windows     []prayer.Window
	Events      []prayer.CalendarEvent
	Conflicts   []ConflictReport
	FetchErrors []string
	GeneratedAt time.Time
}

package prayertimes

import (
	"errors"
	"math"
	"time"

	"github.com/example/prayer-companion/internal/prayer"
)

// Coordinates locates the observer on the globe.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Validate checks that the coordinates are on the globe.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return errors.New("prayertimes: latitude out of range")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return errors.New("prayertimes: longitude out of range")
	}
	return nil
}

// Method selects the twilight-angle convention used by a calculation
// authority. Zero IshaAngle with a positive IshaInterval means Isha begins a
// fixed number of minutes after Maghrib.
type Method struct {
	Name         string
	FajrAngle    float64
	IshaAngle    float64
	IshaInterval int
}

// Calculation method presets carried over from the common authorities.
var (
	MethodMWL       = Method{Name: "mwl", FajrAngle: 18, IshaAngle: 17}
	MethodISNA      = Method{Name: "isna", FajrAngle: 15, IshaAngle: 15}
	MethodEgyptian  = Method{Name: "egyptian", FajrAngle: 19.5, IshaAngle: 17.5}
	MethodKarachi   = Method{Name: "karachi", FajrAngle: 18, IshaAngle: 18}
	MethodUmmAlQura = Method{Name: "umm_al_qura", FajrAngle: 18.5, IshaInterval: 90}
)

// MethodByName resolves a configuration string to a preset.
func MethodByName(name string) (Method, bool) {
	switch name {
	case "", "mwl":
		return MethodMWL, true
	case "isna":
		return MethodISNA, true
	case "egyptian":
		return MethodEgyptian, true
	case "karachi":
		return MethodKarachi, true
	case "umm_al_qura":
		return MethodUmmAlQura, true
	}
	return Method{}, false
}

// AsrFactor is the shadow-length multiple that marks the start of Asr.
type AsrFactor int

const (
	// AsrStandard follows the Shafi'i convention (shadow equals object).
	AsrStandard AsrFactor = 1
	// AsrHanafi waits until the shadow is twice the object.
	AsrHanafi AsrFactor = 2
)

// ErrPolarNight indicates the sun never reaches the requested twilight angle
// on the given date, so the schedule cannot be computed astronomically.
var ErrPolarNight = errors.New("prayertimes: sun does not reach the required angle at this latitude")

// Calculator derives prayer windows from solar positions.
type Calculator struct {
	coords Coordinates
	method Method
	asr    AsrFactor
}

// NewCalculator validates its inputs once so Calculate stays cheap.
func NewCalculator(coords Coordinates, method Method, asr AsrFactor) (*Calculator, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	if method.FajrAngle <= 0 {
		return nil, errors.New("prayertimes: method fajr angle must be positive")
	}
	if method.IshaAngle <= 0 && method.IshaInterval <= 0 {
		return nil, errors.New("prayertimes: method needs an isha angle or interval")
	}
	if asr != AsrStandard && asr != AsrHanafi {
		asr = AsrStandard
	}
	return &Calculator{coords: coords, method: method, asr: asr}, nil
}

// Calculate returns the five prayer windows for the calendar day containing
// date, expressed in date's timezone. Each window ends when the next prayer
// begins; Isha runs until the following day's Fajr.
func (c *Calculator) Calculate(date time.Time) ([]prayer.Window, error) {
	day, err := c.daySchedule(date)
	if err != nil {
		return nil, err
	}
	next, err := c.daySchedule(date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	return []prayer.Window{
		{Name: prayer.Fajr, Start: day.fajr, End: day.sunrise},
		{Name: prayer.Dhuhr, Start: day.dhuhr, End: day.asr},
		{Name: prayer.Asr, Start: day.asr, End: day.maghrib},
		{Name: prayer.Maghrib, Start: day.maghrib, End: day.isha},
		{Name: prayer.Isha, Start: day.isha, End: next.fajr},
	}, nil
}

// MarkCurrent flags the window containing now, if any.
func MarkCurrent(windows []prayer.Window, now time.Time) {
	for i := range windows {
		windows[i].IsCurrent = !now.Before(windows[i].Start) && now.Before(windows[i].End)
	}
}

type schedule struct {
	fajr, sunrise, dhuhr, asr, maghrib, isha time.Time
}

// daySchedule computes the five reference instants for one calendar day.
func (c *Calculator) daySchedule(date time.Time) (schedule, error) {
	loc := date.Location()
	year, month, day := date.Date()
	baseUTC := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	decl, eqt := sunPosition(julianDay(year, int(month), day))

	// Apparent solar noon expressed in fractional UTC hours.
	noon := 12 - c.coords.Longitude/15 - eqt

	sunriseHA, err := c.hourAngle(0.833, decl)
	if err != nil {
		return schedule{}, err
	}
	fajrHA, err := c.hourAngle(c.method.FajrAngle, decl)
	if err != nil {
		return schedule{}, err
	}
	asrHA, err := c.asrHourAngle(decl)
	if err != nil {
		return schedule{}, err
	}

	s := schedule{
		fajr:    hoursToTime(baseUTC, noon-fajrHA, loc),
		sunrise: hoursToTime(baseUTC, noon-sunriseHA, loc),
		dhuhr:   hoursToTime(baseUTC, noon, loc),
		asr:     hoursToTime(baseUTC, noon+asrHA, loc),
		maghrib: hoursToTime(baseUTC, noon+sunriseHA, loc),
	}

	if c.method.IshaInterval > 0 {
		s.isha = s.maghrib.Add(time.Duration(c.method.IshaInterval) * time.Minute)
		return s, nil
	}
	ishaHA, err := c.hourAngle(c.method.IshaAngle, decl)
	if err != nil {
		return schedule{}, err
	}
	s.isha = hoursToTime(baseUTC, noon+ishaHA, loc)
	return s, nil
}

// hourAngle returns the half-arc, in hours, between solar noon and the moment
// the sun's center sits the given angle below the horizon.
func (c *Calculator) hourAngle(angle, decl float64) (float64, error) {
	lat := radians(c.coords.Latitude)
	cosHA := (-math.Sin(radians(angle)) - math.Sin(lat)*math.Sin(decl)) /
		(math.Cos(lat) * math.Cos(decl))
	if cosHA < -1 || cosHA > 1 {
		return 0, ErrPolarNight
	}
	return degrees(math.Acos(cosHA)) / 15, nil
}

// asrHourAngle finds the afternoon instant when an object's shadow reaches
// the configured multiple of its height.
func (c *Calculator) asrHourAngle(decl float64) (float64, error) {
	lat := radians(c.coords.Latitude)
	altitude := math.Atan(1 / (float64(c.asr) + math.Tan(math.Abs(lat-decl))))
	cosHA := (math.Sin(altitude) - math.Sin(lat)*math.Sin(decl)) /
		(math.Cos(lat) * math.Cos(decl))
	if cosHA < -1 || cosHA > 1 {
		return 0, ErrPolarNight
	}
	return degrees(math.Acos(cosHA)) / 15, nil
}

// sunPosition returns the solar declination in radians and the equation of
// time in fractional hours for the given Julian day, per the NOAA
// low-precision formulas.
func sunPosition(jd float64) (decl, eqt float64) {
	d := jd - 2451545.0

	g := radians(normalizeDegrees(357.529 + 0.98560028*d))
	q := normalizeDegrees(280.459 + 0.98564736*d)
	l := radians(normalizeDegrees(q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)))
	e := radians(23.439 - 0.00000036*d)

	decl = math.Asin(math.Sin(e) * math.Sin(l))

	ra := degrees(math.Atan2(math.Cos(e)*math.Sin(l), math.Cos(l))) / 15
	eqt = normalizeHours(q/15 - normalizeHours(ra))
	if eqt > 12 {
		eqt -= 24
	}
	return decl, eqt
}

// julianDay converts a civil date (at 12:00 UTC) to a Julian day number.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := year / 100
	b := 2 - a + a/4
	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + float64(b) - 1524.5 + 0.5
}

func hoursToTime(baseUTC time.Time, hours float64, loc *time.Location) time.Time {
	return baseUTC.Add(time.Duration(hours * float64(time.Hour))).In(loc)
}

func normalizeDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}

func normalizeHours(v float64) float64 {
	v = math.Mod(v, 24)
	if v < 0 {
		v += 24
	}
	return v
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

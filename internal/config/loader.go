package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the deploy-time configuration of the companion service.
// Everything a user can change at runtime lives in settings instead.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	SQLiteDSN  string `yaml:"sqlite_dsn"`
	// RefreshSchedule is a cron expression controlling background feed
	// refreshes. Empty disables the background refresher.
	RefreshSchedule string `yaml:"refresh_schedule"`
	// RetainResolutionDays bounds how long recorded suggestion outcomes are
	// kept before the nightly prune removes them.
	RetainResolutionDays int `yaml:"retain_resolution_days"`

	Auth     AuthConfig     `yaml:"auth"`
	Location LocationConfig `yaml:"location"`
}

// AuthConfig guards the HTTP API with a single basic-auth account. An empty
// password hash leaves the API open.
type AuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// LocationConfig seeds the calculation settings used until the user saves
// their own.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
	Method    string  `yaml:"calculation_method"`
	AsrSchool string  `yaml:"asr_school"`
}

func defaults() Config {
	return Config{
		ListenAddr:           ":8080",
		SQLiteDSN:            "file:prayer-companion.db",
		RefreshSchedule:      "*/30 * * * *",
		RetainResolutionDays: 30,
		Auth:                 AuthConfig{Username: "admin"},
		Location: LocationConfig{
			Latitude:  21.4225,
			Longitude: 39.8262,
			Timezone:  "UTC",
			Method:    "mwl",
			AsrSchool: "standard",
		},
	}
}

// Load reads the optional YAML file at path, then applies PRAYERD_*
// environment overrides on top. A missing file is only an error when the
// path was given explicitly.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		body, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s does not exist", path)
			}
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(body, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if addr := strings.TrimSpace(os.Getenv("PRAYERD_LISTEN_ADDR")); addr != "" {
		cfg.ListenAddr = addr
	}
	if dsn := strings.TrimSpace(os.Getenv("PRAYERD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if schedule, ok := os.LookupEnv("PRAYERD_REFRESH_SCHEDULE"); ok {
		cfg.RefreshSchedule = strings.TrimSpace(schedule)
	}
	if raw := strings.TrimSpace(os.Getenv("PRAYERD_RETAIN_RESOLUTION_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			invalid = append(invalid, "PRAYERD_RETAIN_RESOLUTION_DAYS")
		} else {
			cfg.RetainResolutionDays = days
		}
	}
	if user := strings.TrimSpace(os.Getenv("PRAYERD_AUTH_USERNAME")); user != "" {
		cfg.Auth.Username = user
	}
	if hash := strings.TrimSpace(os.Getenv("PRAYERD_AUTH_PASSWORD_HASH")); hash != "" {
		cfg.Auth.PasswordHash = hash
	}
	if raw := strings.TrimSpace(os.Getenv("PRAYERD_LATITUDE")); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid = append(invalid, "PRAYERD_LATITUDE")
		} else {
			cfg.Location.Latitude = lat
		}
	}
	if raw := strings.TrimSpace(os.Getenv("PRAYERD_LONGITUDE")); raw != "" {
		lon, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid = append(invalid, "PRAYERD_LONGITUDE")
		} else {
			cfg.Location.Longitude = lon
		}
	}
	if tz := strings.TrimSpace(os.Getenv("PRAYERD_TIMEZONE")); tz != "" {
		cfg.Location.Timezone = tz
	}
	if method := strings.TrimSpace(os.Getenv("PRAYERD_CALCULATION_METHOD")); method != "" {
		cfg.Location.Method = method
	}
	if school := strings.TrimSpace(os.Getenv("PRAYERD_ASR_SCHOOL")); school != "" {
		cfg.Location.AsrSchool = school
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	problems := make([]string, 0, 2)

	if cfg.ListenAddr == "" {
		problems = append(problems, "listen_addr must not be empty")
	}
	if cfg.SQLiteDSN == "" {
		problems = append(problems, "sqlite_dsn must not be empty")
	}
	if cfg.Location.Latitude < -90 || cfg.Location.Latitude > 90 {
		problems = append(problems, "location.latitude must be between -90 and 90")
	}
	if cfg.Location.Longitude < -180 || cfg.Location.Longitude > 180 {
		problems = append(problems, "location.longitude must be between -180 and 180")
	}
	if cfg.Location.Timezone == "" {
		problems = append(problems, "location.timezone must not be empty")
	}
	if hash := cfg.Auth.PasswordHash; hash != "" && !strings.HasPrefix(hash, "$2") {
		problems = append(problems, "auth.password_hash must be a bcrypt hash")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

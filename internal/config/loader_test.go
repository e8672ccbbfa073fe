package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PRAYERD_LISTEN_ADDR",
		"PRAYERD_SQLITE_DSN",
		"PRAYERD_REFRESH_SCHEDULE",
		"PRAYERD_RETAIN_RESOLUTION_DAYS",
		"PRAYERD_AUTH_USERNAME",
		"PRAYERD_AUTH_PASSWORD_HASH",
		"PRAYERD_LATITUDE",
		"PRAYERD_LONGITUDE",
		"PRAYERD_TIMEZONE",
		"PRAYERD_CALCULATION_METHOD",
		"PRAYERD_ASR_SCHOOL",
	} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader(t *testing.T) {

	t.Run("applies defaults without a file or environment", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.ListenAddr != ":8080" {
			t.Fatalf("unexpected listen address: %q", cfg.ListenAddr)
		}
		if cfg.SQLiteDSN != "file:prayer-companion.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.RefreshSchedule != "*/30 * * * *" {
			t.Fatalf("unexpected refresh schedule: %q", cfg.RefreshSchedule)
		}
		if cfg.Location.Timezone != "UTC" || cfg.Location.Method != "mwl" {
			t.Fatalf("unexpected location defaults: %+v", cfg.Location)
		}
	})

	t.Run("reads values from a YAML file", func(t *testing.T) {
		clearEnv(t)

		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
listen_addr: ":9090"
sqlite_dsn: "file:/tmp/companion.db"
refresh_schedule: "0 * * * *"
retain_resolution_days: 7
auth:
  username: muezzin
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
location:
  latitude: 51.5074
  longitude: -0.1278
  timezone: Europe/London
  calculation_method: isna
  asr_school: hanafi
`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write config file: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.ListenAddr != ":9090" || cfg.SQLiteDSN != "file:/tmp/companion.db" {
			t.Fatalf("unexpected server fields: %+v", cfg)
		}
		if cfg.RetainResolutionDays != 7 {
			t.Fatalf("unexpected retention: %d", cfg.RetainResolutionDays)
		}
		if cfg.Auth.Username != "muezzin" || !strings.HasPrefix(cfg.Auth.PasswordHash, "$2a$") {
			t.Fatalf("unexpected auth fields: %+v", cfg.Auth)
		}
		if cfg.Location.Timezone != "Europe/London" || cfg.Location.AsrSchool != "hanafi" {
			t.Fatalf("unexpected location fields: %+v", cfg.Location)
		}
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		clearEnv(t)

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("listen_addr: \":9090\"\n"), 0o600); err != nil {
			t.Fatalf("write config file: %v", err)
		}

		t.Setenv("PRAYERD_LISTEN_ADDR", ":7070")
		t.Setenv("PRAYERD_LATITUDE", "24.7136")
		t.Setenv("PRAYERD_TIMEZONE", "Asia/Riyadh")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.ListenAddr != ":7070" {
			t.Fatalf("expected env to win, got %q", cfg.ListenAddr)
		}
		if cfg.Location.Latitude != 24.7136 || cfg.Location.Timezone != "Asia/Riyadh" {
			t.Fatalf("unexpected location: %+v", cfg.Location)
		}
	})

	t.Run("errors on an explicitly named missing file", func(t *testing.T) {
		clearEnv(t)

		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil {
			t.Fatal("expected an error for a missing config file")
		}
	})

	t.Run("rejects invalid numeric environment values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRAYERD_LATITUDE", "not-a-number")

		_, err := Load("")
		if err == nil {
			t.Fatal("expected an error for an unparsable latitude")
		}
		if !strings.Contains(err.Error(), "PRAYERD_LATITUDE") {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRAYERD_LATITUDE", "123.4")

		_, err := Load("")
		if err == nil {
			t.Fatal("expected an error for an out-of-range latitude")
		}
	})

	t.Run("rejects a non-bcrypt password hash", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRAYERD_AUTH_PASSWORD_HASH", "plaintext")

		_, err := Load("")
		if err == nil {
			t.Fatal("expected an error for a plaintext password hash")
		}
	})
}

package leetboard

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/leetboard/leetboard/leetboard/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[db]
driver = "sqlite"
`))
	require.NoError(t, err)

	if cfg.DB.Path != "leetboard.db" {
		t.Errorf("DB.Path got = %q, want leetboard.db", cfg.DB.Path)
	}
	if cfg.Schedule.SnapshotDay != config.DefaultSnapshotDay || cfg.Schedule.SnapshotTime != config.DefaultSnapshotTime {
		t.Errorf("Schedule got = %+v", cfg.Schedule)
	}
	if cfg.Schedule.FetchTickInterval != config.DefaultFetchTickMinutes {
		t.Errorf("FetchTickInterval got = %d, want %d", cfg.Schedule.FetchTickInterval, config.DefaultFetchTickMinutes)
	}
	if cfg.Analytics.LiveFill == nil || !*cfg.Analytics.LiveFill {
		t.Errorf("Analytics.LiveFill should default to true")
	}
	if cfg.Upstream.Endpoint != config.DefaultUpstreamEndpoint {
		t.Errorf("Upstream.Endpoint got = %q", cfg.Upstream.Endpoint)
	}
	if cfg.Web.Port != 8080 || cfg.Web.DefaultTeam != "default" {
		t.Errorf("Web got = %+v", cfg.Web)
	}
	if cfg.Notifications.Kafka.Topic != "leetboard.notifications" {
		t.Errorf("Kafka.Topic got = %q", cfg.Notifications.Kafka.Topic)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[log]
level = "DEBUG"
format = "json"

[schedule]
timezone = "Europe/Berlin"
snapshot_day = "sunday"
fetch_tick_interval = 5

[analytics]
live_fill = false

[backup]
enabled = true
bucket = "boards"
prefix = "/nightly/"
`))
	require.NoError(t, err)

	if cfg.Log.Level != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log got = %+v", cfg.Log)
	}
	if cfg.Schedule.SnapshotDay != "sunday" || cfg.Schedule.FetchTickInterval != 5 {
		t.Errorf("Schedule got = %+v", cfg.Schedule)
	}
	if *cfg.Analytics.LiveFill {
		t.Errorf("Analytics.LiveFill got = true, want false")
	}
	if cfg.Backup.Prefix != "nightly" {
		t.Errorf("Backup.Prefix got = %q, want nightly", cfg.Backup.Prefix)
	}
	if loc := cfg.Schedule.Location(); loc.String() != "Europe/Berlin" {
		t.Errorf("Location() got = %s", loc)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("LoadConfig() on a missing file should fail")
	}
	if _, err := LoadConfig(writeConfig(t, "[db\n")); err == nil {
		t.Errorf("LoadConfig() on invalid TOML should fail")
	}
}

func TestScheduleConfig_LocationFallback(t *testing.T) {
	s := ScheduleConfig{Timezone: "Mars/Olympus"}
	if loc := s.Location(); loc != time.UTC {
		t.Errorf("Location() got = %s, want UTC", loc)
	}
}

func TestApp_OpenSQLite(t *testing.T) {
	cfg := Config{DB: DBConfig{Driver: "sqlite", Path: ":memory:"}}
	cfg.ApplyDefaults()

	app := New(cfg, "test", "abc")
	require.NoError(t, app.Open(context.Background()))
	defer app.Close()

	if app.Scheduler == nil || app.Detector == nil || app.Analytics == nil || app.Roster == nil {
		t.Fatalf("App.Open() left components unset: %+v", app)
	}
	if app.Backup != nil {
		t.Errorf("backup should stay disabled without config")
	}
	require.NoError(t, app.DB.Ping(context.Background()))

	require.NoError(t, app.Settings.Set(context.Background(), "snapshot_day", "friday"))
	v, err := app.Settings.Get(context.Background(), "snapshot_day")
	require.NoError(t, err)
	if v != "friday" {
		t.Errorf("Settings.Get() got = %q, want friday", v)
	}
}

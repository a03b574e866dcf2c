package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leetboard/leetboard/leetboard/config"
)

// system_settings keys that override the file configuration.
const (
	KeySnapshotDay       = "snapshot_day"
	KeySnapshotTime      = "snapshot_time"
	KeyFetchTickInterval = "fetch_tick_interval"
	KeyDailyDigestTime   = "daily_digest_time"
	KeyBackupTime        = "backup_time"
)

// Keys lists every recognised settings key.
var Keys = []string{KeySnapshotDay, KeySnapshotTime, KeyFetchTickInterval, KeyDailyDigestTime, KeyBackupTime}

// ConfigError reports an invalid configuration value together with the value
// that was used instead.
type ConfigError struct {
	Key      string
	Value    string
	Fallback string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid value %q for %s, using %q", e.Value, e.Key, e.Fallback)
}

type Settings struct {
	SnapshotDay       string
	SnapshotTime      string
	FetchTickInterval int
	DailyDigestTime   string
	BackupTime        string
}

// Merge applies non-empty overrides on top of s.
func (s Settings) Merge(overrides map[string]string) Settings {
	if v := overrides[KeySnapshotDay]; v != "" {
		s.SnapshotDay = v
	}
	if v := overrides[KeySnapshotTime]; v != "" {
		s.SnapshotTime = v
	}
	if v := overrides[KeyFetchTickInterval]; v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			n = -1
		}
		s.FetchTickInterval = n
	}
	if v := overrides[KeyDailyDigestTime]; v != "" {
		s.DailyDigestTime = v
	}
	if v := overrides[KeyBackupTime]; v != "" {
		s.BackupTime = v
	}
	return s
}

// Specs are the cron expressions derived from Settings.
type Specs struct {
	Snapshot string
	Fetch    string
	Digest   string
	Backup   string
}

// Specs converts s to cron expressions. Invalid values fall back to their
// defaults and are reported as *ConfigError.
func (s Settings) Specs() (Specs, []error) {
	var errs []error

	day, err := parseWeekday(s.SnapshotDay)
	if err != nil {
		errs = append(errs, &ConfigError{Key: KeySnapshotDay, Value: s.SnapshotDay, Fallback: config.DefaultSnapshotDay})
		day, _ = parseWeekday(config.DefaultSnapshotDay)
	}

	clock := func(key, value, fallback string) (int, int) {
		h, m, err := parseClock(value)
		if err != nil {
			errs = append(errs, &ConfigError{Key: key, Value: value, Fallback: fallback})
			h, m, _ = parseClock(fallback)
		}
		return h, m
	}

	snapH, snapM := clock(KeySnapshotTime, s.SnapshotTime, config.DefaultSnapshotTime)
	digestH, digestM := clock(KeyDailyDigestTime, s.DailyDigestTime, config.DefaultDigestTime)
	backupH, backupM := clock(KeyBackupTime, s.BackupTime, config.DefaultBackupTime)

	interval := s.FetchTickInterval
	if interval <= 0 {
		errs = append(errs, &ConfigError{
			Key:      KeyFetchTickInterval,
			Value:    strconv.Itoa(interval),
			Fallback: strconv.Itoa(config.DefaultFetchTickMinutes),
		})
		interval = config.DefaultFetchTickMinutes
	}

	return Specs{
		Snapshot: fmt.Sprintf("0 %d %d * * %d", snapM, snapH, int(day)),
		Fetch:    fmt.Sprintf("@every %dm", interval),
		Digest:   fmt.Sprintf("0 %d %d * * *", digestM, digestH),
		Backup:   fmt.Sprintf("0 %d %d * * *", backupM, backupH),
	}, errs
}

func parseWeekday(v string) (time.Weekday, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", v)
}

func parseClock(v string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

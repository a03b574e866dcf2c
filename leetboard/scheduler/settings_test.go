package scheduler

import (
	"errors"
	"reflect"
	"testing"
)

func defaults() Settings {
	return Settings{
		SnapshotDay:       "monday",
		SnapshotTime:      "00:30",
		FetchTickInterval: 15,
		DailyDigestTime:   "09:00",
		BackupTime:        "03:00",
	}
}

func TestSettings_Specs(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     Specs
		invalid  []string
	}{
		{
			name:     "defaults",
			settings: defaults(),
			want:     Specs{Snapshot: "0 30 0 * * 1", Fetch: "@every 15m", Digest: "0 0 9 * * *", Backup: "0 0 3 * * *"},
		},
		{
			name: "short day name",
			settings: Settings{SnapshotDay: "Sun", SnapshotTime: "23:05", FetchTickInterval: 5,
				DailyDigestTime: "18:45", BackupTime: "04:10"},
			want: Specs{Snapshot: "0 5 23 * * 0", Fetch: "@every 5m", Digest: "0 45 18 * * *", Backup: "0 10 4 * * *"},
		},
		{
			name: "invalid values fall back",
			settings: Settings{SnapshotDay: "someday", SnapshotTime: "25:00", FetchTickInterval: 0,
				DailyDigestTime: "9am", BackupTime: "03:00"},
			want:    Specs{Snapshot: "0 30 0 * * 1", Fetch: "@every 15m", Digest: "0 0 9 * * *", Backup: "0 0 3 * * *"},
			invalid: []string{KeySnapshotDay, KeySnapshotTime, KeyDailyDigestTime, KeyFetchTickInterval},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := tt.settings.Specs()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Settings.Specs() got = %+v, want %+v", got, tt.want)
			}

			var keys []string
			for _, err := range errs {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Settings.Specs() error %v is not a ConfigError", err)
				}
				keys = append(keys, cfgErr.Key)
			}
			if !reflect.DeepEqual(keys, tt.invalid) {
				t.Errorf("Settings.Specs() invalid keys got = %v, want %v", keys, tt.invalid)
			}
		})
	}
}

func TestSettings_Merge(t *testing.T) {
	got := defaults().Merge(map[string]string{
		KeySnapshotDay:       "tuesday",
		KeyFetchTickInterval: "30",
		KeyBackupTime:        "",
		"unrelated":          "x",
	})
	want := defaults()
	want.SnapshotDay = "tuesday"
	want.FetchTickInterval = 30
	if got != want {
		t.Errorf("Settings.Merge() got = %+v, want %+v", got, want)
	}

	bad := defaults().Merge(map[string]string{KeyFetchTickInterval: "often"})
	if _, errs := bad.Specs(); len(errs) != 1 {
		t.Errorf("Settings.Merge() non-numeric interval should be reported, got %v", errs)
	}
}

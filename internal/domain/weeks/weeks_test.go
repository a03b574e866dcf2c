package weeks

import (
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday midnight", date(2025, 1, 6), date(2025, 1, 6)},
		{"monday late", time.Date(2025, 1, 6, 23, 59, 0, 0, time.UTC), date(2025, 1, 6)},
		{"sunday", time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC), date(2025, 1, 6)},
		{"wednesday across year", date(2025, 1, 1), date(2024, 12, 30)},
		{"offset zone", time.Date(2025, 1, 13, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)), date(2025, 1, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MondayOf(tt.in); !got.Equal(tt.want) {
				t.Errorf("MondayOf() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	got := Window(time.Date(2025, 1, 22, 8, 0, 0, 0, time.UTC), 3)
	want := []time.Time{date(2025, 1, 6), date(2025, 1, 13), date(2025, 1, 20)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window() got = %v, want %v", got, want)
	}
	if Window(date(2025, 1, 6), 0) != nil {
		t.Errorf("Window(0) should be nil")
	}
}

func TestConsecutive(t *testing.T) {
	if !Consecutive(date(2025, 1, 6), date(2025, 1, 13)) {
		t.Errorf("7 days apart should be consecutive")
	}
	if Consecutive(date(2025, 1, 6), date(2025, 1, 20)) {
		t.Errorf("14 days apart should not be consecutive")
	}
}

func TestDays(t *testing.T) {
	got := Days(time.Date(2025, 1, 3, 17, 0, 0, 0, time.UTC), 3)
	want := []time.Time{date(2025, 1, 1), date(2025, 1, 2), date(2025, 1, 3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Days() got = %v, want %v", got, want)
	}
}

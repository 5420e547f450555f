package coerce

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("SGT", 8*60*60)

	tests := []struct {
		name    string
		input   string
		wantKey string
		wantOK  bool
	}{
		{"iso day", "2025-01-15", "2025-01-15", true},
		{"rfc3339 utc shifts to local day", "2025-01-15T20:30:00Z", "2025-01-16", true},
		{"sheets timestamp", "1/15/2025 8:30:00", "2025-01-15", true},
		{"us date", "2/3/2025", "2025-02-03", true},
		{"long month", "Jan 5, 2025", "2025-01-05", true},
		{"day month year", "5 Jan 2025", "2025-01-05", true},
		{"excel serial", "45672", "2025-01-15", true},
		{"padded", "  2025-03-01 ", "2025-03-01", true},
		{"empty", "", "", false},
		{"garbage", "not a date", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, loc)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if key := DateKey(got); key != tt.wantKey {
				t.Errorf("ParseDate(%q) key = %s, want %s", tt.input, key, tt.wantKey)
			}
		})
	}
}

func TestParseDateDayOnlyIsLocalMidnight(t *testing.T) {
	loc := time.FixedZone("SGT", 8*60*60)
	got, ok := ParseDate("2025-01-15", loc)
	if !ok {
		t.Fatal("expected date to parse")
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSerialToDateKey(t *testing.T) {
	if key, ok := SerialToDateKey(45672); !ok || key != "2025-01-15" {
		t.Errorf("expected 2025-01-15, got %q (%v)", key, ok)
	}
	if _, ok := SerialToDateKey(42); ok {
		t.Error("expected small numbers to be rejected")
	}
}

func TestDisplayDay(t *testing.T) {
	if got := DisplayDay("2025-01-15"); got != "Jan 15" {
		t.Errorf("expected Jan 15, got %s", got)
	}
	if got := DisplayDay("Unknown"); got != "Unknown" {
		t.Errorf("expected unparseable key unchanged, got %s", got)
	}
}

func TestStartOfDayAndMonthLabel(t *testing.T) {
	loc := time.FixedZone("X", -5*60*60)
	in := time.Date(2025, 3, 9, 17, 45, 12, 99, loc)
	got := StartOfDay(in)
	if !got.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected start of day %v", got)
	}
	if label := MonthLabel(in); label != "Mar 2025" {
		t.Errorf("expected Mar 2025, got %s", label)
	}
}

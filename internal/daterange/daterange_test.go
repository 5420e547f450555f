package daterange

import (
	"testing"
	"time"
)

var loc = time.FixedZone("SGT", 8*60*60)

func fixedNow() time.Time {
	return time.Date(2025, 3, 12, 14, 30, 0, 0, loc)
}

func TestResolveToday(t *testing.T) {
	now := fixedNow()
	b := Resolve(Today, "", "", now)

	wantStart := time.Date(2025, 3, 12, 0, 0, 0, 0, loc)
	if !b.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, b.Start)
	}

	inside := []time.Time{
		wantStart,
		time.Date(2025, 3, 12, 23, 59, 59, 999_000_000, loc),
		now,
	}
	for _, ts := range inside {
		if !b.Contains(ts) {
			t.Errorf("expected %v inside today", ts)
		}
	}

	outside := []time.Time{
		wantStart.Add(-time.Millisecond),
		time.Date(2025, 3, 13, 0, 0, 0, 0, loc),
	}
	for _, ts := range outside {
		if b.Contains(ts) {
			t.Errorf("expected %v outside today", ts)
		}
	}
}

func TestResolveWeekSpansSevenDays(t *testing.T) {
	now := fixedNow()
	b := Resolve(Week, "", "", now)

	wantStart := time.Date(2025, 3, 6, 0, 0, 0, 0, loc)
	if !b.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, b.Start)
	}
	if !b.End.Equal(now) {
		t.Errorf("expected end to be now, got %v", b.End)
	}

	days := map[string]bool{}
	for d := *b.Start; !d.After(*b.End); d = d.Add(time.Hour) {
		days[d.Format("2006-01-02")] = true
	}
	if len(days) != 7 {
		t.Errorf("expected 7 calendar days, got %d", len(days))
	}
}

func TestResolveMonthAndYear(t *testing.T) {
	now := fixedNow()

	month := Resolve(Month, "", "", now)
	if !month.Start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected month start %v", month.Start)
	}
	if !month.End.Equal(now) {
		t.Errorf("unexpected month end %v", month.End)
	}

	year := Resolve(Year, "", "", now)
	if !year.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected year start %v", year.Start)
	}
}

func TestResolveCustom(t *testing.T) {
	now := fixedNow()

	b := Resolve(Custom, "2025-01-05", "2025-01-10", now)
	if !b.Start.Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected start %v", b.Start)
	}
	if !b.End.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected end %v", b.End)
	}

	open := Resolve(Custom, "2025-01-05", "", now)
	if open.Start == nil || open.End != nil {
		t.Errorf("expected open end, got %+v", open)
	}

	reversed := Resolve(Custom, "2025-02-01", "2025-01-01", now)
	if reversed.Start == nil || reversed.End == nil {
		t.Error("resolver must not reject reversed custom ranges itself")
	}
}

func TestResolveUnknown(t *testing.T) {
	b := Resolve(Range("decade"), "", "", fixedNow())
	if !b.Unbounded() {
		t.Errorf("expected unbounded, got %+v", b)
	}
}

func TestIsCustomRangeValid(t *testing.T) {
	tests := []struct {
		start, end string
		want       bool
	}{
		{"2025-01-01", "2025-02-01", true},
		{"2025-01-01", "2025-01-01", true},
		{"2025-02-01", "2025-01-01", false},
		{"", "2025-01-01", false},
		{"2025-01-01", "", false},
		{"soon", "later", false},
	}
	for _, tt := range tests {
		if got := IsCustomRangeValid(tt.start, tt.end, loc); got != tt.want {
			t.Errorf("IsCustomRangeValid(%q, %q) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestSelectorRejectsInvalidCustom(t *testing.T) {
	s := NewSelector(loc)
	if s.Range != Month {
		t.Fatalf("expected default range month, got %s", s.Range)
	}

	s.SetCustomStart("2025-02-01")
	s.SetCustomEnd("2025-01-01")
	if s.ApplyCustom() {
		t.Fatal("expected reversed range to be rejected")
	}
	if s.Range != Month {
		t.Errorf("expected range to stay month, got %s", s.Range)
	}

	b := s.Bounds(fixedNow())
	if !b.Start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("expected month bounds to remain, got %v", b.Start)
	}
}

func TestSelectorApplyAndReset(t *testing.T) {
	s := NewSelector(loc)
	s.SetCustomStart("2025-01-01")
	s.SetCustomEnd("2025-01-31")
	if !s.ApplyCustom() {
		t.Fatal("expected valid custom range to apply")
	}
	if s.Range != Custom {
		t.Fatalf("expected custom, got %s", s.Range)
	}

	// editing drafts does not move applied bounds
	s.SetCustomEnd("2024-12-01")
	b := s.Bounds(fixedNow())
	if !b.End.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, loc)) {
		t.Errorf("expected applied end to remain, got %v", b.End)
	}

	if !s.SetRange(Week) {
		t.Fatal("expected named range switch")
	}
	if s.CustomStart != "" || s.CustomEnd != "" {
		t.Error("expected custom drafts cleared")
	}
	if s.SetRange(Custom) || s.SetRange(Range("bogus")) {
		t.Error("expected custom and unknown ranges to be refused by SetRange")
	}
}

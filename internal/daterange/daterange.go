package daterange

import (
	"time"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
)

// Range names a reporting window
type Range string

const (
	Today  Range = "today"
	Week   Range = "week"
	Month  Range = "month"
	Year   Range = "year"
	Custom Range = "custom"
)

// DefaultRange is the range a new view starts with
const DefaultRange = Month

// Valid reports whether r is a known range
func (r Range) Valid() bool {
	switch r {
	case Today, Week, Month, Year, Custom:
		return true
	}
	return false
}

// Bounds is an inclusive window. A nil bound is unbounded on that side.
type Bounds struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Unbounded reports whether both sides are open
func (b Bounds) Unbounded() bool {
	return b.Start == nil && b.End == nil
}

// Contains reports whether t falls inside the window
func (b Bounds) Contains(t time.Time) bool {
	if b.Start != nil && t.Before(*b.Start) {
		return false
	}
	if b.End != nil && t.After(*b.End) {
		return false
	}
	return true
}

// Resolve maps a range to concrete bounds in the location of now. customStart
// and customEnd are only read for Custom. Unknown ranges resolve to unbounded.
func Resolve(r Range, customStart, customEnd string, now time.Time) Bounds {
	midnight := coerce.StartOfDay(now)

	switch r {
	case Today:
		end := midnight.Add(24*time.Hour - time.Millisecond)
		return Bounds{Start: &midnight, End: &end}
	case Week:
		start := midnight.AddDate(0, 0, -6)
		return Bounds{Start: &start, End: &now}
	case Month:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Bounds{Start: &start, End: &now}
	case Year:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Bounds{Start: &start, End: &now}
	case Custom:
		var b Bounds
		if t, ok := ParseDay(customStart, now.Location()); ok {
			b.Start = &t
		}
		if t, ok := ParseDay(customEnd, now.Location()); ok {
			b.End = &t
		}
		return b
	default:
		return Bounds{}
	}
}

// ParseDay parses a calendar-day string and truncates it to midnight in loc
func ParseDay(s string, loc *time.Location) (time.Time, bool) {
	t, ok := coerce.ParseDate(s, loc)
	if !ok {
		return time.Time{}, false
	}
	return coerce.StartOfDay(t), true
}

// IsCustomRangeValid reports whether both days parse and start is not after end
func IsCustomRangeValid(start, end string, loc *time.Location) bool {
	s, ok := ParseDay(start, loc)
	if !ok {
		return false
	}
	e, ok := ParseDay(end, loc)
	if !ok {
		return false
	}
	return !s.After(e)
}

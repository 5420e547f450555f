package daterange

import "time"

// Selector holds the range choice of one view. Custom start and end are
// drafts until ApplyCustom accepts them.
type Selector struct {
	Range       Range  `json:"range"`
	CustomStart string `json:"customStart,omitempty"`
	CustomEnd   string `json:"customEnd,omitempty"`

	// applied custom bounds, fixed when ApplyCustom succeeds
	appliedStart string
	appliedEnd   string

	loc *time.Location
}

// NewSelector returns a selector on DefaultRange
func NewSelector(loc *time.Location) *Selector {
	if loc == nil {
		loc = time.Local
	}
	return &Selector{Range: DefaultRange, loc: loc}
}

// SetRange switches to a named range and clears custom drafts. Custom and
// unknown ranges are ignored; use ApplyCustom for custom.
func (s *Selector) SetRange(r Range) bool {
	if !r.Valid() || r == Custom {
		return false
	}
	s.Range = r
	s.CustomStart = ""
	s.CustomEnd = ""
	s.appliedStart = ""
	s.appliedEnd = ""
	return true
}

// SetCustomStart edits the start draft without changing the range
func (s *Selector) SetCustomStart(day string) {
	s.CustomStart = day
}

// SetCustomEnd edits the end draft without changing the range
func (s *Selector) SetCustomEnd(day string) {
	s.CustomEnd = day
}

// ApplyCustom moves to the custom range when the drafts form a valid range.
// Otherwise the current range is kept and false is returned.
func (s *Selector) ApplyCustom() bool {
	if !IsCustomRangeValid(s.CustomStart, s.CustomEnd, s.loc) {
		return false
	}
	s.Range = Custom
	s.appliedStart = s.CustomStart
	s.appliedEnd = s.CustomEnd
	return true
}

// Valid reports whether the current drafts would be accepted
func (s *Selector) Valid() bool {
	return IsCustomRangeValid(s.CustomStart, s.CustomEnd, s.loc)
}

// Bounds resolves the current range against now
func (s *Selector) Bounds(now time.Time) Bounds {
	return Resolve(s.Range, s.appliedStart, s.appliedEnd, now.In(s.loc))
}

// Location returns the selector's time zone
func (s *Selector) Location() *time.Location {
	return s.loc
}

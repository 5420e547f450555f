package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	// DateKeyLayout is the calendar-day key used for grouping
	DateKeyLayout = "2006-01-02"
	// DisplayDayLayout is the short chart label for a day
	DisplayDayLayout = "Jan 2"
	// MonthLayout is the month label used when a row has no Month column
	MonthLayout = "Jan 2006"
)

// Serial numbers outside this window are not treated as spreadsheet dates
// (1970-01-01 to 9999-12-31).
const (
	minExcelSerial = 25569
	maxExcelSerial = 2958465
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateKeyLayout,
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	MonthLayout,
	"January 2006",
	"2006",
}

// ParseDate parses free-form spreadsheet date text. Values without a zone are
// interpreted in loc; zoned values are converted to loc. Spreadsheet serial
// numbers are accepted as well.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseSerial(s, loc); ok {
		return t, true
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseSerial(s string, loc *time.Location) (time.Time, bool) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true
}

// SerialToDateKey renders a numeric spreadsheet date cell as a day key
func SerialToDateKey(serial float64) (string, bool) {
	if serial < minExcelSerial || serial > maxExcelSerial {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format(DateKeyLayout), true
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey formats t as YYYY-MM-DD using its local calendar day
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// DisplayDay turns a day key into a short chart label like "Jan 15". Keys
// that do not parse are returned unchanged.
func DisplayDay(key string) string {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return key
	}
	return t.Format(DisplayDayLayout)
}

// MonthLabel formats t as "Jan 2006"
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}

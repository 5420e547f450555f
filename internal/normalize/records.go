package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/types"
)

type field int

const (
	fieldTimestamp field = iota + 1
	fieldName
	fieldFIN
	fieldDate
	fieldTotalDrops
	fieldMultiDrops
	fieldHeavyDrops
	fieldWaybill
	fieldShift
	fieldWalkup
	fieldDouble
	fieldEmail
	fieldDropCount
	fieldAmount
	fieldMonth
)

// headerAliases lists the folded header text each field accepts. When a row
// carries more than one alias of a field, the earlier alias wins.
var headerAliases = []struct {
	header string
	field  field
}{
	{"timestamp", fieldTimestamp},
	{"name", fieldName},
	{"employee name", fieldName},
	{"fin", fieldFIN},
	{"date", fieldDate},
	{"total drops", fieldTotalDrops},
	{"multi drops", fieldMultiDrops},
	{"heavy drops", fieldHeavyDrops},
	{"upload way sheet photo", fieldWaybill},
	{"shift", fieldShift},
	{"walkup drop count", fieldWalkup},
	{"walkup drops", fieldWalkup},
	{"double drop count", fieldDouble},
	{"double drops", fieldDouble},
	{"email address", fieldEmail},
	{"email", fieldEmail},
	{"dropcount", fieldDropCount},
	{"drop count", fieldDropCount},
	{"totaldrops", fieldDropCount},
	{"amount", fieldAmount},
	{"month", fieldMonth},
}

type alias struct {
	field field
	rank  int
}

// headerFields maps folded header text to the field it feeds and its rank
var headerFields = func() map[string]alias {
	m := make(map[string]alias, len(headerAliases))
	for i, a := range headerAliases {
		m[a.header] = alias{field: a.field, rank: i}
	}
	return m
}()

// UnknownLabel is the bucket used for blank names, dates and months
const UnknownLabel = "Unknown"

// Normalize converts a raw payload into drop records
func Normalize(payload types.SheetPayload, loc *time.Location) []types.DropRecord {
	return Records(Rows(payload), loc)
}

// Records maps keyed rows onto the DropRecord shape. Unrecognized columns are
// kept in Extra.
func Records(rows []types.Row, loc *time.Location) []types.DropRecord {
	if loc == nil {
		loc = time.Local
	}
	records := make([]types.DropRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, record(row, loc))
	}
	return records
}

func record(row types.Row, loc *time.Location) types.DropRecord {
	headers := make([]string, 0, len(row))
	for header := range row {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	known := make(map[field]any, len(row))
	ranks := make(map[field]int, len(row))
	var extra map[string]string

	for _, header := range headers {
		value := row[header]
		a, ok := headerFields[fold(header)]
		if !ok {
			if extra == nil {
				extra = make(map[string]string)
			}
			extra[header] = strings.TrimSpace(cellString(value))
			continue
		}
		if rank, seen := ranks[a.field]; seen && rank <= a.rank {
			continue
		}
		known[a.field] = value
		ranks[a.field] = a.rank
	}

	text := func(f field) string {
		return strings.TrimSpace(cellString(known[f]))
	}
	num := func(f field) float64 {
		return coerce.EnsureNumber(known[f])
	}
	rec := types.DropRecord{
		Timestamp:    text(fieldTimestamp),
		EmployeeID:   text(fieldFIN),
		Date:         dateText(known[fieldDate]),
		Shift:        text(fieldShift),
		MultiDrops:   num(fieldMultiDrops),
		HeavyDrops:   num(fieldHeavyDrops),
		WalkupDrops:  num(fieldWalkup),
		DoubleDrops:  num(fieldDouble),
		Email:        strings.ToLower(text(fieldEmail)),
		WaybillPhoto: text(fieldWaybill),
		Extra:        extra,
	}

	name := text(fieldName)
	rec.EmployeeName = name
	if rec.EmployeeName == "" {
		rec.EmployeeName = UnknownLabel
	}
	rec.EmployeeKey = EmployeeKey(rec.EmployeeID, name, rec.Timestamp)

	_, hasTotal := known[fieldTotalDrops]
	_, hasCount := known[fieldDropCount]
	switch {
	case hasTotal:
		rec.TotalDrops = num(fieldTotalDrops)
	case hasCount:
		rec.TotalDrops = num(fieldDropCount)
	}
	if hasCount {
		rec.DropCount = num(fieldDropCount)
	} else {
		rec.DropCount = rec.TotalDrops
	}

	if _, ok := known[fieldAmount]; ok {
		amount := num(fieldAmount)
		rec.Amount = &amount
	}

	rec.Month = monthLabel(text(fieldMonth), rec.Date, loc)
	return rec
}

// EmployeeKey prefers the external id, then the name, then a synthetic key
// derived from the timestamp.
func EmployeeKey(id, name, timestamp string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "employee-" + timestamp
}

func dateText(v any) string {
	if serial, ok := v.(float64); ok {
		if key, ok := coerce.SerialToDateKey(serial); ok {
			return key
		}
	}
	return strings.TrimSpace(cellString(v))
}

func monthLabel(month, date string, loc *time.Location) string {
	if month != "" {
		return month
	}
	if date == "" {
		return UnknownLabel
	}
	if t, ok := coerce.ParseDate(date, loc); ok {
		return coerce.MonthLabel(t)
	}
	return date
}

// fold lowercases header text and collapses inner whitespace
func fold(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

package charts

import (
	"sort"
	"strings"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Series is a chart-ready dataset. Labels and Values always have the same
// length and are never nil.
type Series struct {
	Label  string    `json:"label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// Slice is one labeled pie wedge
type Slice struct {
	Label string
	Value float64
}

// Empty reports whether the series has no data points
func (s Series) Empty() bool {
	return len(s.Labels) == 0
}

func newSeries(label string) Series {
	return Series{Label: label, Labels: []string{}, Values: []float64{}, Colors: []string{}}
}

// Line turns a date-keyed map into an ascending series labeled "Jan 2"
func Line(daily map[string]float64, label string) Series {
	s := newSeries(label)
	keys := make([]string, 0, len(daily))
	for k := range daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Labels = append(s.Labels, coerce.DisplayDay(k))
		s.Values = append(s.Values, daily[k])
	}
	if len(keys) > 0 {
		s.Colors = append(s.Colors, TrendColor)
	}
	return s
}

// Bar sums value per key in first-encounter order. Blank keys are grouped
// under "Unknown".
func Bar(records []types.DropRecord, key func(types.DropRecord) string, value func(types.DropRecord) float64, label, color string) Series {
	s := newSeries(label)
	index := make(map[string]int)
	for _, r := range records {
		k := strings.TrimSpace(key(r))
		if k == "" {
			k = "Unknown"
		}
		i, ok := index[k]
		if !ok {
			i = len(s.Labels)
			index[k] = i
			s.Labels = append(s.Labels, k)
			s.Values = append(s.Values, 0)
		}
		s.Values[i] += value(r)
	}
	if len(s.Labels) > 0 {
		s.Colors = append(s.Colors, color)
	}
	return s
}

// Pie builds a wedge per slice, skipping exact zeros. Negative values are
// kept so bad data stays visible. Colors come from palette by position.
func Pie(slices []Slice, palette []string, label string) Series {
	s := newSeries(label)
	for _, sl := range slices {
		if sl.Value == 0 {
			continue
		}
		s.Colors = append(s.Colors, PaletteColor(palette, len(s.Labels)))
		s.Labels = append(s.Labels, sl.Label)
		s.Values = append(s.Values, sl.Value)
	}
	return s
}

// EmployeeDropTypes is the drop-type pie for one employee
func EmployeeDropTypes(a types.EmployeeAggregate) Series {
	slices := make([]Slice, 0, len(a.DropTypeBreakdown))
	for _, c := range a.DropTypeBreakdown {
		slices = append(slices, Slice{Label: string(c.Category), Value: c.Value})
	}
	return Pie(slices, DropTypePalette, "Drop Types")
}

// EmployeeDaily is the daily trend line for one employee
func EmployeeDaily(a types.EmployeeAggregate) Series {
	return Line(a.DailyTotals, "Daily Drops")
}

// DropTypes is the dashboard-wide drop-type pie
func DropTypes(s types.Summary) Series {
	return Pie([]Slice{
		{Label: "Multi Drops", Value: s.MultiDrops},
		{Label: "Heavy Drops", Value: s.HeavyDrops},
		{Label: "Walkup Drops", Value: s.WalkupDrops},
		{Label: "Double Drops", Value: s.DoubleDrops},
		{Label: "Single Drops", Value: s.SingleDrops()},
	}, DashboardPalette, "Drop Types")
}

// MonthlyLine plots labeled monthly values in their given order
func MonthlyLine(values []types.LabeledValue, label string) Series {
	s := newSeries(label)
	for _, v := range values {
		s.Labels = append(s.Labels, v.Label)
		s.Values = append(s.Values, v.Value)
	}
	if len(values) > 0 {
		s.Colors = append(s.Colors, MonthlyColor)
	}
	return s
}

// ShiftBar sums total drops per shift
func ShiftBar(records []types.DropRecord) Series {
	return Bar(records,
		func(r types.DropRecord) string { return r.Shift },
		func(r types.DropRecord) float64 { return r.TotalDrops },
		"Drops by Shift", ShiftColor)
}

// EmployeeBar sums total drops per employee name
func EmployeeBar(records []types.DropRecord) Series {
	return Bar(records,
		func(r types.DropRecord) string { return r.EmployeeName },
		func(r types.DropRecord) float64 { return r.TotalDrops },
		"Drops by Employee", EmployeeColor)
}

// DailyTrend sums total drops per record date key across all employees
func DailyTrend(records []types.DropRecord, dateKey func(types.DropRecord) (string, bool)) Series {
	daily := make(map[string]float64)
	for _, r := range records {
		if k, ok := dateKey(r); ok {
			daily[k] += r.TotalDrops
		}
	}
	return Line(daily, "Daily Drops")
}

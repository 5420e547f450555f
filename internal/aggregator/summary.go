package aggregator

import (
	"sort"
	"strings"

	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultUnderperformerThreshold is the average drops per record below which
// an employee is listed as underperforming
const DefaultUnderperformerThreshold = 80

// DefaultRecentLimit is the number of records in the recent activity feed
const DefaultRecentLimit = 5

// Summarize computes the dashboard KPI totals
func Summarize(records []types.DropRecord) types.Summary {
	var s types.Summary
	var amount decimal.Decimal
	var hasAmount bool
	names := make(map[string]bool)
	days := make(map[string]bool)

	for _, r := range records {
		s.TotalDrops += r.TotalDrops
		s.MultiDrops += r.MultiDrops
		s.HeavyDrops += r.HeavyDrops
		s.WalkupDrops += r.WalkupDrops
		s.DoubleDrops += r.DoubleDrops
		if r.Amount != nil {
			amount = amount.Add(decimal.NewFromFloat(*r.Amount))
			hasAmount = true
		}
		if name := strings.TrimSpace(r.EmployeeName); name != "" {
			names[name] = true
		}
		if r.Date != "" {
			days[r.Date] = true
		}
	}

	if hasAmount {
		v := amount.InexactFloat64()
		s.Amount = &v
	}
	s.ActiveEmployees = len(names)
	s.ActiveDays = len(days)
	s.RecordCount = len(records)
	return s
}

// Standings groups records by employee name in encounter order
func Standings(records []types.DropRecord) []types.EmployeeStanding {
	index := make(map[string]int)
	out := make([]types.EmployeeStanding, 0)

	for i := range records {
		r := &records[i]
		name := strings.TrimSpace(r.EmployeeName)
		if name == "" {
			name = unknown
		}
		j, ok := index[name]
		if !ok {
			j = len(out)
			index[name] = j
			out = append(out, types.EmployeeStanding{Name: name, Shifts: []string{}})
		}
		st := &out[j]
		st.TotalDrops += r.TotalDrops
		st.Records++
		if r.Shift != "" && !contains(st.Shifts, r.Shift) {
			st.Shifts = append(st.Shifts, r.Shift)
		}
		st.Latest = r
	}

	for i := range out {
		if out[i].Records > 0 {
			out[i].AverageDrops = out[i].TotalDrops / float64(out[i].Records)
		}
	}
	return out
}

// TopPerformer returns the standing with the highest total. The first one
// wins a tie. It returns nil for no records.
func TopPerformer(records []types.DropRecord) *types.EmployeeStanding {
	standings := Standings(records)
	if len(standings) == 0 {
		return nil
	}
	best := standings[0]
	for _, st := range standings[1:] {
		if st.TotalDrops > best.TotalDrops {
			best = st
		}
	}
	return &best
}

// Underperformers lists employees whose average drops per record is below
// threshold, lowest first
func Underperformers(records []types.DropRecord, threshold float64) []types.EmployeeStanding {
	out := make([]types.EmployeeStanding, 0)
	for _, st := range Standings(records) {
		if st.AverageDrops < threshold {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageDrops < out[j].AverageDrops
	})
	return out
}

// MonthlyTotals sums total drops per month label in encounter order
func MonthlyTotals(records []types.DropRecord) []types.LabeledValue {
	index := make(map[string]int)
	out := make([]types.LabeledValue, 0)
	for _, r := range records {
		label := monthOf(r)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, types.LabeledValue{Label: label})
		}
		out[i].Value += r.TotalDrops
	}
	return out
}

// MonthlyAverages divides each month's total by its distinct employee count
func MonthlyAverages(records []types.DropRecord) []types.LabeledValue {
	index := make(map[string]int)
	out := make([]types.LabeledValue, 0)
	employees := make([]map[string]bool, 0)

	for _, r := range records {
		label := monthOf(r)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, types.LabeledValue{Label: label})
			employees = append(employees, make(map[string]bool))
		}
		out[i].Value += r.TotalDrops
		name := strings.TrimSpace(r.EmployeeName)
		if name == "" {
			name = unknown
		}
		employees[i][name] = true
	}

	for i := range out {
		n := len(employees[i])
		if n == 0 {
			n = 1
		}
		out[i].Value /= float64(n)
	}
	return out
}

// Recent returns up to n records from the head of the set
func Recent(records []types.DropRecord, n int) []types.DropRecord {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	if len(records) < n {
		n = len(records)
	}
	out := make([]types.DropRecord, n)
	copy(out, records[:n])
	return out
}

func monthOf(r types.DropRecord) string {
	if m := strings.TrimSpace(r.Month); m != "" {
		return m
	}
	return unknown
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

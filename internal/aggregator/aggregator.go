package aggregator

import (
	"sort"
	"strings"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/charts"
	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/filter"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// employeeGroup accumulates one employee during a pass
type employeeGroup struct {
	agg       *types.EmployeeAggregate
	amount    decimal.Decimal
	hasAmount bool
	single    float64
	seenShift map[string]bool
}

// ByEmployee groups records by employee key and derives per-employee
// metrics. Groups are ordered by total drops, highest first; ties keep
// encounter order. The returned aggregates reference records by pointer.
func ByEmployee(records []types.DropRecord, loc *time.Location) []types.EmployeeAggregate {
	if loc == nil {
		loc = time.Local
	}

	groups := make(map[string]*employeeGroup)
	order := make([]string, 0)

	for i := range records {
		r := &records[i]
		g, ok := groups[r.EmployeeKey]
		if !ok {
			g = &employeeGroup{
				agg: &types.EmployeeAggregate{
					Key:         r.EmployeeKey,
					Name:        r.EmployeeName,
					EmployeeID:  r.EmployeeID,
					Initials:    Initials(r.EmployeeName),
					DailyTotals: make(map[string]float64),
					Shifts:      []string{},
				},
				seenShift: make(map[string]bool),
			}
			groups[r.EmployeeKey] = g
			order = append(order, r.EmployeeKey)
		}
		g.add(r, loc)
	}

	aggs := make([]types.EmployeeAggregate, 0, len(order))
	var grandTotal float64
	for _, key := range order {
		g := groups[key]
		g.finish()
		aggs = append(aggs, *g.agg)
		grandTotal += g.agg.TotalDrops
	}

	var mean float64
	if len(aggs) > 0 {
		mean = grandTotal / float64(len(aggs))
	}
	for i := range aggs {
		a := &aggs[i]
		if grandTotal != 0 {
			a.PercentageOfTotal = a.TotalDrops / grandTotal
		}
		switch {
		case a.TotalDrops > mean:
			a.TrendDirection = types.TrendUp
		case a.TotalDrops < mean:
			a.TrendDirection = types.TrendDown
		default:
			a.TrendDirection = types.TrendFlat
		}
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].TotalDrops > aggs[j].TotalDrops
	})
	for i := range aggs {
		aggs[i].Color = charts.PaletteColor(charts.AvatarPalette, i)
	}
	return aggs
}

func (g *employeeGroup) add(r *types.DropRecord, loc *time.Location) {
	a := g.agg
	a.TotalDrops += r.TotalDrops
	a.MultiDrops += r.MultiDrops
	a.HeavyDrops += r.HeavyDrops
	a.WalkupDrops += r.WalkupDrops
	a.DoubleDrops += r.DoubleDrops
	g.single += r.SingleDrops()

	if r.Amount != nil {
		g.amount = g.amount.Add(decimal.NewFromFloat(*r.Amount))
		g.hasAmount = true
	}

	if d, ok := filter.RecordDate(*r, loc); ok {
		a.DailyTotals[coerce.DateKey(d)] += r.TotalDrops
		day := coerce.StartOfDay(d)
		if a.HireDate == nil || day.Before(*a.HireDate) {
			a.HireDate = &day
		}
	}

	if r.Shift != "" && !g.seenShift[r.Shift] {
		g.seenShift[r.Shift] = true
		a.Shifts = append(a.Shifts, r.Shift)
	}
	a.Records = append(a.Records, r)
}

func (g *employeeGroup) finish() {
	a := g.agg
	a.DropTypeBreakdown = []types.CategoryCount{
		{Category: types.CategorySingle, Value: g.single},
		{Category: types.CategoryMulti, Value: a.MultiDrops},
		{Category: types.CategoryHeavy, Value: a.HeavyDrops},
		{Category: types.CategoryWalkup, Value: a.WalkupDrops},
		{Category: types.CategoryDouble, Value: a.DoubleDrops},
	}

	days := len(a.DailyTotals)
	a.DaysCovered = days
	if days < 1 {
		days = 1
	}
	a.AverageDropsPerDay = a.TotalDrops / float64(days)

	if g.hasAmount {
		amount := g.amount.InexactFloat64()
		perDay := g.amount.Div(decimal.NewFromInt(int64(days))).InexactFloat64()
		a.Amount = &amount
		a.AverageAmountPerDay = &perDay
	}
}

// Initials returns two letters for an avatar: first and last name initials,
// the first two letters of a single name, or "?" when empty
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return cases.Upper(language.Und).String(string(r))
	default:
		first := []rune(parts[0])[:1]
		last := []rune(parts[len(parts)-1])[:1]
		return cases.Upper(language.Und).String(string(first) + string(last))
	}
}

// ResolveSelection keeps current when it names an aggregate, otherwise falls
// back to the highest-ranked key. It returns "" when there are no aggregates.
func ResolveSelection(current string, aggs []types.EmployeeAggregate) string {
	if len(aggs) == 0 {
		return ""
	}
	if current != "" {
		for _, a := range aggs {
			if a.Key == current {
				return current
			}
		}
	}
	return aggs[0].Key
}

// Find returns the aggregate with key, if any
func Find(aggs []types.EmployeeAggregate, key string) (types.EmployeeAggregate, bool) {
	for _, a := range aggs {
		if a.Key == key {
			return a, true
		}
	}
	return types.EmployeeAggregate{}, false
}

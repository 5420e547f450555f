package aggregator

import (
	"sort"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/shopspring/decimal"
)

const unknown = "Unknown"

type groupKey struct {
	date string
	name string
}

// ByDate sums records per date, or per date and employee name when
// withEmployee is set. Rows are ordered newest first; rows whose date does
// not parse go last and keep their relative order.
func ByDate(records []types.DropRecord, withEmployee bool, loc *time.Location) []types.GroupedRecord {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[groupKey]int)
	rows := make([]types.GroupedRecord, 0)
	amounts := make([]decimal.Decimal, 0)
	hasAmount := make([]bool, 0)

	for _, r := range records {
		key := groupKey{date: r.Date}
		if key.date == "" {
			key.date = unknown
		}
		if withEmployee {
			key.name = r.EmployeeName
			if key.name == "" {
				key.name = unknown
			}
		}

		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, types.GroupedRecord{Date: key.date, EmployeeName: key.name})
			amounts = append(amounts, decimal.Zero)
			hasAmount = append(hasAmount, false)
		}

		row := &rows[i]
		row.TotalDrops += r.TotalDrops
		row.MultiDrops += r.MultiDrops
		row.HeavyDrops += r.HeavyDrops
		row.WalkupDrops += r.WalkupDrops
		row.DoubleDrops += r.DoubleDrops
		row.DropCount += r.DropCount
		row.Records++
		if r.Amount != nil {
			amounts[i] = amounts[i].Add(decimal.NewFromFloat(*r.Amount))
			hasAmount[i] = true
		}
	}

	for i := range rows {
		if hasAmount[i] {
			v := amounts[i].InexactFloat64()
			rows[i].Amount = &v
		}
	}

	SortByDateDesc(rows, loc)
	return rows
}

// SortByDateDesc orders grouped rows newest first, unparseable dates last
func SortByDateDesc(rows []types.GroupedRecord, loc *time.Location) {
	parsed := make(map[string]time.Time, len(rows))
	valid := make(map[string]bool, len(rows))
	for _, row := range rows {
		if _, seen := valid[row.Date]; seen {
			continue
		}
		t, ok := coerce.ParseDate(row.Date, loc)
		parsed[row.Date] = t
		valid[row.Date] = ok
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := valid[rows[i].Date], valid[rows[j].Date]
		switch {
		case vi && vj:
			return parsed[rows[i].Date].After(parsed[rows[j].Date])
		case vi:
			return true
		default:
			return false
		}
	})
}

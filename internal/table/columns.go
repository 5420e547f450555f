package table

import "github.com/dennisdiepolder/dropboard/internal/types"

// RecordColumns are the raw record table columns. Amount is only listed
// when includeAmount is set.
func RecordColumns(includeAmount bool) []Column[types.DropRecord] {
	cols := []Column[types.DropRecord]{
		{Key: "date", Label: "Date", Type: Text, Value: func(r types.DropRecord) any { return r.Date }},
		{Key: "employeeName", Label: "Name", Type: Text, Value: func(r types.DropRecord) any { return r.EmployeeName }},
		{Key: "employeeId", Label: "FIN", Type: Text, Value: func(r types.DropRecord) any { return r.EmployeeID }},
		{Key: "shift", Label: "Shift", Type: Text, Value: func(r types.DropRecord) any { return r.Shift }},
		{Key: "totalDrops", Label: "Total Drops", Type: Number, Value: func(r types.DropRecord) any { return r.TotalDrops }},
		{Key: "multiDrops", Label: "Multi Drops", Type: Number, Value: func(r types.DropRecord) any { return r.MultiDrops }},
		{Key: "heavyDrops", Label: "Heavy Drops", Type: Number, Value: func(r types.DropRecord) any { return r.HeavyDrops }},
		{Key: "walkupDrops", Label: "Walkup Drops", Type: Number, Value: func(r types.DropRecord) any { return r.WalkupDrops }},
		{Key: "doubleDrops", Label: "Double Drops", Type: Number, Value: func(r types.DropRecord) any { return r.DoubleDrops }},
		{Key: "month", Label: "Month", Type: Text, Value: func(r types.DropRecord) any { return r.Month }},
	}
	if includeAmount {
		cols = append(cols, Column[types.DropRecord]{
			Key: "amount", Label: "Amount", Type: Number,
			Value: func(r types.DropRecord) any { return r.Amount },
		})
	}
	return cols
}

// GroupedColumns are the columns of the by-date summary table
func GroupedColumns(includeAmount, withEmployee bool) []Column[types.GroupedRecord] {
	cols := []Column[types.GroupedRecord]{
		{Key: "date", Label: "Date", Type: Text, Value: func(g types.GroupedRecord) any { return g.Date }},
	}
	if withEmployee {
		cols = append(cols, Column[types.GroupedRecord]{
			Key: "employeeName", Label: "Name", Type: Text,
			Value: func(g types.GroupedRecord) any { return g.EmployeeName },
		})
	}
	cols = append(cols,
		Column[types.GroupedRecord]{Key: "totalDrops", Label: "Total Drops", Type: Number, Value: func(g types.GroupedRecord) any { return g.TotalDrops }},
		Column[types.GroupedRecord]{Key: "multiDrops", Label: "Multi Drops", Type: Number, Value: func(g types.GroupedRecord) any { return g.MultiDrops }},
		Column[types.GroupedRecord]{Key: "heavyDrops", Label: "Heavy Drops", Type: Number, Value: func(g types.GroupedRecord) any { return g.HeavyDrops }},
		Column[types.GroupedRecord]{Key: "walkupDrops", Label: "Walkup Drops", Type: Number, Value: func(g types.GroupedRecord) any { return g.WalkupDrops }},
		Column[types.GroupedRecord]{Key: "doubleDrops", Label: "Double Drops", Type: Number, Value: func(g types.GroupedRecord) any { return g.DoubleDrops }},
		Column[types.GroupedRecord]{Key: "dropCount", Label: "Drop Count", Type: Number, Value: func(g types.GroupedRecord) any { return g.DropCount }},
		Column[types.GroupedRecord]{Key: "records", Label: "Records", Type: Number, Value: func(g types.GroupedRecord) any { return float64(g.Records) }},
	)
	if includeAmount {
		cols = append(cols, Column[types.GroupedRecord]{
			Key: "amount", Label: "Amount", Type: Number,
			Value: func(g types.GroupedRecord) any { return g.Amount },
		})
	}
	return cols
}

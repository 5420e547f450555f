package types

import "time"

// DropRecord is one normalized row of drop data
type DropRecord struct {
	Timestamp    string            `json:"timestamp"`
	EmployeeName string            `json:"employeeName"`
	EmployeeKey  string            `json:"employeeKey"`
	EmployeeID   string            `json:"employeeId,omitempty"`
	Date         string            `json:"date"`
	Shift        string            `json:"shift"`
	TotalDrops   float64           `json:"totalDrops"`
	MultiDrops   float64           `json:"multiDrops"`
	HeavyDrops   float64           `json:"heavyDrops"`
	WalkupDrops  float64           `json:"walkupDrops"`
	DoubleDrops  float64           `json:"doubleDrops"`
	DropCount    float64           `json:"dropCount"`
	Amount       *float64          `json:"amount,omitempty"`
	Email        string            `json:"email"`
	Month        string            `json:"month"`
	WaybillPhoto string            `json:"waybillPhoto,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// SingleDrops is the derived single-drop count. It is negative when the
// sub-categories exceed the total.
func (r DropRecord) SingleDrops() float64 {
	return r.TotalDrops - r.MultiDrops - r.HeavyDrops - r.DoubleDrops
}

// AmountValue returns the amount, or 0 when it is omitted
func (r DropRecord) AmountValue() float64 {
	if r.Amount == nil {
		return 0
	}
	return *r.Amount
}

// WithoutAmount returns a copy of the record with the amount removed
func (r DropRecord) WithoutAmount() DropRecord {
	r.Amount = nil
	return r
}

// Trend compares an employee's total against the cross-employee mean
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// DropCategory names a drop-type bucket
type DropCategory string

const (
	CategorySingle DropCategory = "Single Drops"
	CategoryMulti  DropCategory = "Multi Drops"
	CategoryHeavy  DropCategory = "Heavy Drops"
	CategoryWalkup DropCategory = "Walkup Drop Count"
	CategoryDouble DropCategory = "Double Drop Count"
)

// CategoryCount is one entry of an ordered drop-type breakdown
type CategoryCount struct {
	Category DropCategory `json:"category"`
	Value    float64      `json:"value"`
}

// EmployeeAggregate summarizes every filtered record of one employee
type EmployeeAggregate struct {
	Key                 string             `json:"key"`
	Name                string             `json:"name"`
	EmployeeID          string             `json:"employeeId,omitempty"`
	Initials            string             `json:"initials"`
	Color               string             `json:"color"`
	TotalDrops          float64            `json:"totalDrops"`
	MultiDrops          float64            `json:"multiDrops"`
	HeavyDrops          float64            `json:"heavyDrops"`
	WalkupDrops         float64            `json:"walkupDrops"`
	DoubleDrops         float64            `json:"doubleDrops"`
	Amount              *float64           `json:"amount,omitempty"`
	DailyTotals         map[string]float64 `json:"dailyTotals"`
	DropTypeBreakdown   []CategoryCount    `json:"dropTypeBreakdown"`
	Shifts              []string           `json:"shifts"`
	HireDate            *time.Time         `json:"hireDate,omitempty"`
	DaysCovered         int                `json:"daysCovered"`
	AverageDropsPerDay  float64            `json:"averageDropsPerDay"`
	AverageAmountPerDay *float64           `json:"averageAmountPerDay,omitempty"`
	PercentageOfTotal   float64            `json:"percentageOfTotal"`
	TrendDirection      Trend              `json:"trendDirection"`

	// Records points into the filtered record set. Read only.
	Records []*DropRecord `json:"-"`
}

// Breakdown returns the value of one category, 0 when absent
func (a EmployeeAggregate) Breakdown(c DropCategory) float64 {
	for _, entry := range a.DropTypeBreakdown {
		if entry.Category == c {
			return entry.Value
		}
	}
	return 0
}

// WithoutAmount returns a copy with the monetary fields removed
func (a EmployeeAggregate) WithoutAmount() EmployeeAggregate {
	a.Amount = nil
	a.AverageAmountPerDay = nil
	return a
}

// GroupedRecord is a flattened sum row keyed by date or date and employee
type GroupedRecord struct {
	Date         string   `json:"date"`
	EmployeeName string   `json:"employeeName,omitempty"`
	TotalDrops   float64  `json:"totalDrops"`
	MultiDrops   float64  `json:"multiDrops"`
	HeavyDrops   float64  `json:"heavyDrops"`
	WalkupDrops  float64  `json:"walkupDrops"`
	DoubleDrops  float64  `json:"doubleDrops"`
	DropCount    float64  `json:"dropCount"`
	Amount       *float64 `json:"amount,omitempty"`
	Records      int      `json:"records"`
}

// WithoutAmount returns a copy with the amount removed
func (g GroupedRecord) WithoutAmount() GroupedRecord {
	g.Amount = nil
	return g
}

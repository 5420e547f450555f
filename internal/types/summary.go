package types

// Summary holds the dashboard KPI totals for a filtered record set
type Summary struct {
	TotalDrops      float64  `json:"totalDrops"`
	MultiDrops      float64  `json:"multiDrops"`
	HeavyDrops      float64  `json:"heavyDrops"`
	WalkupDrops     float64  `json:"walkupDrops"`
	DoubleDrops     float64  `json:"doubleDrops"`
	Amount          *float64 `json:"amount,omitempty"`
	ActiveEmployees int      `json:"activeEmployees"`
	ActiveDays      int      `json:"activeDays"`
	RecordCount     int      `json:"recordCount"`
}

// SingleDrops is the dashboard-level single bucket: total minus every other
// category, walkups included
func (s Summary) SingleDrops() float64 {
	return s.TotalDrops - s.MultiDrops - s.HeavyDrops - s.WalkupDrops - s.DoubleDrops
}

// EmployeeStanding is a per-name total used by the top performer and
// underperformer lists
type EmployeeStanding struct {
	Name         string      `json:"name"`
	TotalDrops   float64     `json:"totalDrops"`
	AverageDrops float64     `json:"averageDrops"`
	Records      int         `json:"records"`
	Shifts       []string    `json:"shifts"`
	Latest       *DropRecord `json:"latest,omitempty"`
}

// LabeledValue is one point of an ordered label -> value series
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

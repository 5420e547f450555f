package dashboard

import (
	"time"

	"github.com/dennisdiepolder/dropboard/internal/aggregator"
	"github.com/dennisdiepolder/dropboard/internal/alerts"
	"github.com/dennisdiepolder/dropboard/internal/charts"
	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/daterange"
	"github.com/dennisdiepolder/dropboard/internal/filter"
	"github.com/dennisdiepolder/dropboard/internal/table"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// Identity is the signed-in user as seen by the pipeline
type Identity struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// Scope returns the record scope for the identity
func (id Identity) Scope() filter.Scope {
	if id.IsAdmin {
		return filter.ScopeAll
	}
	return filter.ScopeOwn
}

// Options are the pipeline settings shared by every view
type Options struct {
	Location                *time.Location
	UnderperformerThreshold float64
	RecentLimit             int
	PageSize                int
}

// DefaultOptions returns the stock pipeline settings
func DefaultOptions() Options {
	return Options{
		Location:                time.Local,
		UnderperformerThreshold: aggregator.DefaultUnderperformerThreshold,
		RecentLimit:             aggregator.DefaultRecentLimit,
		PageSize:                table.DefaultPageSize,
	}
}

// Inputs is everything one pipeline pass reads
type Inputs struct {
	Records  []types.DropRecord
	Identity Identity
	Range    daterange.Range
	Bounds   daterange.Bounds
	Query    filter.Query
	Selected string
	// Table carries column filters, sort and search. Nil means defaults.
	Table *table.Projector[types.DropRecord]
	Page  int
	// Grouped does the same for the by-date table
	Grouped     *table.Projector[types.GroupedRecord]
	GroupedPage int
	// Error is the message of the last failed fetch, if any
	Error string
}

// Charts are the chart-ready series of one pass
type Charts struct {
	DailyTrend        charts.Series `json:"dailyTrend"`
	DropTypes         charts.Series `json:"dropTypes"`
	MonthlyTotals     charts.Series `json:"monthlyTotals"`
	MonthlyAverages   charts.Series `json:"monthlyAverages"`
	WalkupByShift     charts.Series `json:"walkupByShift"`
	DropsByShift      charts.Series `json:"dropsByShift"`
	DropsByEmployee   charts.Series `json:"dropsByEmployee"`
	EmployeeDaily     charts.Series `json:"employeeDaily"`
	EmployeeDropTypes charts.Series `json:"employeeDropTypes"`
}

// TableView is one projected, paginated table
type TableView[T any] struct {
	Columns []table.Column[T] `json:"columns"`
	Filters map[string]string `json:"filters"`
	Sort    table.SortState   `json:"sort"`
	Search  string            `json:"search,omitempty"`
	table.Page[T]
}

func project[T any](p *table.Projector[T], rows []T, page, size int) TableView[T] {
	return TableView[T]{
		Columns: p.Columns(),
		Filters: p.Filters(),
		Sort:    p.Sort(),
		Search:  p.Search(),
		Page:    table.Paginate(p.Apply(rows), page, size),
	}
}

// GroupedProjector returns the by-date table projector for identity. Admins
// get one row per date and employee, users one row per date.
func GroupedProjector(identity Identity) *table.Projector[types.GroupedRecord] {
	return table.NewProjector(table.GroupedColumns(identity.IsAdmin, identity.IsAdmin))
}

// Snapshot is the full output of one pipeline pass
type Snapshot struct {
	Range            daterange.Range                `json:"range"`
	Bounds           daterange.Bounds               `json:"bounds"`
	Query            filter.Query                   `json:"query"`
	Error            string                         `json:"error,omitempty"`
	IdentityFailOpen bool                           `json:"identityFailOpen"`
	Summary          types.Summary                  `json:"summary"`
	TopPerformer     *types.EmployeeStanding        `json:"topPerformer,omitempty"`
	Underperformers  []types.EmployeeStanding       `json:"underperformers"`
	Recent           []types.DropRecord             `json:"recent"`
	Employees        []types.EmployeeAggregate      `json:"employees"`
	Selected         string                         `json:"selected,omitempty"`
	SelectedEmployee *types.EmployeeAggregate       `json:"selectedEmployee,omitempty"`
	ByDate           []types.GroupedRecord          `json:"byDate"`
	ByDateEmployee   []types.GroupedRecord          `json:"byDateEmployee"`
	Alerts           []types.Alert                  `json:"alerts"`
	Charts           Charts                         `json:"charts"`
	Table            TableView[types.DropRecord]    `json:"table"`
	GroupedTable     TableView[types.GroupedRecord] `json:"groupedTable"`

	// Records is the filtered set the snapshot was derived from
	Records []types.DropRecord `json:"-"`
}

// Compute runs one full pipeline pass. It does not modify its inputs and
// gives the same output for the same inputs.
func Compute(in Inputs, opts Options, logger zerolog.Logger) Snapshot {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	res := filter.Apply(in.Records, in.Identity.Scope(), in.Identity.Email, in.Bounds, loc, logger)
	records := filter.ByQuery(res.Records, in.Query)
	if !in.Identity.IsAdmin {
		records = redact(records)
	}

	aggs := aggregator.ByEmployee(records, loc)
	selected := aggregator.ResolveSelection(in.Selected, aggs)

	snap := Snapshot{
		Range:            in.Range,
		Bounds:           in.Bounds,
		Query:            in.Query,
		Error:            in.Error,
		IdentityFailOpen: res.IdentityFailOpen,
		Summary:          aggregator.Summarize(records),
		TopPerformer:     aggregator.TopPerformer(records),
		Underperformers:  aggregator.Underperformers(records, opts.UnderperformerThreshold),
		Recent:           aggregator.Recent(records, opts.RecentLimit),
		Employees:        aggs,
		Selected:         selected,
		ByDate:           aggregator.ByDate(records, false, loc),
		ByDateEmployee:   aggregator.ByDate(records, true, loc),
		Alerts:           alerts.CheckEmployeeAlerts(aggs, opts.UnderperformerThreshold),
		Records:          records,
	}

	monthlyTotals := aggregator.MonthlyTotals(records)
	monthlyAverages := aggregator.MonthlyAverages(records)
	snap.Charts = Charts{
		DailyTrend: charts.DailyTrend(records, func(r types.DropRecord) (string, bool) {
			d, ok := filter.RecordDate(r, loc)
			if !ok {
				return "", false
			}
			return coerce.DateKey(d), true
		}),
		DropTypes:       charts.DropTypes(snap.Summary),
		MonthlyTotals:   charts.MonthlyLine(monthlyTotals, "Total Drops"),
		MonthlyAverages: charts.MonthlyLine(monthlyAverages, "Average Drops per Employee"),
		WalkupByShift: charts.Bar(records,
			func(r types.DropRecord) string { return r.Shift },
			func(r types.DropRecord) float64 { return r.WalkupDrops },
			"Walkup Drops by Shift", charts.ShiftColor),
		DropsByShift:      charts.ShiftBar(records),
		DropsByEmployee:   charts.EmployeeBar(records),
		EmployeeDaily:     charts.Line(nil, "Daily Drops"),
		EmployeeDropTypes: charts.Pie(nil, charts.DropTypePalette, "Drop Types"),
	}
	if agg, ok := aggregator.Find(aggs, selected); ok {
		snap.SelectedEmployee = &agg
		snap.Charts.EmployeeDaily = charts.EmployeeDaily(agg)
		snap.Charts.EmployeeDropTypes = charts.EmployeeDropTypes(agg)
	}

	projector := in.Table
	if projector == nil {
		projector = table.NewProjector(table.RecordColumns(in.Identity.IsAdmin))
	}
	snap.Table = project(projector, records, in.Page, opts.PageSize)

	grouped := in.Grouped
	if grouped == nil {
		grouped = GroupedProjector(in.Identity)
	}
	groupedRows := snap.ByDate
	if in.Identity.IsAdmin {
		groupedRows = snap.ByDateEmployee
	}
	snap.GroupedTable = project(grouped, groupedRows, in.GroupedPage, opts.PageSize)

	return snap
}

func redact(records []types.DropRecord) []types.DropRecord {
	out := make([]types.DropRecord, len(records))
	for i, r := range records {
		out[i] = r.WithoutAmount()
	}
	return out
}

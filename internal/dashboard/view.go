package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/daterange"
	"github.com/dennisdiepolder/dropboard/internal/filter"
	"github.com/dennisdiepolder/dropboard/internal/normalize"
	"github.com/dennisdiepolder/dropboard/internal/source"
	"github.com/dennisdiepolder/dropboard/internal/table"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// Kind picks the fallback message a view shows on fetch failure
type Kind string

const (
	KindDashboard   Kind = "dashboard"
	KindPerformance Kind = "performance"
)

// Fallback returns the generic fetch error text for the kind
func (k Kind) Fallback() string {
	if k == KindPerformance {
		return source.PerformanceFallbackMessage
	}
	return source.DashboardFallbackMessage
}

// ParseKind maps a request value to a Kind, defaulting to the dashboard
func ParseKind(s string) Kind {
	if Kind(s) == KindPerformance {
		return KindPerformance
	}
	return KindDashboard
}

// Sources maps each view kind to its data source
type Sources map[Kind]source.Source

// For returns the source of kind, falling back to the dashboard source
func (s Sources) For(kind Kind) source.Source {
	if src, ok := s[kind]; ok && src != nil {
		return src
	}
	return s[KindDashboard]
}

// View is one live dashboard instance: its inputs plus the last fetched
// records. All methods are safe for concurrent use.
type View struct {
	mu sync.Mutex

	id        string
	kind      Kind
	identity  Identity
	selector  *daterange.Selector
	query     filter.Query
	selected  string
	projector *table.Projector[types.DropRecord]
	page      int
	grouped   *table.Projector[types.GroupedRecord]
	groupPage int

	records    []types.DropRecord
	err        string
	generation uint64
	loading    bool
	fetchedAt  time.Time

	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// ViewState is a view's inputs and fetch status alongside its snapshot
type ViewState struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	CustomStart string    `json:"customStart,omitempty"`
	CustomEnd   string    `json:"customEnd,omitempty"`
	CustomValid bool      `json:"customValid"`
	Loading     bool      `json:"loading"`
	FetchedAt   time.Time `json:"fetchedAt,omitempty"`
	Snapshot
}

// NewView creates a view with the default range and no records
func NewView(id string, kind Kind, identity Identity, opts Options, logger zerolog.Logger) *View {
	return &View{
		id:        id,
		kind:      kind,
		identity:  identity,
		selector:  daterange.NewSelector(opts.Location),
		projector: table.NewProjector(table.RecordColumns(identity.IsAdmin)),
		page:      1,
		grouped:   GroupedProjector(identity),
		groupPage: 1,
		records:   []types.DropRecord{},
		opts:      opts,
		logger:    logger.With().Str("component", "view").Str("view_id", id).Logger(),
		now:       time.Now,
	}
}

// ID returns the view id
func (v *View) ID() string {
	return v.id
}

// Kind returns the view kind
func (v *View) Kind() Kind {
	return v.kind
}

// Identity returns the identity the view was created for
func (v *View) Identity() Identity {
	return v.identity
}

// BeginFetch starts a fetch and returns its generation. Results of older
// generations are ignored once a newer fetch has begun.
func (v *View) BeginFetch() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.loading = true
	return v.generation
}

// DataArrived installs the records of fetch gen. It reports false when the
// result is stale.
func (v *View) DataArrived(gen uint64, payload types.SheetPayload) bool {
	records := normalize.Normalize(payload, v.opts.Location)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		v.logger.Debug().Uint64("generation", gen).Msg("discarding stale fetch result")
		return false
	}
	v.records = records
	v.err = ""
	v.loading = false
	v.fetchedAt = v.now()
	return true
}

// FetchFailed records the failure of fetch gen and clears the records so no
// stale data is shown. It reports false when the failure is stale.
func (v *View) FetchFailed(gen uint64, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return false
	}
	v.records = []types.DropRecord{}
	v.err = source.ErrorMessage(err, v.kind.Fallback())
	v.loading = false
	v.logger.Warn().Err(err).Uint64("generation", gen).Msg("fetch failed")
	return true
}

// Refresh fetches src and applies the result
func (v *View) Refresh(ctx context.Context, src source.Source) error {
	gen := v.BeginFetch()
	payload, err := src.Fetch(ctx)
	if err != nil {
		v.FetchFailed(gen, err)
		return err
	}
	v.DataArrived(gen, payload)
	return nil
}

// SetRange switches to a named range
func (v *View) SetRange(r daterange.Range) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selector.SetRange(r) {
		v.resetPages()
		return true
	}
	return false
}

// SetCustomDraft edits the custom bounds without applying them. Empty
// strings leave that side unchanged.
func (v *View) SetCustomDraft(start, end string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if start != "" {
		v.selector.SetCustomStart(start)
	}
	if end != "" {
		v.selector.SetCustomEnd(end)
	}
}

// ApplyCustom switches to the drafted custom range if it is valid
func (v *View) ApplyCustom() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selector.ApplyCustom() {
		v.resetPages()
		return true
	}
	return false
}

// Select chooses the employee shown in detail
func (v *View) Select(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = key
}

// SetQuery replaces the field filters
func (v *View) SetQuery(q filter.Query) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q
	v.resetPages()
}

// SetColumnFilter sets one table column filter
func (v *View) SetColumnFilter(key, value string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = 1
	return v.projector.SetFilter(key, value)
}

// ToggleSort advances the table sort on key
func (v *View) ToggleSort(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.projector.ToggleSort(key)
}

// SetSearch sets the table search text
func (v *View) SetSearch(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.projector.SetSearch(q)
	v.page = 1
}

// SetPage moves the table to page
func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
}

// SetGroupedFilter sets one by-date table column filter
func (v *View) SetGroupedFilter(key, value string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.groupPage = 1
	return v.grouped.SetFilter(key, value)
}

// ToggleGroupedSort advances the by-date table sort on key
func (v *View) ToggleGroupedSort(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.grouped.ToggleSort(key)
}

// SetGroupedPage moves the by-date table to page
func (v *View) SetGroupedPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.groupPage = page
}

// ClearFilters drops the column filters and search of both tables
func (v *View) ClearFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.projector.ClearFilters()
	v.grouped.ClearFilters()
	v.resetPages()
}

// ClearSort drops the sort of both tables
func (v *View) ClearSort() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.projector.ClearSort()
	v.grouped.ClearSort()
}

// resetPages must be called with mu held
func (v *View) resetPages() {
	v.page = 1
	v.groupPage = 1
}

// Records returns the records of the last successful fetch
func (v *View) Records() []types.DropRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.records
}

// State computes the view's snapshot from its current inputs
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	in := Inputs{
		Records:  v.records,
		Identity: v.identity,
		Range:    v.selector.Range,
		Bounds:   v.selector.Bounds(v.now()),
		Query:    v.query,
		Selected: v.selected,
		Table:    v.projector,
		Page:     v.page,
		Error:    v.err,

		Grouped:     v.grouped,
		GroupedPage: v.groupPage,
	}
	snap := Compute(in, v.opts, v.logger)
	// keep the fallback selection so later passes stay on the same employee
	if v.selected == "" {
		v.selected = snap.Selected
	}

	return ViewState{
		ID:          v.id,
		Kind:        v.kind,
		CustomStart: v.selector.CustomStart,
		CustomEnd:   v.selector.CustomEnd,
		CustomValid: v.selector.Valid(),
		Loading:     v.loading,
		FetchedAt:   v.fetchedAt,
		Snapshot:    snap,
	}
}

// ExportRows returns the view state together with every table row in
// display order, unpaginated
func (v *View) ExportRows() (ViewState, []types.DropRecord) {
	state := v.State()

	v.mu.Lock()
	defer v.mu.Unlock()
	return state, v.projector.Apply(state.Records)
}

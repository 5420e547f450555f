package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ColumnType decides how a column filters and sorts
type ColumnType string

const (
	Text   ColumnType = "text"
	Number ColumnType = "number"
)

// SortDirection is one of the three sort states
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultPageSize is the number of rows per page
const DefaultPageSize = 10

// Column describes one table column. Value returns nil for a missing cell.
type Column[T any] struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Type  ColumnType  `json:"type"`
	Value func(T) any `json:"-"`
}

// SortState is the active sort key and direction
type SortState struct {
	Key       string        `json:"key,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// Projector filters and sorts rows for display. Filter and sort state live
// until cleared. A Projector is not safe for concurrent use.
type Projector[T any] struct {
	columns []Column[T]
	filters map[string]string
	sort    SortState
	search  string
}

// NewProjector returns a projector over columns with no filters or sort
func NewProjector[T any](columns []Column[T]) *Projector[T] {
	return &Projector[T]{
		columns: columns,
		filters: make(map[string]string),
	}
}

// Columns returns the column definitions
func (p *Projector[T]) Columns() []Column[T] {
	return p.columns
}

// SetColumns swaps the column set. Filters and sort on columns that no
// longer exist are dropped.
func (p *Projector[T]) SetColumns(columns []Column[T]) {
	p.columns = columns
	for key := range p.filters {
		if _, ok := p.column(key); !ok {
			delete(p.filters, key)
		}
	}
	if _, ok := p.column(p.sort.Key); !ok {
		p.sort = SortState{}
	}
}

// SetFilter sets the filter for a column. An empty value removes it.
// Unknown columns are ignored.
func (p *Projector[T]) SetFilter(key, value string) bool {
	if _, ok := p.column(key); !ok {
		return false
	}
	if strings.TrimSpace(value) == "" {
		delete(p.filters, key)
		return true
	}
	p.filters[key] = value
	return true
}

// Filters returns a copy of the active column filters
func (p *Projector[T]) Filters() map[string]string {
	out := make(map[string]string, len(p.filters))
	for k, v := range p.filters {
		out[k] = v
	}
	return out
}

// ClearFilters removes every column filter and the search text
func (p *Projector[T]) ClearFilters() {
	p.filters = make(map[string]string)
	p.search = ""
}

// SetSearch sets the text matched against every column
func (p *Projector[T]) SetSearch(q string) {
	p.search = strings.TrimSpace(q)
}

// Search returns the global search text
func (p *Projector[T]) Search() string {
	return p.search
}

// ToggleSort advances the sort state for key. A new key starts ascending;
// the same key goes ascending, descending, then unsorted.
func (p *Projector[T]) ToggleSort(key string) bool {
	if _, ok := p.column(key); !ok {
		return false
	}
	if p.sort.Key != key {
		p.sort = SortState{Key: key, Direction: SortAsc}
		return true
	}
	switch p.sort.Direction {
	case SortAsc:
		p.sort.Direction = SortDesc
	case SortDesc:
		p.sort = SortState{}
	default:
		p.sort.Direction = SortAsc
	}
	return true
}

// SetSort sets the sort state directly
func (p *Projector[T]) SetSort(key string, dir SortDirection) bool {
	if dir == SortNone {
		p.sort = SortState{}
		return true
	}
	if _, ok := p.column(key); !ok || (dir != SortAsc && dir != SortDesc) {
		return false
	}
	p.sort = SortState{Key: key, Direction: dir}
	return true
}

// Sort returns the active sort state
func (p *Projector[T]) Sort() SortState {
	return p.sort
}

// ClearSort removes the active sort
func (p *Projector[T]) ClearSort() {
	p.sort = SortState{}
}

// Apply returns the rows that pass every filter, sorted by the active key.
// The input is not modified.
func (p *Projector[T]) Apply(rows []T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if p.matches(row) {
			out = append(out, row)
		}
	}

	col, ok := p.column(p.sort.Key)
	if !ok || p.sort.Direction == SortNone {
		return out
	}

	desc := p.sort.Direction == SortDesc
	var cmp func(a, b any) int
	if col.Type == Number {
		cmp = compareNumbers
	} else {
		c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase, collate.IgnoreDiacritics)
		cmp = func(a, b any) int { return c.CompareString(cellText(a), cellText(b)) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := col.Value(out[i]), col.Value(out[j])
		// missing cells sink to the bottom in either direction
		if isNil(a) || isNil(b) {
			return !isNil(a) && isNil(b)
		}
		c := cmp(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func (p *Projector[T]) matches(row T) bool {
	for key, want := range p.filters {
		col, ok := p.column(key)
		if !ok {
			continue
		}
		if !matchCell(col.Type, col.Value(row), want) {
			return false
		}
	}
	if p.search == "" {
		return true
	}
	needle := strings.ToLower(p.search)
	for _, col := range p.columns {
		v := col.Value(row)
		if !isNil(v) && strings.Contains(strings.ToLower(cellText(v)), needle) {
			return true
		}
	}
	return false
}

func (p *Projector[T]) column(key string) (Column[T], bool) {
	if key == "" {
		return Column[T]{}, false
	}
	for _, c := range p.columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

func matchCell(typ ColumnType, cell any, want string) bool {
	if typ == Number {
		// both sides coerce, so "abc" filters for zero
		if isNil(cell) {
			return false
		}
		return coerce.EnsureNumber(cell) == coerce.EnsureNumber(want)
	}
	if isNil(cell) {
		return false
	}
	return strings.Contains(strings.ToLower(cellText(cell)), strings.ToLower(strings.TrimSpace(want)))
}

func compareNumbers(a, b any) int {
	d := coerce.EnsureNumber(a) - coerce.EnsureNumber(b)
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(*float64); ok {
		return f == nil
	}
	return false
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Page is one page of rows
type Page[T any] struct {
	Rows       []T `json:"rows"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalRows  int `json:"totalRows"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices rows into page (1-based). Out of range pages are clamped.
func Paginate[T any](rows []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(rows)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	out := make([]T, 0, end-start)
	out = append(out, rows[start:end]...)

	return Page[T]{Rows: out, Page: page, PageSize: size, TotalRows: total, TotalPages: pages}
}

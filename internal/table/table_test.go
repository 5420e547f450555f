package table

import (
	"testing"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

func amount(v float64) *float64 { return &v }

func rows() []types.DropRecord {
	return []types.DropRecord{
		{EmployeeName: "émile", Date: "2025-01-15", Shift: "Morning", TotalDrops: 20, Amount: amount(10)},
		{EmployeeName: "Bob", Date: "2025-01-16", Shift: "Evening", TotalDrops: 5},
		{EmployeeName: "alice", Date: "2025-01-17", Shift: "Morning", TotalDrops: 100, Amount: amount(30)},
		{EmployeeName: "Emp 10", Date: "2025-01-18", Shift: "Night", TotalDrops: 20},
		{EmployeeName: "Emp 9", Date: "2025-01-19", Shift: "Night", TotalDrops: 7},
	}
}

func names(rs []types.DropRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.EmployeeName
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestToggleSortCycle(t *testing.T) {
	p := NewProjector(RecordColumns(true))

	steps := []SortDirection{SortAsc, SortDesc, SortNone, SortAsc}
	for i, want := range steps {
		p.ToggleSort("totalDrops")
		if got := p.Sort().Direction; got != want {
			t.Errorf("toggle %d: expected %q, got %q", i+1, want, got)
		}
	}

	p.ToggleSort("employeeName")
	if s := p.Sort(); s.Key != "employeeName" || s.Direction != SortAsc {
		t.Errorf("new column should start ascending, got %+v", s)
	}

	if p.ToggleSort("nope") {
		t.Error("expected unknown column to be rejected")
	}
}

func TestSortText(t *testing.T) {
	p := NewProjector(RecordColumns(true))
	p.ToggleSort("employeeName")

	got := names(p.Apply(rows()))
	want := []string{"alice", "Bob", "émile", "Emp 9", "Emp 10"}
	if !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortNumberStable(t *testing.T) {
	p := NewProjector(RecordColumns(true))
	p.SetSort("totalDrops", SortDesc)

	got := names(p.Apply(rows()))
	want := []string{"alice", "émile", "Emp 10", "Emp 9", "Bob"}
	if !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortMissingCellsLast(t *testing.T) {
	p := NewProjector(RecordColumns(true))
	for _, dir := range []SortDirection{SortAsc, SortDesc} {
		p.SetSort("amount", dir)
		got := p.Apply(rows())
		if got[0].Amount == nil || got[1].Amount == nil {
			t.Errorf("%s: expected rows with amounts first, got %v", dir, names(got))
		}
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  []string
	}{
		{"text substring case-insensitive", "shift", "MORN", []string{"émile", "alice"}},
		{"number exact", "totalDrops", "20", []string{"émile", "Emp 10"}},
		{"number with spaces", "totalDrops", " 5 ", []string{"Bob"}},
		{"non-numeric number filter compares as zero", "totalDrops", "abc", []string{}},
		{"missing cell fails", "amount", "10", []string{"émile"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProjector(RecordColumns(true))
			if !p.SetFilter(tt.key, tt.value) {
				t.Fatalf("filter on %s rejected", tt.key)
			}
			got := names(p.Apply(rows()))
			if !equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNumberFilterCoercesBothSides(t *testing.T) {
	data := append(rows(), types.DropRecord{EmployeeName: "Idle", TotalDrops: 0})

	tests := []struct {
		value string
		want  []string
	}{
		{"abc", []string{"Idle"}},
		{"0", []string{"Idle"}},
		{"20.0", []string{"émile", "Emp 10"}},
	}
	for _, tt := range tests {
		p := NewProjector(RecordColumns(true))
		p.SetFilter("totalDrops", tt.value)
		if got := names(p.Apply(data)); !equal(got, tt.want) {
			t.Errorf("filter %q: expected %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestFilterThenSort(t *testing.T) {
	p := NewProjector(RecordColumns(true))
	p.SetFilter("shift", "night")
	p.ToggleSort("totalDrops")

	got := names(p.Apply(rows()))
	if !equal(got, []string{"Emp 9", "Emp 10"}) {
		t.Errorf("unexpected result %v", got)
	}

	p.ToggleSort("totalDrops")
	if p.Filters()["shift"] != "night" {
		t.Error("sorting should not touch filters")
	}

	p.ClearFilters()
	if len(p.Filters()) != 0 {
		t.Error("expected filters cleared")
	}
	if p.Sort().Direction != SortDesc {
		t.Error("clearing filters should keep the sort")
	}
	p.ClearSort()
	if p.Sort().Key != "" {
		t.Error("expected sort cleared")
	}
}

func TestSearch(t *testing.T) {
	p := NewProjector(RecordColumns(false))
	p.SetSearch("evening")
	if got := names(p.Apply(rows())); !equal(got, []string{"Bob"}) {
		t.Errorf("unexpected search result %v", got)
	}
	p.SetSearch("")
	if got := p.Apply(rows()); len(got) != 5 {
		t.Errorf("expected all rows without search, got %d", len(got))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := rows()
	p := NewProjector(RecordColumns(true))
	p.SetSort("totalDrops", SortAsc)
	p.Apply(in)
	if in[0].EmployeeName != "émile" {
		t.Error("input order changed")
	}
}

func TestSetColumnsDropsAmountState(t *testing.T) {
	p := NewProjector(RecordColumns(true))
	p.SetFilter("amount", "10")
	p.SetSort("amount", SortAsc)

	p.SetColumns(RecordColumns(false))
	if _, ok := p.Filters()["amount"]; ok {
		t.Error("expected amount filter dropped")
	}
	if p.Sort().Key != "" {
		t.Error("expected amount sort dropped")
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		page, size    int
		wantPage      int
		wantLen       int
		wantFirst     int
		wantTotalPage int
	}{
		{1, 0, 1, 10, 0, 3},
		{3, 10, 3, 3, 20, 3},
		{9, 10, 3, 3, 20, 3},
		{0, 5, 1, 5, 0, 5},
	}
	for _, tt := range tests {
		got := Paginate(items, tt.page, tt.size)
		if got.Page != tt.wantPage || len(got.Rows) != tt.wantLen || got.TotalPages != tt.wantTotalPage {
			t.Errorf("Paginate(%d,%d) = page %d len %d pages %d", tt.page, tt.size, got.Page, len(got.Rows), got.TotalPages)
		}
		if len(got.Rows) > 0 && got.Rows[0] != tt.wantFirst {
			t.Errorf("Paginate(%d,%d) first = %d, want %d", tt.page, tt.size, got.Rows[0], tt.wantFirst)
		}
	}

	empty := Paginate([]int{}, 1, 10)
	if empty.TotalPages != 1 || empty.Rows == nil || len(empty.Rows) != 0 {
		t.Errorf("unexpected empty page %+v", empty)
	}
}

func TestGroupedColumns(t *testing.T) {
	cols := GroupedColumns(false, true)
	for _, c := range cols {
		if c.Key == "amount" {
			t.Error("amount column should be hidden")
		}
	}
	if cols[1].Key != "employeeName" {
		t.Errorf("expected employee column second, got %s", cols[1].Key)
	}
}

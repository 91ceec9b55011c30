package pivot

import (
	"fmt"
	"sort"

	"gopivot/domain/dimension"
	"gopivot/internal"
)

const progressInterval = 100000

// FilterablePivot hides rows and columns of a delegate without touching it.
// Visible positions map to delegate indices through rowIndices and
// columnIndices, which only ever shrink.
type FilterablePivot struct {
	delegate Pivot

	rowIndices    []int
	columnIndices []int

	// bands of the delegate when the filter was created
	rows    []*Level
	columns []*Level

	// rebuilt on first read after a filter pass; nil means stale
	filteredRows    []*Level
	filteredColumns []*Level

	logger *internal.Logger
}

// NewFilterablePivot wraps delegate with every row and column visible.
func NewFilterablePivot(delegate Pivot) *FilterablePivot {
	if delegate == nil {
		panic("pivot: filterable pivot requires a delegate")
	}
	return &FilterablePivot{
		delegate:      delegate,
		rowIndices:    upto(delegate.RowCount()),
		columnIndices: upto(delegate.ColumnCount()),
		rows:          delegate.Rows(),
		columns:       delegate.Columns(),
		logger:        internal.NewComponentLogger("FilterablePivot"),
	}
}

func upto(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (f *FilterablePivot) RowCount() int { return len(f.rowIndices) }

func (f *FilterablePivot) ColumnCount() int { return len(f.columnIndices) }

func (f *FilterablePivot) HeaderAt(axis Axis, level, index int) *dimension.Node {
	if axis == RowAxis {
		return f.delegate.HeaderAt(axis, level, f.rowIndices[index])
	}
	return f.delegate.HeaderAt(axis, level, f.columnIndices[index])
}

// CellAt returns the delegate cell addressed by visible coordinates.
func (f *FilterablePivot) CellAt(row, column int) Cell {
	return f.delegate.CellAt(f.rowIndices[row], f.columnIndices[column]).At(row, column)
}

// CompanionsAt reads the delegate's companions at the visible position.
func (f *FilterablePivot) CompanionsAt(row, column int) Companions {
	return CompanionsAt(f.delegate, f.rowIndices[row], f.columnIndices[column])
}

func (f *FilterablePivot) MarkCellHidden(row, column int) {
	f.delegate.MarkCellHidden(f.rowIndices[row], f.columnIndices[column])
}

// UnderlyingRow returns the delegate index of visible row.
func (f *FilterablePivot) UnderlyingRow(row int) int { return f.rowIndices[row] }

// UnderlyingColumn returns the delegate index of visible column.
func (f *FilterablePivot) UnderlyingColumn(column int) int { return f.columnIndices[column] }

func (f *FilterablePivot) Rows() []*Level {
	if f.filteredRows == nil {
		f.filteredRows = f.visibleBands(RowAxis, f.rows, len(f.rowIndices))
	}
	return f.filteredRows
}

func (f *FilterablePivot) Columns() []*Level {
	if f.filteredColumns == nil {
		f.filteredColumns = f.visibleBands(ColumnAxis, f.columns, len(f.columnIndices))
	}
	return f.filteredColumns
}

// visibleBands keeps, per level, the band nodes addressed by some visible index.
func (f *FilterablePivot) visibleBands(axis Axis, bands []*Level, count int) []*Level {
	out := make([]*Level, len(bands))
	for l, band := range bands {
		shown := make([]*dimension.Node, 0, count)
		for i := 0; i < count; i++ {
			shown = append(shown, f.HeaderAt(axis, l, i))
		}
		out[l] = band.Clone()
		out[l].RetainAll(shown)
	}
	return out
}

// ApplyFilter applies a single predicate. A nil predicate panics.
func (f *FilterablePivot) ApplyFilter(p Predicate) {
	if p == nil {
		panic("pivot: applied filter must not be nil")
	}
	f.ApplyFilters([]Predicate{p})
}

// ApplyFilters hides every visible row and column that has no cell accepted
// by all predicates. Calls compose; an empty list is a no-op.
func (f *FilterablePivot) ApplyFilters(predicates []Predicate) {
	if len(predicates) == 0 {
		return
	}
	for i, p := range predicates {
		if p == nil {
			panic(fmt.Sprintf("pivot: filter %d must not be nil", i))
		}
	}
	f.logger.Debug("Applying %d filters, table size [%d, %d]", len(predicates), len(f.rowIndices), len(f.columnIndices))

	keepRows := make([]bool, len(f.rowIndices))
	keepColumns := make([]bool, len(f.columnIndices))

	switch {
	case len(f.columnIndices) == 0:
		f.filterSingleAxis(predicates, RowAxis, keepRows)
	case len(f.rowIndices) == 0:
		f.filterSingleAxis(predicates, ColumnAxis, keepColumns)
	default:
		f.filterAllCells(predicates, keepRows, keepColumns)
	}

	f.hide(unkept(keepRows), unkept(keepColumns))
}

func (f *FilterablePivot) filterAllCells(predicates []Predicate, keepRows, keepColumns []bool) {
	total := len(f.rowIndices) * len(f.columnIndices)
	progress := f.logger.DebugEnabled()
	evaluated := 0
	for column := range f.columnIndices {
		for row := range f.rowIndices {
			if accepts(predicates, f.CellAt(row, column)) {
				keepRows[row] = true
				keepColumns[column] = true
			}
			evaluated++
			if progress && evaluated%progressInterval == 0 {
				f.logger.Debug("Filter applied to %d cells / %d", evaluated, total)
			}
		}
	}
}

func (f *FilterablePivot) filterSingleAxis(predicates []Predicate, axis Axis, keep []bool) {
	for i := range keep {
		cell := SentinelCell(i, 0)
		if axis == ColumnAxis {
			cell = SentinelCell(0, i)
		}
		keep[i] = accepts(predicates, cell)
	}
}

func unkept(keep []bool) []int {
	var out []int
	for i, k := range keep {
		if !k {
			out = append(out, i)
		}
	}
	return out
}

// FilterHierarchy hides the rows and columns whose headers combine
// incoherent nodes of a dimension used on several levels of the same axis.
func (f *FilterablePivot) FilterHierarchy() {
	rows := pruneIncoherentAxisIndices(f.rows, len(f.rowIndices), func(level, index int) *dimension.Node {
		return f.HeaderAt(RowAxis, level, index)
	})
	columns := pruneIncoherentAxisIndices(f.columns, len(f.columnIndices), func(level, index int) *dimension.Node {
		return f.HeaderAt(ColumnAxis, level, index)
	})
	if len(rows) > 0 || len(columns) > 0 {
		f.logger.Debug("Hierarchy filter hides %d rows and %d columns", len(rows), len(columns))
	}
	f.hide(rows, columns)
}

// hide removes visible positions, highest first so pending positions stay
// valid, and reports every cell of a removed line to the delegate.
func (f *FilterablePivot) hide(rows, columns []int) {
	sort.Sort(sort.Reverse(sort.IntSlice(rows)))
	for _, i := range rows {
		row := f.rowIndices[i]
		f.rowIndices = append(f.rowIndices[:i], f.rowIndices[i+1:]...)
		for column := 0; column < f.delegate.ColumnCount(); column++ {
			f.delegate.MarkCellHidden(row, column)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(columns)))
	for _, i := range columns {
		column := f.columnIndices[i]
		f.columnIndices = append(f.columnIndices[:i], f.columnIndices[i+1:]...)
		for row := 0; row < f.delegate.RowCount(); row++ {
			f.delegate.MarkCellHidden(row, column)
		}
	}

	f.filteredRows = nil
	f.filteredColumns = nil
}

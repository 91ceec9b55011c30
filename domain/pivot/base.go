package pivot

import (
	"fmt"

	"gopivot/domain/dimension"
)

// BasePivot is the grid built from a query result. Rows and columns are the
// cartesian products of their header bands with the last band varying
// fastest. Cell values are looked up on access.
type BasePivot struct {
	dataset *Dataset
	rows    []*Level
	columns []*Level
	filters []*dimension.Node

	rowCount    int
	columnCount int

	hidden map[[2]int]struct{}
}

// NewBasePivot builds a grid over ds. Filter nodes address the dimensions
// that are not shown as headers.
func NewBasePivot(ds *Dataset, rows, columns []*Level, filters []*dimension.Node) *BasePivot {
	return &BasePivot{
		dataset:     ds,
		rows:        rows,
		columns:     columns,
		filters:     filters,
		rowCount:    productOf(rows),
		columnCount: productOf(columns),
		hidden:      make(map[[2]int]struct{}),
	}
}

func productOf(levels []*Level) int {
	if len(levels) == 0 {
		return 0
	}
	n := 1
	for _, l := range levels {
		n *= l.Len()
	}
	return n
}

func (p *BasePivot) RowCount() int { return p.rowCount }

func (p *BasePivot) ColumnCount() int { return p.columnCount }

func (p *BasePivot) Rows() []*Level { return p.rows }

func (p *BasePivot) Columns() []*Level { return p.columns }

func (p *BasePivot) HeaderAt(axis Axis, level, index int) *dimension.Node {
	levels, count := p.rows, p.rowCount
	if axis == ColumnAxis {
		levels, count = p.columns, p.columnCount
	}
	if index < 0 || index >= count {
		panic(fmt.Sprintf("pivot: %s index %d out of range [0,%d)", axis, index, count))
	}
	stride := 1
	for l := len(levels) - 1; l > level; l-- {
		stride *= levels[l].Len()
	}
	band := levels[level]
	return band.At((index / stride) % band.Len())
}

func (p *BasePivot) CellAt(row, column int) Cell {
	if v, ok := p.dataset.Get(p.coordinates(row, column)); ok {
		return NewCell(v, row, column)
	}
	return EmptyCell(row, column)
}

// coordinates merges filter nodes, then row headers, then column headers by
// dimension. Later nodes override earlier ones.
func (p *BasePivot) coordinates(row, column int) map[string]*dimension.Node {
	if row < 0 || row >= p.rowCount || column < 0 || column >= p.columnCount {
		panic(fmt.Sprintf("pivot: cell (%d,%d) out of range [%d,%d)", row, column, p.rowCount, p.columnCount))
	}
	coords := make(map[string]*dimension.Node, len(p.filters)+len(p.rows)+len(p.columns))
	for _, f := range p.filters {
		coords[f.Dimension().ID] = f
	}
	for l := range p.rows {
		n := p.HeaderAt(RowAxis, l, row)
		coords[n.Dimension().ID] = n
	}
	for l := range p.columns {
		n := p.HeaderAt(ColumnAxis, l, column)
		coords[n.Dimension().ID] = n
	}
	return coords
}

// CompanionsAt reads the confidence limits and sample size of the cell at
// (row, column) by swapping its measure node for each companion node.
func (p *BasePivot) CompanionsAt(row, column int) Companions {
	coords := p.coordinates(row, column)
	measure, ok := coords[dimension.MeasureDimension]
	if !ok {
		return Companions{}
	}
	lookup := func(companion *dimension.Node) string {
		if companion == nil {
			return ""
		}
		coords[dimension.MeasureDimension] = companion
		v, _ := p.dataset.Get(coords)
		return v
	}
	return Companions{
		CILower:    lookup(measure.ConfidenceLowerLimit()),
		CIUpper:    lookup(measure.ConfidenceUpperLimit()),
		SampleSize: lookup(measure.SampleSize()),
	}
}

func (p *BasePivot) MarkCellHidden(row, column int) {
	p.hidden[[2]int{row, column}] = struct{}{}
}

// IsCellHidden reports whether a decorator has marked the cell unreachable.
func (p *BasePivot) IsCellHidden(row, column int) bool {
	_, ok := p.hidden[[2]int{row, column}]
	return ok
}

// HiddenCellCount returns how many distinct cells have been marked hidden.
func (p *BasePivot) HiddenCellCount() int {
	return len(p.hidden)
}

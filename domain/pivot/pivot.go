package pivot

import (
	"strconv"
	"strings"

	"gopivot/domain/dimension"
)

// Axis selects the row or the column side of a pivot.
type Axis int

const (
	RowAxis Axis = iota
	ColumnAxis
)

func (a Axis) String() string {
	if a == RowAxis {
		return "row"
	}
	return "column"
}

// Pivot is the read contract shared by the base grid and its decorators.
// Out-of-range indices are programming errors and panic.
type Pivot interface {
	RowCount() int
	ColumnCount() int

	// HeaderAt returns the header node at level for the given row or column index.
	HeaderAt(axis Axis, level, index int) *dimension.Node
	CellAt(row, column int) Cell

	// Rows and Columns return the header bands, one Level per header level.
	Rows() []*Level
	Columns() []*Level

	// MarkCellHidden tells the grid a cell is no longer reachable. It must
	// not change anything the other methods return.
	MarkCellHidden(row, column int)
}

// Companions are the confidence limits and sample size published alongside
// a measure value. Missing figures are empty.
type Companions struct {
	CILower    string
	CIUpper    string
	SampleSize string
}

// IsEmpty reports whether no companion figure is present.
func (c Companions) IsEmpty() bool {
	return c.CILower == "" && c.CIUpper == "" && c.SampleSize == ""
}

// CompanionReader is implemented by grids that can read measure companions.
type CompanionReader interface {
	CompanionsAt(row, column int) Companions
}

// CompanionsAt returns the companions of a cell, or none when p cannot read them.
func CompanionsAt(p Pivot, row, column int) Companions {
	if r, ok := p.(CompanionReader); ok {
		return r.CompanionsAt(row, column)
	}
	return Companions{}
}

// Bands returns the header bands of axis.
func Bands(p Pivot, axis Axis) []*Level {
	if axis == RowAxis {
		return p.Rows()
	}
	return p.Columns()
}

// Count returns the number of rows or columns of axis.
func Count(p Pivot, axis Axis) int {
	if axis == RowAxis {
		return p.RowCount()
	}
	return p.ColumnCount()
}

// HeadersAt returns the header nodes of every level at index of axis.
func HeadersAt(p Pivot, axis Axis, index int) []*dimension.Node {
	levels := len(Bands(p, axis))
	out := make([]*dimension.Node, levels)
	for l := 0; l < levels; l++ {
		out[l] = p.HeaderAt(axis, l, index)
	}
	return out
}

// missingValue marks a suppressed or unavailable figure in fact tables.
const missingValue = ".."

// Cell is the value at a (row, column) coordinate.
type Cell struct {
	Value    string
	Row      int
	Column   int
	Sentinel bool

	present bool
}

// NewCell creates a cell holding value.
func NewCell(value string, row, column int) Cell {
	return Cell{Value: value, Row: row, Column: column, present: true}
}

// EmptyCell creates a cell for a coordinate without a fact.
func EmptyCell(row, column int) Cell {
	return Cell{Row: row, Column: column}
}

// SentinelCell creates the synthetic cell used when the opposing axis is empty.
func SentinelCell(row, column int) Cell {
	return Cell{Value: missingValue, Row: row, Column: column, Sentinel: true}
}

// At returns a copy of c addressed at (row, column).
func (c Cell) At(row, column int) Cell {
	c.Row = row
	c.Column = column
	return c
}

// HasValue reports whether the cell holds a figure.
func (c Cell) HasValue() bool {
	return c.present && strings.TrimSpace(c.Value) != "" && c.Value != missingValue
}

// Float parses the value as a number.
func (c Cell) Float() (float64, bool) {
	if !c.HasValue() {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(c.Value), ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsZero reports whether the value is numerically zero.
func (c Cell) IsZero() bool {
	v, ok := c.Float()
	return ok && v == 0
}

// Level is one header band: the ordered nodes of one header level.
type Level struct {
	nodes []*dimension.Node
}

// NewLevel creates a band from nodes in display order.
func NewLevel(nodes ...*dimension.Node) *Level {
	return &Level{nodes: append([]*dimension.Node(nil), nodes...)}
}

func (l *Level) Nodes() []*dimension.Node { return l.nodes }

func (l *Level) Len() int { return len(l.nodes) }

func (l *Level) At(i int) *dimension.Node { return l.nodes[i] }

// LastNode returns the bottom node of the band, or nil for an empty band.
func (l *Level) LastNode() *dimension.Node {
	if len(l.nodes) == 0 {
		return nil
	}
	return l.nodes[len(l.nodes)-1]
}

// Dimension returns the dimension of the band's nodes, or nil for an empty band.
func (l *Level) Dimension() *dimension.Dimension {
	if len(l.nodes) == 0 {
		return nil
	}
	return l.nodes[0].Dimension()
}

// Contains reports whether n is in the band.
func (l *Level) Contains(n *dimension.Node) bool {
	for _, m := range l.nodes {
		if m.Same(n) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the band.
func (l *Level) Clone() *Level {
	return NewLevel(l.nodes...)
}

// RetainAll keeps only the nodes present in keep, preserving band order.
func (l *Level) RetainAll(keep []*dimension.Node) {
	retained := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		retained[k.String()] = struct{}{}
	}
	out := l.nodes[:0]
	for _, n := range l.nodes {
		if _, ok := retained[n.String()]; ok {
			out = append(out, n)
		}
	}
	l.nodes = out
}

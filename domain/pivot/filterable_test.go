package pivot

import (
	"testing"

	"gopivot/domain/dimension"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hideEmptyAndZero() []Predicate {
	return []Predicate{HideEmpty(), HideZero()}
}

func TestApplyFiltersEmptyListIsNoOp(t *testing.T) {
	f := newCubeFixture(t)
	base := f.regionByYear(t)
	p := NewFilterablePivot(base)
	rowsBefore, columnsBefore := bandIDs(p.Rows()), bandIDs(p.Columns())

	p.ApplyFilters(nil)
	p.ApplyFilters([]Predicate{})

	assert.Equal(t, 6, p.RowCount())
	assert.Equal(t, 3, p.ColumnCount())
	assert.Equal(t, rowsBefore, bandIDs(p.Rows()))
	assert.Equal(t, columnsBefore, bandIDs(p.Columns()))
	assert.Zero(t, base.HiddenCellCount())
}

func TestApplyFiltersRejectsNilPredicate(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))

	assert.Panics(t, func() { p.ApplyFilter(nil) })
	assert.Panics(t, func() { p.ApplyFilters([]Predicate{HideEmpty(), nil}) })
	assert.Panics(t, func() { NewFilterablePivot(nil) })
}

func TestFilterHierarchyThenValues(t *testing.T) {
	f := newCubeFixture(t)
	base := f.regionByYear(t)
	p := NewFilterablePivot(base)

	p.FilterHierarchy()
	require.Equal(t, 3, p.RowCount())
	assert.Equal(t, [][]string{{"europe", "finland"}, {"europe", "sweden"}, {"asia", "japan"}}, rowHeaders(p))
	assert.Equal(t, [][]string{{"europe", "asia"}, {"finland", "sweden", "japan"}}, bandIDs(p.Rows()))
	assert.Equal(t, 3, p.ColumnCount())
	assert.Equal(t, 9, base.HiddenCellCount())

	p.ApplyFilters(hideEmptyAndZero())
	assert.Equal(t, [][]string{{"europe", "finland"}, {"europe", "sweden"}}, rowHeaders(p))
	assert.Equal(t, [][]string{{"europe"}, {"finland", "sweden"}}, bandIDs(p.Rows()))
	assert.Equal(t, [][]string{{"2019", "2020"}}, bandIDs(p.Columns()))
	assert.Equal(t, 14, base.HiddenCellCount())

	assert.Equal(t, 1, p.UnderlyingRow(1))
	assert.Equal(t, 1, p.UnderlyingColumn(1))
	cell := p.CellAt(1, 1)
	assert.Equal(t, "7", cell.Value)
	assert.Equal(t, 1, cell.Row)
	assert.Equal(t, 1, cell.Column)
}

func TestApplyFiltersIsIdempotent(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))

	p.ApplyFilters(hideEmptyAndZero())
	rows, columns := rowHeaders(p), bandIDs(p.Columns())

	p.ApplyFilters(hideEmptyAndZero())
	assert.Equal(t, rows, rowHeaders(p))
	assert.Equal(t, columns, bandIDs(p.Columns()))
}

func TestApplyFiltersLeavesNoLineWithoutPassingCell(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))
	predicates := hideEmptyAndZero()
	p.ApplyFilters(predicates)

	require.NotZero(t, p.RowCount())
	for r := 0; r < p.RowCount(); r++ {
		passing := false
		for c := 0; c < p.ColumnCount(); c++ {
			passing = passing || accepts(predicates, p.CellAt(r, c))
		}
		assert.True(t, passing, "row %d survived without a passing cell", r)
	}
	for c := 0; c < p.ColumnCount(); c++ {
		passing := false
		for r := 0; r < p.RowCount(); r++ {
			passing = passing || accepts(predicates, p.CellAt(r, c))
		}
		assert.True(t, passing, "column %d survived without a passing cell", c)
	}
}

func TestApplyFiltersComposesMonotonically(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))

	p.ApplyFilter(HideEmpty())
	afterEmpty := p.RowCount()
	assert.Equal(t, 2, p.ColumnCount(), "2021 has no facts")

	p.ApplyFilter(HideZero())
	assert.LessOrEqual(t, p.RowCount(), afterEmpty)

	p.ApplyFilter(func(Cell) bool { return true })
	assert.LessOrEqual(t, p.RowCount(), afterEmpty)
}

func TestApplyFiltersShortCircuitsInOrder(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))

	var second int
	p.ApplyFilters([]Predicate{
		func(Cell) bool { return false },
		func(Cell) bool { second++; return true },
	})
	assert.Zero(t, second)
	assert.Zero(t, p.RowCount())
	assert.Zero(t, p.ColumnCount())
	assert.Equal(t, [][]string{{}, {}}, bandIDs(p.Rows()))
}

func TestApplyFiltersSingleAxisCube(t *testing.T) {
	f := newCubeFixture(t)
	base := NewBasePivot(f.dataset, []*Level{f.level(t, "region", "finland", "sweden", "japan")}, nil, nil)
	p := NewFilterablePivot(base)
	present := map[int]bool{0: true, 2: true}

	var evaluated []Cell
	p.ApplyFilter(func(c Cell) bool {
		evaluated = append(evaluated, c)
		return present[c.Row]
	})

	assert.Len(t, evaluated, 3)
	for _, c := range evaluated {
		assert.True(t, c.Sentinel)
		assert.Zero(t, c.Column)
	}
	assert.Equal(t, 2, p.RowCount())
	assert.Equal(t, 0, p.ColumnCount())
	assert.Equal(t, [][]string{{"finland", "japan"}}, bandIDs(p.Rows()))
}

func TestApplyFiltersSingleColumnAxisCube(t *testing.T) {
	f := newCubeFixture(t)
	base := NewBasePivot(f.dataset, nil, []*Level{f.level(t, "time", "2019", "2020", "2021")}, nil)
	p := NewFilterablePivot(base)

	p.ApplyFilter(func(c Cell) bool { return c.Column != 1 })
	assert.Equal(t, 0, p.RowCount())
	assert.Equal(t, [][]string{{"2019", "2021"}}, bandIDs(p.Columns()))

	// sentinel cells pass the value predicates
	p.ApplyFilters(hideEmptyAndZero())
	assert.Equal(t, 2, p.ColumnCount())
}

func TestFilterHierarchyIgnoresSingleOccurrenceDimensions(t *testing.T) {
	f := newCubeFixture(t)
	base := NewBasePivot(f.dataset,
		[]*Level{f.level(t, "region", "finland", "japan"), f.level(t, "measure", "count")},
		[]*Level{f.level(t, "time", "2019", "2020", "2021")},
		nil)
	p := NewFilterablePivot(base)

	p.FilterHierarchy()
	assert.Equal(t, 2, p.RowCount())
	assert.Equal(t, 3, p.ColumnCount())
	assert.Zero(t, base.HiddenCellCount())
}

func TestFilterablePivotsStack(t *testing.T) {
	f := newCubeFixture(t)
	base := f.regionByYear(t)
	inner := NewFilterablePivot(base)
	inner.FilterHierarchy()

	outer := NewFilterablePivot(inner)
	assert.Equal(t, bandIDs(inner.Rows()), bandIDs(outer.Rows()))
	assert.Equal(t, rowHeaders(inner), rowHeaders(outer))

	outer.ApplyFilters(hideEmptyAndZero())
	assert.Equal(t, [][]string{{"europe", "finland"}, {"europe", "sweden"}}, rowHeaders(outer))
	assert.Equal(t, 3, inner.RowCount(), "decorating does not filter the wrapped pivot")
	assert.Equal(t, 14, base.HiddenCellCount(), "hidden cells reach the base grid")

	outer.MarkCellHidden(0, 0)
	assert.True(t, base.IsCellHidden(0, 0))
}

func TestHeaderReadsThroughIndirection(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))
	p.FilterHierarchy()

	var got []*dimension.Node
	for r := 0; r < p.RowCount(); r++ {
		got = append(got, p.HeaderAt(RowAxis, 1, r))
	}
	assert.Equal(t, []string{"finland", "sweden", "japan"}, ids(got))
	assert.Panics(t, func() { p.HeaderAt(RowAxis, 1, 3) })
}

package pivot

import (
	"testing"

	"gopivot/domain/dimension"

	"github.com/stretchr/testify/assert"
)

func TestIsImpossibleCombination(t *testing.T) {
	f := newCubeFixture(t)
	n := func(dim, id string) *dimension.Node { return f.node(t, dim, id) }

	tests := []struct {
		name       string
		nodes      []*dimension.Node
		impossible bool
	}{
		{"europe finland", []*dimension.Node{n("region", "europe"), n("region", "finland")}, false},
		{"europe sweden", []*dimension.Node{n("region", "europe"), n("region", "sweden")}, false},
		{"asia japan", []*dimension.Node{n("region", "asia"), n("region", "japan")}, false},
		{"europe japan", []*dimension.Node{n("region", "europe"), n("region", "japan")}, true},
		{"same node twice", []*dimension.Node{n("region", "finland"), n("region", "finland")}, false},
		{"child before parent", []*dimension.Node{n("region", "finland"), n("region", "world")}, false},
		{"distinct dimensions", []*dimension.Node{n("region", "japan"), n("time", "2019")}, false},
		{"three levels one stray", []*dimension.Node{n("region", "world"), n("region", "europe"), n("region", "japan")}, true},
		{"single node", []*dimension.Node{n("region", "japan")}, false},
		{"empty", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.impossible, IsImpossibleCombination(tc.nodes))
		})
	}
}

func TestHideImpossibleHierarchyPredicate(t *testing.T) {
	f := newCubeFixture(t)
	p := NewFilterablePivot(f.regionByYear(t))
	keep := HideImpossibleHierarchy(p)

	assert.True(t, keep(p.CellAt(0, 0)), "europe/finland")
	assert.False(t, keep(p.CellAt(2, 0)), "europe/japan")
	assert.False(t, keep(p.CellAt(3, 1)), "asia/finland")
	assert.True(t, keep(p.CellAt(5, 2)), "asia/japan")
}

func TestHideImpossibleHierarchyChecksColumns(t *testing.T) {
	f := newCubeFixture(t)
	base := NewBasePivot(f.dataset,
		[]*Level{f.level(t, "time", "2019", "2020")},
		[]*Level{f.level(t, "region", "europe", "asia"), f.level(t, "region", "finland", "japan")},
		[]*dimension.Node{f.node(t, "measure", "count")})
	p := NewFilterablePivot(base)

	p.ApplyFilter(HideImpossibleHierarchy(p))
	assert.Equal(t, 2, p.RowCount())
	assert.Equal(t, 2, p.ColumnCount())
	assert.Equal(t, [][]string{{"europe", "asia"}, {"finland", "japan"}}, bandIDs(p.Columns()))
	assert.Equal(t, "finland", p.HeaderAt(ColumnAxis, 1, 0).ID)
	assert.Equal(t, "japan", p.HeaderAt(ColumnAxis, 1, 1).ID)
}

func TestPruneIncoherentAxisIndices(t *testing.T) {
	f := newCubeFixture(t)
	base := f.regionByYear(t)
	header := func(level, index int) *dimension.Node { return base.HeaderAt(RowAxis, level, index) }

	hidden := pruneIncoherentAxisIndices(base.Rows(), base.RowCount(), header)
	// europe/japan is unrelated; asia is the last continent and pairs only with japan
	assert.Equal(t, []int{2, 3, 4}, hidden)
}

func TestPruneIncoherentAxisIndicesSkipsSingleOccurrenceDimensions(t *testing.T) {
	f := newCubeFixture(t)
	base := NewBasePivot(f.dataset,
		[]*Level{f.level(t, "region", "finland", "japan"), f.level(t, "time", "2019", "2020")},
		[]*Level{f.level(t, "measure", "count")},
		nil)
	header := func(level, index int) *dimension.Node { return base.HeaderAt(RowAxis, level, index) }

	assert.Empty(t, pruneIncoherentAxisIndices(base.Rows(), base.RowCount(), header))
	assert.Empty(t, pruneIncoherentAxisIndices(base.Columns(), base.ColumnCount(), func(level, index int) *dimension.Node {
		return base.HeaderAt(ColumnAxis, level, index)
	}))
}

func TestPruneIncoherentAxisIndicesLastNodeSentinel(t *testing.T) {
	f := newCubeFixture(t)
	// world closes the first band; pairing it with anything but the last
	// node of the second band is hidden even though world is an ancestor
	base := NewBasePivot(f.dataset,
		[]*Level{f.level(t, "region", "europe", "world"), f.level(t, "region", "finland", "sweden")},
		[]*Level{f.level(t, "time", "2019")},
		nil)
	header := func(level, index int) *dimension.Node { return base.HeaderAt(RowAxis, level, index) }

	// rows: europe/finland, europe/sweden, world/finland, world/sweden
	assert.Equal(t, []int{2}, pruneIncoherentAxisIndices(base.Rows(), base.RowCount(), header))
}

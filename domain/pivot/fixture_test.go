package pivot

import (
	"testing"

	"gopivot/domain/dimension"

	"github.com/stretchr/testify/require"
)

// cubeFixture is a three dimensional cube:
//
//	region: world -> {europe -> {finland, sweden}, asia -> {japan}}
//	time:   all -> {2019, 2020, 2021}
//	measure: all -> {count}
type cubeFixture struct {
	catalog *dimension.Catalog
	dataset *Dataset
}

func newCubeFixture(t *testing.T) *cubeFixture {
	t.Helper()
	c, err := dimension.BuildTree([]dimension.TreeRecord{
		{Dimension: "region", Level: "world", NodeID: "world"},
		{Dimension: "time", Level: "all", NodeID: "all"},
		{Dimension: "measure", Level: "all", NodeID: "all"},
		{Dimension: "region", Level: "continent", NodeID: "europe", ParentID: "world"},
		{Dimension: "region", Level: "continent", NodeID: "asia", ParentID: "world"},
		{Dimension: "time", Level: "year", NodeID: "2019", ParentID: "all"},
		{Dimension: "time", Level: "year", NodeID: "2020", ParentID: "all"},
		{Dimension: "time", Level: "year", NodeID: "2021", ParentID: "all"},
		{Dimension: "measure", Level: "measure", NodeID: "count", ParentID: "all"},
		{Dimension: "region", Level: "country", NodeID: "finland", ParentID: "europe"},
		{Dimension: "region", Level: "country", NodeID: "sweden", ParentID: "europe"},
		{Dimension: "region", Level: "country", NodeID: "japan", ParentID: "asia"},
	})
	require.NoError(t, err)

	f := &cubeFixture{catalog: c, dataset: NewDataset([]string{"region", "time", "measure"})}
	f.put(t, "5", "finland", "2019")
	f.put(t, "0", "finland", "2020")
	f.put(t, "7", "sweden", "2020")
	f.put(t, "0", "japan", "2019")
	f.put(t, "0", "japan", "2020")
	f.put(t, "12", "europe", "2020")
	return f
}

func (f *cubeFixture) put(t *testing.T, value, region, year string) {
	t.Helper()
	keys := []*dimension.Node{f.node(t, "region", region), f.node(t, "time", year), f.node(t, "measure", "count")}
	require.NoError(t, f.dataset.Put(value, keys))
}

func (f *cubeFixture) node(t *testing.T, dim, id string) *dimension.Node {
	t.Helper()
	n, err := f.catalog.Node(dim, id)
	require.NoError(t, err)
	return n
}

func (f *cubeFixture) level(t *testing.T, dim string, ids ...string) *Level {
	t.Helper()
	nodes := make([]*dimension.Node, len(ids))
	for i, id := range ids {
		nodes[i] = f.node(t, dim, id)
	}
	return NewLevel(nodes...)
}

// regionByYear has rows continent x country and columns 2019..2021.
func (f *cubeFixture) regionByYear(t *testing.T) *BasePivot {
	t.Helper()
	rows := []*Level{
		f.level(t, "region", "europe", "asia"),
		f.level(t, "region", "finland", "sweden", "japan"),
	}
	columns := []*Level{f.level(t, "time", "2019", "2020", "2021")}
	return NewBasePivot(f.dataset, rows, columns, []*dimension.Node{f.node(t, "measure", "count")})
}

func ids(nodes []*dimension.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func rowHeaders(p Pivot) [][]string {
	out := make([][]string, p.RowCount())
	for r := range out {
		out[r] = ids(HeadersAt(p, RowAxis, r))
	}
	return out
}

func bandIDs(levels []*Level) [][]string {
	out := make([][]string, len(levels))
	for i, l := range levels {
		out[i] = ids(l.Nodes())
	}
	return out
}

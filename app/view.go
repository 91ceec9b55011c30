package app

import (
	"gopivot/domain/dimension"
	"gopivot/domain/pivot"
)

// HeaderView is a node as shown in a header or filter.
type HeaderView struct {
	Dimension      string `json:"dimension"`
	DimensionLabel string `json:"dimensionLabel"`
	Node           string `json:"node"`
	Label          string `json:"label"`
	Surrogate      int    `json:"sid,omitempty"`
}

// BandView describes one header band.
type BandView struct {
	Dimension string `json:"dimension"`
	Label     string `json:"label"`
}

// CompanionView holds the confidence limits and sample size of one cell.
type CompanionView struct {
	CILower    string `json:"ciLower,omitempty"`
	CIUpper    string `json:"ciUpper,omitempty"`
	SampleSize string `json:"n,omitempty"`
}

// CubeView is a filtered cube ready for display. Cells[r][c] is "" where the
// cube has no value.
type CubeView struct {
	Cube        string         `json:"cube"`
	Name        string         `json:"name"`
	Locale      string         `json:"locale"`
	RowBands    []BandView     `json:"rowBands"`
	ColumnBands []BandView     `json:"columnBands"`
	Rows        [][]HeaderView `json:"rows"`
	Columns     [][]HeaderView `json:"columns"`
	Filters     []HeaderView   `json:"filters"`
	Cells       [][]string     `json:"cells"`
	// Companions parallels Cells and is only filled when value types are shown.
	Companions [][]CompanionView `json:"companions,omitempty"`
	// Empty is set when the selection admits no data at all.
	Empty bool `json:"empty"`
}

func headerView(n *dimension.Node, locale string) HeaderView {
	return HeaderView{
		Dimension:      n.Dimension().ID,
		DimensionLabel: n.Dimension().DisplayLabel(locale),
		Node:           n.ID,
		Label:          n.DisplayLabel(locale),
		Surrogate:      n.Surrogate,
	}
}

func bandViews(levels []*pivot.Level, locale string) []BandView {
	out := make([]BandView, 0, len(levels))
	for _, l := range levels {
		d := l.Dimension()
		if d == nil {
			out = append(out, BandView{})
			continue
		}
		label := d.DisplayLabel(locale)
		if n := l.At(0); n.Level() != nil && !n.Level().Label.IsEmpty() {
			label = n.Level().Label.Value(locale)
		}
		out = append(out, BandView{Dimension: d.ID, Label: label})
	}
	return out
}

// newCubeView reads the visible part of p.
func newCubeView(cube, name, locale string, p pivot.Pivot, filters []*dimension.Node, valueTypes bool) *CubeView {
	v := &CubeView{
		Cube:        cube,
		Name:        name,
		Locale:      locale,
		RowBands:    bandViews(p.Rows(), locale),
		ColumnBands: bandViews(p.Columns(), locale),
		Rows:        make([][]HeaderView, p.RowCount()),
		Columns:     make([][]HeaderView, p.ColumnCount()),
		Cells:       make([][]string, p.RowCount()),
	}
	for _, f := range filters {
		v.Filters = append(v.Filters, headerView(f, locale))
	}
	for r := range v.Rows {
		for _, n := range pivot.HeadersAt(p, pivot.RowAxis, r) {
			v.Rows[r] = append(v.Rows[r], headerView(n, locale))
		}
		v.Cells[r] = make([]string, p.ColumnCount())
		for c := range v.Cells[r] {
			v.Cells[r][c] = p.CellAt(r, c).Value
		}
		if valueTypes {
			v.Companions = append(v.Companions, companionViews(p, r))
		}
	}
	for c := range v.Columns {
		for _, n := range pivot.HeadersAt(p, pivot.ColumnAxis, c) {
			v.Columns[c] = append(v.Columns[c], headerView(n, locale))
		}
	}
	return v
}

func emptyCubeView(cube, name, locale string) *CubeView {
	return &CubeView{Cube: cube, Name: name, Locale: locale, Empty: true}
}

func companionViews(p pivot.Pivot, row int) []CompanionView {
	out := make([]CompanionView, p.ColumnCount())
	for c := range out {
		companions := pivot.CompanionsAt(p, row, c)
		out[c] = CompanionView{
			CILower:    companions.CILower,
			CIUpper:    companions.CIUpper,
			SampleSize: companions.SampleSize,
		}
	}
	return out
}

// HasValueTypes reports whether companion figures accompany the cells.
func (v *CubeView) HasValueTypes() bool {
	return len(v.Companions) > 0
}

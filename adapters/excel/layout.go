package excel

import (
	"gopivot/app"
)

// sheetLayout places a cube view on a grid. Rows and columns are zero-based.
//
//	title
//	filter dimension | filter node        (one row per filter)
//	                                       (blank)
//	             | column band label | column headers...
//	             |                   | value types...       (when shown)
//	row band labels
//	row headers...                  | cells...
type sheetLayout struct {
	cells       [][]string
	headerRow   int
	dataRow     int
	rowBands    int
	columnBands int
	// header rows above the row band labels, including the value type row
	headerRows int
	// sheet columns per view column
	width   int
	columns int
}

// valueTypeLabels head the sub-columns of each view column when companion
// figures are exported.
var valueTypeLabels = []string{"Value", "CI lower", "CI upper", "N"}

func newSheetLayout(view *app.CubeView) *sheetLayout {
	l := &sheetLayout{
		rowBands:    len(view.RowBands),
		columnBands: len(view.ColumnBands),
		headerRows:  len(view.ColumnBands),
		width:       1,
	}
	if view.HasValueTypes() {
		l.width = len(valueTypeLabels)
		l.headerRows++
	}
	l.columns = len(view.Columns) * l.width
	l.put(0, 0, view.Name)
	for i, f := range view.Filters {
		l.put(1+i, 0, f.DimensionLabel)
		l.put(1+i, 1, f.Label)
	}
	if view.Empty {
		return l
	}

	l.headerRow = len(view.Filters) + 2
	l.dataRow = l.headerRow + l.headerRows + 1
	first := l.firstDataColumn()

	for b, band := range view.ColumnBands {
		if l.rowBands > 0 {
			l.put(l.headerRow+b, l.rowBands-1, band.Label)
		}
		for c, headers := range view.Columns {
			for k := 0; k < l.width; k++ {
				l.put(l.headerRow+b, first+c*l.width+k, headers[b].Label)
			}
		}
	}
	if l.width > 1 {
		for c := range view.Columns {
			for k, label := range valueTypeLabels {
				l.put(l.headerRow+l.columnBands, first+c*l.width+k, label)
			}
		}
	}
	for b, band := range view.RowBands {
		l.put(l.dataRow-1, b, band.Label)
	}
	for r, headers := range view.Rows {
		for b, h := range headers {
			l.put(l.dataRow+r, b, h.Label)
		}
		for c, v := range view.Cells[r] {
			l.put(l.dataRow+r, first+c*l.width, v)
			if l.width > 1 {
				cv := view.Companions[r][c]
				l.put(l.dataRow+r, first+c*l.width+1, cv.CILower)
				l.put(l.dataRow+r, first+c*l.width+2, cv.CIUpper)
				l.put(l.dataRow+r, first+c*l.width+3, cv.SampleSize)
			}
		}
	}
	return l
}

func (l *sheetLayout) firstDataColumn() int {
	return l.rowBands
}

func (l *sheetLayout) put(row, col int, v string) {
	for len(l.cells) <= row {
		l.cells = append(l.cells, nil)
	}
	for len(l.cells[row]) <= col {
		l.cells[row] = append(l.cells[row], "")
	}
	l.cells[row][col] = v
}

// isData reports whether (row, col) holds a cell value rather than a label.
func (l *sheetLayout) isData(row, col int) bool {
	return l.dataRow > 0 && row >= l.dataRow && col >= l.firstDataColumn()
}

// runs returns the [start, end) spans of equal consecutive values in line
// from offset onwards. Single cells are not reported.
func runs(line []string, offset int) [][2]int {
	var out [][2]int
	start := offset
	for i := offset + 1; i <= len(line); i++ {
		if i < len(line) && line[i] == line[start] {
			continue
		}
		if i-start > 1 && line[start] != "" {
			out = append(out, [2]int{start, i})
		}
		start = i
	}
	return out
}

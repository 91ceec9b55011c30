package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopivot/app"
	"gopivot/internal"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "xlsx", "":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Exporter writes rendered cubes as spreadsheets.
type Exporter struct {
	logger *internal.Logger
}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{logger: internal.NewComponentLogger("Exporter")}
}

// Write encodes view in the given format.
func (e *Exporter) Write(w io.Writer, view *app.CubeView, format Format) error {
	switch format {
	case FormatCSV:
		return e.WriteCSV(w, view)
	case FormatXLSX:
		return e.WriteXLSX(w, view)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteCSV writes the laid out view as comma separated values.
func (e *Exporter) WriteCSV(w io.Writer, view *app.CubeView) error {
	l := newSheetLayout(view)
	cw := csv.NewWriter(w)
	for _, row := range l.cells {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the view to a single worksheet. Numeric cells are stored
// as numbers, repeated outer column headers are merged and the headers are
// frozen.
func (e *Exporter) WriteXLSX(w io.Writer, view *app.CubeView) error {
	start := time.Now()
	l := newSheetLayout(view)

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(view)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for r, row := range l.cells {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(l, r, c, v)); err != nil {
				return fmt.Errorf("failed to set %s: %w", cell, err)
			}
		}
	}

	if err := e.style(f, sheet, l); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Debug("Exported %s (%d rows) in %s", view.Cube, len(view.Rows), time.Since(start))
	return nil
}

func (e *Exporter) style(f *excelize.File, sheet string, l *sheetLayout) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return err
	}
	if l.dataRow == 0 {
		return nil
	}

	first := l.firstDataColumn()
	for b := 0; b < l.headerRows-1; b++ {
		row := l.headerRow + b
		for _, span := range runs(l.cells[row], first) {
			from, _ := excelize.CoordinatesToCellName(span[0]+1, row+1)
			to, _ := excelize.CoordinatesToCellName(span[1], row+1)
			if err := f.MergeCell(sheet, from, to); err != nil {
				return fmt.Errorf("failed to merge %s:%s: %w", from, to, err)
			}
		}
	}

	from, _ := excelize.CoordinatesToCellName(1, l.headerRow+1)
	to, _ := excelize.CoordinatesToCellName(max(first+l.columns, 1), l.dataRow)
	if err := f.SetCellStyle(sheet, from, to, bold); err != nil {
		return err
	}

	topLeft, _ := excelize.CoordinatesToCellName(first+1, l.dataRow+1)
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      first,
		YSplit:      l.dataRow,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	})
}

func cellValue(l *sheetLayout, r, c int, v string) interface{} {
	if !l.isData(r, c) {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

// sheetName derives a worksheet name from the cube, within Excel's limits.
func sheetName(view *app.CubeView) string {
	name := view.Name
	if name == "" {
		name = view.Cube
	}
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	if strings.TrimSpace(name) == "" {
		return "Sheet1"
	}
	return name
}

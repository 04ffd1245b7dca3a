// Package writer builds and persists per-group output workbooks.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/tiendc/go-deepcopy"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/models"
	"github.com/xuri/excelize/v2"
)

const (
	// HeaderFillColor is the solid navy fill applied to every output header cell.
	HeaderFillColor = "000080"
	// HeaderFontColor is the header font color (white, bold).
	HeaderFontColor = "FFFFFF"

	// widthPadding is added to the longest text in a column.
	widthPadding = 2

	defaultSheet = "Sheet1"
)

// Build creates a single-sheet workbook named sheetName holding the header
// row followed by rows, column-for-column in cell order.
func Build(sheetName string, header models.Row, rows []models.Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := writeRow(f, sheetName, 1, header, HeaderStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("header row: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(f, sheetName, i+2, row, CopyStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("source row %d: %w", row.R, err)
		}
	}

	for i, width := range ColumnWidths(header, rows) {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// Save writes f to path, creating parent directories as needed.
func Save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// ColumnWidths returns, per destination column, the length in characters
// of the longest text in that column (header included) plus padding,
// capped at excelize.MaxColumnWidth. Blank cells count as empty text.
func ColumnWidths(header models.Row, rows []models.Row) []float64 {
	maxLen := make([]int, len(header.Cells))
	measure := func(row models.Row) {
		for i, cell := range row.Cells {
			if i >= len(maxLen) {
				break
			}
			if n := utf8.RuneCountInString(cell.Text()); n > maxLen[i] {
				maxLen[i] = n
			}
		}
	}

	measure(header)
	for _, row := range rows {
		measure(row)
	}

	widths := make([]float64, len(maxLen))
	for i, n := range maxLen {
		widths[i] = min(float64(n+widthPadding), excelize.MaxColumnWidth)
	}
	return widths
}

// HeaderStyle derives the output header style from a source header style:
// border, alignment and number format are copied, fill and font are
// replaced by a solid navy fill and a bold white font.
func HeaderStyle(src *excelize.Style) (*excelize.Style, error) {
	style, err := CopyStyle(src)
	if err != nil {
		return nil, err
	}
	if style == nil {
		style = &excelize.Style{}
	}
	style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{HeaderFillColor}}
	style.Font = &excelize.Font{Bold: true, Color: HeaderFontColor}
	style.Protection = nil
	return style, nil
}

// CopyStyle returns an independent deep copy of src, nil for nil.
func CopyStyle(src *excelize.Style) (*excelize.Style, error) {
	if src == nil {
		return nil, nil
	}
	var dst excelize.Style
	if err := deepcopy.Copy(&dst, src); err != nil {
		return nil, fmt.Errorf("copy style: %w", err)
	}
	return &dst, nil
}

type styleFunc func(*excelize.Style) (*excelize.Style, error)

func writeRow(f *excelize.File, sheet string, rowNum int, row models.Row, styleOf styleFunc) error {
	for i, cell := range row.Cells {
		cellName, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}

		if err := writeValue(f, sheet, cellName, cell); err != nil {
			return err
		}

		style, err := styleOf(cell.Style)
		if err != nil {
			return err
		}
		if style == nil {
			continue
		}
		styleID, err := f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("style for %s: %w", cellName, err)
		}
		if err := f.SetCellStyle(sheet, cellName, cellName, styleID); err != nil {
			return err
		}
	}
	return nil
}

// writeValue stores the cell's value and formula. An error constant
// without a formula is written as a formula evaluating to that error,
// the only way excelize can store an error-typed cell.
func writeValue(f *excelize.File, sheet, cellName string, cell models.Cell) error {
	formula := cell.Formula
	switch v := cell.Value.(type) {
	case nil:
	case models.ErrorValue:
		if formula == "" {
			formula = string(v)
		}
	default:
		if err := f.SetCellValue(sheet, cellName, v); err != nil {
			return err
		}
	}
	if formula == "" {
		return nil
	}
	return f.SetCellFormula(sheet, cellName, formula)
}

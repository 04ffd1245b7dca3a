package parser

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/models"
	"github.com/xuri/excelize/v2"
)

// SheetReader reads typed, styled cells from one sheet of an open workbook.
// Resolved styles are cached by style ID, so cells returned by the reader
// may share a *excelize.Style; callers that mutate or persist a style must
// copy it first.
type SheetReader struct {
	f        *excelize.File
	sheet    string
	styles   map[int]*excelize.Style
	date1904 bool
}

// NewSheetReader creates a reader for sheetName. The sheet must exist.
func NewSheetReader(f *excelize.File, sheetName string) *SheetReader {
	r := &SheetReader{
		f:      f,
		sheet:  sheetName,
		styles: make(map[int]*excelize.Style),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// RowCount returns the index of the last row holding any value.
func (r *SheetReader) RowCount() (int, error) {
	rows, err := r.f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// RawValue returns the unformatted text of a cell, "" for a missing cell.
func (r *SheetReader) RawValue(col, row int) (string, error) {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	return r.f.GetCellValue(r.sheet, cellName, excelize.Options{RawCellValue: true})
}

// Cell reads value, formula and style of the cell at (col, row).
func (r *SheetReader) Cell(col, row int) (models.Cell, error) {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return models.Cell{}, err
	}

	raw, err := r.f.GetCellValue(r.sheet, cellName, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.Cell{}, err
	}
	cellType, err := r.f.GetCellType(r.sheet, cellName)
	if err != nil {
		return models.Cell{}, err
	}
	formula, err := r.f.GetCellFormula(r.sheet, cellName)
	if err != nil {
		return models.Cell{}, err
	}

	cell := models.Cell{
		Col:     col,
		Value:   typedValue(cellType, raw),
		Formula: formula,
	}

	styleID, err := r.f.GetCellStyle(r.sheet, cellName)
	if err != nil {
		return models.Cell{}, err
	}
	if styleID != 0 {
		style, err := r.style(styleID)
		if err != nil {
			return models.Cell{}, err
		}
		cell.Style = style
		if serial, ok := serialValue(cell.Value); ok && isDateStyle(style) {
			cell.Display = r.dateText(serial)
		}
	}

	return cell, nil
}

// Row reads the cells of one row restricted to cols, in cols order.
func (r *SheetReader) Row(row int, cols []int) (models.Row, error) {
	result := models.Row{R: row, Cells: make([]models.Cell, 0, len(cols))}
	for _, col := range cols {
		cell, err := r.Cell(col, row)
		if err != nil {
			return models.Row{}, err
		}
		result.Cells = append(result.Cells, cell)
	}
	return result, nil
}

func (r *SheetReader) style(id int) (*excelize.Style, error) {
	if s, ok := r.styles[id]; ok {
		return s, nil
	}
	s, err := r.f.GetStyle(id)
	if err != nil {
		return nil, err
	}
	r.styles[id] = s
	return s, nil
}

// dateText renders a date serial as text: serials below one day as a
// clock time, others as date and time. Invalid serials yield "".
func (r *SheetReader) dateText(serial float64) string {
	if serial >= 0 && serial < 1 {
		clock := time.Duration(math.Round(serial*86400000)) * time.Millisecond
		if clock < 24*time.Hour {
			return strings.TrimPrefix(models.FormatDateTime(time.Time{}.Add(clock)), "0001-01-01 ")
		}
	}
	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return ""
	}
	return models.FormatDateTime(t.Round(time.Millisecond))
}

func serialValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// isDateStyle reports whether style formats numbers as a date or time.
func isDateStyle(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case 14 <= id && id <= 22, 45 <= id && id <= 47:
		return true
	case 27 <= id && id <= 36, 50 <= id && id <= 58:
		// language specific date formats
		return true
	}
	return false
}

// isDateFormatCode reports whether the first section of a number format
// code holds a date or time token once literals, escapes and bracketed
// modifiers are skipped. Elapsed time brackets such as [h] count as time.
func isDateFormatCode(code string) bool {
	section, _, _ := strings.Cut(code, ";")
	for i := 0; i < len(section); i++ {
		switch c := section[i]; c {
		case '"':
			end := strings.IndexByte(section[i+1:], '"')
			if end < 0 {
				return false
			}
			i += end + 1
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(section[i:], ']')
			if end < 0 {
				return false
			}
			if inner := strings.ToLower(section[i+1 : i+end]); inner != "" && strings.Trim(inner, "hms") == "" {
				return true
			}
			i += end
		default:
			switch unicode.ToLower(rune(c)) {
			case 'd', 'm', 'y', 'h', 's':
				return true
			}
		}
	}
	return false
}

// isoLayouts are the forms of ISO 8601 stored in t="d" cells.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// typedValue converts raw cell text to the value type the cell stores.
// Blank cells map to nil.
func typedValue(cellType excelize.CellType, raw string) interface{} {
	if raw == "" {
		return nil
	}
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return numberValue(raw)
	case excelize.CellTypeError:
		return models.ErrorValue(raw)
	case excelize.CellTypeDate:
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
		return raw
	default:
		return raw
	}
}

// numberValue reads numeric cell text as int64 when it is integral and
// fits, float64 otherwise. Text that is not a number is kept as is.
func numberValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(raw, 64); err == nil {
		return x
	}
	return raw
}

// Package models defines data structures for grouped sheet splitting.
package models

import (
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrorValue is a cell holding an error constant such as "#N/A" or "#DIV/0!".
type ErrorValue string

// Cell represents a single source cell with its value and presentation attributes.
type Cell struct {
	// Col is the source column index (1-based).
	Col int `json:"col"`
	// Value is the typed cell value: string, int64, float64, bool, time.Time,
	// ErrorValue, or nil for a blank cell.
	Value interface{} `json:"value"`
	// Formula is the cell formula without the leading "=", empty if the cell holds a constant.
	Formula string `json:"formula,omitempty"`
	// Display is the date or time text of a numeric cell carrying a date
	// number format. Value keeps the serial number.
	Display string `json:"-"`
	// Style is the resolved cell style (font, fill, border, alignment, number format).
	// Nil when the cell uses the workbook default style.
	Style *excelize.Style `json:"-"`
}

// Text returns the string form of the cell content. Blank cells yield "".
func (c Cell) Text() string {
	if c.Formula != "" {
		return "=" + c.Formula
	}
	if c.Display != "" {
		return c.Display
	}
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return FormatDateTime(v)
	case ErrorValue:
		return string(v)
	default:
		return ""
	}
}

// FormatDateTime renders t as "2006-01-02 15:04:05", followed by six
// fractional digits when t has a sub-second part of at least a microsecond.
func FormatDateTime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format("2006-01-02 15:04:05.000000")
	}
	return t.Format("2006-01-02 15:04:05")
}

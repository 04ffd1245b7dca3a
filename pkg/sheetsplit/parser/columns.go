// Package parser provides excelize helpers for reading source sheets.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidColumn indicates a column letter that does not resolve to a positive column index.
var ErrInvalidColumn = errors.New("invalid column")

// ColumnError reports the offending column token.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid column %q", e.Column)
	}
	return fmt.Sprintf("invalid column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidColumn.
func (e *ColumnError) Is(target error) bool {
	return target == ErrInvalidColumn
}

// DefaultColumns returns the default selection, columns A through T.
func DefaultColumns() []string {
	cols, _ := ParseColumns("A-T")
	return cols
}

// ParseColumns parses a column selection such as "A-T" or "A,B,D-F"
// into an ordered list of upper-case column letters. Order is preserved
// and duplicates are kept, since the list defines destination order.
func ParseColumns(selection string) ([]string, error) {
	var letters []string
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		start, end, isRange := strings.Cut(part, "-")
		if !isRange {
			col := normalizeColumn(part)
			if _, err := columnIndex(col); err != nil {
				return nil, err
			}
			letters = append(letters, col)
			continue
		}

		from, err := columnIndex(normalizeColumn(start))
		if err != nil {
			return nil, err
		}
		to, err := columnIndex(normalizeColumn(end))
		if err != nil {
			return nil, err
		}
		if from > to {
			return nil, &ColumnError{Column: part, Err: errors.New("range start after end")}
		}
		for idx := from; idx <= to; idx++ {
			name, err := excelize.ColumnNumberToName(idx)
			if err != nil {
				return nil, &ColumnError{Column: part, Err: err}
			}
			letters = append(letters, name)
		}
	}

	if len(letters) == 0 {
		return nil, &ColumnError{Column: selection, Err: errors.New("no columns selected")}
	}
	return letters, nil
}

// ResolveColumns converts column letters to 1-based column indices.
func ResolveColumns(letters []string) ([]int, error) {
	indices := make([]int, 0, len(letters))
	for _, letter := range letters {
		idx, err := columnIndex(normalizeColumn(letter))
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func normalizeColumn(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func columnIndex(letter string) (int, error) {
	if letter == "" {
		return 0, &ColumnError{Column: letter, Err: errors.New("empty column name")}
	}
	idx, err := excelize.ColumnNameToNumber(letter)
	if err != nil {
		return 0, &ColumnError{Column: letter, Err: err}
	}
	if idx < 1 {
		return 0, &ColumnError{Column: letter}
	}
	return idx, nil
}

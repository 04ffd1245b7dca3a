package sheetsplit

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/parser"
)

// ErrInputRead indicates the input workbook could not be opened or is corrupt.
var ErrInputRead = errors.New("input workbook unreadable")

// ErrSheetNotFound indicates the configured sheet does not exist in the input workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrInvalidColumn indicates a selected column letter that does not resolve to a column index.
var ErrInvalidColumn = parser.ErrInvalidColumn

// ErrOutputWrite indicates an output workbook could not be built or persisted.
var ErrOutputWrite = errors.New("output write failed")

// InputError represents a failure to open the input workbook.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrInputRead, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrInputRead, e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Is matches ErrInputRead.
func (e *InputError) Is(target error) bool {
	return target == ErrInputRead
}

// GroupWriteError represents a failure to persist one group's workbook.
type GroupWriteError struct {
	Key  string
	Path string
	Err  error
}

func (e *GroupWriteError) Error() string {
	return fmt.Sprintf("%v for group %q (%s): %v", ErrOutputWrite, e.Key, e.Path, e.Err)
}

func (e *GroupWriteError) Unwrap() error {
	return e.Err
}

// Is matches ErrOutputWrite.
func (e *GroupWriteError) Is(target error) bool {
	return target == ErrOutputWrite
}

// NewGroupWriteError creates a new GroupWriteError.
func NewGroupWriteError(key, path string, err error) *GroupWriteError {
	return &GroupWriteError{
		Key:  key,
		Path: path,
		Err:  err,
	}
}

// Package sheetsplit splits a spreadsheet into one workbook per group key.
package sheetsplit

import (
	"github.com/rs/zerolog"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/parser"
)

const (
	// DefaultSheetName is the source sheet split by default.
	DefaultSheetName = "Energiesnoeier"
	// DefaultOutputSheet is the name of the single sheet in every output workbook.
	DefaultOutputSheet = "Data"
	// DefaultFilePrefix prefixes every output file name.
	DefaultFilePrefix = "Startstanden_"
	// DefaultKeyPosition is the 1-based position of the group key inside Columns.
	DefaultKeyPosition = 4
)

// Options configures a split run.
type Options struct {
	// SheetName is the source sheet to split.
	SheetName string
	// Columns lists the source column letters to copy, in destination order.
	Columns []string
	// KeyPosition is the 1-based position inside Columns holding the group key.
	// Zero means DefaultKeyPosition.
	KeyPosition int
	// OutputDir is the directory receiving one subfolder per group.
	OutputDir string
	// OutputSheet names the sheet of every output workbook.
	OutputSheet string
	// FilePrefix prefixes every output file name.
	FilePrefix string
	// ContinueOnError keeps processing remaining groups after an output write
	// failure. The default aborts on the first failure.
	ContinueOnError bool
	// Logger receives per-group events. If nil, nothing is logged.
	Logger *zerolog.Logger
}

// DefaultOptions returns default split options writing under outputDir.
func DefaultOptions(outputDir string) Options {
	return Options{
		SheetName:   DefaultSheetName,
		Columns:     parser.DefaultColumns(),
		KeyPosition: DefaultKeyPosition,
		OutputDir:   outputDir,
		OutputSheet: DefaultOutputSheet,
		FilePrefix:  DefaultFilePrefix,
	}
}

func (o Options) withDefaults() Options {
	if o.SheetName == "" {
		o.SheetName = DefaultSheetName
	}
	if len(o.Columns) == 0 {
		o.Columns = parser.DefaultColumns()
	}
	if o.KeyPosition == 0 {
		o.KeyPosition = DefaultKeyPosition
	}
	if o.OutputSheet == "" {
		o.OutputSheet = DefaultOutputSheet
	}
	if o.FilePrefix == "" {
		o.FilePrefix = DefaultFilePrefix
	}
	return o
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

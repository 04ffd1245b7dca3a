package sheetsplit

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/models"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/parser"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/writer"
	"github.com/xuri/excelize/v2"
)

// Split splits the workbook at path into one output workbook per group key.
func Split(path string, opts Options) (*models.SplitResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	result, err := SplitFile(f, opts)
	if result != nil {
		result.BookName = filepath.Base(path)
	}
	return result, err
}

// SplitReader splits a workbook read from r.
func SplitReader(r io.Reader, opts Options) (*models.SplitResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &InputError{Err: err}
	}
	defer f.Close()

	return SplitFile(f, opts)
}

// SplitFile partitions the data rows of opts.SheetName by group key and
// persists one workbook per key under opts.OutputDir. The returned result
// lists every output written, also when an error ends the run early.
func SplitFile(f *excelize.File, opts Options) (*models.SplitResult, error) {
	opts = opts.withDefaults()
	log := opts.logger()

	cols, err := parser.ResolveColumns(opts.Columns)
	if err != nil {
		return nil, err
	}
	if opts.KeyPosition < 1 || opts.KeyPosition > len(cols) {
		return nil, &parser.ColumnError{
			Column: fmt.Sprintf("key position %d", opts.KeyPosition),
			Err:    fmt.Errorf("only %d columns selected", len(cols)),
		}
	}

	idx, err := f.GetSheetIndex(opts.SheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.SheetName)
	}

	reader := parser.NewSheetReader(f, opts.SheetName)
	header, err := reader.Row(1, cols)
	if err != nil {
		return nil, &InputError{Err: fmt.Errorf("header row: %w", err)}
	}

	groups, skipped, err := partition(reader, cols, cols[opts.KeyPosition-1])
	if err != nil {
		return nil, &InputError{Err: err}
	}
	log.Debug().
		Str("sheet", opts.SheetName).
		Int("groups", len(groups)).
		Int("skipped_rows", skipped).
		Msg("partitioned rows")

	result := &models.SplitResult{
		SheetName:   opts.SheetName,
		Groups:      make([]models.GroupOutput, 0, len(groups)),
		SkippedRows: skipped,
	}

	var errs []error
	for _, g := range groups {
		if g.Collides() {
			log.Warn().
				Str("group", g.Key).
				Strs("raw_keys", g.RawKeys).
				Msg("distinct values share a sanitized group key; rows merged")
		}

		out, err := writeGroup(g, header, opts)
		if err != nil {
			log.Error().Err(err).Str("group", g.Key).Msg("failed to write group")
			if !opts.ContinueOnError {
				return result, err
			}
			errs = append(errs, err)
			continue
		}

		log.Info().
			Str("group", out.Key).
			Str("path", out.Path).
			Int("rows", out.Rows).
			Msg("created file")
		result.Groups = append(result.Groups, out)
	}

	return result, errors.Join(errs...)
}

// partition groups data rows (row 2 onward) by sanitized key, keeping
// original row order inside each group and first-seen order across groups.
// Rows with an empty key are counted as skipped.
func partition(reader *parser.SheetReader, cols []int, keyCol int) ([]*models.Group, int, error) {
	rowCount, err := reader.RowCount()
	if err != nil {
		return nil, 0, err
	}

	var (
		groups  []*models.Group
		byKey   = make(map[string]*models.Group)
		skipped int
	)
	for rowNum := 2; rowNum <= rowCount; rowNum++ {
		raw, err := reader.RawValue(keyCol, rowNum)
		if err != nil {
			return nil, 0, err
		}
		if strings.TrimSpace(raw) == "" {
			skipped++
			continue
		}

		row, err := reader.Row(rowNum, cols)
		if err != nil {
			return nil, 0, err
		}

		key := Sanitize(raw)
		g, ok := byKey[key]
		if !ok {
			g = &models.Group{Key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		if !slices.Contains(g.RawKeys, raw) {
			g.RawKeys = append(g.RawKeys, raw)
		}
		g.Rows = append(g.Rows, row)
	}

	return groups, skipped, nil
}

// OutputPath returns the location of a group's workbook: a per-group
// subfolder of outputDir holding <prefix><key>.xlsx.
func OutputPath(outputDir, prefix, key string) string {
	return filepath.Join(outputDir, key, prefix+key+".xlsx")
}

// errKeyNotFolder rejects keys such as "." and ".." that would place a
// workbook outside its own folder under the output directory.
var errKeyNotFolder = errors.New("group key is not usable as a folder name")

func writeGroup(g *models.Group, header models.Row, opts Options) (models.GroupOutput, error) {
	path := OutputPath(opts.OutputDir, opts.FilePrefix, g.Key)
	if g.Key == "." || !filepath.IsLocal(g.Key) {
		return models.GroupOutput{}, NewGroupWriteError(g.Key, path, errKeyNotFolder)
	}

	wb, err := writer.Build(opts.OutputSheet, header, g.Rows)
	if err != nil {
		return models.GroupOutput{}, NewGroupWriteError(g.Key, path, err)
	}
	defer wb.Close()

	if err := writer.Save(wb, path); err != nil {
		return models.GroupOutput{}, NewGroupWriteError(g.Key, path, err)
	}

	out := models.GroupOutput{
		Key:  g.Key,
		Path: path,
		Rows: len(g.Rows),
	}
	if g.Collides() {
		out.RawKeys = g.RawKeys
	}
	return out, nil
}

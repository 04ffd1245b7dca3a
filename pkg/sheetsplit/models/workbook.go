package models

// GroupOutput describes one persisted per-group workbook.
type GroupOutput struct {
	// Key is the sanitized group key.
	Key string `json:"key"`
	// Path is the local location the workbook was written to.
	Path string `json:"path"`
	// Rows is the number of data rows written (header excluded).
	Rows int `json:"rows"`
	// RawKeys lists the raw values merged into this output when more than one sanitized to Key.
	RawKeys []string `json:"raw_keys,omitempty"`
}

// SplitResult is the manifest of a split run.
type SplitResult struct {
	// BookName is the input workbook file name (no path), empty for reader input.
	BookName string `json:"book_name,omitempty"`
	// SheetName is the source sheet that was split.
	SheetName string `json:"sheet_name"`
	// Groups lists produced outputs in first-seen key order.
	Groups []GroupOutput `json:"groups"`
	// SkippedRows counts data rows dropped for an empty group key.
	SkippedRows int `json:"skipped_rows"`
}

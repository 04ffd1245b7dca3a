package models

// Row represents a source row restricted to the selected columns.
type Row struct {
	// R is the source row index (1-based).
	R int `json:"r"`
	// Cells holds one cell per selected column, in selection order.
	Cells []Cell `json:"cells"`
}

// Group is the ordered set of data rows sharing one sanitized group key.
type Group struct {
	// Key is the sanitized group key.
	Key string `json:"key"`
	// RawKeys lists the distinct unsanitized values that produced Key, in first-seen order.
	RawKeys []string `json:"raw_keys"`
	// Rows contains the group's rows in original relative order.
	Rows []Row `json:"rows"`
}

// Collides reports whether more than one raw value sanitized to this group's key.
func (g *Group) Collides() bool {
	return len(g.RawKeys) > 1
}

package market

// PriceTable is the ordered, read-only set of rows loaded at startup. Row
// order is file order.
type PriceTable struct {
	// Name is the display name used in chart titles, e.g. "Netflix".
	Name string
	// Source is the path the rows were read from.
	Source string

	rows []PriceRow
}

// NewPriceTable copies rows into a new table.
func NewPriceTable(name string, rows []PriceRow) *PriceTable {
	cp := make([]PriceRow, len(rows))
	copy(cp, rows)
	return &PriceTable{Name: name, rows: cp}
}

// Len returns the number of rows. A nil table has no rows.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// DisplayName returns Name, or "" for a nil table.
func (t *PriceTable) DisplayName() string {
	if t == nil {
		return ""
	}
	return t.Name
}

// Row returns row i by value.
func (t *PriceTable) Row(i int) PriceRow {
	return t.rows[i]
}

// Rows returns a copy of every row in table order.
func (t *PriceTable) Rows() []PriceRow {
	if t == nil {
		return nil
	}
	cp := make([]PriceRow, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// WithName returns a table sharing the same rows under another display name.
// Rows are never written after load so sharing is safe.
func (t *PriceTable) WithName(name string) *PriceTable {
	return &PriceTable{Name: name, Source: t.Source, rows: t.rows}
}

// Dates returns Date formatted with DateLayout for every row.
func (t *PriceTable) Dates() []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i] = t.rows[i].DateString()
	}
	return out
}

// Values returns a numeric column for every row. ok is false when c is not
// numeric.
func (t *PriceTable) Values(c Column) ([]float64, bool) {
	if _, ok := (PriceRow{}).Value(c); !ok {
		return nil, false
	}
	out := make([]float64, t.Len())
	for i := range out {
		out[i], _ = t.rows[i].Value(c)
	}
	return out, true
}

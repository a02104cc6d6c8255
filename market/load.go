package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrMissingColumn = errors.New("missing required column")
	ErrBadValue      = errors.New("bad value")
)

// LoadError reports why a price file could not be turned into a table.
type LoadError struct {
	Path   string
	Line   int    // 1-based input line, 0 when the failure is not tied to a row
	Column Column // offending column, empty when not tied to one
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts the calendar-date spellings found in exported price files.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Load reads a price table from path. SQLite files are recognised by their
// extension, everything else is read as CSV. The table name defaults to the
// file's base name without extension.
func Load(path string) (*PriceTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path)
	}
	return LoadCSV(path)
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string) (*PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	return ReadCSV(f, path)
}

// ReadCSV parses a delimited price table. The header must name every column
// in RequiredColumns; matching ignores case and surrounding spaces and extra
// columns are ignored. A header with no rows gives an empty table.
func ReadCSV(r io.Reader, source string) (*PriceTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &LoadError{Path: source, Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, &LoadError{Path: source, Err: err}
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, &LoadError{Path: source, Line: 1, Err: err}
	}

	var rows []PriceRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: source, Err: err}
		}
		line, _ := cr.FieldPos(0)

		row, col, err := parseRecord(rec, idx)
		if err != nil {
			return nil, &LoadError{Path: source, Line: line, Column: col, Err: err}
		}
		rows = append(rows, row)
	}

	t := NewPriceTable(tableName(source), rows)
	t.Source = source
	return t, nil
}

func tableName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func columnIndex(header []string) (map[Column]int, error) {
	idx := make(map[Column]int, len(RequiredColumns))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, c := range RequiredColumns {
			if _, seen := idx[c]; !seen && strings.EqualFold(h, string(c)) {
				idx[c] = i
			}
		}
	}
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "%s", c)
		}
	}
	return idx, nil
}

func parseRecord(rec []string, idx map[Column]int) (PriceRow, Column, error) {
	field := func(c Column) string {
		i := idx[c]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := ParseDate(field(ColDate))
	if err != nil {
		return PriceRow{}, ColDate, errors.Wrap(ErrBadValue, err.Error())
	}

	var prices [4]decimal.Decimal
	for i, c := range []Column{ColOpen, ColHigh, ColLow, ColClose} {
		raw := field(c)
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return PriceRow{}, c, errors.Wrapf(ErrBadValue, "%q", raw)
		}
		prices[i] = d
	}

	vol, err := parseVolume(field(ColVolume))
	if err != nil {
		return PriceRow{}, ColVolume, err
	}

	return NewPriceRow(date, prices[0], prices[1], prices[2], prices[3], vol), "", nil
}

// parseVolume accepts integers and integral decimals such as "1200.0".
func parseVolume(raw string) (int64, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, errors.Wrapf(ErrBadValue, "%q", raw)
	}
	return d.IntPart(), nil
}

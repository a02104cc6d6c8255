package market

import (
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Schema is the layout LoadSQLite reads. Prices are stored as TEXT so the
// decimal digits survive unchanged; rowid keeps file order.
const Schema = `
CREATE TABLE IF NOT EXISTS prices (
	date TEXT NOT NULL,
	open TEXT NOT NULL,
	high TEXT NOT NULL,
	low TEXT NOT NULL,
	close TEXT NOT NULL,
	volume INTEGER NOT NULL
);
`

// LoadSQLite reads the prices table of an existing SQLite file in rowid
// order. The database is opened read-only.
func LoadSQLite(path string) (*PriceTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT date, open, high, low, close, volume
		FROM prices
		ORDER BY rowid ASC`)
	if err != nil {
		return nil, &LoadError{Path: path, Err: errors.Wrap(ErrMissingColumn, err.Error())}
	}
	defer rows.Close()

	var out []PriceRow
	line := 0
	for rows.Next() {
		line++
		var (
			date                   string
			open, high, low, close string
			volume                 int64
		)
		if err := rows.Scan(&date, &open, &high, &low, &close, &volume); err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: errors.Wrap(ErrBadValue, err.Error())}
		}

		t, err := ParseDate(date)
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: ColDate, Err: errors.Wrap(ErrBadValue, err.Error())}
		}

		var prices [4]decimal.Decimal
		for i, raw := range []string{open, high, low, close} {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, &LoadError{Path: path, Line: line, Column: RequiredColumns[i+1], Err: errors.Wrapf(ErrBadValue, "%q", raw)}
			}
			prices[i] = d
		}

		out = append(out, NewPriceRow(t, prices[0], prices[1], prices[2], prices[3], volume))
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	t := NewPriceTable(tableName(path), out)
	t.Source = path
	return t, nil
}

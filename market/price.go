package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used when a date leaves the table.
const DateLayout = "2006-01-02"

// Column names a PriceRow field the way the input header does.
type Column string

const (
	ColDate   Column = "Date"
	ColOpen   Column = "Open"
	ColHigh   Column = "High"
	ColLow    Column = "Low"
	ColClose  Column = "Close"
	ColVolume Column = "Volume"
)

// RequiredColumns lists the header columns every input must carry.
var RequiredColumns = []Column{ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// PriceRow is one trading day. Day, Month and Year are derived from Date
// when the row is loaded.
type PriceRow struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64

	Day   int
	Month int
	Year  int
}

// NewPriceRow builds a row and fills in the calendar fields. The calendar
// components are taken from date as given, without a timezone conversion.
func NewPriceRow(date time.Time, open, high, low, close decimal.Decimal, volume int64) PriceRow {
	return PriceRow{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
		Day:    date.Day(),
		Month:  int(date.Month()),
		Year:   date.Year(),
	}
}

// Price returns the decimal value of a price column. ok is false for Date,
// Volume or an unknown column.
func (r PriceRow) Price(c Column) (d decimal.Decimal, ok bool) {
	switch c {
	case ColOpen:
		return r.Open, true
	case ColHigh:
		return r.High, true
	case ColLow:
		return r.Low, true
	case ColClose:
		return r.Close, true
	}
	return decimal.Decimal{}, false
}

// Value returns a numeric column as a float64 for plotting.
func (r PriceRow) Value(c Column) (float64, bool) {
	if c == ColVolume {
		return float64(r.Volume), true
	}
	d, ok := r.Price(c)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// DateString formats Date with DateLayout.
func (r PriceRow) DateString() string {
	return r.Date.Format(DateLayout)
}

package types

import (
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Timespan is a bar timeframe written as "<multiplier><unit>", e.g. "5m" or "1w".
// Units: s (second), m (minute), h (hour), d (day), w (ISO week), M (month), y (year).
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanFourHours      Timespan = "4h"
	TimespanOneDay         Timespan = "1d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
	TimespanOneYear        Timespan = "1y"
)

// TimeUnit is the base unit of a Timespan.
type TimeUnit int

const (
	UnitSecond TimeUnit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

var unitSeconds = map[TimeUnit]int64{
	UnitSecond: 1,
	UnitMinute: 60,
	UnitHour:   3600,
	UnitDay:    86400,
}

// Parse splits the timespan into multiplier and unit.
func (t Timespan) Parse() (int, TimeUnit, error) {
	s := string(t)
	if len(s) < 2 {
		return 0, 0, errors.Newf(errors.ErrCodeInvalidTimespan, "invalid timespan %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, 0, errors.Newf(errors.ErrCodeInvalidTimespan, "invalid timespan multiplier in %q", s)
	}

	var unit TimeUnit

	switch s[len(s)-1] {
	case 's':
		unit = UnitSecond
	case 'm':
		unit = UnitMinute
	case 'h':
		unit = UnitHour
	case 'd':
		unit = UnitDay
	case 'w':
		unit = UnitWeek
	case 'M':
		unit = UnitMonth
	case 'y':
		unit = UnitYear
	default:
		return 0, 0, errors.Newf(errors.ErrCodeInvalidTimespan, "invalid timespan unit in %q", s)
	}

	return n, unit, nil
}

// Validate reports whether the timespan can be parsed.
func (t Timespan) Validate() error {
	_, _, err := t.Parse()

	return err
}

// Multiplier returns the numeric part of the timespan, or 1 when it cannot be parsed.
func (t Timespan) Multiplier() int {
	n, _, err := t.Parse()
	if err != nil {
		return 1
	}

	return n
}

// Bucket returns the index of the timeframe period that contains ts. Two
// timestamps share a coarse bar exactly when their buckets are equal. Buckets
// are computed in UTC; weeks start on Monday.
func (t Timespan) Bucket(ts time.Time) (int64, error) {
	n, unit, err := t.Parse()
	if err != nil {
		return 0, err
	}

	ts = ts.UTC()
	mult := int64(n)

	switch unit {
	case UnitWeek:
		days := floorDiv(ts.Unix(), unitSeconds[UnitDay])
		// 1970-01-01 was a Thursday
		return floorDiv(floorDiv(days+3, 7), mult), nil
	case UnitMonth:
		months := int64(ts.Year())*12 + int64(ts.Month()) - 1
		return floorDiv(months, mult), nil
	case UnitYear:
		return floorDiv(int64(ts.Year()), mult), nil
	default:
		return floorDiv(ts.Unix(), unitSeconds[unit]*mult), nil
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

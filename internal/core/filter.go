package core

import (
	"errors"
	"time"
)

// Month is the filter token selected in the UI: a calendar month or "All"
// for the whole current year.
type Month string

const (
	MonthAll Month = "All"
	MonthJan Month = "Jan"
	MonthFeb Month = "Feb"
	MonthMar Month = "Mar"
	MonthApr Month = "Apr"
	MonthMay Month = "May"
	MonthJun Month = "Jun"
	MonthJul Month = "Jul"
	MonthAug Month = "Aug"
	MonthSep Month = "Sep"
	MonthOct Month = "Oct"
	MonthNov Month = "Nov"
	MonthDec Month = "Dec"
)

var monthIndex = map[Month]time.Month{
	MonthJan: time.January, MonthFeb: time.February, MonthMar: time.March,
	MonthApr: time.April, MonthMay: time.May, MonthJun: time.June,
	MonthJul: time.July, MonthAug: time.August, MonthSep: time.September,
	MonthOct: time.October, MonthNov: time.November, MonthDec: time.December,
}

var ErrInvalidMonth = errors.New("invalid month token")

// DateRange is a closed interval used to scope every list and stats fetch.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the closed interval.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (m Month) Valid() bool {
	if m == MonthAll {
		return true
	}
	_, ok := monthIndex[m]
	return ok
}

// CurrentMonth returns the token for now's calendar month.
func CurrentMonth(now time.Time) Month {
	for tok, idx := range monthIndex {
		if idx == now.Month() {
			return tok
		}
	}
	return MonthAll
}

// ResolveRange resolves a month token for the given year into a concrete
// date range: the first instant of the month through its last instant
// (23:59:59.999...). MonthAll spans January 1 through December 31.
func ResolveRange(m Month, year int, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	if m == MonthAll {
		return DateRange{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			End:   endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc)),
		}, nil
	}
	idx, ok := monthIndex[m]
	if !ok {
		return DateRange{}, ErrInvalidMonth
	}
	start := time.Date(year, idx, 1, 0, 0, 0, 0, loc)
	// Day 0 of the following month is the last day of this one.
	last := time.Date(year, idx+1, 0, 0, 0, 0, 0, loc)
	return DateRange{Start: start, End: endOfDay(last)}, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

package domain

import (
	"fmt"
	"time"
)

// Date is a calendar day counted from 1970-01-01.
// It has no time of day and no location, so ordering is integer ordering.
type Date int

// DateLayout is the wire and storage format for Date.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// NewDate builds a Date from its civil components.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// DateOf returns the calendar day t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date { return d + Date(n) }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// WeekStart returns the Monday on or before d.
func (d Date) WeekStart() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d - Date(offset)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	y, m, _ := d.Time().Date()
	return NewDate(y, m, 1)
}

func (d Date) String() string { return d.Time().Format(DateLayout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive span of calendar days.
// A range whose Start is after its End contains nothing.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewDateRange returns the inclusive range [start, end].
func NewDateRange(start, end Date) DateRange {
	return DateRange{Start: start, End: end}
}

// LastNDays returns the n days ending on (and including) end.
func LastNDays(end Date, n int) DateRange {
	return DateRange{Start: end.AddDays(-(n - 1)), End: end}
}

// Contains reports whether d lies inside the range.
func (r DateRange) Contains(d Date) bool {
	return d >= r.Start && d <= r.End
}

// Days returns the number of days in the range (0 when empty).
func (r DateRange) Days() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End-r.Start) + 1
}

package contracts

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of service dates
const DateLayout = "2006-01-02"

// DateOf truncates t to its civil date (UTC midnight of t's calendar day in t's location)
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a civil date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("malformed date %q (expected YYYY-MM-DD)", s)}
	}
	return t, nil
}

// FormatDate renders a civil date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateRange is an inclusive range of civil dates
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange normalizes both ends and rejects inverted ranges
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: DateOf(from), To: DateOf(to)}
	if r.To.Before(r.From) {
		return DateRange{}, &ValidationError{Field: "to", Message: "range end is before range start"}
	}
	return r, nil
}

// SingleDay is the range covering just d
func SingleDay(d time.Time) DateRange {
	d = DateOf(d)
	return DateRange{From: d, To: d}
}

// WeekOf returns the Monday–Sunday week containing d
func WeekOf(d time.Time) DateRange {
	d = DateOf(d)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	start := d.AddDate(0, 0, -offset)
	return DateRange{From: start, To: start.AddDate(0, 0, 6)}
}

// MonthOf returns the calendar month range for year/month
func MonthOf(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: start, To: start.AddDate(0, 1, -1)}
}

// Days lists every date in the range in order
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether d falls within the range
func (r DateRange) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(r.From) && !d.After(r.To)
}

// Len is the number of days in the range
func (r DateRange) Len() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

func (r DateRange) String() string {
	return FormatDate(r.From) + ".." + FormatDate(r.To)
}

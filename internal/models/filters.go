package models

import (
	"fmt"
	"strings"
	"time"
)

// DayFilter optionally restricts a query to a single day of the week.
// The zero value matches every day.
type DayFilter struct {
	Day   time.Weekday
	Valid bool
}

// AllDays matches trips on every day of the week
var AllDays = DayFilter{}

// OnDay returns a filter matching only the given weekday
func OnDay(d time.Weekday) DayFilter {
	return DayFilter{Day: d, Valid: true}
}

// Match reports whether the weekday passes the filter
func (f DayFilter) Match(d time.Weekday) bool {
	return !f.Valid || f.Day == d
}

// String returns the weekday name, or "All"
func (f DayFilter) String() string {
	if !f.Valid {
		return "All"
	}
	return f.Day.String()
}

// ParseDayFilter parses "All", "" or an English weekday name
// (full or three-letter, case-insensitive).
func ParseDayFilter(s string) (DayFilter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return AllDays, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return OnDay(d), nil
		}
	}
	return AllDays, fmt.Errorf("unknown day of week %q", s)
}

// QueryParams carries the parameters of an aggregate query.
// Every field takes part in the cache fingerprint.
type QueryParams struct {
	N        int       `form:"n"`    // Top-N size
	Day      DayFilter `form:"-"`    // Day-of-week filter
	Hour     int       `form:"hour"` // Single hour for location activity
	FromHour int       `form:"from"` // Inclusive start of an hour window
	ToHour   int       `form:"to"`   // Inclusive end of an hour window
	Bins     int       `form:"bins"` // Histogram bin count
}

// Key renders the params in a canonical form for fingerprinting
func (p QueryParams) Key() string {
	return fmt.Sprintf("n=%d;day=%s;hour=%d;from=%d;to=%d;bins=%d",
		p.N, p.Day, p.Hour, p.FromHour, p.ToHour, p.Bins)
}

// MarshalText renders the filter as its String form
func (f DayFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses the forms accepted by ParseDayFilter
func (f *DayFilter) UnmarshalText(text []byte) error {
	parsed, err := ParseDayFilter(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

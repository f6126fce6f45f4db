package core

import (
	"encoding/json"
	"time"
)

// Date is a calendar date. Time-of-day is not significant for bucketing.
// The zero value marks a missing or unparseable date: such transactions are
// skipped by date-bound computations but never abort them.
type Date struct {
	time.Time
}

// dateLayouts are tried in order when parsing incoming date-like strings.
// The persistence API returns RFC 3339 timestamps, older records plain
// YYYY-MM-DD strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date-like string defensively. Invalid input yields the
// zero Date rather than an error.
func ParseDate(raw string) Date {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{Time: t}
		}
	}
	return Date{}
}

// Valid reports whether the date carries a usable calendar value.
func (d Date) Valid() bool {
	return !d.IsZero()
}

// SameMonth reports whether the date falls in the given calendar month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Valid() && d.Year() == year && d.Month() == month
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		// null, absent or a non-string value: treat as missing, not fatal.
		*d = Date{}
		return nil
	}
	*d = ParseDate(raw)
	return nil
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// HumanDateLayout is used in alert descriptions.
const HumanDateLayout = "Jan 2, 2006"

// ErrNullDate is returned when reading the time of an unset NullDate.
var ErrNullDate = errors.New("date is null")

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves t by n calendar days. Month and year boundaries are handled by
// time.Date normalization, so the result never drifts by a DST hour.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of calendar days from now until target.
// It is negative when target is in the past.
func DaysUntil(target, now time.Time) int {
	return int(Day(target).Sub(Day(now)).Hours() / 24)
}

// ParseDate parses a calendar date. Full RFC 3339 timestamps are accepted and
// truncated to their date part.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NullDate is a nullable calendar date as stored in the database. The raw
// value is kept and parsed on demand so one bad row does not fail a whole
// query.
type NullDate struct {
	Raw   string
	Valid bool
}

// NewNullDate returns a valid NullDate for the calendar day of t.
func NewNullDate(t time.Time) NullDate {
	return NullDate{Raw: FormatDate(Day(t)), Valid: true}
}

// Time parses the stored value.
func (d NullDate) Time() (time.Time, error) {
	if !d.Valid {
		return time.Time{}, ErrNullDate
	}
	return ParseDate(d.Raw)
}

// Scan implements sql.Scanner.
func (d *NullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Raw, d.Valid = "", false
	case string:
		d.Raw, d.Valid = v, true
	case []byte:
		d.Raw, d.Valid = string(v), true
	case time.Time:
		d.Raw, d.Valid = FormatDate(Day(v)), true
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (d NullDate) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Raw, nil
}

func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}

func (d *NullDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.Raw, d.Valid = "", false
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d.Raw, d.Valid = s, true
	return nil
}

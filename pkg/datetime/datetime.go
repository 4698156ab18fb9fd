package datetime

import (
	"errors"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var (
	ErrInvalidDate  = errors.New("invalid date, use YYYY-MM-DD")
	ErrInvalidClock = errors.New("invalid time, use HH:MM or HH:MM:SS")
)

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	DateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"01/02/2006",
	"2006/01/02",
}

var clockLayouts = []string{
	ClockLayout,
	"15:04",
	"15:04:05.999999",
	"3:04 PM",
	"3:04PM",
	"03:04 PM",
	"3:04:05 PM",
	"3 PM",
	"3PM",
}

// ParseDate accepts the date encodings clients send and returns midnight UTC
// of that calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// DateOnly drops the clock part, keeping the calendar day as written.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseClock normalizes a loosely formatted time of day to HH:MM:SS.
// A full date-time string is accepted and its clock part is kept.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidClock
	}
	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	for _, layout := range dateLayouts[1:] {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", ErrInvalidClock
}

// Combine merges a calendar day and a loosely formatted clock into one
// timestamp (UTC) together with its canonical "YYYY-MM-DD HH:MM:SS" form.
func Combine(day time.Time, clock string) (time.Time, string, error) {
	normalized, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, "", err
	}
	canonical := DateOnly(day).Format(DateLayout) + " " + normalized
	t, err := time.Parse(DateTimeLayout, canonical)
	if err != nil {
		return time.Time{}, "", err
	}
	return t, canonical, nil
}

// CombineStrings is Combine for a date that has not been parsed yet.
func CombineStrings(date, clock string) (time.Time, string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, "", err
	}
	return Combine(day, clock)
}

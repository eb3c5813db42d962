// Package calendar holds the wall-clock and date helpers shared by scheduling code.
// Dates are represented as UTC midnight of their calendar day; wall-clock times are
// "HH:MM" strings without a zone.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	clockLayout = "%02d:%02d"
)

// ClockTime is a zone-less wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h). Single-digit hours are accepted.
func ParseClock(value string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", value)
	}
	if len(parts[1]) != 2 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", value)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf(clockLayout, c.Hour, c.Minute)
}

// Before reports c < other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.Minutes() < other.Minutes()
}

// Within reports start <= c <= end (both bounds inclusive).
func (c ClockTime) Within(start, end ClockTime) bool {
	m := c.Minutes()
	return start.Minutes() <= m && m <= end.Minutes()
}

// FormatHour renders a whole hour as "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf(clockLayout, hour, 0)
}

// HourlySlots returns one "HH:00" entry per whole hour in [startHour, endHour).
func HourlySlots(startHour, endHour int) []string {
	if endHour <= startHour {
		return []string{}
	}
	slots := make([]string, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		slots = append(slots, FormatHour(h))
	}
	return slots
}

// DayOfWeek returns 0 (Sunday) through 6 (Saturday).
func DayOfWeek(date time.Time) int {
	return int(date.Weekday())
}

// DateOnly truncates t to UTC midnight of its calendar day in t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses "YYYY-MM-DD" into a DateOnly value.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

// FormatDate renders a date as "YYYY-MM-DD".
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// Combine places the wall-clock time on the given calendar day in loc.
func Combine(date time.Time, clock ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour, clock.Minute, 0, 0, loc)
}

// StartOfWeek returns the most recent Sunday 00:00 in loc (today when now is a Sunday).
func StartOfWeek(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -int(local.Weekday()))
}

// StartOfMonth returns the first day of now's month at 00:00 in loc.
func StartOfMonth(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

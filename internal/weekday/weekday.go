package weekday

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWeekday is returned when a value is not one of the canonical weekday names
var ErrInvalidWeekday = errors.New("invalid weekday")

// Name is a canonical English weekday name ("Monday" ... "Sunday")
type Name string

const (
	Monday    Name = "Monday"
	Tuesday   Name = "Tuesday"
	Wednesday Name = "Wednesday"
	Thursday  Name = "Thursday"
	Friday    Name = "Friday"
	Saturday  Name = "Saturday"
	Sunday    Name = "Sunday"
)

// All lists the weekdays in Monday-first order
var All = [7]Name{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// String implements fmt.Stringer
func (n Name) String() string {
	return string(n)
}

// Index returns the Monday-first index (0..6) of the weekday
func Index(name Name) (int, error) {
	for i, n := range All {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, string(name))
}

// FromIndex returns the weekday for a Monday-first index (0..6)
func FromIndex(i int) (Name, error) {
	if i < 0 || i >= len(All) {
		return "", fmt.Errorf("%w: index %d", ErrInvalidWeekday, i)
	}
	return All[i], nil
}

// Offset returns the number of days to move forward from one weekday to reach another.
// The result is always in [1,7]: the same weekday yields a full week, never zero.
func Offset(from, to Name) (int, error) {
	fromIdx, err := Index(from)
	if err != nil {
		return 0, err
	}
	toIdx, err := Index(to)
	if err != nil {
		return 0, err
	}

	offset := toIdx - fromIdx
	if offset <= 0 {
		offset += 7
	}
	return offset, nil
}

// Of returns the weekday name of the given date
func Of(date time.Time) Name {
	// time.Weekday is Sunday-first
	return All[(int(date.Weekday())+6)%7]
}

// IndexOf returns the Monday-first index of the given date
func IndexOf(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// IsWorkday reports whether the weekday is Monday through Friday
func IsWorkday(name Name) bool {
	idx, err := Index(name)
	return err == nil && idx < 5
}

// Parse normalizes loosely formatted input ("MONDAY", " monday ") to a canonical name.
// Core lookups use exact names; Parse is meant for external input only.
func Parse(s string) (Name, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidWeekday)
	}
	candidate := Name(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
	if _, err := Index(candidate); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return candidate, nil
}

package dateutil

import "time"

// DateLayout is the layout used for calendar-date keys and output
const DateLayout = "2006-01-02"

// Date returns the calendar date (midnight UTC) for the given year, month and day.
// Out-of-range values are normalized the same way time.Date does.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CalendarDate strips the clock and zone from t, keeping the wall-clock date
func CalendarDate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// StartOfWeek returns the Monday of the week for the given date
func StartOfWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	daysFromMonday := weekday - 1
	return CalendarDate(date).AddDate(0, 0, -daysFromMonday)
}

// EndOfWeek returns the Sunday of the week for the given date
func EndOfWeek(date time.Time) time.Time {
	return StartOfWeek(date).AddDate(0, 0, 6)
}

// AddDays moves a calendar date by n days
func AddDays(date time.Time, n int) time.Time {
	return CalendarDate(date).AddDate(0, 0, n)
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// IsSameWeek returns true if two dates fall in the same Monday-start week
func IsSameWeek(date1, date2 time.Time) bool {
	return StartOfWeek(date1).Equal(StartOfWeek(date2))
}

// Key formats a date as YYYY-MM-DD
func Key(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseKey parses a YYYY-MM-DD key into a calendar date
func ParseKey(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(t), nil
}

// Today returns today's local date as a calendar date
func Today() time.Time {
	return CalendarDate(time.Now())
}

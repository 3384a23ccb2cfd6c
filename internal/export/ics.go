package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	ics "github.com/arran4/golang-ical"
	"github.com/username/refuse-schedule/internal/schedule"
	"github.com/username/refuse-schedule/pkg/dateutil"
)

const (
	ProductID           = "-//refuse-schedule//Collection Calendar//EN"
	DefaultPublishedTTL = "PT12H"
)

// CalendarOptions controls calendar-level ICS properties
type CalendarOptions struct {
	Name         string
	PublishedTTL string
}

// BuildCalendar builds an ICS subscription calendar with one all-day event per occurrence.
// UIDs depend only on the scheduled date and address so that subscribers see moves as updates.
func BuildCalendar(occurrences []schedule.Occurrence, opts CalendarOptions, stamp time.Time) *ics.Calendar {
	if opts.PublishedTTL == "" {
		opts.PublishedTTL = DefaultPublishedTTL
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXPublishedTTL(opts.PublishedTTL)

	for _, o := range occurrences {
		event := cal.AddEvent(EventUID(o))
		event.SetDtStampTime(stamp.UTC())
		event.SetAllDayStartAt(o.ActualDate)
		event.SetAllDayEndAt(dateutil.AddDays(o.ActualDate, 1))
		event.SetSummary(o.Summary)
		event.SetDescription(eventDescription(o))
		event.SetLocation(o.Address)
		event.SetTimeTransparency(ics.TransparencyTransparent)
	}

	return cal
}

// WriteICS serializes the calendar for the given occurrences to w
func WriteICS(w io.Writer, occurrences []schedule.Occurrence, opts CalendarOptions, stamp time.Time) error {
	cal := BuildCalendar(occurrences, opts, stamp)
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// EventUID returns the stable UID for an occurrence
func EventUID(o schedule.Occurrence) string {
	return fmt.Sprintf("%s-refuse-%s@refuse-schedule", o.ScheduledDate.Format("20060102"), Slug(o.Address))
}

// Slug lowercases s and joins its alphanumeric runs with dashes
func Slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}

func eventDescription(o schedule.Occurrence) string {
	if !o.Moved() || o.Reason == "" {
		return o.Description
	}
	return fmt.Sprintf("%s\nMoved from %s (%s)", o.Description, o.ScheduledDate.Format("Monday, January 2"), o.Reason)
}

package holiday

import (
	"fmt"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
)

// Note is a cross-check finding about one parsed record
type Note struct {
	Date    string
	Holiday string
	Message string
}

// federalCalendar returns the US holidays the city schedule is expected to cover
func federalCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ColumbusDay,
		us.VeteransDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
	return c
}

// CrossCheck compares parsed records against the US federal holiday calendar.
// It reports stated weekdays that disagree with the date and dates that are no known holiday.
func CrossCheck(records []Record) []Note {
	c := federalCalendar()

	var notes []Note
	for _, r := range records {
		key := dateutil.Key(r.Date)

		if actual := weekday.Of(r.Date); actual != r.DayOfWeek {
			notes = append(notes, Note{
				Date:    key,
				Holiday: r.Name,
				Message: fmt.Sprintf("stated as %s but the date is a %s", r.DayOfWeek, actual),
			})
		}

		isActual, isObserved, h := c.IsHoliday(r.Date)
		if !isActual && !isObserved {
			notes = append(notes, Note{
				Date:    key,
				Holiday: r.Name,
				Message: "not a US federal holiday",
			})
			continue
		}
		if isObserved && !isActual && h != nil {
			notes = append(notes, Note{
				Date:    key,
				Holiday: r.Name,
				Message: fmt.Sprintf("observed date of %s", h.Name),
			})
		}
	}
	return notes
}

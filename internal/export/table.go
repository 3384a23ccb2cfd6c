package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/schedule"
	"github.com/username/refuse-schedule/pkg/dateutil"
)

// WriteOccurrences prints occurrences as an aligned table
func WriteOccurrences(w io.Writer, occurrences []schedule.Occurrence) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEDULED\tACTUAL\tDAY\tNOTE")
	for _, o := range occurrences {
		note := ""
		if o.Moved() {
			note = o.Reason
		} else if o.Holiday != "" {
			note = o.Holiday
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			dateutil.Key(o.ScheduledDate),
			dateutil.Key(o.ActualDate),
			o.ActualDate.Format("Mon"),
			note)
	}
	return tw.Flush()
}

// WriteHolidays prints parsed holidays followed by parser diagnostics and cross-check notes
func WriteHolidays(w io.Writer, records []holiday.Record, diagnostics []holiday.Diagnostic, notes []holiday.Note) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tHOLIDAY\tADJUSTMENT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			dateutil.Key(r.Date),
			r.DayOfWeek,
			r.Name,
			describeRule(r.Rule))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(diagnostics) > 0 {
		fmt.Fprintln(w, "\nSkipped or unrecognized entries:")
		for _, d := range diagnostics {
			fmt.Fprintf(w, "  line %d: %s (%s)\n", d.Line, d.Header, d.Reason)
		}
	}

	if len(notes) > 0 {
		fmt.Fprintln(w, "\nCross-check notes:")
		for _, n := range notes {
			fmt.Fprintf(w, "  %s %s: %s\n", n.Date, n.Holiday, n.Message)
		}
	}
	return nil
}

func describeRule(rule holiday.Rule) string {
	switch rule.Kind {
	case holiday.KindShiftOneDay:
		if rule.NoCollectionDay != "" {
			return fmt.Sprintf("%s, no collection %s", rule.Kind, rule.NoCollectionDay)
		}
		return rule.Kind.String()
	case holiday.KindSpecificReschedule:
		if len(rule.Reschedules) == 0 {
			return rule.Kind.String()
		}
		moves := make([]string, 0, len(rule.Reschedules))
		for _, rs := range rule.Reschedules {
			moves = append(moves, fmt.Sprintf("%s->%s", rs.From, rs.To))
		}
		return fmt.Sprintf("%s %s", rule.Kind, strings.Join(moves, ", "))
	default:
		return rule.Kind.String()
	}
}

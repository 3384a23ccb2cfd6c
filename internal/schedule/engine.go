package schedule

import (
	"fmt"
	"time"

	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

// Adjustment is the outcome of applying holiday rules to one scheduled collection
type Adjustment struct {
	Scheduled time.Time
	Actual    time.Time
	Cancelled bool   // no current rule produces this
	Holiday   string // holiday that caused the change, if any
	Reason    string
}

// Changed reports whether collection moves off the scheduled date
func (a Adjustment) Changed() bool {
	return a.Cancelled || !a.Actual.Equal(a.Scheduled)
}

// Engine computes actual collection dates against one holiday snapshot
type Engine struct {
	snapshot *holiday.Snapshot
	logger   *zap.Logger
}

// NewEngine creates a new engine. A nil snapshot behaves as a year without holidays.
func NewEngine(snapshot *holiday.Snapshot, logger *zap.Logger) *Engine {
	if snapshot == nil {
		snapshot = holiday.EmptySnapshot()
	}
	return &Engine{
		snapshot: snapshot,
		logger:   logger,
	}
}

// Adjust returns the actual collection date for a scheduled collection on collectionDay.
// A holiday on the date itself is applied first; otherwise the earliest holiday earlier
// in the same Monday-start week that displaces this day pushes it forward by one day.
func (e *Engine) Adjust(scheduled time.Time, collectionDay weekday.Name) Adjustment {
	scheduled = dateutil.CalendarDate(scheduled)
	unchanged := Adjustment{Scheduled: scheduled, Actual: scheduled}

	if adj, done := e.direct(scheduled, collectionDay); done {
		return adj
	}

	if adj, ok := e.cascade(scheduled, collectionDay); ok {
		return adj
	}

	return unchanged
}

// direct applies a holiday falling on the scheduled date. done is false when the
// cascade must still be checked.
func (e *Engine) direct(scheduled time.Time, collectionDay weekday.Name) (Adjustment, bool) {
	unchanged := Adjustment{Scheduled: scheduled, Actual: scheduled}

	record, ok := e.snapshot.Lookup(scheduled)
	if !ok {
		return unchanged, false
	}

	e.logger.Debug("Collection day falls on holiday",
		zap.String("date", dateutil.Key(scheduled)),
		zap.String("holiday", record.Name),
		zap.Stringer("kind", record.Rule.Kind))

	switch record.Rule.Kind {
	case holiday.KindNoDelay, holiday.KindAccelerated, holiday.KindUnclassified:
		unchanged.Holiday = record.Name
		unchanged.Reason = fmt.Sprintf("%s: %s", record.Name, record.Rule.Kind)
		return unchanged, true

	case holiday.KindSpecificReschedule:
		rs, ok := record.Rule.FirstFrom(collectionDay)
		if !ok {
			return unchanged, false
		}
		offset, err := weekday.Offset(rs.From, rs.To)
		if err != nil {
			e.logger.Error("Invalid reschedule in holiday record",
				zap.String("holiday", record.Name),
				zap.String("from", rs.From.String()),
				zap.String("to", rs.To.String()),
				zap.Error(err))
			return unchanged, true
		}
		return Adjustment{
			Scheduled: scheduled,
			Actual:    dateutil.AddDays(scheduled, offset),
			Holiday:   record.Name,
			Reason:    fmt.Sprintf("%s: %s collections move to %s", record.Name, rs.From, rs.To),
		}, true
	}

	// ShiftOneDay only affects later days of the week
	return unchanged, false
}

// cascade scans the days before scheduled in the same week, earliest first
func (e *Engine) cascade(scheduled time.Time, collectionDay weekday.Name) (Adjustment, bool) {
	for day := dateutil.StartOfWeek(scheduled); day.Before(scheduled); day = dateutil.AddDays(day, 1) {
		record, ok := e.snapshot.Lookup(day)
		if !ok {
			continue
		}

		switch record.Rule.Kind {
		case holiday.KindShiftOneDay:
			e.logger.Debug("Holiday shifts the rest of the week",
				zap.String("holiday", record.Name),
				zap.String("holiday_date", dateutil.Key(day)),
				zap.String("scheduled", dateutil.Key(scheduled)))
			return Adjustment{
				Scheduled: scheduled,
				Actual:    dateutil.AddDays(scheduled, 1),
				Holiday:   record.Name,
				Reason:    fmt.Sprintf("%s on %s delays the week by one day", record.Name, weekday.Of(day)),
			}, true

		case holiday.KindSpecificReschedule:
			rs, ok := record.Rule.MovesOnto(collectionDay)
			if !ok {
				continue
			}
			e.logger.Debug("Rescheduled collection displaces this day",
				zap.String("holiday", record.Name),
				zap.String("from", rs.From.String()),
				zap.String("to", rs.To.String()),
				zap.String("scheduled", dateutil.Key(scheduled)))
			return Adjustment{
				Scheduled: scheduled,
				Actual:    dateutil.AddDays(scheduled, 1),
				Holiday:   record.Name,
				Reason:    fmt.Sprintf("%s: %s collections take this day", record.Name, rs.From),
			}, true
		}
	}
	return Adjustment{}, false
}

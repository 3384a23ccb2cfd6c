package schedule

import (
	"fmt"
	"time"

	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	// DefaultDaysAhead is the default generation window
	DefaultDaysAhead = 90
	// NextEventHorizon bounds the search for the next upcoming collection
	NextEventHorizon = 30

	Summary = "Trash & Recycling Collection"
)

// Occurrence is one all-day collection event
type Occurrence struct {
	ScheduledDate time.Time `json:"scheduled_date"`
	ActualDate    time.Time `json:"actual_date"`
	Address       string    `json:"address"`
	Summary       string    `json:"summary"`
	Description   string    `json:"description"`
	AllDay        bool      `json:"all_day"`
	Holiday       string    `json:"holiday,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Moved reports whether a holiday moved this collection
func (o Occurrence) Moved() bool {
	return !o.ActualDate.Equal(o.ScheduledDate)
}

// Generator emits collection occurrences for one address
type Generator struct {
	engine  *Engine
	address string
	logger  *zap.Logger
}

// NewGenerator creates a new generator
func NewGenerator(engine *Engine, address string, logger *zap.Logger) *Generator {
	return &Generator{
		engine:  engine,
		address: address,
		logger:  logger,
	}
}

// Generate returns one occurrence per collectionDay in [from, from+days], inclusive
func (g *Generator) Generate(from time.Time, days int, collectionDay weekday.Name) []Occurrence {
	if _, err := weekday.Index(collectionDay); err != nil {
		g.logger.Error("Invalid collection day", zap.String("collection_day", collectionDay.String()))
		return nil
	}

	start := dateutil.CalendarDate(from)
	end := dateutil.AddDays(start, days)
	description := fmt.Sprintf("Trash and recycling collection for %s", g.address)

	var occurrences []Occurrence
	moved := 0
	for date := start; !date.After(end); date = dateutil.AddDays(date, 1) {
		if weekday.Of(date) != collectionDay {
			continue
		}

		adj := g.engine.Adjust(date, collectionDay)
		if adj.Cancelled {
			g.logger.Info("Collection cancelled",
				zap.String("date", dateutil.Key(date)),
				zap.String("reason", adj.Reason))
			continue
		}
		if adj.Changed() {
			moved++
		}

		occurrences = append(occurrences, Occurrence{
			ScheduledDate: adj.Scheduled,
			ActualDate:    adj.Actual,
			Address:       g.address,
			Summary:       Summary,
			Description:   description,
			AllDay:        true,
			Holiday:       adj.Holiday,
			Reason:        adj.Reason,
		})
	}

	g.logger.Debug("Generated collection events",
		zap.String("from", dateutil.Key(start)),
		zap.String("to", dateutil.Key(end)),
		zap.Int("events", len(occurrences)),
		zap.Int("moved", moved))

	return occurrences
}

// Filter returns the occurrences whose actual date falls in [start, end], inclusive
func Filter(occurrences []Occurrence, start, end time.Time) []Occurrence {
	start = dateutil.CalendarDate(start)
	end = dateutil.CalendarDate(end)

	var out []Occurrence
	for _, o := range occurrences {
		if o.ActualDate.Before(start) || o.ActualDate.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Next returns the first occurrence on or after now within the next-event horizon
func Next(occurrences []Occurrence, now time.Time) (Occurrence, bool) {
	today := dateutil.CalendarDate(now)
	horizon := dateutil.AddDays(today, NextEventHorizon)

	var next Occurrence
	found := false
	for _, o := range occurrences {
		if o.ActualDate.Before(today) || o.ActualDate.After(horizon) {
			continue
		}
		if !found || o.ActualDate.Before(next.ActualDate) {
			next = o
			found = true
		}
	}
	return next, found
}

package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/resolver"
	"github.com/username/refuse-schedule/internal/schedule"
	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

// State is the immutable result of one successful update cycle
type State struct {
	Address       string
	CollectionDay weekday.Name
	Occurrences   []schedule.Occurrence
	Holidays      *holiday.Snapshot
	HolidayErr    error // last holiday refresh failure, nil if it succeeded
	LastUpdated   time.Time
}

// Next returns the next upcoming occurrence relative to now
func (s *State) Next(now time.Time) (schedule.Occurrence, bool) {
	return schedule.Next(s.Occurrences, now)
}

// Coordinator runs the update cycle for one address
type Coordinator struct {
	address   string
	daysAhead int
	resolver  resolver.Resolver
	refresher *holiday.Refresher
	registry  *holiday.Registry
	logger    *zap.Logger
	now       func() time.Time

	mu            sync.Mutex // serializes Update
	collectionDay weekday.Name
	state         atomic.Pointer[State]
}

// New creates a new coordinator. A nil now uses the wall clock.
func New(address string, daysAhead int, res resolver.Resolver, refresher *holiday.Refresher,
	registry *holiday.Registry, now func() time.Time, logger *zap.Logger) *Coordinator {
	if now == nil {
		now = time.Now
	}
	if daysAhead <= 0 {
		daysAhead = schedule.DefaultDaysAhead
	}
	return &Coordinator{
		address:   address,
		daysAhead: daysAhead,
		resolver:  res,
		refresher: refresher,
		registry:  registry,
		logger:    logger,
		now:       now,
	}
}

// Update resolves the collection day (once), refreshes holidays and regenerates occurrences.
// Resolver failures are returned and keep the previous state; holiday failures are logged
// and the last known holidays are used.
func (c *Coordinator) Update(ctx context.Context) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionDay == "" {
		c.logger.Debug("Looking up collection day", zap.String("address", c.address))
		lookup, err := c.resolver.LookupCollectionDay(ctx, c.address)
		if err != nil {
			c.logger.Error("Failed to resolve collection day",
				zap.String("address", c.address),
				zap.Error(err))
			return nil, fmt.Errorf("failed to resolve collection day: %w", err)
		}
		c.collectionDay = lookup.CollectionDay
		c.logger.Info("Collection day resolved",
			zap.String("address", c.address),
			zap.String("collection_day", c.collectionDay.String()))
	}

	var holidayErr error
	if c.refresher != nil {
		if _, err := c.refresher.Refresh(ctx); err != nil {
			holidayErr = err
			c.logger.Warn("Could not update holiday schedule, using cached holidays",
				zap.Int("cached_holidays", c.registry.Current().Len()),
				zap.Error(err))
		}
	}

	// one snapshot for the whole generation pass
	snapshot := c.registry.Current()
	engine := schedule.NewEngine(snapshot, c.logger)
	generator := schedule.NewGenerator(engine, c.address, c.logger)

	now := c.now()
	occurrences := generator.Generate(dateutil.CalendarDate(now), c.daysAhead, c.collectionDay)

	state := &State{
		Address:       c.address,
		CollectionDay: c.collectionDay,
		Occurrences:   occurrences,
		Holidays:      snapshot,
		HolidayErr:    holidayErr,
		LastUpdated:   now,
	}
	c.state.Store(state)

	c.logger.Info("Refuse schedule updated",
		zap.String("collection_day", c.collectionDay.String()),
		zap.Int("events", len(occurrences)),
		zap.Int("holidays", snapshot.Len()))

	return state, nil
}

// State returns the last published state, nil before the first successful update
func (c *Coordinator) State() *State {
	return c.state.Load()
}

// Events returns occurrences of the current state whose actual date is in [start, end]
func (c *Coordinator) Events(start, end time.Time) []schedule.Occurrence {
	s := c.State()
	if s == nil {
		return nil
	}
	return schedule.Filter(s.Occurrences, start, end)
}

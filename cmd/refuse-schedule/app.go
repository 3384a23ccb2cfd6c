package main

import (
	"fmt"
	"time"

	"github.com/username/refuse-schedule/internal/config"
	"github.com/username/refuse-schedule/internal/coordinator"
	"github.com/username/refuse-schedule/internal/export"
	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/resolver"
	"go.uber.org/zap"
)

// app holds the wired components for one configured address
type app struct {
	cfg         *config.Config
	coordinator *coordinator.Coordinator
}

func newApp(cfg *config.Config) (*app, error) {
	source, err := newHolidaySource(cfg)
	if err != nil {
		return nil, err
	}

	registry := holiday.NewRegistry()

	var store *holiday.Store
	if cfg.Holidays.StateFile != "" {
		store = holiday.NewStore(cfg.Holidays.StateFile, logger)
	}

	refresher := holiday.NewRefresher(source, holiday.NewParser(time.Now, logger), registry, store, logger)
	if err := refresher.Restore(); err != nil {
		logger.Warn("Failed to restore cached holidays", zap.Error(err))
	}

	coord := coordinator.New(cfg.Address, cfg.Schedule.DaysAhead, newResolver(cfg), refresher, registry, time.Now, logger)

	return &app{
		cfg:         cfg,
		coordinator: coord,
	}, nil
}

func (a *app) calendarOptions() export.CalendarOptions {
	return export.CalendarOptions{
		Name:         a.cfg.Server.CalendarName,
		PublishedTTL: a.cfg.Server.PublishedTTL,
	}
}

// newResolver skips the ArcGIS lookup when the collection day is configured
func newResolver(cfg *config.Config) resolver.Resolver {
	if day := cfg.GetCollectionDay(); day != "" {
		logger.Info("Using configured collection day", zap.String("collection_day", day.String()))
		return resolver.Static{Day: day}
	}
	return newArcGISClient(cfg)
}

func newArcGISClient(cfg *config.Config) *resolver.ArcGISClient {
	return resolver.NewArcGISClient(resolver.Options{
		GeocodeURL: cfg.Resolver.GeocodeURL,
		LayerURL:   cfg.Resolver.LayerURL,
		City:       cfg.Resolver.City,
		State:      cfg.Resolver.State,
		Timeout:    cfg.Resolver.GetTimeout(),
	}, logger)
}

// newHolidaySource builds the document source: URL with an optional local file fallback, or the file alone
func newHolidaySource(cfg *config.Config) (holiday.Source, error) {
	var primary holiday.Source
	if cfg.Holidays.URL != "" {
		primary = holiday.NewHTTPSource(cfg.Holidays.URL, cfg.Holidays.GetTimeout(), logger)
	}

	var local holiday.Source
	if cfg.Holidays.File != "" {
		local = holiday.NewFileSource(cfg.Holidays.File, logger)
	}

	switch {
	case primary != nil && local != nil:
		return holiday.NewCompositeSource(primary, local, logger), nil
	case primary != nil:
		return primary, nil
	case local != nil:
		return local, nil
	default:
		return nil, fmt.Errorf("no holiday source configured: set holidays.url or holidays.file")
	}
}

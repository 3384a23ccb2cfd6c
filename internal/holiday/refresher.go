package holiday

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Refresher fetches, parses and installs a new holiday snapshot
type Refresher struct {
	source   Source
	parser   *Parser
	registry *Registry
	store    *Store // optional
	logger   *zap.Logger
}

// NewRefresher creates a new refresher. store may be nil to skip persistence.
func NewRefresher(source Source, parser *Parser, registry *Registry, store *Store, logger *zap.Logger) *Refresher {
	return &Refresher{
		source:   source,
		parser:   parser,
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// Restore installs the persisted snapshot, if any, into the registry
func (r *Refresher) Restore() error {
	if r.store == nil {
		return nil
	}
	snapshot, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("failed to restore holidays: %w", err)
	}
	if snapshot.Len() > 0 {
		r.registry.Replace(snapshot)
	}
	return nil
}

// Refresh replaces the registry contents with a freshly parsed document.
// On any error the registry is left untouched.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	text, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}

	result, err := r.parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse holidays: %w", err)
	}

	snapshot := NewSnapshot(result.Records, r.source.Name(), time.Now())

	if r.store != nil {
		// a failed save keeps the fresh data in memory
		if err := r.store.Save(snapshot); err != nil {
			r.logger.Warn("Failed to persist holiday snapshot", zap.Error(err))
		}
	}

	r.registry.Replace(snapshot)

	r.logger.Info("Holiday schedule updated",
		zap.String("source", r.source.Name()),
		zap.Int("holidays", snapshot.Len()),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.Duration("took", time.Since(start)))

	return snapshot, nil
}

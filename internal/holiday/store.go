package holiday

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

// storedState represents the persisted last-known-good holiday snapshot
type storedState struct {
	Source    string          `json:"source"`
	FetchedAt string          `json:"fetched_at"`
	SavedAt   string          `json:"saved_at"`
	Holidays  []storedHoliday `json:"holidays"`
}

type storedHoliday struct {
	Name        string       `json:"name"`
	Date        string       `json:"date"`
	DayOfWeek   weekday.Name `json:"day_of_week"`
	Adjustment  Rule         `json:"adjustment"`
	Description string       `json:"description"`
}

// Store persists holiday snapshots to a JSON file
type Store struct {
	stateFile string
	logger    *zap.Logger
}

// NewStore creates a new snapshot store
func NewStore(stateFile string, logger *zap.Logger) *Store {
	return &Store{
		stateFile: stateFile,
		logger:    logger,
	}
}

// Load loads the last saved snapshot. A missing file yields an empty snapshot.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return EmptySnapshot(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state storedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	records := make([]Record, 0, len(state.Holidays))
	for _, h := range state.Holidays {
		date, err := dateutil.ParseKey(h.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holiday date %q: %w", h.Date, err)
		}
		records = append(records, Record{
			Name:        h.Name,
			Date:        date,
			DayOfWeek:   h.DayOfWeek,
			Rule:        h.Adjustment,
			Description: h.Description,
		})
	}

	var fetchedAt time.Time
	if state.FetchedAt != "" {
		fetchedAt, err = time.Parse(time.RFC3339, state.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
		}
	}

	s.logger.Info("Holiday state loaded",
		zap.String("file", s.stateFile),
		zap.Int("holidays", len(records)),
		zap.Time("fetched_at", fetchedAt))

	return NewSnapshot(records, state.Source, fetchedAt), nil
}

// Save writes the snapshot to a temp file next to the state file and renames it into place
func (s *Store) Save(snapshot *Snapshot) error {
	state := storedState{
		Source:    snapshot.Source(),
		FetchedAt: snapshot.FetchedAt().Format(time.RFC3339),
		SavedAt:   time.Now().Format(time.RFC3339),
	}
	for _, r := range snapshot.Records() {
		state.Holidays = append(state.Holidays, storedHoliday{
			Name:        r.Name,
			Date:        dateutil.Key(r.Date),
			DayOfWeek:   r.DayOfWeek,
			Adjustment:  r.Rule,
			Description: r.Description,
		})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.stateFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.stateFile)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpName, s.stateFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.logger.Info("Holiday state saved",
		zap.String("file", s.stateFile),
		zap.Int("holidays", len(state.Holidays)))

	return nil
}

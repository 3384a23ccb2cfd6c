package holiday

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/username/refuse-schedule/pkg/dateutil"
)

// Snapshot is an immutable set of holiday records keyed by calendar date
type Snapshot struct {
	records   map[string]Record
	source    string
	fetchedAt time.Time
}

// NewSnapshot builds a snapshot from parsed records. A later record for the same date replaces an earlier one.
func NewSnapshot(records []Record, source string, fetchedAt time.Time) *Snapshot {
	byDate := make(map[string]Record, len(records))
	for _, r := range records {
		r.Date = dateutil.CalendarDate(r.Date)
		byDate[dateutil.Key(r.Date)] = r
	}
	return &Snapshot{
		records:   byDate,
		source:    source,
		fetchedAt: fetchedAt,
	}
}

// EmptySnapshot returns a snapshot without holidays
func EmptySnapshot() *Snapshot {
	return &Snapshot{records: map[string]Record{}}
}

// Lookup returns the holiday record for the given calendar date
func (s *Snapshot) Lookup(date time.Time) (Record, bool) {
	r, ok := s.records[dateutil.Key(date)]
	return r, ok
}

// Records returns all records sorted by date
func (s *Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Len returns the number of holidays in the snapshot
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Source returns where the snapshot was loaded from
func (s *Snapshot) Source() string {
	return s.source
}

// FetchedAt returns when the underlying document was fetched. Zero for an empty snapshot.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Registry holds the current holiday snapshot. Replacing it never affects
// readers that already hold the previous snapshot.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry holding an empty snapshot
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(EmptySnapshot())
	return r
}

// Current returns the active snapshot; never nil
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Replace installs a new snapshot. A nil snapshot is ignored.
func (r *Registry) Replace(s *Snapshot) {
	if s == nil {
		return
	}
	r.current.Store(s)
}

package holiday

import (
	"testing"
	"time"

	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
)

func TestNewSnapshot_LaterRecordWins(t *testing.T) {
	date := dateutil.Date(2025, 5, 26)
	records := []Record{
		{Name: "Memorial Day", Date: date, DayOfWeek: weekday.Monday, Rule: NoDelay()},
		{Name: "Tuesday Only", Date: dateutil.Date(2025, 5, 27), DayOfWeek: weekday.Tuesday, Rule: Accelerated()},
		{Name: "Memorial Day (revised)", Date: date, DayOfWeek: weekday.Monday, Rule: ShiftOneDay(weekday.Monday)},
	}

	s := NewSnapshot(records, "test", time.Time{})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got, ok := s.Lookup(date)
	if !ok {
		t.Fatal("Lookup() found no record")
	}
	if got.Name != "Memorial Day (revised)" || got.Rule.Kind != KindShiftOneDay {
		t.Errorf("Lookup() = %+v, want the revised record", got)
	}
}

func TestSnapshot_LookupIgnoresClock(t *testing.T) {
	s := NewSnapshot([]Record{
		{Name: "Labor Day", Date: dateutil.Date(2025, 9, 1), Rule: NoDelay()},
	}, "test", time.Time{})

	if _, ok := s.Lookup(time.Date(2025, 9, 1, 17, 45, 0, 0, time.UTC)); !ok {
		t.Error("Lookup() with a time of day should find the record")
	}
	if _, ok := s.Lookup(dateutil.Date(2025, 9, 2)); ok {
		t.Error("Lookup() found a record for a non-holiday")
	}
}

func TestSnapshot_RecordsSorted(t *testing.T) {
	s := NewSnapshot([]Record{
		{Name: "Christmas Day", Date: dateutil.Date(2025, 12, 25)},
		{Name: "New Year's Day", Date: dateutil.Date(2025, 1, 1)},
		{Name: "Labor Day", Date: dateutil.Date(2025, 9, 1)},
	}, "test", time.Time{})

	records := s.Records()
	for i := 1; i < len(records); i++ {
		if !records[i-1].Date.Before(records[i].Date) {
			t.Errorf("Records() not sorted at %d: %v then %v", i, records[i-1].Date, records[i].Date)
		}
	}
}

func TestRegistry_ReplaceKeepsOldSnapshot(t *testing.T) {
	r := NewRegistry()

	empty := r.Current()
	if empty == nil || empty.Len() != 0 {
		t.Fatalf("Current() = %v, want empty snapshot", empty)
	}

	first := NewSnapshot([]Record{{Name: "A", Date: dateutil.Date(2025, 1, 1)}}, "first", time.Now())
	r.Replace(first)

	held := r.Current()

	second := NewSnapshot(nil, "second", time.Now())
	r.Replace(second)

	if held.Len() != 1 || held.Source() != "first" {
		t.Errorf("held snapshot changed after Replace: len=%d source=%s", held.Len(), held.Source())
	}
	if r.Current() != second {
		t.Error("Current() should return the latest snapshot")
	}

	r.Replace(nil)
	if r.Current() != second {
		t.Error("Replace(nil) should be ignored")
	}
}

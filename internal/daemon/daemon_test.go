package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/username/refuse-schedule/internal/coordinator"
	"github.com/username/refuse-schedule/internal/export"
	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/schedule"
	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

type fakeScheduler struct {
	mu    sync.Mutex
	state *coordinator.State
	err   error
	calls atomic.Int32
}

func (f *fakeScheduler) Update(ctx context.Context) (*coordinator.State, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeScheduler) State() *coordinator.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func testState() *coordinator.State {
	address := "1 S Sandusky St"
	snapshot := holiday.NewSnapshot([]holiday.Record{
		{
			Name:      "Test Holiday",
			Date:      dateutil.Date(2025, 1, 22),
			DayOfWeek: weekday.Wednesday,
			Rule:      holiday.ShiftOneDay(weekday.Wednesday),
		},
	}, "fake", time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC))

	return &coordinator.State{
		Address:       address,
		CollectionDay: weekday.Wednesday,
		Holidays:      snapshot,
		LastUpdated:   time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC),
		Occurrences: []schedule.Occurrence{
			{
				ScheduledDate: dateutil.Date(2025, 1, 15),
				ActualDate:    dateutil.Date(2025, 1, 15),
				Address:       address,
				Summary:       schedule.Summary,
				AllDay:        true,
			},
			{
				ScheduledDate: dateutil.Date(2025, 1, 22),
				ActualDate:    dateutil.Date(2025, 1, 23),
				Address:       address,
				Summary:       schedule.Summary,
				AllDay:        true,
				Holiday:       "Test Holiday",
				Reason:        "Test Holiday",
			},
		},
	}
}

func newTestServer(t *testing.T, sched *fakeScheduler) (*Server, *Daemon) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	d := NewDaemon(sched, time.Hour, logger)
	srv := NewServer(sched, d, export.CalendarOptions{Name: "Test Calendar"}, logger)
	return srv, d
}

func serve(srv *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_NotReady(t *testing.T) {
	srv, _ := newTestServer(t, &fakeScheduler{})

	for _, path := range []string{"/calendar.ics", "/api/events", "/api/holidays"} {
		rec := serve(srv, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusServiceUnavailable)
		}
	}
}

func TestServer_Calendar(t *testing.T) {
	srv, _ := newTestServer(t, &fakeScheduler{state: testState()})

	rec := serve(srv, "/calendar.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	contentType := rec.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/calendar") {
		t.Errorf("Expected Content-Type text/calendar, got %s", contentType)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"X-WR-CALNAME:Test Calendar",
		"DTSTART;VALUE=DATE:20250123",
		"DTEND;VALUE=DATE:20250124",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %s", want)
		}
	}
}

func TestServer_Events(t *testing.T) {
	srv, _ := newTestServer(t, &fakeScheduler{state: testState()})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantEvents int
	}{
		{"all", "", http.StatusOK, 2},
		{"range", "?start=2025-01-20&end=2025-01-26", http.StatusOK, 1},
		{"open end", "?start=2025-01-16", http.StatusOK, 1},
		{"empty range", "?start=2025-02-01&end=2025-02-28", http.StatusOK, 0},
		{"bad start", "?start=01/20/2025", http.StatusBadRequest, 0},
		{"reversed", "?start=2025-01-26&end=2025-01-20", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, "/api/events"+tt.query)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var events []eventResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(events) != tt.wantEvents {
				t.Errorf("got %d events, want %d", len(events), tt.wantEvents)
			}
		})
	}
}

func TestServer_EventsMoved(t *testing.T) {
	srv, _ := newTestServer(t, &fakeScheduler{state: testState()})

	rec := serve(srv, "/api/events?start=2025-01-20&end=2025-01-26")
	var events []eventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	e := events[0]
	if e.ScheduledDate != "2025-01-22" || e.ActualDate != "2025-01-23" || !e.Moved {
		t.Errorf("event = %+v", e)
	}
}

func TestServer_Holidays(t *testing.T) {
	srv, _ := newTestServer(t, &fakeScheduler{state: testState()})

	rec := serve(srv, "/api/holidays")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Source   string `json:"source"`
		Holidays []struct {
			Name       string `json:"name"`
			Date       string `json:"date"`
			Adjustment struct {
				Type            string `json:"type"`
				NoCollectionDay string `json:"no_collection_day"`
			} `json:"adjustment"`
		} `json:"holidays"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "fake" {
		t.Errorf("source = %q", resp.Source)
	}
	if len(resp.Holidays) != 1 {
		t.Fatalf("got %d holidays", len(resp.Holidays))
	}
	h := resp.Holidays[0]
	if h.Date != "2025-01-22" || h.Adjustment.Type != "shift_one_day" || h.Adjustment.NoCollectionDay != "Wednesday" {
		t.Errorf("holiday = %+v", h)
	}
}

func TestServer_Status(t *testing.T) {
	sched := &fakeScheduler{state: testState()}
	srv, d := newTestServer(t, sched)

	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	rec := serve(srv, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.CollectionDay != "Wednesday" || status.Events != 2 || status.Holidays != 1 {
		t.Errorf("status = %+v", status)
	}
	if status.LastError != "" {
		t.Errorf("LastError = %q", status.LastError)
	}
	if status.LastSuccess.IsZero() {
		t.Error("LastSuccess should be set")
	}
}

func TestDaemon_RunOnceRecordsError(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := &fakeScheduler{err: errors.New("address not found: 0 Nowhere")}
	d := NewDaemon(sched, time.Hour, logger)

	if _, err := d.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() expected error")
	}

	status := d.GetStatus()
	if status.LastError != "address not found: 0 Nowhere" {
		t.Errorf("LastError = %q", status.LastError)
	}
	if status.LastRun.IsZero() {
		t.Error("LastRun should be set")
	}
	if !status.LastSuccess.IsZero() {
		t.Error("LastSuccess should stay zero")
	}
}

func TestDaemon_RunWithTimeout(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := &fakeScheduler{state: testState()}
	d := NewDaemon(sched, 20*time.Millisecond, logger)

	if err := d.RunWithTimeout(110 * time.Millisecond); err != nil {
		t.Fatalf("RunWithTimeout() error = %v", err)
	}

	// immediate run plus at least one tick
	if calls := sched.calls.Load(); calls < 2 {
		t.Errorf("Update called %d times, want at least 2", calls)
	}
	if d.GetStatus().Running {
		t.Error("daemon should not report running after the loop exits")
	}
}

func TestDaemon_InvalidInterval(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	d := NewDaemon(&fakeScheduler{}, 0, logger)

	if err := d.RunWithTimeout(10 * time.Millisecond); err == nil {
		t.Error("RunWithTimeout() with zero interval expected error")
	}
}

package daemon

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/username/refuse-schedule/internal/coordinator"
	"github.com/username/refuse-schedule/internal/export"
	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/schedule"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

// StateSource provides the last published schedule state
type StateSource interface {
	State() *coordinator.State
}

// StatusSource provides daemon status
type StatusSource interface {
	GetStatus() Status
}

type eventResponse struct {
	ScheduledDate string `json:"scheduled_date"`
	ActualDate    string `json:"actual_date"`
	Summary       string `json:"summary"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	AllDay        bool   `json:"all_day"`
	Moved         bool   `json:"moved"`
	Holiday       string `json:"holiday,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type holidayResponse struct {
	Name        string       `json:"name"`
	Date        string       `json:"date"`
	DayOfWeek   string       `json:"day_of_week"`
	Adjustment  holiday.Rule `json:"adjustment"`
	Description string       `json:"description,omitempty"`
}

type holidaysResponse struct {
	Source    string            `json:"source,omitempty"`
	FetchedAt time.Time         `json:"fetched_at,omitempty"`
	Holidays  []holidayResponse `json:"holidays"`
}

// Server serves the ICS subscription feed and a small JSON API
type Server struct {
	echo     *echo.Echo
	states   StateSource
	status   StatusSource
	calendar export.CalendarOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewServer creates a calendar server. status may be nil.
func NewServer(states StateSource, status StatusSource, calendar export.CalendarOptions, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		states:   states,
		status:   status,
		calendar: calendar,
		logger:   logger,
		now:      time.Now,
	}

	e.GET("/calendar.ics", s.handleCalendar)
	e.GET("/api/events", s.handleEvents)
	e.GET("/api/holidays", s.handleHolidays)
	e.GET("/api/status", s.handleStatus)

	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) currentState() (*coordinator.State, error) {
	state := s.states.State()
	if state == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "schedule not available yet")
	}
	return state, nil
}

func (s *Server) handleCalendar(c echo.Context) error {
	state, err := s.currentState()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteICS(&buf, state.Occurrences, s.calendar, s.now()); err != nil {
		s.logger.Error("Failed to render calendar", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render calendar")
	}

	c.Response().Header().Set("Content-Disposition", `inline; filename="refuse-schedule.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (s *Server) handleEvents(c echo.Context) error {
	state, err := s.currentState()
	if err != nil {
		return err
	}

	occurrences := state.Occurrences
	start, end := c.QueryParam("start"), c.QueryParam("end")
	if start != "" || end != "" {
		from, to, err := parseRange(start, end)
		if err != nil {
			return err
		}
		occurrences = schedule.Filter(occurrences, from, to)
	}

	events := make([]eventResponse, 0, len(occurrences))
	for _, o := range occurrences {
		events = append(events, eventResponse{
			ScheduledDate: dateutil.Key(o.ScheduledDate),
			ActualDate:    dateutil.Key(o.ActualDate),
			Summary:       o.Summary,
			Description:   o.Description,
			Location:      o.Address,
			AllDay:        o.AllDay,
			Moved:         o.Moved(),
			Holiday:       o.Holiday,
			Reason:        o.Reason,
		})
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleHolidays(c echo.Context) error {
	state, err := s.currentState()
	if err != nil {
		return err
	}

	records := state.Holidays.Records()
	resp := holidaysResponse{
		Source:    state.Holidays.Source(),
		FetchedAt: state.Holidays.FetchedAt(),
		Holidays:  make([]holidayResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Holidays = append(resp.Holidays, holidayResponse{
			Name:        r.Name,
			Date:        dateutil.Key(r.Date),
			DayOfWeek:   r.DayOfWeek.String(),
			Adjustment:  r.Rule,
			Description: r.Description,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c echo.Context) error {
	if s.status == nil {
		return echo.NewHTTPError(http.StatusNotFound, "status not available")
	}
	return c.JSON(http.StatusOK, s.status.GetStatus())
}

// parseRange parses an inclusive YYYY-MM-DD range; a missing bound is open
func parseRange(start, end string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	if start != "" {
		t, err := dateutil.ParseKey(start)
		if err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		}
		from = t
	}
	if end != "" {
		t, err := dateutil.ParseKey(end)
		if err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
		}
		to = t
	}
	if to.Before(from) {
		return from, to, echo.NewHTTPError(http.StatusBadRequest, "end date is before start date")
	}
	return from, to, nil
}

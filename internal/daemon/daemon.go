package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/username/refuse-schedule/internal/coordinator"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Scheduler runs one update cycle and exposes its last published state
type Scheduler interface {
	Update(ctx context.Context) (*coordinator.State, error)
	State() *coordinator.State
}

// Status is a point-in-time view of the daemon for the status endpoint
type Status struct {
	Running       bool      `json:"running"`
	Interval      string    `json:"update_interval"`
	LastRun       time.Time `json:"last_run,omitempty"`
	LastSuccess   time.Time `json:"last_success,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	NextRun       time.Time `json:"next_run,omitempty"`
	Address       string    `json:"address,omitempty"`
	CollectionDay string    `json:"collection_day,omitempty"`
	Events        int       `json:"events"`
	Holidays      int       `json:"holidays"`
	HolidayError  string    `json:"holiday_error,omitempty"`
}

// Daemon represents the daemon process
type Daemon struct {
	scheduler Scheduler
	interval  time.Duration
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	server *Server
	listen string

	mu          sync.Mutex // protects the fields below
	running     bool
	updating    bool
	lastRun     time.Time
	lastSuccess time.Time
	lastErr     error
	nextRun     time.Time
}

// NewDaemon creates a new daemon that runs an update every interval
func NewDaemon(scheduler Scheduler, interval time.Duration, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		scheduler: scheduler,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AttachServer serves srv on listen while the daemon runs
func (d *Daemon) AttachServer(srv *Server, listen string) {
	d.server = srv
	d.listen = listen
}

// Start runs an update immediately, then on every tick until stopped or signalled
func (d *Daemon) Start() error {
	d.logger.Info("Daemon started",
		zap.Duration("update_interval", d.interval))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErr := d.startServer()
	defer d.stopServer()

	return d.loop(d.ctx, sigChan, serverErr)
}

// RunWithTimeout runs the update loop for the given duration without signal handling
func (d *Daemon) RunWithTimeout(timeout time.Duration) error {
	d.logger.Info("Daemon started with timeout",
		zap.Duration("timeout", timeout),
		zap.Duration("update_interval", d.interval))

	timeoutCtx, timeoutCancel := context.WithTimeout(d.ctx, timeout)
	defer timeoutCancel()

	return d.loop(timeoutCtx, nil, nil)
}

func (d *Daemon) loop(ctx context.Context, sigChan <-chan os.Signal, serverErr <-chan error) error {
	if d.interval <= 0 {
		return fmt.Errorf("invalid update interval: %s", d.interval)
	}

	d.setRunning(true)
	defer d.setRunning(false)

	go d.runUpdate(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Daemon stopped")
			return nil

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
			return nil

		case err := <-serverErr:
			d.Stop()
			return fmt.Errorf("calendar server failed: %w", err)

		case <-ticker.C:
			go d.runUpdate(ctx)
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// RunOnce performs a single update cycle and records its outcome
func (d *Daemon) RunOnce(ctx context.Context) (*coordinator.State, error) {
	d.mu.Lock()
	if d.updating {
		d.mu.Unlock()
		d.logger.Warn("Update already running, skipping concurrent execution")
		return nil, fmt.Errorf("update already in progress")
	}
	d.updating = true
	d.mu.Unlock()

	started := time.Now()
	state, err := d.scheduler.Update(ctx)

	d.mu.Lock()
	d.updating = false
	d.lastRun = started
	d.lastErr = err
	if err == nil {
		d.lastSuccess = started
	}
	if d.running {
		d.nextRun = started.Add(d.interval)
	}
	d.mu.Unlock()

	return state, err
}

func (d *Daemon) runUpdate(ctx context.Context) {
	d.logger.Info("Running scheduled update")

	state, err := d.RunOnce(ctx)
	if err != nil {
		d.logger.Error("Update failed", zap.Error(err))
		return
	}

	d.logger.Info("Update completed",
		zap.String("collection_day", state.CollectionDay.String()),
		zap.Int("events", len(state.Occurrences)),
		zap.Time("next_run", time.Now().Add(d.interval)))
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() Status {
	d.mu.Lock()
	status := Status{
		Running:     d.running,
		Interval:    d.interval.String(),
		LastRun:     d.lastRun,
		LastSuccess: d.lastSuccess,
		NextRun:     d.nextRun,
	}
	if d.lastErr != nil {
		status.LastError = d.lastErr.Error()
	}
	d.mu.Unlock()

	if state := d.scheduler.State(); state != nil {
		status.Address = state.Address
		status.CollectionDay = state.CollectionDay.String()
		status.Events = len(state.Occurrences)
		status.Holidays = state.Holidays.Len()
		if state.HolidayErr != nil {
			status.HolidayError = state.HolidayErr.Error()
		}
	}
	return status
}

func (d *Daemon) setRunning(running bool) {
	d.mu.Lock()
	d.running = running
	if !running {
		d.nextRun = time.Time{}
	}
	d.mu.Unlock()
}

func (d *Daemon) startServer() <-chan error {
	if d.server == nil || d.listen == "" {
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("Calendar server listening", zap.String("listen", d.listen))
		if err := d.server.Start(d.listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (d *Daemon) stopServer() {
	if d.server == nil || d.listen == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := d.server.Shutdown(ctx); err != nil {
		d.logger.Error("Calendar server forced shutdown", zap.Error(err))
	}
}

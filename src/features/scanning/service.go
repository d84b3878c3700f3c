package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"shellac/src/catalog"
	"shellac/src/features/config"
)

// Status is the scheduler state. There are exactly two: a scan is
// running or it is not. Triggers while scanning are rejected rather
// than queued, so two reconciliations can never interleave on the same
// catalog.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusScanning Status = "scanning"
)

// ErrScanInProgress is returned by Trigger while a scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// ErrNoScanRunning is returned by Cancel when there is nothing to
// cancel.
var ErrNoScanRunning = errors.New("no scan in progress")

// Summary describes one finished scan.
type Summary struct {
	ID       string    `json:"id"`
	Scope    []string  `json:"scope"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Folders  int       `json:"folders"`
	Files    int       `json:"files"`
	Errors   int       `json:"errors"`
	Added    int       `json:"added"`
	Changed  int       `json:"changed"`
	Removed  int       `json:"removed"`
	Error    string    `json:"error,omitempty"`
}

// Recorder receives scan lifecycle events, e.g. for metrics export.
type Recorder interface {
	ScanStarted()
	ScanFinished(summary *Summary, failed bool)
}

// Service owns scan scheduling: the startup scan, the periodic
// interval, manual triggers and cancellation. One scan at a time.
type Service struct {
	config   *config.Manager
	store    catalog.Store
	builder  *Builder
	recorder Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	last   *Summary
	cron   *cron.Cron
	wg     sync.WaitGroup
}

// NewService creates a new scanning service.
func NewService(cfg *config.Manager, store catalog.Store, builder *Builder, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{
		config:   cfg,
		store:    store,
		builder:  builder,
		recorder: recorder,
		logger:   logger,
		status:   StatusIdle,
	}
}

// Start kicks off the startup scan if configured and schedules the
// periodic one.
func (s *Service) Start() error {
	cfg := s.config.Get()

	if cfg.Scan.OnStart {
		if _, err := s.Trigger(nil); err != nil {
			return err
		}
	}

	if cfg.Scan.Interval > 0 {
		s.cron = cron.New()
		spec := fmt.Sprintf("@every %s", cfg.Scan.Interval)
		if _, err := s.cron.AddFunc(spec, func() {
			if _, err := s.Trigger(nil); errors.Is(err, ErrScanInProgress) {
				s.logger.Debug("Scheduled scan skipped, previous one still running")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule periodic scan: %w", err)
		}
		s.cron.Start()
		s.logger.Info("Periodic scan scheduled", "interval", cfg.Scan.Interval)
	}
	return nil
}

// Stop cancels any running scan, stops the schedule and waits for the
// scan goroutine to drain.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Trigger starts a scan of the given roots, or of all configured
// library roots when scope is empty. It returns the scan id
// immediately; the scan itself runs in the background.
func (s *Service) Trigger(scope []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusScanning {
		return "", ErrScanInProgress
	}

	if len(scope) == 0 {
		scope = s.config.Get().LibraryRoots
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	s.status = StatusScanning
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, id, scope)
	}()
	return id, nil
}

// Cancel stops the running scan. The catalog keeps whatever state the
// last completed reconciliation left; a cancelled scan applies nothing.
func (s *Service) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusScanning {
		return ErrNoScanRunning
	}
	s.cancel()
	return nil
}

// Status returns the scheduler state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSummary returns the most recent finished scan, or nil if none
// has finished yet.
func (s *Service) LastSummary() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cpy := *s.last
	return &cpy
}

func (s *Service) run(ctx context.Context, id string, scope []string) {
	logger := s.logger.With("scan", id)
	summary := &Summary{ID: id, Scope: scope, Started: time.Now().UTC()}
	if s.recorder != nil {
		s.recorder.ScanStarted()
	}
	logger.Info("Scan started", "scope", scope)

	err := s.scan(ctx, logger, scope, summary)
	summary.Finished = time.Now().UTC()
	failed := err != nil
	if failed {
		if errors.Is(err, context.Canceled) {
			summary.Error = "cancelled"
			logger.Info("Scan cancelled", "duration", summary.Finished.Sub(summary.Started))
		} else {
			summary.Error = err.Error()
			logger.Error("Scan failed", "error", err, "duration", summary.Finished.Sub(summary.Started))
		}
	} else {
		logger.Info("Scan finished",
			"duration", summary.Finished.Sub(summary.Started),
			"folders", summary.Folders,
			"files", summary.Files,
			"added", summary.Added,
			"changed", summary.Changed,
			"removed", summary.Removed,
			"errors", summary.Errors,
		)
	}

	s.mu.Lock()
	s.status = StatusIdle
	s.cancel = nil
	s.last = summary
	s.mu.Unlock()
	if s.recorder != nil {
		s.recorder.ScanFinished(summary, failed)
	}
}

func (s *Service) scan(ctx context.Context, logger *slog.Logger, scope []string, summary *Summary) error {
	current, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted snapshot: %w", err)
	}

	desired, stats, err := s.builder.Build(ctx, scope, current)
	if err != nil {
		return err
	}
	summary.Folders = stats.Folders
	summary.Files = stats.Files
	summary.Errors = stats.Errors
	if err := ctx.Err(); err != nil {
		return err
	}

	plan := Diff(current, desired, scope)
	summary.Added = plan.Added
	summary.Changed = plan.Changed
	summary.Removed = plan.Removed
	if plan.Empty() {
		logger.Info("Catalog already up to date")
		return nil
	}

	if err := s.store.Apply(ctx, plan); err != nil {
		return fmt.Errorf("failed to apply reconciliation plan: %w", err)
	}
	return nil
}

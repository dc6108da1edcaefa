package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sysme/poscheck/internal/browser"
	"github.com/sysme/poscheck/internal/config"
	"github.com/sysme/poscheck/internal/fault"
	"github.com/sysme/poscheck/internal/posapi"
	"github.com/sysme/poscheck/internal/runlog"
	"github.com/sysme/poscheck/internal/session"
)

// Runner executes scenarios sequentially against one configured
// backend. Each scenario gets a fresh API client, session manager, and
// trace, so tokens stay scenario-scoped.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	log    *runlog.Store // optional run history
	runID  string
}

// NewRunner creates a runner. log may be nil to disable run history.
func NewRunner(cfg *config.Config, logger *slog.Logger, log *runlog.Store) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		log:    log,
		runID:  uuid.NewString(),
	}
}

// RunID identifies this runner's batch in the run log.
func (r *Runner) RunID() string { return r.runID }

// Run executes the scenarios in order and returns one result each.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		result := r.runOne(ctx, s)
		results = append(results, result)
		r.record(ctx, result)
	}
	return results
}

// runOne executes a single scenario through its phases.
//
// Cleanup always runs - after a passing verify, after the first hard
// failure, after an infrastructure error, and after a panic. A cleanup
// error is logged and recorded but never overrides an earlier error.
func (r *Runner) runOne(ctx context.Context, s Scenario) Result {
	result := Result{Name: s.Name, StartedAt: time.Now()}

	if s.NeedsBrowser && r.cfg.Browser.DriverURL == "" {
		r.logger.Info("scenario skipped", "scenario", s.Name, "reason", "no browser driver configured")
		result.Skipped = true
		result.Duration = time.Since(result.StartedAt)
		return result
	}

	sc := &Context{Config: r.cfg}
	sc.API = posapi.New(r.cfg.BaseURL, r.cfg.Timeout(),
		posapi.WithRecorder(sc),
		posapi.WithLogger(r.logger),
	)
	sc.Sessions = session.NewManager(sc.API, r.cfg.Roles, r.logger)
	if r.cfg.Browser.DriverURL != "" {
		sc.Browser = browser.NewRemote(r.cfg.Browser.DriverURL, r.cfg.Timeout(), r.logger)
	}

	r.logger.Info("scenario started", "scenario", s.Name)
	err := r.runPhases(ctx, s, sc)

	// Cleanup runs regardless of err, on this exit path and every other.
	if s.Cleanup != nil {
		if cerr := r.runPhase(ctx, "cleanup", s.Cleanup, sc); cerr != nil {
			cleanupErr := fault.Cleanup("cleanup", fmt.Sprintf("scenario %s cleanup failed", s.Name), cerr)
			r.logger.Warn("cleanup failed", "scenario", s.Name, "error", cleanupErr)
			result.CleanupErr = cleanupErr.Error()
		}
	}

	result.Failures = sc.failures
	result.Advisories = sc.advisories
	result.Trace = sc.trace
	result.Duration = time.Since(result.StartedAt)

	if err != nil {
		result.Pass = false
		result.Class = fault.ClassOf(err)
		result.Err = err.Error()
		r.logger.Info("scenario failed", "scenario", s.Name, "class", result.Class, "duration", result.Duration)
		return result
	}

	result.Pass = true
	r.logger.Info("scenario passed", "scenario", s.Name, "duration", result.Duration)
	return result
}

// runPhases executes setup, act, and verify, stopping at the first error.
func (r *Runner) runPhases(ctx context.Context, s Scenario, sc *Context) error {
	phases := []struct {
		name string
		fn   Phase
	}{
		{"setup", s.Setup},
		{"act", s.Act},
		{"verify", s.Verify},
	}
	for _, phase := range phases {
		if phase.fn == nil {
			continue
		}
		if err := r.runPhase(ctx, phase.name, phase.fn, sc); err != nil {
			return fmt.Errorf("%s: %w", phase.name, err)
		}
	}
	return nil
}

// runPhase invokes one phase with panic containment. A panicking phase
// must not take the whole run down or skip cleanup of other scenarios.
func (r *Runner) runPhase(ctx context.Context, name string, fn Phase, sc *Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fault.Infrastructure(name, fmt.Sprintf("phase panicked: %v", rec), nil)
		}
	}()
	return fn(ctx, sc)
}

// record appends the result to the run log, best-effort.
func (r *Runner) record(ctx context.Context, result Result) {
	if r.log == nil {
		return
	}
	entry := runlog.Entry{
		RunID:        r.runID,
		Scenario:     result.Name,
		Outcome:      result.Outcome(),
		Class:        string(result.Class),
		FirstFailure: result.FirstFailure(),
		Duration:     result.Duration,
		StartedAt:    result.StartedAt,
	}
	if err := r.log.Record(ctx, entry); err != nil {
		r.logger.Warn("failed to record run", "scenario", result.Name, "error", err)
	}
}

// Package scenario executes verification scenarios as ordered phases:
// setup (acquire prerequisite state), act (the operation under test),
// verify (assertions), cleanup (always runs). Scenarios run
// sequentially; each owns its tokens and trace, so nothing an earlier
// scenario does can invalidate a later one except through the backend
// itself.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/sysme/poscheck/internal/browser"
	"github.com/sysme/poscheck/internal/check"
	"github.com/sysme/poscheck/internal/config"
	"github.com/sysme/poscheck/internal/fault"
	"github.com/sysme/poscheck/internal/posapi"
	"github.com/sysme/poscheck/internal/session"
)

// Phase is one step of a scenario. A nil phase is skipped.
type Phase func(ctx context.Context, sc *Context) error

// Scenario is a named workflow verification.
type Scenario struct {
	// Name uniquely identifies this scenario (CLI argument, run log key).
	Name string

	// Description explains what this scenario verifies.
	Description string

	// NeedsBrowser marks UI-level scenarios. They are skipped when no
	// browser driver is configured.
	NeedsBrowser bool

	// Setup acquires prerequisite state (e.g. ensure no cash session
	// is active). Failures here abort before Act.
	Setup Phase

	// Act performs the operation under test.
	Act Phase

	// Verify asserts on the observed responses and state.
	Verify Phase

	// Cleanup reverses side effects (delete created entities, close
	// sessions). It always runs, even when earlier phases failed, and
	// its errors never mask theirs.
	Cleanup Phase
}

// Context carries the shared capabilities and accumulated observations
// of one scenario execution. It implements posapi.Recorder so every
// HTTP call lands in the trace.
type Context struct {
	Config   *config.Config
	API      *posapi.Client
	Sessions *session.Manager
	Browser  browser.Driver // nil unless a driver is configured

	trace      []posapi.CallEvent
	failures   []check.Failure
	advisories []check.Failure
	values     map[string]any
}

// Record implements posapi.Recorder.
func (sc *Context) Record(ev posapi.CallEvent) {
	sc.trace = append(sc.trace, ev)
}

// Trace returns the HTTP calls observed so far, in order.
func (sc *Context) Trace() []posapi.CallEvent { return sc.trace }

// Check records a check outcome. A nil failure is a pass. Soft
// advisories are collected and the scenario continues; the first hard
// failure is returned as an assertion error, aborting the phase.
func (sc *Context) Check(f *check.Failure) error {
	if f == nil {
		return nil
	}
	if f.Severity == check.Soft {
		sc.advisories = append(sc.advisories, *f)
		return nil
	}
	sc.failures = append(sc.failures, *f)
	return fault.Assertion(f.Check, f.String(), nil)
}

// CheckAll records every failure in fs before returning the first hard
// one, so reports carry the full set of violations from a schema check
// rather than just the first.
func (sc *Context) CheckAll(fs []*check.Failure) error {
	var firstHard error
	for _, f := range fs {
		err := sc.Check(f)
		if err != nil && firstHard == nil {
			firstHard = err
		}
	}
	return firstHard
}

// Put stores a scratch value for later phases (created ids, tokens).
func (sc *Context) Put(key string, v any) {
	if sc.values == nil {
		sc.values = make(map[string]any)
	}
	sc.values[key] = v
}

// Get returns a scratch value, or nil.
func (sc *Context) Get(key string) any { return sc.values[key] }

// GetString returns a scratch value as a string, or "".
func (sc *Context) GetString(key string) string {
	s, _ := sc.values[key].(string)
	return s
}

// Result is the outcome of one scenario execution.
type Result struct {
	Name        string             `json:"name"`
	Pass        bool               `json:"pass"`
	Skipped     bool               `json:"skipped,omitempty"`
	Class       fault.Class        `json:"class,omitempty"`
	Err         string             `json:"error,omitempty"`
	Failures    []check.Failure    `json:"failures,omitempty"`
	Advisories  []check.Failure    `json:"advisories,omitempty"`
	CleanupErr  string             `json:"cleanup_error,omitempty"`
	Trace       []posapi.CallEvent `json:"trace,omitempty"`
	Duration    time.Duration      `json:"duration"`
	StartedAt   time.Time          `json:"started_at"`
}

// FirstFailure returns the message a report should lead with.
func (r *Result) FirstFailure() string {
	if len(r.Failures) > 0 {
		return r.Failures[0].String()
	}
	return r.Err
}

// Outcome returns the run-log outcome label.
func (r *Result) Outcome() string {
	switch {
	case r.Skipped:
		return "skip"
	case r.Pass:
		return "pass"
	default:
		return "fail"
	}
}

// Summary aggregates results for reporting and exit-code decisions.
type Summary struct {
	Results []Result `json:"results"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Total   int      `json:"total"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	s := Summary{Results: results, Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Pass:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// String renders the one-line totals used at the end of text reports.
func (s Summary) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped, %d total",
		s.Passed, s.Failed, s.Skipped, s.Total)
}

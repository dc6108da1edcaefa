package suite

import (
	"context"
	"net/http"

	"github.com/sysme/poscheck/internal/check"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/session"
	"github.com/sysme/poscheck/internal/state"
)

// CashLifecycle verifies the none → open → closed session machine:
// opening yields an active session with a fresh id, closing terminates
// it, and a post-close current query reports no active session (404 and
// a non-active status are equivalent).
func CashLifecycle() scenario.Scenario {
	return scenario.Scenario{
		Name:        "cash-lifecycle",
		Description: "cash session open/close bracket and current-session queries",
		Setup:       cashSetup,
		Act:         cashAct,
		Verify:      cashVerify,
		Cleanup:     cashCleanup,
	}
}

// cashSetup acquires the cashier session and releases any leftover
// open cash session from an earlier aborted run.
func cashSetup(ctx context.Context, sc *scenario.Context) error {
	tok, err := sc.Sessions.Acquire(ctx, session.RoleCashier)
	if err != nil {
		return err
	}
	sc.Put("token", tok.Value)
	return ensureNoActiveCash(ctx, sc, tok.Value)
}

// cashAct opens a session and records the id the backend reports.
func cashAct(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")

	open, err := sc.API.OpenCash(ctx, token, 100.0)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(open.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}

	id, ok := state.ProbeString(obj(open), state.SessionIDKeys...)
	if !ok {
		return sc.Check(&check.Failure{
			Check:    "session_id",
			Expected: "session id under one of id, session_id",
			Actual:   "missing",
			Severity: check.Hard,
		})
	}

	machine := &state.CashSession{}
	if err := machine.Open(id); err != nil {
		return sc.Check(&check.Failure{
			Check:    "cash_machine",
			Expected: "valid open transition",
			Actual:   err.Error(),
			Severity: check.Hard,
		})
	}
	sc.Put("machine", machine)
	return nil
}

// cashVerify walks the rest of the lifecycle: current is active, close
// terminates, current reflects termination, and a re-open reports a
// fresh id.
func cashVerify(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	machine := sc.Get("machine").(*state.CashSession)

	// Current must reflect the open session.
	current, err := sc.API.CurrentCash(ctx, token)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(current.Status, http.StatusOK)); err != nil {
		return err
	}
	status, _ := state.ProbeString(obj(current), "status")
	if !state.IsActiveStatus(status) {
		return sc.Check(&check.Failure{
			Check:    "current_active",
			Expected: "active session status (open/active/started)",
			Actual:   status,
			Severity: check.Hard,
		})
	}

	// Close and observe termination.
	if err := closeAndVerify(ctx, sc, token, machine); err != nil {
		return err
	}

	// Re-open must mint a fresh id, never resurrect the closed bracket.
	reopen, err := sc.API.OpenCash(ctx, token, 100.0)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(reopen.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	id, _ := state.ProbeString(obj(reopen), state.SessionIDKeys...)
	if err := machine.Open(id); err != nil {
		return sc.Check(&check.Failure{
			Check:    "fresh_session_id",
			Expected: "fresh session id on re-open",
			Actual:   err.Error(),
			Severity: check.Hard,
		})
	}

	return closeAndVerify(ctx, sc, token, machine)
}

// closeAndVerify closes the active session and asserts the terminal
// signals: closed status, closed_at present, and no active session on
// the current query.
func closeAndVerify(ctx context.Context, sc *scenario.Context, token string, machine *state.CashSession) error {
	closed, err := sc.API.CloseCash(ctx, token)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(closed.Status, http.StatusOK)); err != nil {
		return err
	}
	body := obj(closed)
	if err := sc.Check(check.Field(body, "status", check.EqualString("closed"))); err != nil {
		return err
	}
	if _, ok := state.Probe(body, state.ClosedAtKeys...); !ok {
		if err := sc.Check(&check.Failure{
			Check:    "closed_at",
			Expected: "closed_at timestamp on close response",
			Actual:   "absent",
			Severity: check.Soft,
		}); err != nil {
			return err
		}
	}
	if err := machine.Close(); err != nil {
		return sc.Check(&check.Failure{
			Check:    "cash_machine",
			Expected: "valid close transition",
			Actual:   err.Error(),
			Severity: check.Hard,
		})
	}

	current, err := sc.API.CurrentCash(ctx, token)
	if err != nil {
		return err
	}
	if violation := state.VerifyNoActive(current.Status, obj(current)); violation != "" {
		return sc.Check(&check.Failure{
			Check:    "no_active_after_close",
			Expected: "404 or non-active status after close",
			Actual:   violation,
			Severity: check.Hard,
		})
	}
	return nil
}

// cashCleanup closes a session left open by a mid-verify failure.
func cashCleanup(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	if token == "" {
		return nil
	}
	machine, _ := sc.Get("machine").(*state.CashSession)
	if machine == nil || machine.State() != state.CashOpen {
		return nil
	}
	_, err := sc.API.CloseCash(ctx, token)
	return err
}

// ensureNoActiveCash closes whatever session the backend currently
// reports as active, so the scenario starts from the none state.
func ensureNoActiveCash(ctx context.Context, sc *scenario.Context, token string) error {
	current, err := sc.API.CurrentCash(ctx, token)
	if err != nil {
		return err
	}
	if current.Status == http.StatusNotFound {
		return nil
	}
	status, _ := state.ProbeString(obj(current), "status")
	if !state.IsActiveStatus(status) {
		return nil
	}
	_, err = sc.API.CloseCash(ctx, token)
	return err
}

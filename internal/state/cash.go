// Package state encodes the lifecycle state machines the harness
// asserts against: the cash-register session bracket and the order
// pipeline. The machines model the backend's observable behavior, not
// the backend itself - e.g. a rejected double-open is the backend's
// business, but a stale session id on re-open is a harness failure.
package state

import (
	"fmt"
	"net/http"
)

// CashState is the harness-side view of a cashier's session.
type CashState int

const (
	// CashNone means no session has been observed yet.
	CashNone CashState = iota

	// CashOpen means an open has been observed and no close since.
	CashOpen

	// CashClosed means the last observed transition was a close.
	CashClosed
)

// String returns the state label.
func (s CashState) String() string {
	switch s {
	case CashOpen:
		return "open"
	case CashClosed:
		return "closed"
	default:
		return "none"
	}
}

// activeStatuses are the status strings backends use for a live
// session. All three are equivalent.
var activeStatuses = map[string]bool{
	"open":    true,
	"active":  true,
	"started": true,
}

// IsActiveStatus reports whether a status string denotes a live session.
func IsActiveStatus(status string) bool {
	return activeStatuses[status]
}

// CashSession tracks one cashier's session lifecycle across a scenario.
// Transitions validate the none → open → closed machine and reject
// impossible sequences before they turn into confusing API assertions.
type CashSession struct {
	state  CashState
	id     string
	prevID string
}

// State returns the current lifecycle state.
func (c *CashSession) State() CashState { return c.state }

// ID returns the id of the currently open session, or "" when none.
func (c *CashSession) ID() string {
	if c.state != CashOpen {
		return ""
	}
	return c.id
}

// Open records an observed session open. The backend must report a
// fresh id each time; reusing the previous session's id means the open
// did not actually create a new bracket.
func (c *CashSession) Open(id string) error {
	if c.state == CashOpen {
		return fmt.Errorf("cash session already open (id=%s)", c.id)
	}
	if id == "" {
		return fmt.Errorf("cash session opened without an id")
	}
	if id == c.prevID && c.prevID != "" {
		return fmt.Errorf("cash session re-open returned stale id %s", id)
	}
	c.state = CashOpen
	c.id = id
	return nil
}

// Close records an observed session close. Closing with no active
// session is invalid.
func (c *CashSession) Close() error {
	if c.state != CashOpen {
		return fmt.Errorf("cash session close without a prior open (state=%s)", c.state)
	}
	c.state = CashClosed
	c.prevID = c.id
	c.id = ""
	return nil
}

// VerifyNoActive validates a cash/current response observed after a
// close (or before any open). A 404 and a 2xx carrying a non-active
// status are equivalent terminal signals; a live status is a violation.
// Returns a violation description, or "" when the response is acceptable.
func VerifyNoActive(statusCode int, body map[string]any) string {
	if statusCode == http.StatusNotFound {
		return ""
	}
	if statusCode < 200 || statusCode > 299 {
		return fmt.Sprintf("current session query returned unexpected status %d", statusCode)
	}
	if body == nil {
		return ""
	}
	status, ok := ProbeString(body, "status")
	if !ok {
		return ""
	}
	if IsActiveStatus(status) {
		return fmt.Sprintf("current session still reports active status %q after close", status)
	}
	return ""
}

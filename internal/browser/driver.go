// Package browser adapts an external UI-automation engine behind a
// narrow interface. The harness never embeds browser-engine logic: it
// sequences navigate/fill/click/wait calls and leaves element lookup
// and click mechanics to the engine. Locators are opaque strings passed
// through verbatim.
package browser

import (
	"context"
	"time"
)

// Driver is the capability surface UI scenarios program against.
type Driver interface {
	// Navigate loads a URL in the engine's active page.
	Navigate(ctx context.Context, url string) error

	// Fill types a value into the element identified by locator.
	Fill(ctx context.Context, locator, value string) error

	// Click clicks the element identified by locator.
	Click(ctx context.Context, locator string) error

	// WaitForState polls until the engine reports the named UI state,
	// failing with an assertion error if timeout elapses first.
	WaitForState(ctx context.Context, state string, timeout time.Duration) error

	// Frames lists the frame names of the active page.
	Frames(ctx context.Context) ([]string, error)

	// Text returns the visible text of the element identified by
	// locator, for assertion by the check package.
	Text(ctx context.Context, locator string) (string, error)
}

// Settle blocks for a short fixed delay. This is the one sanctioned
// fixed sleep in the harness: a last-resort stabilization wait for
// asynchronous UI updates that expose no observable condition. Anything
// observable must use WaitForState instead.
func Settle(ctx context.Context, d time.Duration) {
	const maxSettle = 2 * time.Second
	if d > maxSettle {
		d = maxSettle
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

package suite

import (
	"context"
	"time"

	"github.com/sysme/poscheck/internal/check"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/session"
)

// Locators are opaque to the harness; these are the ones the POS
// frontend exposes on its login form.
const (
	locUsername = "#login-username"
	locPassword = "#login-password"
	locSubmit   = "#login-submit"
	locUserMenu = "#user-menu"
)

// UILogin verifies the browser-level login flow through the external
// automation engine: navigate to the app, submit credentials, and wait
// for the dashboard state. Waiting is condition-based; no fixed sleeps.
func UILogin() scenario.Scenario {
	return scenario.Scenario{
		Name:         "ui-login",
		Description:  "browser login reaches the dashboard state",
		NeedsBrowser: true,
		Act:          uiLoginAct,
		Verify:       uiLoginVerify,
	}
}

func uiLoginAct(ctx context.Context, sc *scenario.Context) error {
	creds, ok := sc.Config.Role(string(session.RoleAdmin))
	if !ok {
		return sc.Check(&check.Failure{
			Check:    "ui_credentials",
			Expected: "admin credentials configured",
			Actual:   "missing",
			Severity: check.Hard,
		})
	}

	if err := sc.Browser.Navigate(ctx, sc.Config.Browser.AppURL); err != nil {
		return err
	}
	if err := sc.Browser.Fill(ctx, locUsername, creds.Username); err != nil {
		return err
	}
	if err := sc.Browser.Fill(ctx, locPassword, creds.Password); err != nil {
		return err
	}
	if err := sc.Browser.Click(ctx, locSubmit); err != nil {
		return err
	}
	return sc.Browser.WaitForState(ctx, "dashboard", 15*time.Second)
}

func uiLoginVerify(ctx context.Context, sc *scenario.Context) error {
	text, err := sc.Browser.Text(ctx, locUserMenu)
	if err != nil {
		return err
	}
	if text == "" {
		// Some frontends render the user menu lazily; advisory only.
		return sc.Check(&check.Failure{
			Check:    "user_menu",
			Expected: "visible user name in the menu",
			Actual:   "empty",
			Severity: check.Soft,
		})
	}

	frames, err := sc.Browser.Frames(ctx)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return sc.Check(&check.Failure{
			Check:    "frames",
			Expected: "at least the main frame",
			Actual:   "no frames reported",
			Severity: check.Soft,
		})
	}
	return nil
}

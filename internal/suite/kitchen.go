package suite

import (
	"context"
	"net/http"

	"github.com/sysme/poscheck/internal/check"
	"github.com/sysme/poscheck/internal/posapi"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/session"
	"github.com/sysme/poscheck/internal/state"
)

// KitchenFilter verifies the kitchen projection's status filter:
// querying status=preparing must return only orders whose status field
// equals "preparing" exactly. Zero false positives, no partial matches.
func KitchenFilter() scenario.Scenario {
	return scenario.Scenario{
		Name:        "kitchen-filter",
		Description: "kitchen view status filter returns exact matches only",
		Setup:       kitchenSetup,
		Act:         kitchenAct,
		Verify:      kitchenVerify,
	}
}

func kitchenSetup(ctx context.Context, sc *scenario.Context) error {
	tok, err := sc.Sessions.Acquire(ctx, session.RoleWaiter)
	if err != nil {
		return err
	}
	sc.Put("token", tok.Value)
	return nil
}

func kitchenAct(ctx context.Context, sc *scenario.Context) error {
	resp, err := sc.API.KitchenOrders(ctx, sc.GetString("token"), state.OrderPreparing)
	if err != nil {
		return err
	}
	sc.Put("kitchen", resp)
	return nil
}

func kitchenVerify(ctx context.Context, sc *scenario.Context) error {
	resp := sc.Get("kitchen").(*posapi.Response)

	if err := sc.Check(check.Status(resp.Status, http.StatusOK)); err != nil {
		return err
	}

	items := resp.Data()
	if items == nil {
		return sc.Check(&check.Failure{
			Check:    "kitchen_list",
			Expected: "a list of kitchen orders (possibly empty)",
			Actual:   "no list in response",
			Severity: check.Hard,
		})
	}

	for _, violation := range state.FilterViolations(items, state.OrderPreparing) {
		if err := sc.Check(&check.Failure{
			Check:    "kitchen_filter",
			Expected: `only orders with status == "preparing"`,
			Actual:   violation,
			Severity: check.Hard,
		}); err != nil {
			return err
		}
	}
	return nil
}

package suite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sysme/poscheck/internal/check"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/session"
	"github.com/sysme/poscheck/internal/state"
)

// POSWorkflow drives the full cashier workflow end to end: POS login,
// open cash session, place a table order, observe it in the kitchen
// queue, close the session. Each step's contract is asserted as the
// workflow advances, since later steps are meaningless once an earlier
// one is broken.
func POSWorkflow() scenario.Scenario {
	return scenario.Scenario{
		Name:        "pos-workflow",
		Description: "open cash, order, kitchen queue, close cash - end to end",
		Setup:       workflowSetup,
		Act:         workflowAct,
		Verify:      workflowVerify,
		Cleanup:     workflowCleanup,
	}
}

// workflowSetup acquires sessions, releases leftover cash sessions,
// and creates the product the order will reference.
func workflowSetup(ctx context.Context, sc *scenario.Context) error {
	cashier, err := sc.Sessions.Acquire(ctx, session.RoleCashier)
	if err != nil {
		return err
	}
	admin, err := sc.Sessions.Acquire(ctx, session.RoleAdmin)
	if err != nil {
		return err
	}
	sc.Put("token", cashier.Value)
	sc.Put("admin_token", admin.Value)

	if err := ensureNoActiveCash(ctx, sc, cashier.Value); err != nil {
		return err
	}

	product, err := sc.API.CreateProduct(ctx, admin.Value, map[string]any{
		"name":  "Workflow Fixture",
		"price": 9.90,
		"stock": 25,
		"sku":   uniqueSKU(),
	})
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(product.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	id, _ := state.ProbeString(obj(product), "id")
	sc.Put("product_id", id)

	tables, err := sc.API.Tables(ctx)
	if err != nil {
		return err
	}
	items := tables.Data()
	if len(items) == 0 {
		return sc.Check(&check.Failure{
			Check:    "tables",
			Expected: "at least one dining table",
			Actual:   "empty table list",
			Severity: check.Hard,
		})
	}
	table, _ := items[0].(map[string]any)
	tableID, _ := state.ProbeString(table, "id", "table_id")
	sc.Put("table_id", tableID)
	return nil
}

// workflowAct walks the workflow, asserting each transition in place.
func workflowAct(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	machine := &state.CashSession{}
	sc.Put("machine", machine)

	// Open the till.
	open, err := sc.API.OpenCash(ctx, token, 200.0)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(open.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	sessionID, _ := state.ProbeString(obj(open), state.SessionIDKeys...)
	if err := machine.Open(sessionID); err != nil {
		return sc.Check(&check.Failure{
			Check:    "cash_machine",
			Expected: "valid open transition",
			Actual:   err.Error(),
			Severity: check.Hard,
		})
	}

	// Place an order for the table.
	order, err := sc.API.CreateOrder(ctx, token, map[string]any{
		"delivery_type": state.DeliveryTable,
		"table_id":      sc.GetString("table_id"),
		"items": []map[string]any{
			{"product_id": sc.GetString("product_id"), "quantity": 2, "note": ""},
		},
		"payment_method": "cash",
	})
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(order.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	orderID, _ := state.ProbeString(obj(order), "id")
	sc.Put("order_id", orderID)

	// The kitchen queue must show the fresh order.
	kitchen, err := sc.API.KitchenOrders(ctx, token, "")
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(kitchen.Status, http.StatusOK)); err != nil {
		return err
	}
	entry := findByID(kitchen.Data(), orderID)
	if entry == nil {
		return sc.Check(&check.Failure{
			Check:    "kitchen_queue",
			Expected: "order " + orderID + " visible in kitchen queue",
			Actual:   "absent",
			Severity: check.Hard,
		})
	}

	// The queue may already show the kitchen working the order, but only
	// in a state reachable from a fresh one.
	queueStatus, _ := state.ProbeString(entry, "status")
	if queueStatus != state.OrderPending && !state.ValidOrderTransition(state.OrderPending, queueStatus) {
		return sc.Check(&check.Failure{
			Check:    "order_status",
			Expected: `fresh order in "pending" or a status reachable from it`,
			Actual:   fmt.Sprintf("status %q", queueStatus),
			Severity: check.Hard,
		})
	}

	// Close the till.
	closed, err := sc.API.CloseCash(ctx, token)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(closed.Status, http.StatusOK)); err != nil {
		return err
	}
	if err := machine.Close(); err != nil {
		return sc.Check(&check.Failure{
			Check:    "cash_machine",
			Expected: "valid close transition",
			Actual:   err.Error(),
			Severity: check.Hard,
		})
	}
	return nil
}

// workflowVerify confirms the terminal state: no active session.
func workflowVerify(ctx context.Context, sc *scenario.Context) error {
	current, err := sc.API.CurrentCash(ctx, sc.GetString("token"))
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

// workflowCleanup releases everything the scenario created: the order,
// the fixture product, and a cash session left open by a failure.
func workflowCleanup(ctx context.Context, sc *scenario.Context) error {
	var firstErr error
	token := sc.GetString("token")

	if id := sc.GetString("order_id"); id != "" && token != "" {
		if _, err := sc.API.DeleteOrder(ctx, token, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if admin, id := sc.GetString("admin_token"), sc.GetString("product_id"); admin != "" && id != "" {
		if _, err := sc.API.DeleteProduct(ctx, admin, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if machine, _ := sc.Get("machine").(*state.CashSession); machine != nil && machine.State() == state.CashOpen && token != "" {
		if _, err := sc.API.CloseCash(ctx, token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

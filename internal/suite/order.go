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

// OrderDelivery verifies the delivery-type contract: a table order
// carries table_id and no address, a takeaway order carries a non-empty
// address and no table_id. Exactly one of the two must be present.
func OrderDelivery() scenario.Scenario {
	return scenario.Scenario{
		Name:        "order-delivery",
		Description: "table vs takeaway orders and their mutually exclusive fields",
		Setup:       orderSetup,
		Act:         orderAct,
		Verify:      orderVerify,
		Cleanup:     orderCleanup,
	}
}

// orderSetup acquires tokens, creates a product to order, and picks a
// dining table from the public listing.
func orderSetup(ctx context.Context, sc *scenario.Context) error {
	admin, err := sc.Sessions.Acquire(ctx, session.RoleAdmin)
	if err != nil {
		return err
	}
	waiter, err := sc.Sessions.Acquire(ctx, session.RoleWaiter)
	if err != nil {
		return err
	}
	sc.Put("admin_token", admin.Value)
	sc.Put("token", waiter.Value)

	product, err := sc.API.CreateProduct(ctx, admin.Value, map[string]any{
		"name":  "Order Fixture",
		"price": 5.50,
		"stock": 10,
		"sku":   uniqueSKU(),
	})
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(product.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	productID, _ := state.ProbeString(obj(product), "id")
	sc.Put("product_id", productID)

	tables, err := sc.API.Tables(ctx)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(tables.Status, http.StatusOK)); err != nil {
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

// orderAct creates one order per delivery channel.
func orderAct(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	items := []map[string]any{
		{"product_id": sc.GetString("product_id"), "quantity": 1, "note": "no onions"},
	}

	tableOrder, err := sc.API.CreateOrder(ctx, token, map[string]any{
		"delivery_type":  state.DeliveryTable,
		"table_id":       sc.GetString("table_id"),
		"items":          items,
		"payment_method": "cash",
	})
	if err != nil {
		return err
	}
	sc.Put("table_order", tableOrder)
	if id, ok := state.ProbeString(obj(tableOrder), "id"); ok {
		sc.Put("table_order_id", id) // stash immediately so cleanup can release it
	}

	takeawayOrder, err := sc.API.CreateOrder(ctx, token, map[string]any{
		"delivery_type":  state.DeliveryTakeaway,
		"address":        "Calle Mayor 1",
		"items":          items,
		"payment_method": "card",
	})
	if err != nil {
		return err
	}
	sc.Put("takeaway_order", takeawayOrder)
	if id, ok := state.ProbeString(obj(takeawayOrder), "id"); ok {
		sc.Put("takeaway_order_id", id)
	}
	return nil
}

func orderVerify(ctx context.Context, sc *scenario.Context) error {
	tableOrder := sc.Get("table_order").(*posapi.Response)
	takeaway := sc.Get("takeaway_order").(*posapi.Response)

	// Table order: table_id set, address absent or empty.
	if err := sc.Check(check.Status(tableOrder.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	tbody := obj(tableOrder)
	if err := sc.CheckAll(check.Schema(tbody, "id", "items", "delivery_type")); err != nil {
		return err
	}
	if err := sc.Check(check.Field(tbody, "delivery_type", check.EqualString(state.DeliveryTable))); err != nil {
		return err
	}
	if err := sc.Check(check.Echo("table_id", sc.GetString("table_id"), tbody["table_id"])); err != nil {
		return err
	}
	if err := sc.Check(check.Absent(tbody, "address")); err != nil {
		return err
	}
	if _, ok := state.Probe(tbody, state.CreatedAtKeys...); !ok {
		if err := sc.Check(&check.Failure{
			Check:    "created_at",
			Expected: "creation timestamp on order response",
			Actual:   "absent",
			Severity: check.Soft,
		}); err != nil {
			return err
		}
	}

	// Takeaway order: address present and non-empty, no table binding.
	if err := sc.Check(check.Status(takeaway.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	kbody := obj(takeaway)
	if err := sc.Check(check.Field(kbody, "address", check.NonEmptyString)); err != nil {
		return err
	}
	return sc.Check(check.Absent(kbody, "table_id"))
}

// orderCleanup deletes the orders and the fixture product, best-effort.
func orderCleanup(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	var firstErr error

	for _, key := range []string{"table_order_id", "takeaway_order_id"} {
		if id := sc.GetString(key); id != "" && token != "" {
			if _, err := sc.API.DeleteOrder(ctx, token, id); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if admin, id := sc.GetString("admin_token"), sc.GetString("product_id"); admin != "" && id != "" {
		if _, err := sc.API.DeleteProduct(ctx, admin, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

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

// ProductCRUD verifies the catalog round trip: create echoes the
// submitted fields, listing finds the sku, delete removes it, and a
// re-list excludes the id.
func ProductCRUD() scenario.Scenario {
	return scenario.Scenario{
		Name:        "product-crud",
		Description: "product create, field echo, delete, and list exclusion",
		Setup:       productSetup,
		Act:         productAct,
		Verify:      productVerify,
		Cleanup:     productCleanup,
	}
}

func productSetup(ctx context.Context, sc *scenario.Context) error {
	tok, err := sc.Sessions.Acquire(ctx, session.RoleAdmin)
	if err != nil {
		return err
	}
	sc.Put("token", tok.Value)
	sc.Put("sku", uniqueSKU())
	return nil
}

func productAct(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	resp, err := sc.API.CreateProduct(ctx, token, map[string]any{
		"name":  "Test Product",
		"price": 12.99,
		"stock": 100,
		"sku":   sc.GetString("sku"),
	})
	if err != nil {
		return err
	}
	sc.Put("create", resp)
	return nil
}

func productVerify(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	sku := sc.GetString("sku")
	resp := sc.Get("create").(*posapi.Response)

	if err := sc.Check(check.Status(resp.Status, http.StatusOK, http.StatusCreated)); err != nil {
		return err
	}
	body := obj(resp)
	if err := sc.CheckAll(check.Schema(body, "id", "name", "price", "stock", "sku", "active")); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "name", check.EqualString("Test Product"))); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "price", check.EqualNumber(12.99))); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "stock", check.EqualNumber(100))); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "sku", check.EqualString(sku))); err != nil {
		return err
	}
	if err := sc.Check(check.OptionalField(body, "description", check.NonEmptyString)); err != nil {
		return err
	}

	id, _ := state.ProbeString(body, "id")
	sc.Put("product_id", id)

	// Listing with pagination must echo the requested page/limit and
	// include the fresh sku.
	list, err := sc.API.Products(ctx, token, posapi.ProductQuery{Page: 1, Limit: 50, Name: "Test Product"})
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(list.Status, http.StatusOK)); err != nil {
		return err
	}
	listBody := obj(list)
	if err := sc.Check(check.Echo("page", 1, listBody["page"])); err != nil {
		return err
	}
	if err := sc.Check(check.Echo("limit", 50, listBody["limit"])); err != nil {
		return err
	}
	if !listContainsID(list.Data(), id) {
		return sc.Check(&check.Failure{
			Check:    "list_contains",
			Expected: "created product id " + id + " in listing",
			Actual:   "absent",
			Severity: check.Hard,
		})
	}

	// Delete, then the listing must exclude the id.
	del, err := sc.API.DeleteProduct(ctx, token, id)
	if err != nil {
		return err
	}
	if err := sc.Check(check.Status(del.Status, http.StatusOK, http.StatusNoContent)); err != nil {
		return err
	}
	sc.Put("product_id", "") // released

	relist, err := sc.API.Products(ctx, token, posapi.ProductQuery{Page: 1, Limit: 50, Name: "Test Product"})
	if err != nil {
		return err
	}
	if listContainsID(relist.Data(), id) {
		return sc.Check(&check.Failure{
			Check:    "list_excludes",
			Expected: "deleted product id " + id + " absent from listing",
			Actual:   "still listed",
			Severity: check.Hard,
		})
	}
	return nil
}

// productCleanup deletes the product when verify failed before the
// delete step. A 404 means it is already gone, which is fine.
func productCleanup(ctx context.Context, sc *scenario.Context) error {
	token := sc.GetString("token")
	id := sc.GetString("product_id")
	if token == "" || id == "" {
		return nil
	}
	_, err := sc.API.DeleteProduct(ctx, token, id)
	return err
}

// listContainsID scans a product listing for an id.
func listContainsID(items []any, id string) bool {
	return findByID(items, id) != nil
}

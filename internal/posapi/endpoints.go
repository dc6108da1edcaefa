package posapi

import (
	"context"
	"net/http"
	"strconv"
)

// Auth endpoints.

// Login authenticates a back-office user (admin, waiter).
func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	return c.do(ctx, http.MethodPost, prefix+"/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
}

// POSLogin authenticates a cashier at a POS terminal. The pin is
// optional; backends that don't require one ignore it.
func (c *Client) POSLogin(ctx context.Context, username, password, pin string) (*Response, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	if pin != "" {
		body["pin"] = pin
	}
	return c.do(ctx, http.MethodPost, prefix+"/auth/pos/login", "", body)
}

// Logout invalidates the bearer token.
func (c *Client) Logout(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodPost, prefix+"/auth/logout", token, nil)
}

// Me returns the authenticated user, or 401 for a dead token.
func (c *Client) Me(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodGet, prefix+"/auth/me", token, nil)
}

// Cash-register session endpoints.

// OpenCash opens a cash session with the given opening float.
func (c *Client) OpenCash(ctx context.Context, token string, openingAmount float64) (*Response, error) {
	return c.do(ctx, http.MethodPost, prefix+"/cash/open", token, map[string]any{
		"opening_amount": openingAmount,
	})
}

// CloseCash closes the cashier's active session.
func (c *Client) CloseCash(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodPost, prefix+"/cash/close", token, nil)
}

// CurrentCash queries the active session; 404 means none.
func (c *Client) CurrentCash(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodGet, prefix+"/cash/current", token, nil)
}

// Product catalog endpoints.

// ProductQuery filters the product listing. Zero values are omitted.
type ProductQuery struct {
	Page     int
	Limit    int
	Category string
	Name     string
}

// Products lists the catalog page described by q.
func (c *Client) Products(ctx context.Context, token string, q ProductQuery) (*Response, error) {
	params := map[string]string{
		"category": q.Category,
		"name":     q.Name,
	}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	return c.do(ctx, http.MethodGet, query(prefix+"/products", params), token, nil)
}

// CreateProduct creates a catalog entry.
func (c *Client) CreateProduct(ctx context.Context, token string, product map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPost, prefix+"/products", token, product)
}

// DeleteProduct removes a catalog entry by id.
func (c *Client) DeleteProduct(ctx context.Context, token, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, pathID(prefix+"/products", id), token, nil)
}

// Table and order endpoints.

// Tables lists dining tables. Public, no token required.
func (c *Client) Tables(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, prefix+"/tables", "", nil)
}

// CreateOrder creates an order. The payload must carry exactly one of
// table_id or address depending on delivery_type; the harness asserts
// the backend enforces that, it does not pre-validate.
func (c *Client) CreateOrder(ctx context.Context, token string, order map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPost, prefix+"/orders", token, order)
}

// DeleteOrder removes an order by id.
func (c *Client) DeleteOrder(ctx context.Context, token, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, pathID(prefix+"/orders", id), token, nil)
}

// KitchenOrders lists the kitchen projection, optionally filtered by
// exact status.
func (c *Client) KitchenOrders(ctx context.Context, token, status string) (*Response, error) {
	return c.do(ctx, http.MethodGet, query(prefix+"/kitchen/orders", map[string]string{
		"status": status,
	}), token, nil)
}

// Reporting endpoints.

// SalesReport fetches the sales report for an inclusive ISO date range.
func (c *Client) SalesReport(ctx context.Context, token, startDate, endDate string) (*Response, error) {
	return c.do(ctx, http.MethodGet, query(prefix+"/reports/sales", map[string]string{
		"start_date": startDate,
		"end_date":   endDate,
	}), token, nil)
}

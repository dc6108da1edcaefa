// Package testutil provides an in-memory POS backend for harness
// tests. It implements the observed API surface with the real lifecycle
// rules (single active cash session, unique skus, exact kitchen
// filtering), so scenarios exercise genuine state transitions instead
// of canned responses.
//
// Deliberate quirks mirror the real backend's inconsistencies: cash
// open reports the session id as "session_id" while cash current
// reports "id", and created products omit the optional description
// field.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sysme/poscheck/internal/config"
)

// User is a seeded backend account.
type User struct {
	Username string
	Password string
	Pin      string
	Role     string
}

// DefaultUsers are the accounts NewFakePOS seeds.
var DefaultUsers = []User{
	{Username: "admin", Password: "admin123", Role: "admin"},
	{Username: "waiter", Password: "waiter123", Role: "waiter"},
	{Username: "cashier", Password: "cashier123", Pin: "1234", Role: "cashier"},
}

type cashSession struct {
	ID       string
	Status   string
	OpenedAt time.Time
}

// FakePOS is an in-memory POS backend.
type FakePOS struct {
	mu       sync.Mutex
	users    map[string]User
	tokens   map[string]string // token -> role
	active   *cashSession
	products map[string]map[string]any
	orders   []map[string]any
	nextID   int

	// BreakKitchenFilter makes the kitchen status filter leak one
	// non-matching order, for verifying the harness catches it.
	BreakKitchenFilter bool

	// DropReportItems omits sales_items from the report payload.
	DropReportItems bool

	// InitialOrderStatus overrides the status new orders report.
	// Empty means "pending".
	InitialOrderStatus string
}

// NewFakePOS creates a backend seeded with DefaultUsers and two tables.
func NewFakePOS() *FakePOS {
	f := &FakePOS{
		users:    make(map[string]User),
		tokens:   make(map[string]string),
		products: make(map[string]map[string]any),
	}
	for _, u := range DefaultUsers {
		f.users[u.Username] = u
	}
	return f
}

// Server starts an httptest server for the backend. The caller owns
// its lifecycle (use t.Cleanup(srv.Close)).
func (f *FakePOS) Server() *httptest.Server {
	return httptest.NewServer(f.Handler())
}

// Config returns a harness config pointing at baseURL with the seeded
// credentials.
func (f *FakePOS) Config(baseURL string) *config.Config {
	return &config.Config{
		BaseURL:        baseURL,
		TimeoutSeconds: 5,
		RunLog:         "", // callers override when they want history
		Roles: map[string]config.Credentials{
			"admin":   {Username: "admin", Password: "admin123"},
			"waiter":  {Username: "waiter", Password: "waiter123"},
			"cashier": {Username: "cashier", Password: "cashier123", Pin: "1234"},
		},
	}
}

// Handler returns the backend's HTTP handler.
func (f *FakePOS) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", f.handleLogin(false))
	mux.HandleFunc("POST /api/v1/auth/pos/login", f.handleLogin(true))
	mux.HandleFunc("POST /api/v1/auth/logout", f.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", f.handleMe)
	mux.HandleFunc("POST /api/v1/cash/open", f.handleCashOpen)
	mux.HandleFunc("POST /api/v1/cash/close", f.handleCashClose)
	mux.HandleFunc("GET /api/v1/cash/current", f.handleCashCurrent)
	mux.HandleFunc("GET /api/v1/products", f.handleProductList)
	mux.HandleFunc("POST /api/v1/products", f.handleProductCreate)
	mux.HandleFunc("DELETE /api/v1/products/{id}", f.handleProductDelete)
	mux.HandleFunc("GET /api/v1/tables", f.handleTables)
	mux.HandleFunc("POST /api/v1/orders", f.handleOrderCreate)
	mux.HandleFunc("DELETE /api/v1/orders/{id}", f.handleOrderDelete)
	mux.HandleFunc("GET /api/v1/kitchen/orders", f.handleKitchen)
	mux.HandleFunc("GET /api/v1/reports/sales", f.handleSalesReport)
	return mux
}

func (f *FakePOS) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakePOS) authed(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	role, ok := f.tokens[token]
	return role, ok
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func (f *FakePOS) handleLogin(pos bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Pin      string `json:"pin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBody(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		user, ok := f.users[req.Username]
		if !ok || user.Password != req.Password {
			writeBody(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
			return
		}
		if pos && user.Pin != "" && req.Pin != user.Pin {
			writeBody(w, http.StatusUnauthorized, map[string]any{"error": "invalid pin"})
			return
		}

		token := f.id("tok")
		f.tokens[token] = user.Role
		writeBody(w, http.StatusOK, map[string]any{"token": token, "role": user.Role})
	}
}

func (f *FakePOS) handleLogout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	header := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if _, ok := f.tokens[header]; !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	delete(f.tokens, header)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakePOS) handleMe(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.authed(r)
	if !ok {
		writeBody(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	writeBody(w, http.StatusOK, map[string]any{"username": role, "role": role})
}

func (f *FakePOS) handleCashOpen(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	if f.active != nil {
		writeBody(w, http.StatusConflict, map[string]any{"error": "session already open"})
		return
	}
	f.active = &cashSession{ID: f.id("cs"), Status: "open", OpenedAt: time.Now()}
	// Alias quirk: open reports session_id, current reports id.
	writeBody(w, http.StatusCreated, map[string]any{
		"session_id": f.active.ID,
		"status":     f.active.Status,
		"opened_at":  f.active.OpenedAt.Format(time.RFC3339),
	})
}

func (f *FakePOS) handleCashClose(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	if f.active == nil {
		writeBody(w, http.StatusBadRequest, map[string]any{"error": "no active session"})
		return
	}
	f.active = nil
	writeBody(w, http.StatusOK, map[string]any{
		"status":    "closed",
		"closed_at": time.Now().Format(time.RFC3339),
	})
}

func (f *FakePOS) handleCashCurrent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	if f.active == nil {
		writeBody(w, http.StatusNotFound, map[string]any{"error": "no active session"})
		return
	}
	writeBody(w, http.StatusOK, map[string]any{
		"id":        f.active.ID,
		"status":    f.active.Status,
		"opened_at": f.active.OpenedAt.Format(time.RFC3339),
	})
}

func (f *FakePOS) handleProductList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	name := r.URL.Query().Get("name")

	data := make([]any, 0)
	for _, p := range f.products {
		if name != "" && !strings.Contains(p["name"].(string), name) {
			continue
		}
		data = append(data, p)
	}
	writeBody(w, http.StatusOK, map[string]any{
		"data":  data,
		"total": len(data),
		"page":  page,
		"limit": limit,
	})
}

func (f *FakePOS) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBody(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}
	sku, _ := req["sku"].(string)
	for _, p := range f.products {
		if p["sku"] == sku {
			writeBody(w, http.StatusConflict, map[string]any{"error": "sku already exists"})
			return
		}
	}

	product := map[string]any{
		"id":          f.id("p"),
		"name":        req["name"],
		"price":       req["price"],
		"stock":       req["stock"],
		"sku":         sku,
		"category_id": req["category_id"],
		"active":      true,
		// description deliberately omitted (optional-field advisory)
	}
	f.products[product["id"].(string)] = product
	writeBody(w, http.StatusCreated, product)
}

func (f *FakePOS) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	id := r.PathValue("id")
	if _, ok := f.products[id]; !ok {
		writeBody(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	delete(f.products, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakePOS) handleTables(w http.ResponseWriter, r *http.Request) {
	writeBody(w, http.StatusOK, []any{
		map[string]any{"id": "t-1", "number": 1, "seats": 4},
		map[string]any{"id": "t-2", "number": 2, "seats": 2},
	})
}

func (f *FakePOS) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBody(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}

	deliveryType, _ := req["delivery_type"].(string)
	status := f.InitialOrderStatus
	if status == "" {
		status = "pending"
	}
	order := map[string]any{
		"id":            f.id("o"),
		"items":         req["items"],
		"delivery_type": deliveryType,
		"status":        status,
	}
	switch deliveryType {
	case "table":
		tableID, _ := req["table_id"].(string)
		if tableID == "" {
			writeBody(w, http.StatusBadRequest, map[string]any{"error": "table_id required"})
			return
		}
		order["table_id"] = tableID
	case "takeaway", "delivery":
		address, _ := req["address"].(string)
		if address == "" {
			writeBody(w, http.StatusBadRequest, map[string]any{"error": "address required"})
			return
		}
		order["address"] = address
	default:
		writeBody(w, http.StatusBadRequest, map[string]any{"error": "invalid delivery_type"})
		return
	}

	f.orders = append(f.orders, order)
	writeBody(w, http.StatusCreated, order)
}

func (f *FakePOS) handleOrderDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}
	id := r.PathValue("id")
	for i, order := range f.orders {
		if order["id"] == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeBody(w, http.StatusNotFound, map[string]any{"error": "not found"})
}

func (f *FakePOS) handleKitchen(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}

	status := r.URL.Query().Get("status")
	items := make([]any, 0)
	for _, order := range f.orders {
		if status != "" && order["status"] != status {
			continue
		}
		items = append(items, map[string]any{
			"id":     order["id"],
			"status": order["status"],
			"items":  order["items"],
		})
	}
	if status != "" && f.BreakKitchenFilter {
		items = append(items, map[string]any{"id": "o-leak", "status": "pending"})
	}
	writeBody(w, http.StatusOK, items)
}

func (f *FakePOS) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authed(r); !ok {
		writeBody(w, http.StatusUnauthorized, nil)
		return
	}

	report := map[string]any{
		"total_sales":        0,
		"total_transactions": 0,
		"date_range": map[string]any{
			"start_date": r.URL.Query().Get("start_date"),
			"end_date":   r.URL.Query().Get("end_date"),
		},
		"sales_items": []any{},
	}
	if f.DropReportItems {
		delete(report, "sales_items")
	}
	writeBody(w, http.StatusOK, report)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

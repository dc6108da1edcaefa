// Package session manages authenticated sessions against the POS
// backend. It is the single place login happens: scenarios declare the
// role they need and the manager performs the role-appropriate login,
// caching tokens per (role, username) for reuse within a scenario.
//
// There is no implicit refresh. An expired token surfaces as 401 from
// the backend and the scenario reports it; retrying would mask real
// session-handling defects.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sysme/poscheck/internal/config"
	"github.com/sysme/poscheck/internal/fault"
	"github.com/sysme/poscheck/internal/posapi"
	"github.com/sysme/poscheck/internal/state"
)

// Role selects a login flow.
type Role string

const (
	// RoleAdmin uses the back-office login endpoint.
	RoleAdmin Role = "admin"

	// RoleWaiter uses the back-office login endpoint.
	RoleWaiter Role = "waiter"

	// RoleCashier uses the POS terminal login endpoint (with pin).
	RoleCashier Role = "cashier"
)

// Token is an opaque bearer credential scoped to one role.
type Token struct {
	Value string
	Role  Role
}

type cacheKey struct {
	role     Role
	username string
}

// Manager acquires, caches, and invalidates tokens.
// A Manager is scoped to one scenario execution; tokens are never
// shared across scenarios, so a logout in one cannot invalidate
// another's session.
type Manager struct {
	api    *posapi.Client
	roles  map[string]config.Credentials
	logger *slog.Logger

	mu    sync.Mutex
	cache map[cacheKey]Token
}

// NewManager creates a manager over the given client and role table.
func NewManager(api *posapi.Client, roles map[string]config.Credentials, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		api:    api,
		roles:  roles,
		logger: logger,
		cache:  make(map[cacheKey]Token),
	}
}

// Acquire returns a token for the role, logging in if none is cached.
// Fails with an auth error on non-2xx responses or a missing/empty
// token field.
func (m *Manager) Acquire(ctx context.Context, role Role) (Token, error) {
	creds, ok := m.roles[string(role)]
	if !ok {
		return Token{}, fault.Auth("acquire", fmt.Sprintf("no credentials configured for role %q", role), nil)
	}

	key := cacheKey{role: role, username: creds.Username}
	m.mu.Lock()
	if tok, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return tok, nil
	}
	m.mu.Unlock()

	tok, err := m.login(ctx, role, creds)
	if err != nil {
		return Token{}, err
	}

	m.mu.Lock()
	m.cache[key] = tok
	m.mu.Unlock()
	return tok, nil
}

// login performs the role-appropriate login call.
func (m *Manager) login(ctx context.Context, role Role, creds config.Credentials) (Token, error) {
	var (
		resp *posapi.Response
		err  error
		op   string
	)
	if role == RoleCashier {
		op = "POST /api/v1/auth/pos/login"
		resp, err = m.api.POSLogin(ctx, creds.Username, creds.Password, creds.Pin)
	} else {
		op = "POST /api/v1/auth/login"
		resp, err = m.api.Login(ctx, creds.Username, creds.Password)
	}
	if err != nil {
		return Token{}, err
	}
	if !resp.OK() {
		return Token{}, fault.Auth(op, fmt.Sprintf("login failed with status %d for role %q", resp.Status, role), nil)
	}

	value, ok := state.ProbeString(resp.Body, state.TokenKeys...)
	if !ok {
		return Token{}, fault.Auth(op, fmt.Sprintf("login response missing token field (tried %v)", state.TokenKeys), nil)
	}

	m.logger.Info("session acquired", "role", role, "user", creds.Username)
	m.peekClaims(value, role)
	return Token{Value: value, Role: role}, nil
}

// Invalidate logs out the token and drops it from the cache. Any later
// authenticated call with the token must fail with 401/403.
func (m *Manager) Invalidate(ctx context.Context, tok Token) error {
	resp, err := m.api.Logout(ctx, tok.Value)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fault.Auth("POST /api/v1/auth/logout", fmt.Sprintf("logout failed with status %d", resp.Status), nil)
	}

	m.mu.Lock()
	for key, cached := range m.cache {
		if cached.Value == tok.Value {
			delete(m.cache, key)
		}
	}
	m.mu.Unlock()

	m.logger.Info("session invalidated", "role", tok.Role)
	return nil
}

// peekClaims logs expiry and role claims from JWT-shaped tokens for
// diagnostics. The token stays opaque: nothing is verified and no
// assertion may depend on its contents, since the backend is free to
// issue non-JWT tokens.
func (m *Manager) peekClaims(value string, role Role) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(value, claims); err != nil {
		return // not a JWT; fine
	}
	attrs := []any{"role", role}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		attrs = append(attrs, "expires_at", exp.Time)
	}
	if claimed, ok := claims["role"].(string); ok {
		attrs = append(attrs, "claimed_role", claimed)
	}
	m.logger.Debug("token claims", attrs...)
}

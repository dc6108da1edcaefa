// Package suite registers the built-in verification scenarios.
//
// Each scenario is a self-contained workflow against the POS backend:
// it creates what it needs, asserts the contract, and releases
// everything it created on every exit path. Scenarios never depend on
// each other's side effects.
package suite

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sysme/poscheck/internal/posapi"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/state"
)

// All returns the registered scenarios in their canonical order.
func All() []scenario.Scenario {
	return []scenario.Scenario{
		AuthRoles(),
		CashLifecycle(),
		ProductCRUD(),
		OrderDelivery(),
		KitchenFilter(),
		SalesReport(),
		POSWorkflow(),
		UILogin(),
	}
}

// Select resolves scenario names and an optional glob filter against
// the registry. With no names and no filter, all scenarios are
// returned. Unknown names are an error.
func Select(names []string, filter string) ([]scenario.Scenario, error) {
	registry := All()

	byName := make(map[string]scenario.Scenario, len(registry))
	for _, s := range registry {
		byName[s.Name] = s
	}

	if len(names) > 0 {
		selected := make([]scenario.Scenario, 0, len(names))
		for _, name := range names {
			s, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown scenario %q (run `poscheck list`)", name)
			}
			selected = append(selected, s)
		}
		return selected, nil
	}

	if filter == "" {
		return registry, nil
	}

	var selected []scenario.Scenario
	for _, s := range registry {
		matched, err := filepath.Match(filter, s.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

// obj returns the response object body, never nil.
func obj(resp *posapi.Response) map[string]any {
	if resp.Body == nil {
		return map[string]any{}
	}
	return resp.Body
}

// uniqueSKU generates a catalog sku that cannot collide with leftovers
// from earlier runs.
func uniqueSKU() string {
	return "SKU-" + strings.ToUpper(uuid.NewString()[:8])
}

// findByID returns the first list entry whose id matches, or nil.
func findByID(items []any, id string) map[string]any {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if got, _ := state.ProbeString(m, "id"); got == id {
			return m
		}
	}
	return nil
}

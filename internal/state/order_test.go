package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderTransition(t *testing.T) {
	valid := [][2]string{
		{OrderPending, OrderPreparing},
		{OrderPending, OrderCancelled},
		{OrderPreparing, OrderReady},
		{OrderPreparing, OrderCancelled},
		{OrderReady, OrderServed},
		{OrderServed, OrderCompleted},
		{OrderServed, OrderClosed},
		{OrderCancelled, OrderClosed},
	}
	for _, tr := range valid {
		assert.True(t, ValidOrderTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	invalid := [][2]string{
		{OrderPending, OrderServed},
		{OrderReady, OrderPreparing},
		{OrderCompleted, OrderPending},
		{OrderCancelled, OrderPreparing},
		{"", OrderPreparing},
	}
	for _, tr := range invalid {
		assert.False(t, ValidOrderTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestRequiresAddress(t *testing.T) {
	assert.False(t, RequiresAddress(DeliveryTable))
	assert.True(t, RequiresAddress(DeliveryTakeaway))
	assert.True(t, RequiresAddress(DeliveryDelivery))
}

func TestFilterViolations(t *testing.T) {
	clean := []any{
		map[string]any{"id": "o-1", "status": "preparing"},
		map[string]any{"id": "o-2", "status": "preparing"},
	}
	assert.Empty(t, FilterViolations(clean, OrderPreparing))

	// An exact-match filter admits no partial or case variants.
	leaky := []any{
		map[string]any{"id": "o-1", "status": "preparing"},
		map[string]any{"id": "o-2", "status": "pending"},
		map[string]any{"id": "o-3", "status": "Preparing"},
	}
	violations := FilterViolations(leaky, OrderPreparing)
	assert.Len(t, violations, 2)
	assert.Contains(t, violations[0], "o-2")
	assert.Contains(t, violations[1], "o-3")

	// Non-object entries are violations too.
	violations = FilterViolations([]any{"garbage"}, OrderPreparing)
	assert.Len(t, violations, 1)

	assert.Empty(t, FilterViolations(nil, OrderPreparing))
}

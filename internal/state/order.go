package state

import "fmt"

// Order lifecycle statuses as exposed by the kitchen view.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderServed    = "served"
	OrderCancelled = "cancelled"
	OrderCompleted = "completed"
	OrderClosed    = "closed"
)

// orderTransitions encodes created → (preparing → ready → served) |
// cancelled → completed/closed. "pending" is the created state on the
// wire.
var orderTransitions = map[string][]string{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderServed, OrderCancelled},
	OrderServed:    {OrderCompleted, OrderClosed},
	OrderCancelled: {OrderCompleted, OrderClosed},
}

// ValidOrderTransition reports whether an order may move from one
// status to another.
func ValidOrderTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Delivery types classify an order's fulfillment channel.
const (
	DeliveryTable    = "table"
	DeliveryTakeaway = "takeaway"
	DeliveryDelivery = "delivery"
)

// RequiresAddress reports whether the delivery type requires a
// non-empty address (and conversely forbids a table id).
func RequiresAddress(deliveryType string) bool {
	return deliveryType == DeliveryTakeaway || deliveryType == DeliveryDelivery
}

// FilterViolations scans a kitchen view response for entries whose
// status does not exactly equal the requested filter. The kitchen view
// is a read-only projection; any mismatch is a false positive in the
// backend's filtering, never a harness artifact.
func FilterViolations(items []any, wantStatus string) []string {
	var violations []string
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			violations = append(violations, fmt.Sprintf("item[%d] is not an object", i))
			continue
		}
		status, _ := ProbeString(obj, "status")
		if status != wantStatus {
			id, _ := ProbeString(obj, SessionIDKeys...)
			violations = append(violations,
				fmt.Sprintf("order %s has status %q, want %q", id, status, wantStatus))
		}
	}
	return violations
}

package state

import "fmt"

// The backend's field naming is not consistent across endpoints: cash
// open reports "session_id" where cash current reports "id", and
// timestamps flip between snake_case and camelCase. Every read of such
// a field probes an ordered alias list instead of assuming one
// canonical name. First present key wins.

// SessionIDKeys are the accepted aliases for a cash-session identifier.
var SessionIDKeys = []string{"id", "session_id"}

// CreatedAtKeys are the accepted aliases for a creation timestamp.
var CreatedAtKeys = []string{"created_at", "createdAt"}

// ClosedAtKeys are the accepted aliases for a cash-session close timestamp.
var ClosedAtKeys = []string{"closed_at", "closedAt"}

// TokenKeys are the accepted aliases for the login token field.
var TokenKeys = []string{"token", "access_token"}

// Probe returns the value of the first alias present in obj.
func Probe(obj map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ProbeString returns the first alias present in obj as a string.
// Non-string scalar values (numeric ids) are stringified.
func ProbeString(obj map[string]any, keys ...string) (string, bool) {
	v, ok := Probe(obj, keys...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		// JSON numbers decode as float64; ids are integral
		return fmt.Sprintf("%.0f", s), true
	default:
		return fmt.Sprintf("%v", s), true
	}
}

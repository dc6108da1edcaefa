// Package check provides composable structural and semantic assertions
// on POS API responses.
//
// Checks return a *Failure (nil means the check passed) rather than
// failing a test directly, so the scenario runner decides how a failure
// propagates: hard failures abort the scenario, soft advisories are
// collected and reported only.
package check

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Severity distinguishes fatal failures from advisories.
type Severity int

const (
	// Hard failures abort the scenario (missing required field,
	// wrong type, wrong value).
	Hard Severity = iota

	// Soft advisories are reported but never abort (optional field
	// absent).
	Soft
)

// String returns the severity label used in reports.
func (s Severity) String() string {
	if s == Soft {
		return "soft"
	}
	return "hard"
}

// Failure describes a single violated expectation.
// Expected and Actual carry the literal values so reports never require
// re-running the scenario to see what went wrong.
type Failure struct {
	Check    string   // check name for categorization, e.g. "status"
	Expected string   // human-readable expected outcome
	Actual   string   // human-readable actual outcome
	Severity Severity // Hard or Soft
}

// String formats the failure in expected/actual form.
func (f *Failure) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "check failed: %s\n", f.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", f.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", f.Actual)
	return buf.String()
}

// Predicate validates a single field value.
// It returns a description of the violation, or "" when satisfied.
type Predicate func(v any) string

// Status checks that got is one of the allowed HTTP status codes.
func Status(got int, allowed ...int) *Failure {
	for _, code := range allowed {
		if got == code {
			return nil
		}
	}
	return &Failure{
		Check:    "status",
		Expected: fmt.Sprintf("status in %v", allowed),
		Actual:   fmt.Sprintf("status %d", got),
		Severity: Hard,
	}
}

// Field checks that obj contains key and that pred accepts its value.
func Field(obj map[string]any, key string, pred Predicate) *Failure {
	v, ok := obj[key]
	if !ok {
		return &Failure{
			Check:    "field",
			Expected: fmt.Sprintf("field %q present", key),
			Actual:   fmt.Sprintf("field %q missing (have %v)", key, sortedKeys(obj)),
			Severity: Hard,
		}
	}
	if desc := pred(v); desc != "" {
		return &Failure{
			Check:    "field",
			Expected: fmt.Sprintf("field %q %s", key, desc),
			Actual:   fmt.Sprintf("field %q = %v (type %T)", key, v, v),
			Severity: Hard,
		}
	}
	return nil
}

// OptionalField checks a field only if present; absence is a soft advisory.
func OptionalField(obj map[string]any, key string, pred Predicate) *Failure {
	v, ok := obj[key]
	if !ok {
		return &Failure{
			Check:    "optional_field",
			Expected: fmt.Sprintf("field %q present", key),
			Actual:   "absent",
			Severity: Soft,
		}
	}
	if desc := pred(v); desc != "" {
		return &Failure{
			Check:    "optional_field",
			Expected: fmt.Sprintf("field %q %s", key, desc),
			Actual:   fmt.Sprintf("field %q = %v (type %T)", key, v, v),
			Severity: Hard,
		}
	}
	return nil
}

// Schema checks that all required keys are present in obj.
// Returns one hard failure per missing key.
func Schema(obj map[string]any, required ...string) []*Failure {
	var failures []*Failure
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			failures = append(failures, &Failure{
				Check:    "schema",
				Expected: fmt.Sprintf("required key %q", key),
				Actual:   fmt.Sprintf("missing (have %v)", sortedKeys(obj)),
				Severity: Hard,
			})
		}
	}
	return failures
}

// Echo verifies that a request parameter was echoed back unchanged
// (pagination page/limit, report date ranges). Numeric values are
// compared after normalization since JSON decoding yields float64.
func Echo(name string, requested, got any) *Failure {
	if looseEqual(requested, got) {
		return nil
	}
	return &Failure{
		Check:    "echo",
		Expected: fmt.Sprintf("%s = %v (as requested)", name, requested),
		Actual:   fmt.Sprintf("%s = %v", name, got),
		Severity: Hard,
	}
}

// NonEmptyString accepts non-empty string values.
func NonEmptyString(v any) string {
	s, ok := v.(string)
	if !ok {
		return "is a string"
	}
	if s == "" {
		return "is non-empty"
	}
	return ""
}

// EqualString accepts exactly the given string.
func EqualString(want string) Predicate {
	return func(v any) string {
		s, ok := v.(string)
		if !ok || s != want {
			return fmt.Sprintf("== %q", want)
		}
		return ""
	}
}

// EqualNumber accepts a numeric value equal to want.
func EqualNumber(want float64) Predicate {
	return func(v any) string {
		f, ok := asFloat(v)
		if !ok || f != want {
			return fmt.Sprintf("== %v", want)
		}
		return ""
	}
}

// NonNegativeNumber accepts numeric values >= 0.
func NonNegativeNumber(v any) string {
	f, ok := asFloat(v)
	if !ok {
		return "is a number"
	}
	if f < 0 {
		return ">= 0"
	}
	return ""
}

// IsList accepts JSON arrays, including empty ones.
func IsList(v any) string {
	if _, ok := v.([]any); !ok {
		return "is a list"
	}
	return ""
}

// Absent accepts missing, nil, or empty-string values. Used for
// mutually exclusive fields (an order for a table must not carry a
// delivery address).
func Absent(obj map[string]any, key string) *Failure {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	if s, isStr := v.(string); isStr && s == "" {
		return nil
	}
	return &Failure{
		Check:    "absent",
		Expected: fmt.Sprintf("field %q absent or empty", key),
		Actual:   fmt.Sprintf("field %q = %v", key, v),
		Severity: Hard,
	}
}

// looseEqual compares values across the type drift JSON decoding
// introduces (ints become float64, numbers may arrive as strings).
func looseEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

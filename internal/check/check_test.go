package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	assert.Nil(t, Status(200, 200))
	assert.Nil(t, Status(201, 200, 201))

	f := Status(500, 200, 201)
	require.NotNil(t, f)
	assert.Equal(t, "status", f.Check)
	assert.Equal(t, Hard, f.Severity)
	assert.Equal(t, "status in [200 201]", f.Expected)
	assert.Equal(t, "status 500", f.Actual)
}

func TestField(t *testing.T) {
	obj := map[string]any{"name": "Test Product", "price": 12.99}

	assert.Nil(t, Field(obj, "name", NonEmptyString))
	assert.Nil(t, Field(obj, "price", EqualNumber(12.99)))

	missing := Field(obj, "sku", NonEmptyString)
	require.NotNil(t, missing)
	assert.Equal(t, Hard, missing.Severity)
	// The actual side lists the keys that were present.
	assert.Contains(t, missing.Actual, "name")
	assert.Contains(t, missing.Actual, "price")

	wrong := Field(obj, "name", EqualString("Other"))
	require.NotNil(t, wrong)
	assert.Contains(t, wrong.Actual, "Test Product")
}

func TestOptionalField(t *testing.T) {
	obj := map[string]any{"description": "a product"}

	assert.Nil(t, OptionalField(obj, "description", NonEmptyString))

	absent := OptionalField(obj, "notes", NonEmptyString)
	require.NotNil(t, absent)
	assert.Equal(t, Soft, absent.Severity, "absence of an optional field is advisory only")

	// Present but invalid is still a hard failure.
	bad := OptionalField(map[string]any{"description": 7}, "description", NonEmptyString)
	require.NotNil(t, bad)
	assert.Equal(t, Hard, bad.Severity)
}

func TestSchema(t *testing.T) {
	obj := map[string]any{"id": "p-1", "name": "x"}

	assert.Empty(t, Schema(obj, "id", "name"))

	failures := Schema(obj, "id", "price", "stock")
	require.Len(t, failures, 2, "one failure per missing key")
	for _, f := range failures {
		assert.Equal(t, "schema", f.Check)
		assert.Equal(t, Hard, f.Severity)
	}
}

func TestEcho(t *testing.T) {
	// JSON decoding turns request ints into float64; echo must not care.
	assert.Nil(t, Echo("page", 1, float64(1)))
	assert.Nil(t, Echo("limit", 50, float64(50)))
	assert.Nil(t, Echo("start_date", "2026-08-24", "2026-08-24"))

	f := Echo("page", 1, float64(2))
	require.NotNil(t, f)
	assert.Equal(t, "page = 1 (as requested)", f.Expected)
	assert.Equal(t, "page = 2", f.Actual)
}

func TestAbsent(t *testing.T) {
	assert.Nil(t, Absent(map[string]any{}, "address"))
	assert.Nil(t, Absent(map[string]any{"address": nil}, "address"))
	assert.Nil(t, Absent(map[string]any{"address": ""}, "address"))

	f := Absent(map[string]any{"address": "Calle Mayor 1"}, "address")
	require.NotNil(t, f)
	assert.Equal(t, Hard, f.Severity)
}

func TestPredicates(t *testing.T) {
	assert.Empty(t, NonEmptyString("x"))
	assert.NotEmpty(t, NonEmptyString(""))
	assert.NotEmpty(t, NonEmptyString(42))

	assert.Empty(t, NonNegativeNumber(float64(0)))
	assert.Empty(t, NonNegativeNumber(10))
	assert.NotEmpty(t, NonNegativeNumber(float64(-1)))
	assert.NotEmpty(t, NonNegativeNumber("10"))

	assert.Empty(t, IsList([]any{}))
	assert.NotEmpty(t, IsList(map[string]any{}))
	assert.NotEmpty(t, IsList(nil))
}

func TestFailureString(t *testing.T) {
	f := &Failure{
		Check:    "status",
		Expected: "status in [200]",
		Actual:   "status 500",
		Severity: Hard,
	}
	want := "check failed: status\n  Expected: status in [200]\n  Actual: status 500"
	assert.Equal(t, want, f.String())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "hard", Hard.String())
	assert.Equal(t, "soft", Soft.String())
}

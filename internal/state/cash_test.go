package state

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashSessionLifecycle(t *testing.T) {
	m := &CashSession{}
	assert.Equal(t, CashNone, m.State())
	assert.Empty(t, m.ID())

	require.NoError(t, m.Open("cs-1"))
	assert.Equal(t, CashOpen, m.State())
	assert.Equal(t, "cs-1", m.ID())

	require.NoError(t, m.Close())
	assert.Equal(t, CashClosed, m.State())
	assert.Empty(t, m.ID())

	// Re-open with a fresh id starts a new bracket.
	require.NoError(t, m.Open("cs-2"))
	assert.Equal(t, "cs-2", m.ID())
}

func TestCashSessionRejectsDoubleOpen(t *testing.T) {
	m := &CashSession{}
	require.NoError(t, m.Open("cs-1"))

	err := m.Open("cs-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already open")
}

func TestCashSessionRejectsEmptyID(t *testing.T) {
	m := &CashSession{}
	require.Error(t, m.Open(""))
}

func TestCashSessionRejectsStaleID(t *testing.T) {
	m := &CashSession{}
	require.NoError(t, m.Open("cs-1"))
	require.NoError(t, m.Close())

	err := m.Open("cs-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale")
}

func TestCashSessionRejectsCloseWithoutOpen(t *testing.T) {
	m := &CashSession{}
	require.Error(t, m.Close())

	require.NoError(t, m.Open("cs-1"))
	require.NoError(t, m.Close())
	require.Error(t, m.Close(), "second close has no open bracket")
}

func TestIsActiveStatus(t *testing.T) {
	for _, s := range []string{"open", "active", "started"} {
		assert.True(t, IsActiveStatus(s), s)
	}
	for _, s := range []string{"closed", "", "OPEN", "pending"} {
		assert.False(t, IsActiveStatus(s), s)
	}
}

func TestVerifyNoActive(t *testing.T) {
	// 404 and a non-active status are equivalent terminal signals.
	assert.Empty(t, VerifyNoActive(http.StatusNotFound, nil))
	assert.Empty(t, VerifyNoActive(http.StatusOK, map[string]any{"status": "closed"}))
	assert.Empty(t, VerifyNoActive(http.StatusOK, nil))
	assert.Empty(t, VerifyNoActive(http.StatusOK, map[string]any{"id": "cs-1"}))

	violation := VerifyNoActive(http.StatusOK, map[string]any{"status": "open"})
	assert.Contains(t, violation, "active")

	violation = VerifyNoActive(http.StatusInternalServerError, nil)
	assert.Contains(t, violation, "500")
}

package posapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysme/poscheck/internal/fault"
)

type recorded struct {
	events []CallEvent
}

func (r *recorded) Record(ev CallEvent) { r.events = append(r.events, ev) }

func TestBearerAuthAndJSONBody(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"username":"admin"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	resp, err := c.Me(context.Background(), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.True(t, resp.OK())
	assert.Equal(t, "admin", resp.Body["username"])
}

func TestUnauthenticatedCallOmitsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	_, err := c.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestNonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no active session"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	resp, err := c.CurrentCash(context.Background(), "tok")
	require.NoError(t, err, "a 404 is data for the caller's assertions")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.OK())
	assert.Equal(t, "no active session", resp.Body["error"])
}

func TestEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	resp, err := c.Logout(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.Body)
	assert.Nil(t, resp.List)
	assert.Nil(t, resp.Data())
}

func TestDataEnvelope(t *testing.T) {
	t.Run("data key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[{"id":"p-1"}],"total":1,"page":1,"limit":10}`))
		}))
		t.Cleanup(srv.Close)

		c := New(srv.URL, time.Second)
		resp, err := c.Products(context.Background(), "tok", ProductQuery{})
		require.NoError(t, err)
		require.Len(t, resp.Data(), 1)
		assert.Equal(t, float64(1), resp.Body["total"])
	})

	t.Run("top-level array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"t-1"},{"id":"t-2"}]`))
		}))
		t.Cleanup(srv.Close)

		c := New(srv.URL, time.Second)
		resp, err := c.Tables(context.Background())
		require.NoError(t, err)
		assert.Nil(t, resp.Body)
		assert.Len(t, resp.Data(), 2)
	})
}

func TestMalformedJSONIsInfrastructure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"broken":`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	_, err := c.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, fault.IsInfrastructure(err))
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestUnreachableBackendIsInfrastructure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	c := New(srv.URL, time.Second)
	_, err := c.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, fault.IsInfrastructure(err))
}

func TestQueryParameters(t *testing.T) {
	var gotQuery map[string][]string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	_, err := c.Products(context.Background(), "tok", ProductQuery{Page: 2, Limit: 25, Name: "Test Product"})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/products", gotPath)
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"25"}, gotQuery["limit"])
	assert.Equal(t, []string{"Test Product"}, gotQuery["name"])
	assert.NotContains(t, gotQuery, "category", "empty parameters are skipped")
}

func TestPathEscaping(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	_, err := c.DeleteProduct(context.Background(), "tok", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/products/a%2Fb", gotPath)
}

func TestRecorderReceivesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"session_id":"cs-1"}`))
	}))
	t.Cleanup(srv.Close)

	rec := &recorded{}
	c := New(srv.URL, time.Second, WithRecorder(rec))

	_, err := c.OpenCash(context.Background(), "tok", 100.0)
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, http.MethodPost, ev.Method)
	assert.Equal(t, "/api/v1/cash/open", ev.Path)
	assert.Equal(t, http.StatusCreated, ev.Status)
	assert.Greater(t, ev.Duration, time.Duration(0))
}

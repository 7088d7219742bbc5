package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schema", r.URL.Path)
		w.Write([]byte(`{"tables": {"orders": {"columns": []}}}`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, time.Second)
	schema, err := c.FetchSchema(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, schema, "tables")
}

func TestFetchSchemaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, time.Second)
	_, err := c.FetchSchema(context.Background(), srv.URL)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.False(t, te.Timeout)
}

func TestFetchMetricsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, time.Second)
	_, err := c.FetchMetrics(context.Background(), srv.URL)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "invalid JSON")
}

func TestFetchHealthHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, time.Second)
	res := c.FetchHealth(context.Background(), srv.URL)
	assert.True(t, res.Healthy)
	assert.Greater(t, res.LatencyMS, 0.0)
	assert.Equal(t, "healthy", res.Response["status"])
}

func TestFetchHealthDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "degraded"}`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, time.Second)
	res := c.FetchHealth(context.Background(), srv.URL)
	assert.False(t, res.Healthy)
	assert.Equal(t, "degraded", res.Response["status"])
}

func TestFetchHealthTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, 20*time.Millisecond)
	res := c.FetchHealth(context.Background(), srv.URL)
	assert.False(t, res.Healthy)
	assert.Equal(t, "Request timed out", res.Response["error"])
}

func TestFetchHealthConnectionRefused(t *testing.T) {
	c := NewClient(5*time.Second, time.Second)
	res := c.FetchHealth(context.Background(), "http://127.0.0.1:1")
	assert.False(t, res.Healthy)
	assert.NotEmpty(t, res.Response["error"])
}

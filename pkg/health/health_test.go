package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, handler http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestReadyEndpoint_GatedBySetReady(t *testing.T) {
	h := New()

	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Status)

	h.SetReady(true)
	code, resp = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("postgres", time.Second, func(_ context.Context) error {
		return errors.New("connection refused")
	})
	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	// Start runs every check once synchronously before ticking.
	require.Eventually(t, func() bool {
		code, _ := probe(t, h.ReadyEndpoint)
		return code == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)

	_, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, "connection refused", resp.Checks["postgres"])
}

func TestLiveEndpoint_HealthyChecks(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))
	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	require.Eventually(t, func() bool {
		code, resp := probe(t, h.LiveEndpoint)
		return code == http.StatusOK && resp.Checks["goroutines"] == "ok"
	}, time.Second, 10*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

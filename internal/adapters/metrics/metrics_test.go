package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/pratracker/internal/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMetrics_Record(t *testing.T) {
	m := metrics.NewSyncMetrics()

	m.ObserveSync("ok", 1500*time.Millisecond)
	m.ObserveSync("ok", time.Second)
	m.ObserveSync("error", time.Second)
	m.IncTransition("WON")
	m.IncTransition("VOIDED")
	m.IncTransition("WON")
	m.IncDeferred()
	m.SetBankroll(101.82)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BetTransitions.WithLabelValues("WON")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeferredGames))
	assert.Equal(t, 101.82, testutil.ToFloat64(m.BankrollUnits))
}

func TestHandler_MetricsAndHealth(t *testing.T) {
	m := metrics.NewSyncMetrics()
	m.SetBankroll(99.5)

	srv := httptest.NewServer(metrics.NewHandler(m.Registry(), func(context.Context) error { return nil }))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pratracker_bankroll_units 99.5")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_Unhealthy(t *testing.T) {
	m := metrics.NewSyncMetrics()
	srv := httptest.NewServer(metrics.NewHandler(m.Registry(), func(context.Context) error {
		return errors.New("database is locked")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "database is locked")
}

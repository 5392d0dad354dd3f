package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordLookup(true)
	m.RecordLookup(true)
	m.RecordLookup(false)
	m.RecordMutation("create_report", nil)
	m.RecordMutation("create_report", errors.New("boom"))
	m.ObserveUpload(2048)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("create_report", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("create_report", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.uploadSizeBytes))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLookup(true)
		m.RecordMutation("x", nil)
		m.ObserveUpload(1)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/reports/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/reports/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `laudos_http_request_duration_seconds_count{method="GET",route="/reports/:id",status="200"} 1`))
}

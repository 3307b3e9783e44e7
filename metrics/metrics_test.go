package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector()

	c.ObserveRegenerate(true, time.Second)
	c.ObserveRegenerate(false, time.Second)
	c.ObserveRegenerate(true, time.Second)
	c.ObserveFindings("schema", 1, 2)
	c.ObserveRollback(false)
	c.ObservePublish(true)
	c.ObserveNormalizeFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Regenerations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Regenerations.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Validations.WithLabelValues("schema", "warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Rollbacks.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PublishDecisions.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NormalizeFailures))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveRegenerate(true, time.Second)
		c.ObserveHTTP("GET", "/x", 200, time.Millisecond)
		c.ObserveAudit(true)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveHTTP(http.MethodGet, "/api/graphs", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "kgraph_http_requests_total"))
	assert.Contains(t, body, `route="/api/graphs"`)
}

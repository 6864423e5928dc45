package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func scrape(m *Metrics) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestCountMutation(t *testing.T) {
	m := New()
	m.CountMutation("member", "create", ResultOK)
	m.CountMutation("member", "create", ResultOK)
	m.CountMutation("member", "delete", ResultRejected)

	body := scrape(m)
	assert.Contains(t, body, `genealogy_mutations_total{entity="member",op="create",result="ok"} 2`)
	assert.Contains(t, body, `genealogy_mutations_total{entity="member",op="delete",result="rejected"} 1`)
}

func TestObserveRequestExported(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/members/{id}", 200, 15*time.Millisecond)

	body := scrape(m)
	assert.Contains(t, body, `genealogy_http_requests_total{method="GET",route="/api/members/{id}",status="200"} 1`)
	assert.Contains(t, body, "genealogy_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CountMutation("clan", "create", ResultOK)
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandlerExposesSettlementSeries(t *testing.T) {
	Settlement("website", "committed")
	CommitAttempt("website")
	PriceMismatch()
	IntegrityMismatch()
	ObserveHTTP(http.MethodPost, "POST /api/v1/settlement/orders", http.StatusCreated, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `settlement_outcomes_total{channel="website",outcome="committed"}`)
	assert.Contains(t, body, "settlement_commit_attempts_total")
	assert.Contains(t, body, "settlement_price_mismatch_total")
	assert.Contains(t, body, "order_integrity_mismatch_total")
	assert.Contains(t, body, "http_request_duration_ms")
}

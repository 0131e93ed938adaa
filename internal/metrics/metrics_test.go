package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_CountsRequests(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/balance", "200"))

	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/balance?acct_id=1", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/balance", "200"))
	assert.Equal(t, before+1, after)
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/transfer", canonicalPath("/transfer"))
	assert.Equal(t, "other", canonicalPath("/accounts/123"))
	assert.Equal(t, "other", canonicalPath("/"))
}

func TestRecordEpoch(t *testing.T) {
	before := testutil.ToFloat64(settledActions.WithLabelValues("transfer", "insufficient-funds"))

	RecordEpoch(5*time.Millisecond, 3, map[string]map[string]int{
		"transfer": {"insufficient-funds": 2, "applied": 1},
	}, 7)

	assert.Equal(t, before+2, testutil.ToFloat64(settledActions.WithLabelValues("transfer", "insufficient-funds")))
	assert.Equal(t, float64(7), testutil.ToFloat64(accounts))
}

func TestHandler_Exposes(t *testing.T) {
	SetPending(4)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledger_queue_pending_actions 4")
}

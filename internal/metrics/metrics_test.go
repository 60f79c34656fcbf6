package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/v1/proposals/{id}/votes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods(http.MethodPost)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/v1/proposals/{id}/votes", "201"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/proposals/12/votes", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/v1/proposals/{id}/votes", "201"))
	assert.Equal(t, before+1, after)
}

func TestProposalCounters(t *testing.T) {
	before := testutil.ToFloat64(proposalsResolved.WithLabelValues("approved", "sweep"))
	ProposalResolved("approved", "sweep")
	assert.Equal(t, before+1, testutil.ToFloat64(proposalsResolved.WithLabelValues("approved", "sweep")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	VoteCast()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "aura_proposals_votes_total"))
}

package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/year-changes", http.StatusCreated, 20*time.Millisecond)
	m.RecordYearChange(YearChangeOutcomeConfirmed)
	m.RecordYearChange(YearChangeOutcomeDuplicate)
	m.RecordPayment("cash")
	m.RecordProgressComputation()
	m.ObserveEligibilityScan(12)
	m.ObserveDBQuery("year_change_confirm", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `year_changes_total{outcome="confirmed"} 1`))
	assert.True(t, strings.Contains(body, `payments_recorded_total{payment_type="cash"} 1`))
	assert.True(t, strings.Contains(body, "class_fee_fee_progress_computations_total 1"))
	assert.True(t, strings.Contains(body, "go_goroutines"))

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
	assert.Equal(t, uint64(1), snapshot.YearChangesConfirmed)
	assert.Equal(t, uint64(1), snapshot.PaymentsRecorded)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordYearChange(YearChangeOutcomeFailed)
	m.RecordPayment("card")
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

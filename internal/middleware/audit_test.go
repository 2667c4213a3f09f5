package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-fee-api/internal/models"
	"github.com/noah-isme/class-fee-api/pkg/middleware/requestid"
)

type auditRecorder struct {
	logs []models.AuditLog
	err  error
}

func (a *auditRecorder) Create(_ context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return a.err
}

func newAuditRouter(writer auditWriter, status int, resourceID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "staff-1"}})
	})
	r.POST("/payments/:id", Audit(writer, nil, models.AuditActionPaymentRecord, "payment"), func(c *gin.Context) {
		SetAuditResource(c, resourceID)
		c.Status(status)
	})
	return r
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	writer := &auditRecorder{}
	r := newAuditRouter(writer, http.StatusCreated, "pay-9")

	req := httptest.NewRequest(http.MethodPost, "/payments/pay-1", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("User-Agent", "front-desk")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Len(t, writer.logs, 1)
	log := writer.logs[0]
	assert.Equal(t, models.AuditActionPaymentRecord, log.Action)
	assert.Equal(t, "payment", log.Resource)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "staff-1", *log.UserID)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "pay-9", *log.ResourceID)
	assert.Equal(t, "req-123", log.RequestID)
	assert.Equal(t, "front-desk", log.UserAgent)
	assert.Contains(t, string(log.NewValues), `"status":201`)
}

func TestAuditFallsBackToPathID(t *testing.T) {
	writer := &auditRecorder{}
	r := newAuditRouter(writer, http.StatusOK, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/pay-1", nil))

	require.Len(t, writer.logs, 1)
	require.NotNil(t, writer.logs[0].ResourceID)
	assert.Equal(t, "pay-1", *writer.logs[0].ResourceID)
}

func TestAuditSkipsFailuresAndToleratesWriteErrors(t *testing.T) {
	writer := &auditRecorder{}
	rec := httptest.NewRecorder()
	newAuditRouter(writer, http.StatusConflict, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/pay-1", nil))
	assert.Empty(t, writer.logs)

	failing := &auditRecorder{err: errors.New("db down")}
	rec = httptest.NewRecorder()
	newAuditRouter(failing, http.StatusOK, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/pay-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, failing.logs, 1)
}

func TestAuditSkippedRequestsWriteNothing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &auditRecorder{}
	r := gin.New()
	r.POST("/year-changes", Audit(writer, nil, models.AuditActionYearChangeConfirm, "year_change"), func(c *gin.Context) {
		SkipAudit(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/year-changes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, writer.logs)
}

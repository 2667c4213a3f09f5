package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/models"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
)

type fakePaymentSrv struct {
	recordResp *dto.RecordPaymentResult
	payment    *models.Payment
	payments   []models.PaymentDetail
	pagination *models.Pagination
	eligible   []dto.EligibleItem
	hint       *dto.FeeHint
	err        error

	lastRecord   dto.RecordPaymentRequest
	lastStatusID string
	lastStatus   dto.UpdatePaymentStatusRequest
	lastList     dto.ListPaymentsQuery
	lastEligible dto.EligibleQuery
	lastHint     dto.FeeHintQuery
}

func (f *fakePaymentSrv) Record(_ context.Context, req dto.RecordPaymentRequest) (*dto.RecordPaymentResult, error) {
	f.lastRecord = req
	return f.recordResp, f.err
}

func (f *fakePaymentSrv) UpdateStatus(_ context.Context, id string, req dto.UpdatePaymentStatusRequest) (*models.Payment, error) {
	f.lastStatusID = id
	f.lastStatus = req
	return f.payment, f.err
}

func (f *fakePaymentSrv) List(_ context.Context, q dto.ListPaymentsQuery) ([]models.PaymentDetail, *models.Pagination, error) {
	f.lastList = q
	return f.payments, f.pagination, f.err
}

func (f *fakePaymentSrv) Eligible(_ context.Context, q dto.EligibleQuery) ([]dto.EligibleItem, error) {
	f.lastEligible = q
	return f.eligible, f.err
}

func (f *fakePaymentSrv) FeeHint(_ context.Context, q dto.FeeHintQuery) (*dto.FeeHint, error) {
	f.lastHint = q
	return f.hint, f.err
}

func TestPaymentHandlerRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentSrv{recordResp: &dto.RecordPaymentResult{
		Payment:           models.Payment{ID: "pay-1"},
		EnrollmentCreated: true,
	}}
	handler := NewPaymentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"studentId":"stu-1","classId":"class-1","amount":"2500.50","paymentDate":"2025-05-01","paymentType":"cash"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Record(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, srv.lastRecord.Amount.Equal(decimal.RequireFromString("2500.50")))
	assert.Equal(t, true, decodeEnvelope(t, rec).object(t)["enrollmentCreated"])
}

func TestPaymentHandlerRecordInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(&fakePaymentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount":"abc"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Record(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentSrv{payment: &models.Payment{ID: "pay-1", Status: models.PaymentStatusCompleted}}
	handler := NewPaymentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/payments/pay-1/status", strings.NewReader(`{"status":"completed"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}

	handler.UpdateStatus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pay-1", srv.lastStatusID)
	assert.Equal(t, "completed", srv.lastStatus.Status)
}

func TestPaymentHandlerUpdateStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(&fakePaymentSrv{err: appErrors.Clone(appErrors.ErrNotFound, "payment not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/payments/missing/status", strings.NewReader(`{"status":"failed"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentSrv{
		payments:   []models.PaymentDetail{{Payment: models.Payment{ID: "pay-1"}, StudentName: "Ayu"}},
		pagination: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
	}
	handler := NewPaymentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments?classType=online&search=ayu&page=2&pageSize=10", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ListPaymentsQuery{ClassType: "online", Search: "ayu", Page: 2, PageSize: 10}, srv.lastList)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(11), envelope.Pagination["total_count"])
	items := envelope.list(t)
	require.Len(t, items, 1)
	assert.Equal(t, "pay-1", items[0]["id"])
	assert.Equal(t, "Ayu", items[0]["student_name"])
}

func TestPaymentHandlerListBadPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(&fakePaymentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments?page=two", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandlerEligible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentSrv{eligible: []dto.EligibleItem{{StudentID: "stu-1", Percent: 100}}}
	handler := NewPaymentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments/eligible?classType=physical", nil)

	handler.Eligible(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "physical", srv.lastEligible.ClassType)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(1), envelope.Meta["count"])
	items := envelope.list(t)
	require.Len(t, items, 1)
	assert.Equal(t, "stu-1", items[0]["studentId"])
	assert.Equal(t, float64(100), items[0]["percent"])
}

func TestPaymentHandlerFeeHint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentSrv{hint: &dto.FeeHint{StudentID: "stu-1", ClassID: "class-1", AdjustedFee: decimal.NewFromInt(5000), Source: dto.FeeHintSourceYearChange}}
	handler := NewPaymentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments/fee-hint?studentId=stu-1&classId=class-1", nil)

	handler.FeeHint(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "class-1", srv.lastHint.ClassID)
	data := decodeEnvelope(t, rec).object(t)
	assert.Equal(t, "year_change", data["source"])
	assert.Equal(t, "5000", data["adjustedFee"])
}

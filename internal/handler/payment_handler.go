package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/middleware"
	"github.com/noah-isme/class-fee-api/internal/models"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
	"github.com/noah-isme/class-fee-api/pkg/response"
)

type paymentService interface {
	Record(ctx context.Context, req dto.RecordPaymentRequest) (*dto.RecordPaymentResult, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdatePaymentStatusRequest) (*models.Payment, error)
	List(ctx context.Context, q dto.ListPaymentsQuery) ([]models.PaymentDetail, *models.Pagination, error)
	Eligible(ctx context.Context, q dto.EligibleQuery) ([]dto.EligibleItem, error)
	FeeHint(ctx context.Context, q dto.FeeHintQuery) (*dto.FeeHint, error)
}

// PaymentHandler exposes payment endpoints.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service paymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param classId query string false "Filter by class"
// @Param classType query string false "physical or online"
// @Param status query string false "pending, completed or failed"
// @Param search query string false "Student name, student number or class title"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var q dto.ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	payments, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Record godoc
// @Summary Record a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body dto.RecordPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, result.Payment.ID)
	response.Created(c, result)
}

// UpdateStatus godoc
// @Summary Update payment status
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body dto.UpdatePaymentStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/status [patch]
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Eligible godoc
// @Summary Students who paid the adjusted fee in full
// @Tags Payments
// @Produce json
// @Param classType query string true "physical or online"
// @Success 200 {object} response.Envelope
// @Router /payments/eligible [get]
func (h *PaymentHandler) Eligible(c *gin.Context) {
	var q dto.EligibleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, err := h.service.Eligible(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(items))
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// FeeHint godoc
// @Summary Expected fee for a new payment
// @Tags Payments
// @Produce json
// @Param studentId query string true "Student ID"
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /payments/fee-hint [get]
func (h *PaymentHandler) FeeHint(c *gin.Context) {
	var q dto.FeeHintQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	hint, err := h.service.FeeHint(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hint, nil)
}

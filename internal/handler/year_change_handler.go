package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/middleware"
	"github.com/noah-isme/class-fee-api/internal/models"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
	"github.com/noah-isme/class-fee-api/pkg/response"
)

const (
	// HeaderIdempotencyKey carries the client generated key of a confirm request.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed is set when a stored confirm result is returned.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"
)

type yearChangeService interface {
	Prepare(ctx context.Context, req dto.PrepareYearChangeRequest) (*dto.PrepareYearChangeResponse, error)
	Confirm(ctx context.Context, req dto.ConfirmYearChangeRequest, idempotencyKey string) (*dto.ConfirmYearChangeResult, bool, error)
	Timeline(ctx context.Context, q dto.YearChangeTimelineQuery) ([]models.YearChange, error)
}

// YearChangeHandler exposes the exam year change workflow.
type YearChangeHandler struct {
	service yearChangeService
}

// NewYearChangeHandler constructs the handler.
func NewYearChangeHandler(service yearChangeService) *YearChangeHandler {
	return &YearChangeHandler{service: service}
}

// Timeline godoc
// @Summary Exam year changes of a student in a class
// @Tags YearChanges
// @Produce json
// @Param studentId query string true "Student ID"
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /year-changes [get]
func (h *YearChangeHandler) Timeline(c *gin.Context) {
	var q dto.YearChangeTimelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	changes, err := h.service.Timeline(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, changes, nil)
}

// Prepare godoc
// @Summary Preview an exam year change
// @Tags YearChanges
// @Accept json
// @Produce json
// @Param payload body dto.PrepareYearChangeRequest true "Year change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /year-changes/prepare [post]
func (h *YearChangeHandler) Prepare(c *gin.Context) {
	var req dto.PrepareYearChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	preview, err := h.service.Prepare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Confirm godoc
// @Summary Confirm an exam year change and move the student to the new class
// @Tags YearChanges
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client generated idempotency key"
// @Param payload body dto.ConfirmYearChangeRequest true "Year change"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "Replayed result"
// @Failure 409 {object} response.Envelope
// @Router /year-changes [post]
func (h *YearChangeHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmYearChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))

	result, replayed, err := h.service.Confirm(c.Request.Context(), req, key)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, result.YearChange.ID)
	if replayed {
		// The original confirm was already audited.
		middleware.SkipAudit(c)
		c.Header(HeaderIdempotencyReplayed, "true")
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	response.Created(c, result)
}

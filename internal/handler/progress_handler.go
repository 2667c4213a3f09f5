package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/middleware"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
	"github.com/noah-isme/class-fee-api/pkg/response"
)

type progressService interface {
	Progress(ctx context.Context, q dto.ProgressQuery) (*dto.ProgressResponse, bool, error)
	ProgressForPayment(ctx context.Context, paymentID string) (*dto.ProgressResponse, bool, error)
}

// ProgressHandler exposes payment progress endpoints.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// Get godoc
// @Summary Payment progress of a student in a class
// @Tags Progress
// @Produce json
// @Param studentId query string true "Student ID"
// @Param classId query string true "Class ID"
// @Param date query string false "Reference date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /progress [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	var q dto.ProgressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	q.StudentID = strings.TrimSpace(q.StudentID)
	q.ClassID = strings.TrimSpace(q.ClassID)
	q.Date = strings.TrimSpace(q.Date)

	progress, cacheHit, err := h.service.Progress(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, progress, nil, middleware.ExtractMeta(c))
}

// ForPayment godoc
// @Summary Payment progress as of a recorded payment
// @Tags Progress
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/progress [get]
func (h *ProgressHandler) ForPayment(c *gin.Context) {
	progress, cacheHit, err := h.service.ProgressForPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, progress, nil, middleware.ExtractMeta(c))
}

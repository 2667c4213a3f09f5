package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/models"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
	"github.com/noah-isme/class-fee-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, q dto.ListEnrollmentsQuery) ([]models.EnrollmentDetail, *models.Pagination, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param classId query string false "Filter by class"
// @Param classType query string false "physical or online"
// @Param status query string false "active or ended"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "enrolled_at, student_name or class_title"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var q dto.ListEnrollmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

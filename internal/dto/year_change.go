package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/class-fee-api/internal/models"
)

// PrepareYearChangeRequest starts a year change without writing anything.
type PrepareYearChangeRequest struct {
	StudentID   string `json:"studentId" validate:"required"`
	ClassID     string `json:"classId" validate:"required"`
	NewExamYear int    `json:"newExamYear" validate:"required,gte=2000,lte=2100"`
}

// PrepareYearChangeResponse previews the change and lists the classes the
// student can be moved into.
type PrepareYearChangeResponse struct {
	StudentID        string               `json:"studentId"`
	ClassID          string               `json:"classId"`
	ClassType        models.ClassType     `json:"classType"`
	OriginalExamYear int                  `json:"originalExamYear"`
	NewExamYear      int                  `json:"newExamYear"`
	PreviewTier      models.FeeTier       `json:"previewFeeAdjustment"`
	Candidates       []models.ClassOption `json:"candidateClasses"`
}

// ConfirmYearChangeRequest executes a year change for the selected target class.
type ConfirmYearChangeRequest struct {
	StudentID     string          `json:"studentId" validate:"required"`
	ClassID       string          `json:"classId" validate:"required"`
	NewExamYear   int             `json:"newExamYear" validate:"required,gte=2000,lte=2100"`
	FeeAdjustment *models.FeeTier `json:"feeAdjustment,omitempty"`
	NewClassID    string          `json:"newClassId" validate:"required"`
}

// ConfirmYearChangeResult is what a confirmed year change produced.
type ConfirmYearChangeResult struct {
	YearChange          models.YearChange `json:"yearChange"`
	FeeAdjustment       models.FeeTier    `json:"feeAdjustment"`
	Enrollment          models.Enrollment `json:"enrollment"`
	UpdatedEnrollments  int64             `json:"updatedEnrollments"`
	EnrollmentCreated   bool              `json:"enrollmentCreated"`
	NewClassAdjustedFee decimal.Decimal   `json:"newClassAdjustedFee"`
}

// YearChangeTimelineQuery selects the ledger of one student and class.
type YearChangeTimelineQuery struct {
	StudentID string `form:"studentId" validate:"required"`
	ClassID   string `form:"classId" validate:"required"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/class-fee-api/internal/feerule"
	"github.com/noah-isme/class-fee-api/internal/models"
)

// ProgressQuery carries the lookup for a payment progress computation.
type ProgressQuery struct {
	StudentID string `form:"studentId" validate:"required"`
	ClassID   string `form:"classId" validate:"required"`
	Date      string `form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ProgressResponse is the payment progress of a student in a class at a reference date.
type ProgressResponse struct {
	StudentID     string           `json:"studentId"`
	ClassID       string           `json:"classId"`
	ReferenceDate string           `json:"referenceDate"`
	Percent       int64            `json:"percent"`
	SumPayments   decimal.Decimal  `json:"sumPayments"`
	AdjustedFee   decimal.Decimal  `json:"adjustedFee"`
	NominalFee    *decimal.Decimal `json:"nominalFee"`
	FeeAdjustment *models.FeeTier  `json:"feeAdjustment"`
	EffectiveFrom *time.Time       `json:"effectiveFrom,omitempty"`
	Completed     bool             `json:"completed"`
}

// NewProgressResponse maps an engine result to its API shape.
func NewProgressResponse(studentID, classID string, ref time.Time, result feerule.Result) ProgressResponse {
	return ProgressResponse{
		StudentID:     studentID,
		ClassID:       classID,
		ReferenceDate: ref.Format(DateLayout),
		Percent:       result.Percent,
		SumPayments:   result.SumPayments,
		AdjustedFee:   result.AdjustedFee,
		NominalFee:    result.NominalFee,
		FeeAdjustment: result.Tier,
		EffectiveFrom: result.EffectiveFrom,
		Completed:     result.Completed(),
	}
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

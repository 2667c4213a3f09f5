package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/class-fee-api/internal/models"
)

// RecordPaymentRequest records a payment and enrolls the student if needed.
type RecordPaymentRequest struct {
	StudentID   string          `json:"studentId" validate:"required"`
	ClassID     string          `json:"classId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	PaymentType string          `json:"paymentType" validate:"required,oneof=cash bank_transfer card"`
	Status      string          `json:"status" validate:"omitempty,oneof=pending completed failed"`
	Notes       *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// RecordPaymentResult is the stored payment and the enrollment it belongs to.
type RecordPaymentResult struct {
	Payment           models.Payment    `json:"payment"`
	Enrollment        models.Enrollment `json:"enrollment"`
	EnrollmentCreated bool              `json:"enrollmentCreated"`
}

// UpdatePaymentStatusRequest changes the status of a payment.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed"`
}

// ListPaymentsQuery filters payment listings.
type ListPaymentsQuery struct {
	StudentID string `form:"studentId"`
	ClassID   string `form:"classId"`
	ClassType string `form:"classType" validate:"omitempty,oneof=physical online"`
	Status    string `form:"status" validate:"omitempty,oneof=pending completed failed"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// EligibleQuery selects the modality for the eligibility list.
type EligibleQuery struct {
	ClassType string `form:"classType" validate:"required,oneof=physical online"`
}

// EligibleItem is a student who has paid the adjusted fee of a class in full.
type EligibleItem struct {
	StudentID     string          `json:"studentId"`
	StudentName   string          `json:"studentName"`
	ClassID       string          `json:"classId"`
	ClassTitle    string          `json:"classTitle"`
	Percent       int64           `json:"percent"`
	SumPayments   decimal.Decimal `json:"sumPayments"`
	AdjustedFee   decimal.Decimal `json:"adjustedFee"`
	FeeAdjustment *models.FeeTier `json:"feeAdjustment"`
}

// FeeHintQuery selects the pair for a fee hint lookup.
type FeeHintQuery struct {
	StudentID string `form:"studentId" validate:"required"`
	ClassID   string `form:"classId" validate:"required"`
}

// FeeHintSource names where a fee hint came from.
type FeeHintSource string

const (
	FeeHintSourceEnrollment FeeHintSource = "enrollment"
	FeeHintSourceYearChange FeeHintSource = "year_change"
	FeeHintSourceNone       FeeHintSource = "none"
)

// FeeHint tells the payment form what the student is expected to pay for a class.
type FeeHint struct {
	StudentID     string           `json:"studentId"`
	ClassID       string           `json:"classId"`
	FeeAdjustment *models.FeeTier  `json:"feeAdjustment"`
	NominalFee    *decimal.Decimal `json:"nominalFee"`
	AdjustedFee   decimal.Decimal  `json:"adjustedFee"`
	Source        FeeHintSource    `json:"source"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the only payment field staff may edit after recording.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentType is the payment method.
type PaymentType string

const (
	PaymentTypeCash         PaymentType = "cash"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
	PaymentTypeCard         PaymentType = "card"
)

// Payment is one payment event for a student and class.
type Payment struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	ClassID     string          `db:"class_id" json:"class_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate time.Time       `db:"payment_date" json:"payment_date"`
	PaymentType PaymentType     `db:"payment_type" json:"payment_type"`
	Status      PaymentStatus   `db:"status" json:"status"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	ClassType   ClassType       `db:"class_type" json:"class_type"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// PaymentDetail adds student and class context for listings.
type PaymentDetail struct {
	Payment
	StudentName   string           `db:"student_name" json:"student_name"`
	StudentNumber string           `db:"student_number" json:"student_number"`
	ClassTitle    string           `db:"class_title" json:"class_title"`
	ClassFee      *decimal.Decimal `db:"class_fee" json:"class_fee"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	StudentID string
	ClassID   string
	ClassType ClassType
	Status    PaymentStatus
	Search    string
	Page      int
	PageSize  int
}

// StudentClassPair identifies a student's payment history in one class.
type StudentClassPair struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	ClassID     string           `db:"class_id" json:"class_id"`
	ClassTitle  string           `db:"class_title" json:"class_title"`
	ClassFee    *decimal.Decimal `db:"class_fee" json:"class_fee"`
}

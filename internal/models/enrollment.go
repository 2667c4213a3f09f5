package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive EnrollmentStatus = "active"
	EnrollmentStatusEnded  EnrollmentStatus = "ended"
)

// Enrollment links a student to a class and carries the fee tier in force for that pair.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	ClassID       string           `db:"class_id" json:"class_id"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	FeeAdjustment *FeeTier         `db:"fee_adjustment" json:"fee_adjustment"`
	AdjustedFee   *decimal.Decimal `db:"adjusted_fee" json:"adjusted_fee"`
	EnrolledAt    time.Time        `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student and class info.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string    `db:"student_name" json:"student_name"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	ClassTitle    string    `db:"class_title" json:"class_title"`
	ClassType     ClassType `db:"class_type" json:"class_type"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	ClassType ClassType
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

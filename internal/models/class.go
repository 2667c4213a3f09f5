package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassStatusActive marks classes open for enrollment.
const ClassStatusActive = "active"

// Class is a class offering. Fee is the nominal full fee; nil means no fee is set.
type Class struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	ClassType      ClassType        `db:"class_type" json:"class_type"`
	LocationOrLink string           `db:"location_or_link" json:"location_or_link"`
	MaxStudents    int              `db:"max_students" json:"max_students"`
	Fee            *decimal.Decimal `db:"fee" json:"fee"`
	Status         string           `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// NominalFee returns the fee, treating an unset fee as zero.
func (c *Class) NominalFee() decimal.Decimal {
	if c == nil || c.Fee == nil {
		return decimal.Zero
	}
	return *c.Fee
}

// ClassOption is the short form used when offering migration targets.
type ClassOption struct {
	ID    string           `db:"id" json:"id"`
	Title string           `db:"title" json:"title"`
	Fee   *decimal.Decimal `db:"fee" json:"fee"`
}

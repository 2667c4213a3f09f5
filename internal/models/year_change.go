package models

import "time"

// YearChange is one entry of the append-only exam year change ledger. Seq is a
// strictly increasing sequence number used to order entries that share ChangedAt.
type YearChange struct {
	ID            string    `db:"id" json:"id"`
	Seq           int64     `db:"seq" json:"seq"`
	StudentID     string    `db:"student_id" json:"student_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	NewExamYear   int       `db:"new_exam_year" json:"new_exam_year"`
	FeeAdjustment FeeTier   `db:"fee_adjustment" json:"fee_adjustment"`
	ChangedAt     time.Time `db:"changed_at" json:"changed_at"`
}

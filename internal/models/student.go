package models

import "time"

// Student is a learner registered with the school. ExamFacingYear is fixed at
// registration and is the reference point for all year-change fee math.
type Student struct {
	ID             string    `db:"id" json:"id"`
	StudentNumber  string    `db:"student_number" json:"student_number"`
	Name           string    `db:"name" json:"name"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Status         string    `db:"status" json:"status"`
	ClassType      ClassType `db:"class_type" json:"class_type"`
	PhotoURL       *string   `db:"photo_url" json:"photo_url,omitempty"`
	ExamFacingYear int       `db:"exam_facing_year" json:"exam_facing_year"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

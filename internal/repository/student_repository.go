package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-fee-api/internal/models"
)

const studentColumns = `id, student_number, name, email, phone, status, class_type, photo_url, exam_facing_year, created_at, updated_at`

// StudentRepository reads students. Student records are owned by the admin
// panel's registration form; this service never writes them.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := conn(ctx, r.db).GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// LockByID returns a student and holds a row lock until the surrounding
// transaction ends, serialising concurrent fee workflows for that student.
func (r *StudentRepository) LockByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE id = $1 FOR UPDATE`
	var student models.Student
	if err := conn(ctx, r.db).GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

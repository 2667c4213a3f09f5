package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-fee-api/internal/models"
)

const yearChangeColumns = `id, seq, student_id, class_id, new_exam_year, fee_adjustment, changed_at`

// YearChangeRepository reads and appends to the exam year change ledger. The
// ledger is append-only: there is no update or delete.
type YearChangeRepository struct {
	db *sqlx.DB
}

// NewYearChangeRepository constructs the repository.
func NewYearChangeRepository(db *sqlx.DB) *YearChangeRepository {
	return &YearChangeRepository{db: db}
}

// ListByStudentAndClass returns the ledger of one pair in ledger order.
func (r *YearChangeRepository) ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.YearChange, error) {
	const query = `SELECT ` + yearChangeColumns + ` FROM exam_year_changes WHERE student_id = $1 AND class_id = $2 ORDER BY changed_at ASC, seq ASC`
	var changes []models.YearChange
	if err := conn(ctx, r.db).SelectContext(ctx, &changes, query, studentID, classID); err != nil {
		return nil, fmt.Errorf("list year changes: %w", err)
	}
	return changes, nil
}

// ListByClassType returns the ledger rows of every class of a modality.
func (r *YearChangeRepository) ListByClassType(ctx context.Context, classType models.ClassType) ([]models.YearChange, error) {
	const query = `SELECT y.id, y.seq, y.student_id, y.class_id, y.new_exam_year, y.fee_adjustment, y.changed_at
        FROM exam_year_changes y
        JOIN classes c ON c.id = y.class_id
        WHERE c.class_type = $1
        ORDER BY y.changed_at ASC, y.seq ASC`
	var changes []models.YearChange
	if err := conn(ctx, r.db).SelectContext(ctx, &changes, query, classType); err != nil {
		return nil, fmt.Errorf("list year changes by class type: %w", err)
	}
	return changes, nil
}

// Exists reports whether the student already moved to newExamYear in the class.
func (r *YearChangeRepository) Exists(ctx context.Context, studentID, classID string, newExamYear int) (bool, error) {
	const query = `SELECT 1 FROM exam_year_changes WHERE student_id = $1 AND class_id = $2 AND new_exam_year = $3 LIMIT 1`
	var exists int
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, studentID, classID, newExamYear); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check year change: %w", err)
	}
	return true, nil
}

// CountByStudentAndClass counts ledger rows for one pair.
func (r *YearChangeRepository) CountByStudentAndClass(ctx context.Context, studentID, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_year_changes WHERE student_id = $1 AND class_id = $2`
	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, studentID, classID); err != nil {
		return 0, fmt.Errorf("count year changes: %w", err)
	}
	return count, nil
}

// CountByStudentAndClassType counts ledger rows for the student across all classes of a modality.
func (r *YearChangeRepository) CountByStudentAndClassType(ctx context.Context, studentID string, classType models.ClassType) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_year_changes y JOIN classes c ON c.id = y.class_id WHERE y.student_id = $1 AND c.class_type = $2`
	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, studentID, classType); err != nil {
		return 0, fmt.Errorf("count year changes by class type: %w", err)
	}
	return count, nil
}

// LatestByStudent returns the student's most recent ledger row in any class.
func (r *YearChangeRepository) LatestByStudent(ctx context.Context, studentID string) (*models.YearChange, error) {
	const query = `SELECT ` + yearChangeColumns + ` FROM exam_year_changes WHERE student_id = $1 ORDER BY changed_at DESC, seq DESC LIMIT 1`
	var change models.YearChange
	if err := conn(ctx, r.db).GetContext(ctx, &change, query, studentID); err != nil {
		return nil, err
	}
	return &change, nil
}

// Create appends a ledger row and fills in its sequence number. A second row
// for the same student, class and year yields ErrDuplicate.
func (r *YearChangeRepository) Create(ctx context.Context, change *models.YearChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.ChangedAt.IsZero() {
		change.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_year_changes (id, student_id, class_id, new_exam_year, fee_adjustment, changed_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING seq`
	row := conn(ctx, r.db).QueryRowxContext(ctx, query,
		change.ID, change.StudentID, change.ClassID, change.NewExamYear, change.FeeAdjustment, change.ChangedAt)
	if err := row.Scan(&change.Seq); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create year change: %w", err)
	}
	return nil
}

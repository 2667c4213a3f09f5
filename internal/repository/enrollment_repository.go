package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-fee-api/internal/models"
)

const enrollmentColumns = `id, student_id, class_id, status, fee_adjustment, adjusted_fee, enrolled_at, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN classes c ON c.id = e.class_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.ClassType != "" {
		conditions = append(conditions, fmt.Sprintf("c.class_type = $%d", len(args)+1))
		args = append(args, filter.ClassType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":  "e.enrolled_at",
		"student_name": "s.name",
		"class_title":  "c.title",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.class_id, e.status, e.fee_adjustment, e.adjusted_fee, e.enrolled_at, e.created_at, e.updated_at,
        s.name AS student_name, s.student_number, c.title AS class_title, c.class_type
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByStudentAndClass returns the enrollment of a student in a class.
func (r *EnrollmentRepository) FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND class_id = $2`
	var enrollment models.Enrollment
	if err := conn(ctx, r.db).GetContext(ctx, &enrollment, query, studentID, classID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateIfAbsent inserts the enrollment unless the student is already enrolled
// in the class. It reports whether a row was written.
func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, student_id, class_id, status, fee_adjustment, adjusted_fee, enrolled_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (student_id, class_id) DO NOTHING`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		enrollment.ID, enrollment.StudentID, enrollment.ClassID, enrollment.Status,
		enrollment.FeeAdjustment, enrollment.AdjustedFee, enrollment.EnrolledAt,
		enrollment.CreatedAt, enrollment.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create enrollment rows affected: %w", err)
	}
	return affected > 0, nil
}

// ApplyTierByClassType sets tier and the per-class adjusted fee on every active
// enrollment of the student in an active class of the given modality.
func (r *EnrollmentRepository) ApplyTierByClassType(ctx context.Context, studentID string, classType models.ClassType, tier models.FeeTier) (int64, error) {
	const query = `UPDATE enrollments e
        SET fee_adjustment = $3, adjusted_fee = COALESCE(c.fee, 0) * $4, updated_at = NOW()
        FROM classes c
        WHERE c.id = e.class_id AND e.student_id = $1 AND c.class_type = $2
          AND c.status = $5 AND e.status = $6`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		studentID, classType, tier, tier.Multiplier(), models.ClassStatusActive, models.EnrollmentStatusActive)
	if err != nil {
		return 0, fmt.Errorf("apply enrollment fee tier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("apply enrollment fee tier rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByStudentAndClass removes the student's enrollment in a class.
func (r *EnrollmentRepository) DeleteByStudentAndClass(ctx context.Context, studentID, classID string) error {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND class_id = $2`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, studentID, classID); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

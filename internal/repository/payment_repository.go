package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-fee-api/internal/models"
)

const paymentColumns = `id, student_id, class_id, amount, payment_date, payment_type, status, notes, class_type, created_at, updated_at`

// PaymentRepository persists payment records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments with student and class context, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := `FROM payments p
JOIN students s ON s.id = p.student_id
JOIN classes c ON c.id = p.class_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("p.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.ClassType != "" {
		conditions = append(conditions, fmt.Sprintf("p.class_type = $%d", len(args)+1))
		args = append(args, filter.ClassType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(s.name ILIKE $%d OR s.student_number ILIKE $%d OR c.title ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.class_id, p.amount, p.payment_date, p.payment_type, p.status, p.notes, p.class_type, p.created_at, p.updated_at,
        s.name AS student_name, s.student_number, c.title AS class_title, c.fee AS class_fee
        %s ORDER BY p.payment_date DESC, p.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var payments []models.PaymentDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID returns a payment by ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var payment models.Payment
	if err := conn(ctx, r.db).GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByStudentAndClass returns the payment history of one student in one class.
func (r *PaymentRepository) ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE student_id = $1 AND class_id = $2 ORDER BY payment_date ASC, created_at ASC`
	var payments []models.Payment
	if err := conn(ctx, r.db).SelectContext(ctx, &payments, query, studentID, classID); err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return payments, nil
}

// ListByClassType returns every payment made for classes of a modality.
func (r *PaymentRepository) ListByClassType(ctx context.Context, classType models.ClassType) ([]models.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE class_type = $1 ORDER BY payment_date ASC, created_at ASC`
	var payments []models.Payment
	if err := conn(ctx, r.db).SelectContext(ctx, &payments, query, classType); err != nil {
		return nil, fmt.Errorf("list payments by class type: %w", err)
	}
	return payments, nil
}

// ListPairs returns the distinct student/class pairs that have payments for a modality.
func (r *PaymentRepository) ListPairs(ctx context.Context, classType models.ClassType) ([]models.StudentClassPair, error) {
	const query = `SELECT DISTINCT p.student_id, s.name AS student_name, p.class_id, c.title AS class_title, c.fee AS class_fee
        FROM payments p
        JOIN students s ON s.id = p.student_id
        JOIN classes c ON c.id = p.class_id
        WHERE p.class_type = $1
        ORDER BY s.name ASC, c.title ASC`
	var pairs []models.StudentClassPair
	if err := conn(ctx, r.db).SelectContext(ctx, &pairs, query, classType); err != nil {
		return nil, fmt.Errorf("list payment pairs: %w", err)
	}
	return pairs, nil
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `INSERT INTO payments (id, student_id, class_id, amount, payment_date, payment_type, status, notes, class_type, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query,
		payment.ID, payment.StudentID, payment.ClassID, payment.Amount, payment.PaymentDate,
		payment.PaymentType, payment.Status, payment.Notes, payment.ClassType,
		payment.CreatedAt, payment.UpdatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdateStatus changes a payment's status. It returns sql.ErrNoRows for an unknown ID.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	const query = `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

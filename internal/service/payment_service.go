package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/feerule"
	"github.com/noah-isme/class-fee-api/internal/models"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
)

type paymentStore interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByClassType(ctx context.Context, classType models.ClassType) ([]models.Payment, error)
	ListPairs(ctx context.Context, classType models.ClassType) ([]models.StudentClassPair, error)
	Create(ctx context.Context, payment *models.Payment) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type paymentLedger interface {
	CountByStudentAndClass(ctx context.Context, studentID, classID string) (int, error)
	ListByClassType(ctx context.Context, classType models.ClassType) ([]models.YearChange, error)
	LatestByStudent(ctx context.Context, studentID string) (*models.YearChange, error)
}

type enrollmentEnsurer interface {
	CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.Enrollment, error)
}

// PaymentService records payments and answers fee questions for the payment form.
type PaymentService struct {
	payments    paymentStore
	students    studentReader
	classes     classReader
	ledger      paymentLedger
	enrollments enrollmentEnsurer
	tx          txRunner
	progress    progressInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService constructs a PaymentService. progress and metrics may be nil.
func NewPaymentService(payments paymentStore, students studentReader, classes classReader, ledger paymentLedger, enrollments enrollmentEnsurer, tx txRunner, progress progressInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:    payments,
		students:    students,
		classes:     classes,
		ledger:      ledger,
		enrollments: enrollments,
		tx:          tx,
		progress:    progress,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Record stores a payment. A student paying for a class they are not enrolled
// in is enrolled with the tier earned by their year changes in that class, or
// with no tier when there are none.
func (s *PaymentService) Record(ctx context.Context, req dto.RecordPaymentRequest) (*dto.RecordPaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be greater than zero")
	}
	paymentDate, err := time.Parse(dto.DateLayout, req.PaymentDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment date")
	}
	status := models.PaymentStatus(req.Status)
	if status == "" {
		status = models.PaymentStatusPending
	}

	var result dto.RecordPaymentResult
	err = s.tx.WithinTx(ctx, "payment_record", func(ctx context.Context) error {
		if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
			return notFoundOrInternal(err, "student", "failed to load student")
		}
		class, err := s.classes.FindByID(ctx, req.ClassID)
		if err != nil {
			return notFoundOrInternal(err, "class", "failed to load class")
		}

		count, err := s.ledger.CountByStudentAndClass(ctx, req.StudentID, req.ClassID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count year changes")
		}
		// No year change means no adjustment: leave the tier unset so fee
		// hints fall back to the student's ledger.
		adjusted := class.NominalFee()
		var tier *models.FeeTier
		if count > 0 {
			t := feerule.TierFromChangeCount(count)
			adjusted = feerule.AdjustedFee(class.Fee, t)
			tier = &t
		}
		enrollment := &models.Enrollment{
			StudentID:     req.StudentID,
			ClassID:       req.ClassID,
			Status:        models.EnrollmentStatusActive,
			FeeAdjustment: tier,
			AdjustedFee:   &adjusted,
		}
		created, err := s.enrollments.CreateIfAbsent(ctx, enrollment)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
		}
		if !created {
			if enrollment, err = s.enrollments.FindByStudentAndClass(ctx, req.StudentID, req.ClassID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
			}
		}

		payment := &models.Payment{
			StudentID:   req.StudentID,
			ClassID:     req.ClassID,
			Amount:      req.Amount,
			PaymentDate: paymentDate,
			PaymentType: models.PaymentType(req.PaymentType),
			Status:      status,
			Notes:       req.Notes,
			ClassType:   class.ClassType,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
		}

		result = dto.RecordPaymentResult{Payment: *payment, Enrollment: *enrollment, EnrollmentCreated: created}
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	s.metrics.RecordPayment(req.PaymentType)
	if s.progress != nil {
		if err := s.progress.InvalidateStudent(ctx, req.StudentID); err != nil {
			s.logger.Warn("invalidate progress cache failed", zap.String("student_id", req.StudentID), zap.Error(err))
		}
	}
	return &result, nil
}

// UpdateStatus changes a payment's status and returns the updated payment.
func (s *PaymentService) UpdateStatus(ctx context.Context, id string, req dto.UpdatePaymentStatusRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if err := s.payments.UpdateStatus(ctx, id, models.PaymentStatus(req.Status)); err != nil {
		return nil, notFoundOrInternal(err, "payment", "failed to update payment status")
	}
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "payment", "failed to load payment")
	}
	return payment, nil
}

// List returns payments with pagination metadata.
func (s *PaymentService) List(ctx context.Context, q dto.ListPaymentsQuery) ([]models.PaymentDetail, *models.Pagination, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment filter")
	}
	filter := models.PaymentFilter{
		StudentID: q.StudentID,
		ClassID:   q.ClassID,
		ClassType: models.ClassType(q.ClassType),
		Status:    models.PaymentStatus(q.Status),
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, newPagination(q.Page, q.PageSize, total), nil
}

// Eligible lists the student/class pairs of a modality whose adjusted fee is
// fully paid as of today. These are the students offered a year change.
func (s *PaymentService) Eligible(ctx context.Context, q dto.EligibleQuery) ([]dto.EligibleItem, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid eligibility query")
	}
	classType := models.ClassType(q.ClassType)

	pairs, err := s.payments.ListPairs(ctx, classType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payment pairs")
	}
	payments, err := s.payments.ListByClassType(ctx, classType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	changes, err := s.ledger.ListByClassType(ctx, classType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year changes")
	}
	s.metrics.ObserveEligibilityScan(len(pairs))

	paymentsByPair := make(map[string][]models.Payment, len(pairs))
	for _, p := range payments {
		key := pairKey(p.StudentID, p.ClassID)
		paymentsByPair[key] = append(paymentsByPair[key], p)
	}
	changesByPair := make(map[string][]models.YearChange)
	for _, c := range changes {
		key := pairKey(c.StudentID, c.ClassID)
		changesByPair[key] = append(changesByPair[key], c)
	}

	today := feerule.DateOf(s.now().UTC())
	items := make([]dto.EligibleItem, 0)
	for _, pair := range pairs {
		key := pairKey(pair.StudentID, pair.ClassID)
		result := feerule.ComputeProgress(feerule.Input{
			StudentID:     pair.StudentID,
			ClassID:       pair.ClassID,
			NominalFee:    pair.ClassFee,
			ReferenceDate: today,
			YearChanges:   changesByPair[key],
			Payments:      paymentsByPair[key],
		})
		if !result.Completed() {
			continue
		}
		items = append(items, dto.EligibleItem{
			StudentID:     pair.StudentID,
			StudentName:   pair.StudentName,
			ClassID:       pair.ClassID,
			ClassTitle:    pair.ClassTitle,
			Percent:       result.Percent,
			SumPayments:   result.SumPayments,
			AdjustedFee:   result.AdjustedFee,
			FeeAdjustment: result.Tier,
		})
	}
	return items, nil
}

func pairKey(studentID, classID string) string {
	return studentID + "|" + classID
}

// FeeHint returns the tier to pre-fill on the payment form: the enrollment's
// own tier when set, otherwise the student's latest year change.
func (s *PaymentService) FeeHint(ctx context.Context, q dto.FeeHintQuery) (*dto.FeeHint, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee hint query")
	}
	class, err := s.classes.FindByID(ctx, q.ClassID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class", "failed to load class")
	}
	hint := &dto.FeeHint{
		StudentID:   q.StudentID,
		ClassID:     q.ClassID,
		NominalFee:  class.Fee,
		AdjustedFee: class.NominalFee(),
		Source:      dto.FeeHintSourceNone,
	}

	enrollment, err := s.enrollments.FindByStudentAndClass(ctx, q.StudentID, q.ClassID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment != nil && enrollment.FeeAdjustment != nil {
		tier := *enrollment.FeeAdjustment
		hint.FeeAdjustment = &tier
		hint.AdjustedFee = feerule.AdjustedFee(class.Fee, tier)
		hint.Source = dto.FeeHintSourceEnrollment
		return hint, nil
	}

	latest, err := s.ledger.LatestByStudent(ctx, q.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hint, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest year change")
	}
	tier := latest.FeeAdjustment
	hint.FeeAdjustment = &tier
	hint.AdjustedFee = feerule.AdjustedFee(class.Fee, tier)
	hint.Source = dto.FeeHintSourceYearChange
	return hint, nil
}

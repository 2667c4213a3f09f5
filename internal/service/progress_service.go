package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/feerule"
	"github.com/noah-isme/class-fee-api/internal/models"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
)

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type paymentHistoryReader interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.Payment, error)
}

type ledgerReader interface {
	ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.YearChange, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ProgressServiceConfig tunes progress caching.
type ProgressServiceConfig struct {
	CacheTTL time.Duration
}

// ProgressService computes how much of the adjusted class fee a student has paid.
type ProgressService struct {
	classes   classReader
	payments  paymentHistoryReader
	ledger    ledgerReader
	cache     cacheStore
	metrics   *MetricsService
	cfg       ProgressServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProgressService constructs a ProgressService. cache and metrics may be nil.
func NewProgressService(classes classReader, payments paymentHistoryReader, ledger ledgerReader, cache cacheStore, metrics *MetricsService, cfg ProgressServiceConfig, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		classes:   classes,
		payments:  payments,
		ledger:    ledger,
		cache:     cache,
		metrics:   metrics,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Progress returns the payment progress at the requested date, today when none
// is given. The boolean reports a cache hit.
func (s *ProgressService) Progress(ctx context.Context, q dto.ProgressQuery) (*dto.ProgressResponse, bool, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress query")
	}
	ref := feerule.DateOf(s.now().UTC())
	if q.Date != "" {
		parsed, err := time.Parse(dto.DateLayout, q.Date)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reference date")
		}
		ref = parsed
	}
	return s.compute(ctx, q.StudentID, q.ClassID, ref)
}

// ProgressForPayment returns the progress as of the payment's own date.
func (s *ProgressService) ProgressForPayment(ctx context.Context, paymentID string) (*dto.ProgressResponse, bool, error) {
	if paymentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "payment id is required")
	}
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return s.compute(ctx, payment.StudentID, payment.ClassID, feerule.DateOf(payment.PaymentDate))
}

// InvalidateStudent drops every cached progress entry of a student.
func (s *ProgressService) InvalidateStudent(ctx context.Context, studentID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, fmt.Sprintf("progress:%s:*", studentID))
}

func (s *ProgressService) compute(ctx context.Context, studentID, classID string, ref time.Time) (*dto.ProgressResponse, bool, error) {
	key := progressCacheKey(studentID, classID, ref)
	if s.cache != nil {
		var cached dto.ProgressResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	changes, err := s.ledger.ListByStudentAndClass(ctx, studentID, classID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year changes")
	}
	payments, err := s.payments.ListByStudentAndClass(ctx, studentID, classID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	result := feerule.ComputeProgress(feerule.Input{
		StudentID:     studentID,
		ClassID:       classID,
		NominalFee:    class.Fee,
		ReferenceDate: ref,
		YearChanges:   changes,
		Payments:      payments,
	})
	s.metrics.RecordProgressComputation()

	resp := dto.NewProgressResponse(studentID, classID, ref, result)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	}
	return &resp, false, nil
}

func progressCacheKey(studentID, classID string, ref time.Time) string {
	return fmt.Sprintf("progress:%s:%s:%s", studentID, classID, ref.Format(dto.DateLayout))
}

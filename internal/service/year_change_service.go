package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-fee-api/internal/dto"
	"github.com/noah-isme/class-fee-api/internal/feerule"
	"github.com/noah-isme/class-fee-api/internal/models"
	"github.com/noah-isme/class-fee-api/internal/repository"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
)

type studentLocker interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	LockByID(ctx context.Context, id string) (*models.Student, error)
}

type classCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListActiveByType(ctx context.Context, classType models.ClassType) ([]models.Class, error)
}

type yearChangeLedger interface {
	ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.YearChange, error)
	Exists(ctx context.Context, studentID, classID string, newExamYear int) (bool, error)
	CountByStudentAndClassType(ctx context.Context, studentID string, classType models.ClassType) (int, error)
	Create(ctx context.Context, change *models.YearChange) error
}

type enrollmentMover interface {
	ApplyTierByClassType(ctx context.Context, studentID string, classType models.ClassType, tier models.FeeTier) (int64, error)
	DeleteByStudentAndClass(ctx context.Context, studentID, classID string) error
	CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.Enrollment, error)
}

type txRunner interface {
	WithinTx(ctx context.Context, label string, fn func(ctx context.Context) error) error
}

type idempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Load(ctx context.Context, key string) (*repository.IdempotencyRecord, error)
	Complete(ctx context.Context, key string, result interface{}, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type progressInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string) error
}

// YearChangeServiceConfig tunes the migrator. IdempotencyTTL keeps completed
// results replayable; PendingTTL bounds a reservation whose request never
// finished, so a crashed request does not lock its key for a whole day.
type YearChangeServiceConfig struct {
	IdempotencyTTL time.Duration
	PendingTTL     time.Duration
}

// followupTimeout bounds the bookkeeping done after the workflow returns.
const followupTimeout = 3 * time.Second

// YearChangeService records exam year changes and moves the student into the
// selected class with the fee tier the change earns.
type YearChangeService struct {
	students    studentLocker
	classes     classCatalog
	ledger      yearChangeLedger
	enrollments enrollmentMover
	tx          txRunner
	idempotency idempotencyStore
	progress    progressInvalidator
	metrics     *MetricsService
	cfg         YearChangeServiceConfig
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewYearChangeService constructs the migrator. idempotency, progress and metrics may be nil.
func NewYearChangeService(
	students studentLocker,
	classes classCatalog,
	ledger yearChangeLedger,
	enrollments enrollmentMover,
	tx txRunner,
	idempotency idempotencyStore,
	progress progressInvalidator,
	metrics *MetricsService,
	cfg YearChangeServiceConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *YearChangeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = time.Minute
	}
	if cfg.PendingTTL > cfg.IdempotencyTTL {
		cfg.PendingTTL = cfg.IdempotencyTTL
	}
	return &YearChangeService{
		students:    students,
		classes:     classes,
		ledger:      ledger,
		enrollments: enrollments,
		tx:          tx,
		idempotency: idempotency,
		progress:    progress,
		metrics:     metrics,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Prepare checks that a year change is allowed, previews the tier it would
// earn and lists the classes of the same modality the student may move into.
// It writes nothing.
func (s *YearChangeService) Prepare(ctx context.Context, req dto.PrepareYearChangeRequest) (*dto.PrepareYearChangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid year change payload")
	}
	exists, err := s.ledger.Exists(ctx, req.StudentID, req.ClassID, req.NewExamYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year change")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateYearChange, "student already changed to this exam year for this class")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOrInternal(err, "student", "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class", "failed to load class")
	}
	candidates, err := s.classes.ListActiveByType(ctx, class.ClassType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidate classes")
	}

	options := make([]models.ClassOption, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, models.ClassOption{ID: c.ID, Title: c.Title, Fee: c.Fee})
	}
	return &dto.PrepareYearChangeResponse{
		StudentID:        student.ID,
		ClassID:          class.ID,
		ClassType:        class.ClassType,
		OriginalExamYear: student.ExamFacingYear,
		NewExamYear:      req.NewExamYear,
		PreviewTier:      feerule.TierFromYearDiff(student.ExamFacingYear, req.NewExamYear),
		Candidates:       options,
	}, nil
}

// Confirm records the year change and migrates the student's enrollments in a
// single transaction. A non-empty idempotency key makes repeated calls return
// the first result. The boolean reports a replayed result.
func (s *YearChangeService) Confirm(ctx context.Context, req dto.ConfirmYearChangeRequest, idempotencyKey string) (*dto.ConfirmYearChangeResult, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid year change payload")
	}
	if req.FeeAdjustment != nil && *req.FeeAdjustment != "" && !req.FeeAdjustment.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown fee adjustment")
	}

	key := strings.TrimSpace(idempotencyKey)
	if key != "" && s.idempotency != nil {
		replayed, err := s.reserve(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if replayed != nil {
			s.metrics.RecordYearChange(YearChangeOutcomeReplayed)
			return replayed, true, nil
		}
	}

	result, err := s.confirm(ctx, req)

	// The request deadline may have passed by now; the key must still be
	// released or completed.
	followCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followupTimeout)
	defer cancel()

	if err != nil {
		if key != "" && s.idempotency != nil {
			if relErr := s.idempotency.Release(followCtx, key); relErr != nil {
				s.logger.Warn("release idempotency key failed", zap.String("key", key), zap.Error(relErr))
			}
		}
		if errors.Is(err, appErrors.ErrDuplicateYearChange) {
			s.metrics.RecordYearChange(YearChangeOutcomeDuplicate)
		} else {
			s.metrics.RecordYearChange(YearChangeOutcomeFailed)
			s.logger.Error("year change failed",
				zap.String("student_id", req.StudentID),
				zap.String("class_id", req.ClassID),
				zap.Int("new_exam_year", req.NewExamYear),
				zap.Error(err))
		}
		return nil, false, err
	}
	s.metrics.RecordYearChange(YearChangeOutcomeConfirmed)

	if key != "" && s.idempotency != nil {
		if err := s.idempotency.Complete(followCtx, key, result, s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("store idempotency result failed", zap.String("key", key), zap.Error(err))
		}
	}
	if s.progress != nil {
		if err := s.progress.InvalidateStudent(followCtx, req.StudentID); err != nil {
			s.logger.Warn("invalidate progress cache failed", zap.String("student_id", req.StudentID), zap.Error(err))
		}
	}
	return result, false, nil
}

// Timeline returns the ledger of a student in a class in ledger order.
func (s *YearChangeService) Timeline(ctx context.Context, q dto.YearChangeTimelineQuery) ([]models.YearChange, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeline query")
	}
	changes, err := s.ledger.ListByStudentAndClass(ctx, q.StudentID, q.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year changes")
	}
	return feerule.SortChanges(changes), nil
}

// reserve claims the key or returns the stored result of an earlier call.
func (s *YearChangeService) reserve(ctx context.Context, key string) (*dto.ConfirmYearChangeResult, error) {
	ok, err := s.idempotency.Reserve(ctx, key, s.cfg.PendingTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve idempotency key")
	}
	if ok {
		return nil, nil
	}
	record, err := s.idempotency.Load(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load idempotency key")
	}
	if record == nil || record.State != repository.IdempotencyCompleted {
		return nil, appErrors.Clone(appErrors.ErrRequestInProgress, "")
	}
	var result dto.ConfirmYearChangeResult
	if err := json.Unmarshal(record.Result, &result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode stored result")
	}
	return &result, nil
}

func (s *YearChangeService) confirm(ctx context.Context, req dto.ConfirmYearChangeRequest) (*dto.ConfirmYearChangeResult, error) {
	var result *dto.ConfirmYearChangeResult
	err := s.tx.WithinTx(ctx, "year_change_confirm", func(ctx context.Context) error {
		student, err := s.students.LockByID(ctx, req.StudentID)
		if err != nil {
			return notFoundOrInternal(err, "student", "failed to lock student")
		}

		exists, err := s.ledger.Exists(ctx, req.StudentID, req.ClassID, req.NewExamYear)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year change")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrDuplicateYearChange, "student already changed to this exam year for this class")
		}

		oldClass, err := s.classes.FindByID(ctx, req.ClassID)
		if err != nil {
			return notFoundOrInternal(err, "class", "failed to load class")
		}
		newClass, err := s.classes.FindByID(ctx, req.NewClassID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "selected class does not exist")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected class")
		}
		if newClass.ClassType != oldClass.ClassType || newClass.Status != models.ClassStatusActive {
			return appErrors.Clone(appErrors.ErrValidation, "selected class must be an active class of the same type")
		}

		label := feerule.TierFromYearDiff(student.ExamFacingYear, req.NewExamYear)
		if req.FeeAdjustment != nil && *req.FeeAdjustment != "" {
			label = *req.FeeAdjustment
		}
		change := &models.YearChange{
			StudentID:     req.StudentID,
			ClassID:       req.ClassID,
			NewExamYear:   req.NewExamYear,
			FeeAdjustment: label,
			ChangedAt:     s.now().UTC(),
		}
		if err := s.ledger.Create(ctx, change); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrDuplicateYearChange, "student already changed to this exam year for this class")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record year change")
		}

		count, err := s.ledger.CountByStudentAndClassType(ctx, req.StudentID, oldClass.ClassType)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count year changes")
		}
		tier := feerule.TierFromChangeCount(count)

		updated, err := s.enrollments.ApplyTierByClassType(ctx, req.StudentID, oldClass.ClassType, tier)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment fees")
		}

		if err := s.enrollments.DeleteByStudentAndClass(ctx, req.StudentID, req.ClassID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove old enrollment")
		}
		adjusted := feerule.AdjustedFee(newClass.Fee, tier)
		enrollment := &models.Enrollment{
			StudentID:     req.StudentID,
			ClassID:       newClass.ID,
			Status:        models.EnrollmentStatusActive,
			FeeAdjustment: &tier,
			AdjustedFee:   &adjusted,
		}
		created, err := s.enrollments.CreateIfAbsent(ctx, enrollment)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll in selected class")
		}
		if !created {
			existing, err := s.enrollments.FindByStudentAndClass(ctx, req.StudentID, newClass.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
			}
			enrollment = existing
		}

		result = &dto.ConfirmYearChangeResult{
			YearChange:          *change,
			FeeAdjustment:       tier,
			Enrollment:          *enrollment,
			UpdatedEnrollments:  updated,
			EnrollmentCreated:   created,
			NewClassAdjustedFee: adjusted,
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return result, nil
}

func notFoundOrInternal(err error, resource, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

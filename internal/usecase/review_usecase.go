package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go-doctor-review/internal/converter"
	"go-doctor-review/internal/delivery/dto"
	"go-doctor-review/internal/domain/entity"
	"go-doctor-review/internal/domain/repository"
	"go-doctor-review/internal/service"
	"go-doctor-review/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	// cacheTimeout bounds best-effort cache calls made after a write has committed.
	cacheTimeout = 2 * time.Second
	// ratingLoadTimeout bounds a rating load shared by concurrent cache misses.
	ratingLoadTimeout = 5 * time.Second
)

type ReviewUsecase interface {
	CreateReview(ctx context.Context, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID, actor entity.ActingUser) error
	GetReview(ctx context.Context, reviewID uuid.UUID) (*dto.ReviewResponse, error)
	ListReviewsForDoctor(ctx context.Context, doctorID uuid.UUID, page, size int) (*dto.ReviewListResponse, error)
	GetDoctorRating(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorRatingResponse, error)
	ReconcileDoctorRating(ctx context.Context, doctorID uuid.UUID, actor entity.ActingUser) (*dto.DoctorRatingResponse, error)
}

// ReviewSettings are the paging and summary limits of the review endpoints.
type ReviewSettings struct {
	DefaultPageSize    int
	MaxPageSize        int
	RecentReviewsLimit int
}

type reviewUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	transactor  repository.Transactor
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	reviewRepo  repository.ReviewRepository
	validator   ReviewValidator
	aggregator service.RatingAggregator
	audit      service.AuditService
	cache      service.RatingCache
	locker     *service.DoctorLocker
	metrics    *service.ReviewMetrics
	settings   ReviewSettings

	ratingLoads singleflight.Group
}

func NewReviewUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	transactor repository.Transactor,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	reviewRepo repository.ReviewRepository,
	validator ReviewValidator,
	aggregator service.RatingAggregator,
	audit service.AuditService,
	cache service.RatingCache,
	locker *service.DoctorLocker,
	metrics *service.ReviewMetrics,
	settings ReviewSettings,
) ReviewUsecase {
	return &reviewUsecase{
		db:         db,
		log:        log,
		transactor: transactor,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		reviewRepo:  reviewRepo,
		validator:   validator,
		aggregator: aggregator,
		audit:      audit,
		cache:      cache,
		locker:     locker,
		metrics:    metrics,
		settings:   settings,
	}
}

// CreateReview validates and stores a review, then refreshes the doctor's rating.
//
// Flow:
// 1. Acquire the doctor's in-process mutex
// 2. Begin transaction, validate (locks the doctor row)
// 3. Insert review with the doctor's clinic as snapshot
// 4. Audit review.create
// 5. Recompute the doctor's average in the same transaction
// 6. Commit, then drop the cached rating summary
func (u *reviewUsecase) CreateReview(ctx context.Context, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	unlock := u.locker.Lock(req.DoctorID)
	defer unlock()

	var review *entity.Review
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		decision, err := u.validator.Validate(ctx, tx, req)
		if err != nil {
			return err
		}

		review = &entity.Review{
			ID:            uuid.New(),
			DoctorID:      req.DoctorID,
			PatientID:     req.PatientID,
			AppointmentID: req.AppointmentID,
			ClinicID:      snapshotClinic(decision.Doctor),
			Rating:        req.Rating,
			Comment:       req.Comment,
			CreatedAt:     time.Now().UTC(),
		}

		if err := u.reviewRepo.Create(ctx, tx, review); err != nil {
			// Lost a race with a concurrent create that passed the same checks
			if isDuplicateKeyError(err, uniqueReviewPerPatient) {
				return apperror.Conflict("Patient has already reviewed this doctor")
			}
			u.log.Warnf("Failed to create review: %+v", err)
			return fmt.Errorf("create review: %w", err)
		}

		if err := u.audit.LogCreate(ctx, tx, &req.PatientID, entity.AuditActionReviewCreate, "review", review.ID.String(),
			converter.ReviewToResponse(review)); err != nil {
			return err
		}

		_, err = u.aggregator.Recompute(ctx, tx, req.DoctorID)
		return err
	})
	if err != nil {
		u.metrics.RecordWriteError(err)
		return nil, err
	}

	u.metrics.IncCreated()
	u.invalidateRating(req.DoctorID)

	u.log.Infof("Review created: id=%s, doctor=%s, patient=%s, rating=%d", review.ID, review.DoctorID, review.PatientID, review.Rating)
	return converter.ReviewToResponse(review), nil
}

// DeleteReview removes a review and refreshes the doctor's rating.
//
// Flow:
// 1. Find review
// 2. Patients must exist and may only delete their own review; other roles bypass ownership
// 3. Under the doctor's mutex and one transaction: lock the doctor row, delete,
//    audit review.delete, recompute
// 4. Commit, then drop the cached rating summary
func (u *reviewUsecase) DeleteReview(ctx context.Context, reviewID uuid.UUID, actor entity.ActingUser) error {
	review, err := u.reviewRepo.FindByID(ctx, u.db, reviewID)
	if err != nil {
		u.log.Warnf("Failed to find review %s: %+v", reviewID, err)
		err = fmt.Errorf("find review %s: %w", reviewID, err)
		u.metrics.RecordWriteError(err)
		return err
	}
	if review == nil {
		u.metrics.IncRejected(apperror.CodeNotFound)
		return apperror.NotFound("review", reviewID.String())
	}

	if actor.IsPatient() {
		patient, err := u.patientRepo.FindByID(ctx, u.db, actor.ID)
		if err != nil {
			u.log.Warnf("Failed to find patient %s: %+v", actor.ID, err)
			err = fmt.Errorf("find patient %s: %w", actor.ID, err)
			u.metrics.RecordWriteError(err)
			return err
		}
		if patient == nil {
			u.metrics.IncRejected(apperror.CodeNotFound)
			return apperror.NotFound("patient", actor.ID.String())
		}
		if review.PatientID != patient.ID {
			u.metrics.IncRejected(apperror.CodeUnauthorized)
			return apperror.Unauthorized("Review does not belong to you")
		}
	}

	unlock := u.locker.Lock(review.DoctorID)
	defer unlock()

	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		// Other replicas do not share the in-process mutex; the row lock orders
		// this recompute after any uncommitted write for the same doctor.
		if _, err := u.doctorRepo.FindByIDForUpdate(ctx, tx, review.DoctorID); err != nil {
			u.log.Warnf("Failed to lock doctor %s: %+v", review.DoctorID, err)
			return fmt.Errorf("lock doctor %s: %w", review.DoctorID, err)
		}

		deleted, err := u.reviewRepo.Delete(ctx, tx, reviewID)
		if err != nil {
			u.log.Warnf("Failed to delete review %s: %+v", reviewID, err)
			return fmt.Errorf("delete review %s: %w", reviewID, err)
		}
		if deleted == 0 {
			// Removed by a concurrent request since the lookup above
			return apperror.NotFound("review", reviewID.String())
		}

		if err := u.audit.LogDelete(ctx, tx, &actor.ID, entity.AuditActionReviewDelete, "review", reviewID.String(),
			converter.ReviewToResponse(review)); err != nil {
			return err
		}

		// A nil summary means the doctor is gone; nothing left to update.
		_, err = u.aggregator.Recompute(ctx, tx, review.DoctorID)
		return err
	})
	if err != nil {
		u.metrics.RecordWriteError(err)
		return err
	}

	u.metrics.IncDeleted()
	u.invalidateRating(review.DoctorID)

	u.log.Infof("Review deleted: id=%s, doctor=%s, by=%s (%s)", reviewID, review.DoctorID, actor.ID, actor.Role)
	return nil
}

func (u *reviewUsecase) GetReview(ctx context.Context, reviewID uuid.UUID) (*dto.ReviewResponse, error) {
	review, err := u.reviewRepo.FindByID(ctx, u.db, reviewID)
	if err != nil {
		u.log.Warnf("Failed to find review %s: %+v", reviewID, err)
		return nil, fmt.Errorf("find review %s: %w", reviewID, err)
	}
	if review == nil {
		return nil, apperror.NotFound("review", reviewID.String())
	}

	return converter.ReviewToResponse(review), nil
}

// ListReviewsForDoctor returns one page of reviews, newest first. page is 0-based;
// size falls back to the default when not positive and is capped at the maximum.
// page is capped so the row offset stays within int32.
func (u *reviewUsecase) ListReviewsForDoctor(ctx context.Context, doctorID uuid.UUID, page, size int) (*dto.ReviewListResponse, error) {
	page, size = u.normalizePage(page, size)

	reviews, total, err := u.reviewRepo.FindPageByDoctorID(ctx, u.db, doctorID, size, page*size)
	if err != nil {
		u.log.Warnf("Failed to list reviews of doctor %s: %+v", doctorID, err)
		return nil, fmt.Errorf("list reviews of doctor %s: %w", doctorID, err)
	}

	return &dto.ReviewListResponse{
		Reviews:    converter.ReviewsToResponses(reviews),
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// GetDoctorRating serves the rating summary from Redis, loading it from the
// database on a miss. Concurrent misses for one doctor share a single load.
func (u *reviewUsecase) GetDoctorRating(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorRatingResponse, error) {
	cached, err := u.cache.Get(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to read rating cache for doctor %s: %+v", doctorID, err)
	}
	if cached != nil {
		return cached, nil
	}

	// Waiters share this load, so it must not die with the caller that started it.
	v, err, _ := u.ratingLoads.Do(doctorID.String(), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ratingLoadTimeout)
		defer cancel()
		return u.loadDoctorRating(loadCtx, doctorID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.DoctorRatingResponse), nil
}

// ReconcileDoctorRating recomputes a doctor's rating from the stored reviews.
// It repairs drift introduced outside the review paths and is a no-op otherwise.
func (u *reviewUsecase) ReconcileDoctorRating(ctx context.Context, doctorID uuid.UUID, actor entity.ActingUser) (*dto.DoctorRatingResponse, error) {
	unlock := u.locker.Lock(doctorID)
	defer unlock()

	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		doctor, err := u.doctorRepo.FindByIDForUpdate(ctx, tx, doctorID)
		if err != nil {
			u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
			return fmt.Errorf("find doctor %s: %w", doctorID, err)
		}
		if doctor == nil {
			return apperror.NotFound("doctor", doctorID.String())
		}

		summary, err := u.aggregator.Recompute(ctx, tx, doctorID)
		if err != nil {
			return err
		}
		if summary == nil {
			return apperror.NotFound("doctor", doctorID.String())
		}

		return u.audit.LogUpdate(ctx, tx, &actor.ID, entity.AuditActionRatingReconcile, "doctor", doctorID.String(),
			ratingSnapshot(doctor.AverageRating, doctor.ReviewCount),
			ratingSnapshot(summary.Average, summary.Count))
	})
	if err != nil {
		return nil, err
	}

	u.invalidateRating(doctorID)

	u.log.Infof("Rating reconciled: doctor=%s, by=%s", doctorID, actor.ID)
	return u.GetDoctorRating(ctx, doctorID)
}

func (u *reviewUsecase) loadDoctorRating(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorRatingResponse, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, u.db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, fmt.Errorf("find doctor %s: %w", doctorID, err)
	}
	if doctor == nil {
		return nil, apperror.NotFound("doctor", doctorID.String())
	}

	recent, err := u.reviewRepo.FindRecentByDoctorID(ctx, u.db, doctorID, u.settings.RecentReviewsLimit)
	if err != nil {
		u.log.Warnf("Failed to find recent reviews of doctor %s: %+v", doctorID, err)
		return nil, fmt.Errorf("find recent reviews of doctor %s: %w", doctorID, err)
	}

	rating := converter.DoctorRatingToResponse(doctor, recent)
	if err := u.cache.Set(ctx, rating); err != nil {
		u.log.Warnf("Failed to cache rating for doctor %s: %+v", doctorID, err)
	}
	return rating, nil
}

// invalidateRating drops the cached summary. The write has already committed,
// so a failure only leaves a stale entry until its TTL expires.
func (u *reviewUsecase) invalidateRating(doctorID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	if err := u.cache.Delete(ctx, doctorID); err != nil {
		u.log.Warnf("Failed to invalidate rating cache for doctor %s: %+v", doctorID, err)
	}
}

func (u *reviewUsecase) normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = u.settings.DefaultPageSize
	}
	if size > u.settings.MaxPageSize {
		size = u.settings.MaxPageSize
	}
	if size <= 0 {
		size = 1
	}
	if maxPage := math.MaxInt32 / size; page > maxPage {
		page = maxPage
	}
	return page, size
}

func snapshotClinic(doctor *entity.Doctor) *uuid.UUID {
	if doctor.ClinicID == nil {
		return nil
	}
	clinicID := *doctor.ClinicID
	return &clinicID
}

func ratingSnapshot(average decimal.NullDecimal, count int) map[string]interface{} {
	return map[string]interface{}{
		"average_rating": converter.AverageToFloat(average),
		"review_count":   count,
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"go-doctor-review/internal/domain/entity"
	"go-doctor-review/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// averagePlaces matches the numeric(3,2) column on doctors.
const averagePlaces = 2

// RatingSummary is the aggregate persisted onto a doctor
type RatingSummary struct {
	DoctorID uuid.UUID
	Average  decimal.NullDecimal
	Count    int
}

type RatingAggregator interface {
	// Recompute rebuilds the doctor's average from every review it has and stores it.
	// The doctor row stays locked until tx ends. It returns (nil, nil) when the
	// doctor does not exist.
	Recompute(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID) (*RatingSummary, error)
}

type ratingAggregator struct {
	log        *logrus.Logger
	doctorRepo repository.DoctorRepository
	reviewRepo repository.ReviewRepository
	metrics    *ReviewMetrics
}

func NewRatingAggregator(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	reviewRepo repository.ReviewRepository,
	metrics *ReviewMetrics,
) RatingAggregator {
	return &ratingAggregator{
		log:        log,
		doctorRepo: doctorRepo,
		reviewRepo: reviewRepo,
		metrics:    metrics,
	}
}

func (a *ratingAggregator) Recompute(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID) (*RatingSummary, error) {
	start := time.Now()
	defer func() { a.metrics.ObserveRecompute(time.Since(start)) }()

	// Lock before reading reviews so the set cannot change under an uncommitted
	// write from another replica. Re-locking within the same tx is a no-op.
	doctor, err := a.doctorRepo.FindByIDForUpdate(ctx, tx, doctorID)
	if err != nil {
		a.log.Warnf("Failed to find doctor %s for rating recompute: %+v", doctorID, err)
		return nil, fmt.Errorf("find doctor %s: %w", doctorID, err)
	}
	if doctor == nil {
		return nil, nil
	}

	reviews, err := a.reviewRepo.FindAllByDoctorID(ctx, tx, doctorID)
	if err != nil {
		a.log.Warnf("Failed to list reviews of doctor %s: %+v", doctorID, err)
		return nil, fmt.Errorf("list reviews of doctor %s: %w", doctorID, err)
	}

	summary := &RatingSummary{
		DoctorID: doctorID,
		Average:  MeanRating(reviews),
		Count:    len(reviews),
	}

	if err := a.doctorRepo.UpdateRating(ctx, tx, doctorID, summary.Average, summary.Count); err != nil {
		a.log.Warnf("Failed to update rating of doctor %s: %+v", doctorID, err)
		return nil, fmt.Errorf("update rating of doctor %s: %w", doctorID, err)
	}

	return summary, nil
}

// MeanRating is the arithmetic mean of the ratings rounded half away from zero
// to two places. An empty set has no mean.
func MeanRating(reviews []entity.Review) decimal.NullDecimal {
	if len(reviews) == 0 {
		return decimal.NullDecimal{}
	}

	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}

	mean := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(averagePlaces)
	return decimal.NewNullDecimal(mean)
}

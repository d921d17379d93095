package service

import (
	"time"

	"go-doctor-review/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReviewMetrics provides observability for review writes and rating recomputes.
// A nil *ReviewMetrics is valid and records nothing.
type ReviewMetrics struct {
	ReviewsCreated prometheus.Counter
	ReviewsDeleted prometheus.Counter

	// Rejected review writes by error code
	ReviewsRejected *prometheus.CounterVec
	// Review writes that failed on infrastructure (store, audit) rather than a business rule
	WriteFailures prometheus.Counter

	RecomputeLatency prometheus.Histogram
}

// NewReviewMetrics registers the review metrics with reg.
func NewReviewMetrics(reg prometheus.Registerer) *ReviewMetrics {
	factory := promauto.With(reg)

	return &ReviewMetrics{
		ReviewsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_reviews_created_total",
			Help: "Total reviews created",
		}),
		ReviewsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_reviews_deleted_total",
			Help: "Total reviews deleted",
		}),
		ReviewsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doctor_reviews_rejected_total",
			Help: "Total review writes rejected, by reason",
		}, []string{"reason"}), // reason: INVALID_INPUT, NOT_FOUND, FORBIDDEN, CONFLICT, UNAUTHORIZED
		WriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_review_write_failures_total",
			Help: "Total review writes that failed on infrastructure errors",
		}),
		RecomputeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "doctor_rating_recompute_duration_seconds",
			Help:    "Duration of a doctor average rating recompute",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *ReviewMetrics) IncCreated() {
	if m != nil {
		m.ReviewsCreated.Inc()
	}
}

func (m *ReviewMetrics) IncDeleted() {
	if m != nil {
		m.ReviewsDeleted.Inc()
	}
}

// IncRejected records a rejected create or delete.
func (m *ReviewMetrics) IncRejected(reason string) {
	if m != nil {
		m.ReviewsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordWriteError counts domain errors as rejections and everything else as failures.
func (m *ReviewMetrics) RecordWriteError(err error) {
	if m == nil || err == nil {
		return
	}
	if appErr, ok := apperror.As(err); ok {
		m.ReviewsRejected.WithLabelValues(appErr.Code).Inc()
		return
	}
	m.WriteFailures.Inc()
}

func (m *ReviewMetrics) ObserveRecompute(d time.Duration) {
	if m != nil {
		m.RecomputeLatency.Observe(d.Seconds())
	}
}

package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go-doctor-review/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeStore is an in-memory stand-in for every repository plus the transactor.
// Transactions are serialized and roll back to a snapshot when fn fails.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	doctors      map[uuid.UUID]entity.Doctor
	patients     map[uuid.UUID]entity.Patient
	appointments map[uuid.UUID]entity.Appointment
	reviews      map[uuid.UUID]storedReview
	audits       []entity.AuditLog
	seq          int

	writes int

	// lockedDoctors holds the doctor rows locked by the running transaction;
	// unlockedWrites counts review and rating writes made without that lock.
	lockedDoctors  map[uuid.UUID]bool
	unlockedWrites int

	// skipDuplicateLookup hides existing reviews from FindByDoctorAndPatient so the
	// unique index is the only guard left.
	skipDuplicateLookup bool
	updateRatingErr     error
	auditErr            error
}

type storedReview struct {
	review entity.Review
	seq    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		doctors:      map[uuid.UUID]entity.Doctor{},
		patients:     map[uuid.UUID]entity.Patient{},
		appointments: map[uuid.UUID]entity.Appointment{},
		reviews:      map[uuid.UUID]storedReview{},
	}
}

// Transactor

func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.lockedDoctors = map[uuid.UUID]bool{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.lockedDoctors = nil
		s.mu.Unlock()
	}()

	snapshot := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	doctors map[uuid.UUID]entity.Doctor
	reviews map[uuid.UUID]storedReview
	audits  []entity.AuditLog
}

func (s *fakeStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := storeSnapshot{
		doctors: make(map[uuid.UUID]entity.Doctor, len(s.doctors)),
		reviews: make(map[uuid.UUID]storedReview, len(s.reviews)),
		audits:  append([]entity.AuditLog(nil), s.audits...),
	}
	for k, v := range s.doctors {
		snap.doctors[k] = v
	}
	for k, v := range s.reviews {
		snap.reviews[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doctors = snap.doctors
	s.reviews = snap.reviews
	s.audits = snap.audits
}

// Seeding and inspection helpers

func (s *fakeStore) putDoctor(d entity.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
}

func (s *fakeStore) removeDoctor(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doctors, id)
}

func (s *fakeStore) putPatient(p entity.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
}

func (s *fakeStore) putAppointment(a entity.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = a
}

func (s *fakeStore) doctor(id uuid.UUID) entity.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doctors[id]
}

func (s *fakeStore) reviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviews)
}

func (s *fakeStore) hasReview(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reviews[id]
	return ok
}

func (s *fakeStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		actions = append(actions, a.Action)
	}
	return actions
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *fakeStore) unlockedWriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlockedWrites
}

// checkLocked must be called with mu held.
func (s *fakeStore) checkLocked(doctorID uuid.UUID) {
	if _, exists := s.doctors[doctorID]; exists && !s.lockedDoctors[doctorID] {
		s.unlockedWrites++
	}
}

// DoctorRepository

type fakeDoctorRepo struct{ *fakeStore }

func (r fakeDoctorRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r fakeDoctorRepo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, nil
	}
	if r.lockedDoctors != nil {
		r.lockedDoctors[id] = true
	}
	return &d, nil
}

func (r fakeDoctorRepo) UpdateRating(ctx context.Context, db *gorm.DB, id uuid.UUID, average decimal.NullDecimal, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.checkLocked(id)
	if r.updateRatingErr != nil {
		return r.updateRatingErr
	}
	d, ok := r.doctors[id]
	if !ok {
		return nil
	}
	d.AverageRating = average
	d.ReviewCount = count
	r.doctors[id] = d
	return nil
}

// PatientRepository

type fakePatientRepo struct{ *fakeStore }

func (r fakePatientRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// AppointmentRepository

type fakeAppointmentRepo struct{ *fakeStore }

func (r fakeAppointmentRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ReviewRepository

type fakeReviewRepo struct{ *fakeStore }

func (r fakeReviewRepo) Create(ctx context.Context, db *gorm.DB, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.checkLocked(review.DoctorID)
	for _, existing := range r.reviews {
		if existing.review.DoctorID == review.DoctorID && existing.review.PatientID == review.PatientID {
			return &pgconn.PgError{Code: "23505", ConstraintName: uniqueReviewPerPatient}
		}
	}
	r.seq++
	r.reviews[review.ID] = storedReview{review: *review, seq: r.seq}
	return nil
}

func (r fakeReviewRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reviews[id]
	if !ok {
		return nil, nil
	}
	review := stored.review
	return &review, nil
}

func (r fakeReviewRepo) FindByDoctorAndPatient(ctx context.Context, db *gorm.DB, doctorID, patientID uuid.UUID) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipDuplicateLookup {
		return nil, nil
	}
	for _, stored := range r.reviews {
		if stored.review.DoctorID == doctorID && stored.review.PatientID == patientID {
			review := stored.review
			return &review, nil
		}
	}
	return nil, nil
}

// newestFirst returns the doctor's reviews ordered by creation time, newest first.
func (r fakeReviewRepo) newestFirst(doctorID uuid.UUID) []entity.Review {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]storedReview, 0)
	for _, stored := range r.reviews {
		if stored.review.DoctorID == doctorID {
			matched = append(matched, stored)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].review.CreatedAt.Equal(matched[j].review.CreatedAt) {
			return matched[i].review.CreatedAt.After(matched[j].review.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	reviews := make([]entity.Review, 0, len(matched))
	for _, stored := range matched {
		reviews = append(reviews, stored.review)
	}
	return reviews
}

func (r fakeReviewRepo) FindAllByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Review, error) {
	return r.newestFirst(doctorID), nil
}

func (r fakeReviewRepo) FindPageByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit, offset int) ([]entity.Review, int64, error) {
	all := r.newestFirst(doctorID)
	total := int64(len(all))
	if offset >= len(all) {
		return []entity.Review{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r fakeReviewRepo) FindRecentByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit int) ([]entity.Review, error) {
	all := r.newestFirst(doctorID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r fakeReviewRepo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	stored, ok := r.reviews[id]
	if !ok {
		return 0, nil
	}
	r.checkLocked(stored.review.DoctorID)
	delete(r.reviews, id)
	return 1, nil
}

// AuditLogRepository

type fakeAuditRepo struct{ *fakeStore }

func (r fakeAuditRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.auditErr != nil {
		return r.auditErr
	}
	r.audits = append(r.audits, *log)
	return nil
}

var errStoreUnavailable = errors.New("store unavailable")

package usecase

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueReviewPerPatient backs the one-review-per-(doctor, patient) rule.
const uniqueReviewPerPatient = "idx_reviews_doctor_patient"

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// on the specified constraint
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

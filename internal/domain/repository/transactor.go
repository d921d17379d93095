package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

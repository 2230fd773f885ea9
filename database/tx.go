package database

import (
	"context"
	"go-rbac-admin/domain"

	"gorm.io/gorm"
)

// Transaction runs fn in a single database transaction. Any error rolls the
// whole unit back. Domain errors pass through unchanged so callers can still
// tell NotFound from Conflict; anything else becomes ErrTransactionFailure.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if _, ok := domain.IsDetailedError(err); ok {
		return err
	}
	return domain.ErrTransactionFailure.WithWrap(err)
}

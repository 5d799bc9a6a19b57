package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domainRepos "certverify.client/internal/domain/repositories"
)

type contextKey string

var commitTx = func(tx *gorm.DB) error { return tx.Commit().Error }

const (
	txKey contextKey = "tx_db"
)

// UnitOfWorkImpl implements UnitOfWork using GORM
type UnitOfWorkImpl struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *gorm.DB) domainRepos.UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

// Do executes fn within a transaction. A transaction already carried by ctx
// is reused.
func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	txCtx := context.WithValue(ctx, txKey, tx)
	if err := fn(txCtx); err != nil {
		tx.Rollback()
		return err
	}

	if err := commitTx(tx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetDB returns the transaction carried by ctx, or fallback
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// lockUnitOfWork serialises work for backends without transactions.
type lockUnitOfWork struct {
	mu chan struct{}
}

type lockHeldKey struct{}

// NewLockUnitOfWork creates a UnitOfWork that runs one fn at a time
func NewLockUnitOfWork() domainRepos.UnitOfWork {
	return &lockUnitOfWork{mu: make(chan struct{}, 1)}
}

func (u *lockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, _ := ctx.Value(lockHeldKey{}).(*lockUnitOfWork); held == u {
		return fn(ctx)
	}
	select {
	case u.mu <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-u.mu }()
	return fn(context.WithValue(ctx, lockHeldKey{}, u))
}

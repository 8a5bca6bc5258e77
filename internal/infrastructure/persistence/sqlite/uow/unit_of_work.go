package uow

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"

	"cardtrack/internal/ports"
)

const busyRetryMaxElapsed = 5 * time.Second

// UnitOfWork implements ports.UnitOfWork with gorm. Transactions that fail
// because sqlite reports the database busy or locked are retried with
// exponential backoff; every other error is returned as is.
type UnitOfWork struct {
	db         *gorm.DB
	newBackOff func() backoff.BackOff
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db, newBackOff: newBusyBackOff}
}

func newBusyBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxElapsedTime = busyRetryMaxElapsed
	return bo
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if ports.InTx(ctx) {
		return fn(ctx)
	}

	return backoff.Retry(func() error {
		err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ports.WithTxContext(ctx, tx))
		})
		if err != nil && !isBusyError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(u.newBackOff(), ctx))
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cardtrack/internal/ports"
)

// dbFromContext returns the transaction carried by ctx, or db when there is none.
func dbFromContext(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// inTx runs fn on the transaction in ctx, opening one when ctx has none.
func inTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if ports.InTx(ctx) {
		tx, err := dbFromContext(ctx, db)
		if err != nil {
			return err
		}
		return fn(ctx, tx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx), tx)
	})
}

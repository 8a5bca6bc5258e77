package ports

import "context"

// Tx is an opaque transaction handle owned by the persistence adapter
// (a *gorm.DB for the sqlite adapter).
type Tx interface{}

// UnitOfWork is a transaction boundary. fn returning an error rolls back;
// returning nil commits.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTxContext stores a transaction handle in ctx.
func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction handle stored in ctx, if any.
func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	return TxFromContext(ctx) != nil
}

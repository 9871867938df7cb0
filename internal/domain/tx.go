package domain

import "context"

// TxManager runs a function inside a single database transaction. The opaque
// tx handle is passed through to the repositories' ...Tx methods, which assert
// it to the concrete driver transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx interface{}) error) error
}

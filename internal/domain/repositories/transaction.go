package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. The root-folder
// provisioning path uses it for its lookup-or-create critical section.
type TransactionManager interface {
	// ExecTx executes fn within a transaction, committing on nil return.
	ExecTx(ctx context.Context, fn TxFn) error
}

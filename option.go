package dbmodel

import (
	"github.com/iancoleman/strcase"
)

type RepositoryOption func(o *option)

type option struct {
	bindVars   bool
	noBatchTx  bool
	identifier func(name string) string
}

// WithBindVars renders values as bind arguments instead of quoted literals.
func WithBindVars() RepositoryOption {
	return func(o *option) {
		o.bindVars = true
	}
}

// WithSnakeCase renders table and column names in snake case, so an attribute
// declared as OwnerID is stored in owner_id.
func WithSnakeCase() RepositoryOption {
	return func(o *option) {
		o.identifier = strcase.ToSnake
	}
}

// WithoutBatchTransaction executes create and update batches statement by
// statement on the connection, and deletes without a transaction. A failing
// statement leaves the rows written by the statements before it, and an
// ambiguous delete is not undone.
func WithoutBatchTransaction() RepositoryOption {
	return func(o *option) {
		o.noBatchTx = true
	}
}

type QueryOption func(o *queryOption)

type queryOption struct {
	Tx Transaction
}

// WithTransaction runs the operation on a transaction returned by
// Repository.Begin. The caller commits or rolls it back.
func WithTransaction(tx Transaction) QueryOption {
	return func(o *queryOption) {
		o.Tx = tx
	}
}

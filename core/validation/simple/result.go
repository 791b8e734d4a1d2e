package simple

import (
	"fmt"

	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/validation"
)

// TransactionResult is the outcome of the execution of one transaction.
//
// - implements validation.TransactionResult
type TransactionResult struct {
	tx  txn.Transaction
	res execution.Result
}

// NewTransactionResult creates a result from the outcome of the execution of
// the transaction.
func NewTransactionResult(tx txn.Transaction, res execution.Result) TransactionResult {
	return TransactionResult{
		tx:  tx,
		res: res,
	}
}

// newRefusal creates the result of a transaction refused before execution.
func newRefusal(tx txn.Transaction, format string, args ...interface{}) TransactionResult {
	return NewTransactionResult(tx, execution.Result{
		Message: fmt.Sprintf(format, args...),
	})
}

// GetTransaction implements validation.TransactionResult.
func (res TransactionResult) GetTransaction() txn.Transaction {
	return res.tx
}

// GetStatus implements validation.TransactionResult. The reason is empty for an
// accepted transaction.
func (res TransactionResult) GetStatus() (bool, string) {
	return res.res.Accepted, res.res.Message
}

// Result is the list of the outcomes of a batch, in the order of the batch.
//
// - implements validation.Result
type Result []TransactionResult

// GetTransactionResults implements validation.Result.
func (r Result) GetTransactionResults() []validation.TransactionResult {
	res := make([]validation.TransactionResult, len(r))
	for i, txRes := range r {
		res[i] = txRes
	}

	return res
}

// NumAccepted implements validation.Result.
func (r Result) NumAccepted() int {
	num := 0
	for _, txRes := range r {
		if txRes.res.Accepted {
			num++
		}
	}

	return num
}

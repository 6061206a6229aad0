package mempool

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

type mempoolTransaction struct {
	id          externalapi.TransactionID
	transaction *externalapi.DomainTransaction
	fullSize    int
}

func newMempoolTransaction(transaction *externalapi.DomainTransaction) *mempoolTransaction {
	return &mempoolTransaction{
		id:          consensushashing.TransactionID(transaction),
		transaction: transaction,
		fullSize:    consensushashing.FullSize(transaction),
	}
}

func (mt *mempoolTransaction) feeRate() float64 {
	return float64(mt.transaction.FeeNQT) / float64(mt.fullSize)
}

// transactionsOrderedByFeeRate keeps mempool transactions ordered by
// descending fee / size rate, ties broken by ascending id
type transactionsOrderedByFeeRate struct {
	slice []*mempoolTransaction
}

func (tobf *transactionsOrderedByFeeRate) push(transaction *mempoolTransaction) {
	index := tobf.findTransactionIndex(transaction)
	tobf.slice = append(tobf.slice[:index],
		append([]*mempoolTransaction{transaction}, tobf.slice[index:]...)...)
}

func (tobf *transactionsOrderedByFeeRate) remove(transaction *mempoolTransaction) error {
	index := tobf.findTransactionIndex(transaction)
	if index >= len(tobf.slice) || tobf.slice[index].id != transaction.id {
		return errors.Errorf("couldn't find %s in the ordered transactions", transaction.id)
	}
	tobf.slice = append(tobf.slice[:index], tobf.slice[index+1:]...)
	return nil
}

func (tobf *transactionsOrderedByFeeRate) findTransactionIndex(transaction *mempoolTransaction) int {
	txFeeRate := transaction.feeRate()
	return sort.Search(len(tobf.slice), func(i int) bool {
		element := tobf.slice[i]
		elementFeeRate := element.feeRate()
		if elementFeeRate < txFeeRate {
			return true
		}
		return elementFeeRate == txFeeRate && transaction.id <= element.id
	})
}

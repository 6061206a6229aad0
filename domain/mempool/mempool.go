// Package mempool holds the unconfirmed transactions a forger may put in
// its next block.
package mempool

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/transactionhelper"
)

var (
	// ErrDuplicateTransaction is returned when a transaction is already in
	// the mempool.
	ErrDuplicateTransaction = errors.New("transaction is already in the mempool")

	// ErrMempoolFull is returned when the mempool holds
	// MaximumTransactionCount transactions.
	ErrMempoolFull = errors.New("mempool is full")
)

// Mempool is an in-memory model.Mempool
type Mempool struct {
	mtx    sync.RWMutex
	config *Config

	transactionsByID map[externalapi.TransactionID]*mempoolTransaction
	ordered          transactionsOrderedByFeeRate
}

// New returns an empty mempool
func New(config *Config) *Mempool {
	return &Mempool{
		config:           config,
		transactionsByID: make(map[externalapi.TransactionID]*mempoolTransaction),
	}
}

var _ model.Mempool = (*Mempool)(nil)

// Add verifies tx and adds it to the mempool
func (mp *Mempool) Add(tx *externalapi.DomainTransaction) error {
	if !signing.VerifyTransaction(tx) {
		return ruleerrors.NewErrTransactionNotAccepted(tx, ruleerrors.ErrTransactionSignature)
	}
	err := transactionhelper.CheckAmounts(tx, mp.config.MaxBalanceNQT)
	if err != nil {
		return ruleerrors.NewErrTransactionNotAccepted(tx, err)
	}

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return mp.add(tx)
}

func (mp *Mempool) add(tx *externalapi.DomainTransaction) error {
	transaction := newMempoolTransaction(unbind(tx))
	if _, ok := mp.transactionsByID[transaction.id]; ok {
		return errors.Wrapf(ErrDuplicateTransaction, "transaction %s", transaction.id)
	}
	if len(mp.transactionsByID) >= mp.config.MaximumTransactionCount {
		return errors.Wrapf(ErrMempoolFull, "transaction %s", transaction.id)
	}

	mp.transactionsByID[transaction.id] = transaction
	mp.ordered.push(transaction)
	return nil
}

// Remove drops the transaction with the given id, if present
func (mp *Mempool) Remove(transactionID externalapi.TransactionID) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.remove(transactionID)
}

func (mp *Mempool) remove(transactionID externalapi.TransactionID) {
	transaction, ok := mp.transactionsByID[transactionID]
	if !ok {
		return
	}
	delete(mp.transactionsByID, transactionID)
	err := mp.ordered.remove(transaction)
	if err != nil {
		panic(errors.Wrap(err, "the ordered transactions diverged from the transaction index"))
	}
}

// RemoveConfirmed drops the transactions of a pushed block
func (mp *Mempool) RemoveConfirmed(transactions []*externalapi.DomainTransaction) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for _, tx := range transactions {
		mp.remove(consensushashing.TransactionID(tx))
	}
}

// Requeue puts back the transactions of blocks that left the chain.
// Transactions that no longer fit are dropped.
func (mp *Mempool) Requeue(transactions []*externalapi.DomainTransaction) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	requeued := 0
	for _, tx := range transactions {
		err := mp.add(tx)
		if err != nil {
			log.Debugf("Transaction %s was not requeued: %s", consensushashing.TransactionID(tx), err)
			continue
		}
		requeued++
	}
	if requeued > 0 {
		log.Debugf("Requeued %d transactions", requeued)
	}
}

// SelectForBlock returns, by descending fee rate, the transactions that can
// go in a block with the given timestamp on top of previous
func (mp *Mempool) SelectForBlock(previous externalapi.DomainBlock, timestamp int32) []*externalapi.DomainTransaction {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	selected := make([]*externalapi.DomainTransaction, 0, min(len(mp.ordered.slice), mp.config.MaxNumberOfTransactions))
	seen := make(map[externalapi.TransactionID]struct{})
	powCounts := make(map[externalapi.WorkID]int)
	payloadLength := 0

	for _, transaction := range mp.ordered.slice {
		if len(selected) >= mp.config.MaxNumberOfTransactions {
			break
		}
		tx := transaction.transaction
		if payloadLength+transaction.fullSize > mp.config.MaxPayloadLength {
			continue
		}
		if !mp.fitsBlock(tx, timestamp) {
			continue
		}
		if tx.Kind.IsProofOfWork() && powCounts[tx.WorkID] >= mp.config.MaxPowsPerBlock {
			continue
		}
		if _, ok := seen[transaction.id]; ok {
			continue
		}
		if tx.Kind.MustHaveSupernodeSignature() {
			cleanID := consensushashing.CleanID(tx)
			if _, ok := seen[cleanID]; ok {
				continue
			}
			seen[cleanID] = struct{}{}
		}
		seen[transaction.id] = struct{}{}
		if tx.Kind.IsProofOfWork() {
			powCounts[tx.WorkID]++
		}

		selected = append(selected, tx.Clone())
		payloadLength += transaction.fullSize
	}

	log.Tracef("Selected %d of %d transactions for a block on top of %s",
		len(selected), len(mp.ordered.slice), previous.ID())
	return selected
}

func (mp *Mempool) fitsBlock(tx *externalapi.DomainTransaction, timestamp int32) bool {
	if tx.Version != mp.config.TransactionVersion {
		return false
	}
	if timestamp <= 0 {
		return true
	}
	if !mp.config.AllowFutureTransactions && tx.Timestamp > timestamp+mp.config.MaxTimeDrift {
		return false
	}
	return tx.Kind.IsRedeem() || tx.Expiration() >= timestamp
}

// Count returns the number of transactions in the mempool
func (mp *Mempool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return len(mp.transactionsByID)
}

// Has returns whether the transaction with the given id is in the mempool
func (mp *Mempool) Has(transactionID externalapi.TransactionID) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	_, ok := mp.transactionsByID[transactionID]
	return ok
}

// unbind clears the block position of a transaction that left its block
func unbind(tx *externalapi.DomainTransaction) *externalapi.DomainTransaction {
	clone := tx.Clone()
	clone.BlockID = 0
	clone.Height = 0
	clone.IndexInBlock = 0
	clone.BlockTimestamp = 0
	return clone
}

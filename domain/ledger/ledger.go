// Package ledger keeps account balances in memory. It implements the part
// of account bookkeeping that consensus reads stake from and applies block
// effects to; every change is journaled by height so that pop-offs can
// undo it.
package ledger

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

// GuaranteedBalanceConfirmations is the number of blocks a balance must be
// held to count as effective balance.
const GuaranteedBalanceConfirmations = 1440

// MinForgingBalanceNXT is the smallest effective balance that may forge.
const MinForgingBalanceNXT = 1000

type balanceAt struct {
	height     int32
	balanceNQT int64
}

type account struct {
	publicKey             *externalapi.PublicKey
	balanceNQT            int64
	unconfirmedBalanceNQT int64
	forgedBalanceNQT      int64

	// history holds the confirmed balance after every height it changed
	// at, in height order.
	history []balanceAt
}

func (a *account) balanceAtHeight(height int32) int64 {
	index := sort.Search(len(a.history), func(i int) bool {
		return a.history[i].height > height
	})
	if index == 0 {
		return 0
	}
	return a.history[index-1].balanceNQT
}

func (a *account) guaranteedBalanceNQT(height int32) int64 {
	guaranteed := a.balanceAtHeight(height - GuaranteedBalanceConfirmations)
	for _, entry := range a.history {
		if entry.height > height-GuaranteedBalanceConfirmations && entry.height <= height {
			guaranteed = min(guaranteed, entry.balanceNQT)
		}
	}
	return guaranteed
}

type journalEntry struct {
	height int32
	undo   func()
}

// Ledger is an in-memory model.Ledger
type Ledger struct {
	lock        sync.RWMutex
	params      *chainconfig.Params
	accounts    map[externalapi.AccountID]*account
	redeemedNQT int64
	journal     []journalEntry
}

// New returns an empty ledger
func New(params *chainconfig.Params) *Ledger {
	return &Ledger{
		params:   params,
		accounts: make(map[externalapi.AccountID]*account),
	}
}

var _ model.Ledger = (*Ledger)(nil)

func (l *Ledger) getOrCreateAccount(accountID externalapi.AccountID, height int32) *account {
	acc, ok := l.accounts[accountID]
	if ok {
		return acc
	}
	acc = &account{}
	l.accounts[accountID] = acc
	l.record(height, func() {
		delete(l.accounts, accountID)
	})
	return acc
}

func (l *Ledger) record(height int32, undo func()) {
	l.journal = append(l.journal, journalEntry{height: height, undo: undo})
}

// addToBalance changes the confirmed balance and, with unconfirmed set,
// the unconfirmed balance of acc
func (l *Ledger) addToBalance(acc *account, deltaNQT int64, unconfirmed bool, height int32) {
	previousBalance := acc.balanceNQT
	previousHistoryLength := len(acc.history)
	var replaced *balanceAt
	if previousHistoryLength > 0 && acc.history[previousHistoryLength-1].height == height {
		last := acc.history[previousHistoryLength-1]
		replaced = &last
	}

	acc.balanceNQT += deltaNQT
	if replaced != nil {
		acc.history[previousHistoryLength-1].balanceNQT = acc.balanceNQT
	} else {
		acc.history = append(acc.history, balanceAt{height: height, balanceNQT: acc.balanceNQT})
	}
	if unconfirmed {
		acc.unconfirmedBalanceNQT += deltaNQT
	}

	l.record(height, func() {
		acc.balanceNQT = previousBalance
		if replaced != nil {
			acc.history[previousHistoryLength-1] = *replaced
		} else {
			acc.history = acc.history[:previousHistoryLength]
		}
		if unconfirmed {
			acc.unconfirmedBalanceNQT -= deltaNQT
		}
	})
}

func (l *Ledger) isGenesisTransaction(tx *externalapi.DomainTransaction) bool {
	return tx.Timestamp == 0 && tx.SenderPublicKey == l.params.CreatorPublicKey
}

// ApplyUnconfirmed reserves the amount and fee of tx from the sender's
// unconfirmed balance
func (l *Ledger) ApplyUnconfirmed(tx *externalapi.DomainTransaction) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	senderID := consensushashing.AccountID(tx.SenderPublicKey)
	totalNQT := tx.AmountNQT + tx.FeeNQT
	sender, ok := l.accounts[senderID]
	if !ok {
		if !l.isGenesisTransaction(tx) {
			return false
		}
		sender = l.getOrCreateAccount(senderID, tx.Height)
	}
	if sender.unconfirmedBalanceNQT < totalNQT && !l.isGenesisTransaction(tx) {
		return false
	}

	sender.unconfirmedBalanceNQT -= totalNQT
	l.record(tx.Height, func() {
		sender.unconfirmedBalanceNQT += totalNQT
	})
	return true
}

// ApplyTransaction applies the confirmed effects of tx, whose unconfirmed
// effects were applied already
func (l *Ledger) ApplyTransaction(tx *externalapi.DomainTransaction) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	senderID := consensushashing.AccountID(tx.SenderPublicKey)
	sender, ok := l.accounts[senderID]
	if !ok {
		return errors.Errorf("sender account %s of transaction %s does not exist",
			senderID, consensushashing.TransactionID(tx))
	}
	err := l.setPublicKey(tx.SenderPublicKey, tx.Height)
	if err != nil {
		return err
	}
	l.addToBalance(sender, -(tx.AmountNQT + tx.FeeNQT), false, tx.Height)

	if tx.RecipientID != 0 {
		recipient := l.getOrCreateAccount(tx.RecipientID, tx.Height)
		l.addToBalance(recipient, tx.AmountNQT, true, tx.Height)
	}

	if tx.Kind.IsRedeem() {
		amountNQT := tx.AmountNQT
		l.redeemedNQT += amountNQT
		l.record(tx.Height, func() {
			l.redeemedNQT -= amountNQT
		})
	}
	return nil
}

// AddToBalance adds deltaNQT to the balance, the unconfirmed balance and the
// forged balance of accountID
func (l *Ledger) AddToBalance(accountID externalapi.AccountID, deltaNQT int64, event model.LedgerEvent,
	eventID uint64, height int32) error {

	l.lock.Lock()
	defer l.lock.Unlock()

	acc, ok := l.accounts[accountID]
	if !ok {
		return errors.Errorf("account %s does not exist", accountID)
	}
	log.Tracef("%s %d: account %s receives %d NQT at height %d", event, eventID, accountID, deltaNQT, height)

	l.addToBalance(acc, deltaNQT, true, height)
	previousForged := acc.forgedBalanceNQT
	acc.forgedBalanceNQT += deltaNQT
	l.record(height, func() {
		acc.forgedBalanceNQT = previousForged
	})
	return nil
}

// SetPublicKey binds publicKey to its account, creating the account if
// needed
func (l *Ledger) SetPublicKey(publicKey externalapi.PublicKey, height int32) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.setPublicKey(publicKey, height)
}

func (l *Ledger) setPublicKey(publicKey externalapi.PublicKey, height int32) error {
	acc := l.getOrCreateAccount(consensushashing.AccountID(publicKey), height)
	if acc.publicKey != nil {
		if *acc.publicKey != publicKey {
			return errors.Errorf("account %s is bound to a different public key",
				consensushashing.AccountID(publicKey))
		}
		return nil
	}
	acc.publicKey = &publicKey
	l.record(height, func() {
		acc.publicKey = nil
	})
	return nil
}

// PublicKey returns the public key bound to accountID
func (l *Ledger) PublicKey(accountID externalapi.AccountID) (externalapi.PublicKey, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	acc, ok := l.accounts[accountID]
	if !ok || acc.publicKey == nil {
		return externalapi.PublicKey{}, false
	}
	return *acc.publicKey, true
}

// EffectiveBalanceNXT returns the forging stake of accountID at height. The
// regular stake is the lowest balance held over the last
// GuaranteedBalanceConfirmations blocks; the pseudo stake is the balance at
// height. Stakes below MinForgingBalanceNXT are zero.
func (l *Ledger) EffectiveBalanceNXT(accountID externalapi.AccountID, height int32, pseudo bool) (int64, bool, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	acc, ok := l.accounts[accountID]
	if !ok {
		return 0, false, nil
	}

	var balanceNQT int64
	if pseudo {
		balanceNQT = acc.balanceAtHeight(height)
	} else {
		balanceNQT = acc.guaranteedBalanceNQT(height)
	}
	if balanceNQT < MinForgingBalanceNXT*l.params.OneNXT {
		return 0, true, nil
	}
	return balanceNQT / l.params.OneNXT, true, nil
}

// RedeemedNQT returns the amount moved out of the redeem account by redeem
// transactions
func (l *Ledger) RedeemedNQT() int64 {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.redeemedNQT
}

// RollbackTo undoes every change made above height
func (l *Ledger) RollbackTo(height int32) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	undone := 0
	for len(l.journal) > 0 && l.journal[len(l.journal)-1].height > height {
		entry := l.journal[len(l.journal)-1]
		l.journal = l.journal[:len(l.journal)-1]
		entry.undo()
		undone++
	}
	log.Debugf("Rolled back %d ledger changes above height %d", undone, height)
	return nil
}

// Balance returns the confirmed, unconfirmed and forged balances of
// accountID
func (l *Ledger) Balance(accountID externalapi.AccountID) (balanceNQT, unconfirmedBalanceNQT, forgedBalanceNQT int64, ok bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	acc, ok := l.accounts[accountID]
	if !ok {
		return 0, 0, 0, false
	}
	return acc.balanceNQT, acc.unconfirmedBalanceNQT, acc.forgedBalanceNQT, true
}

package model

import (
	"math/big"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// LedgerEvent tags a balance change with its cause
type LedgerEvent uint8

// Ledger events emitted by consensus
const (
	LedgerEventBlockGenerated LedgerEvent = iota
	LedgerEventBackFee
)

func (event LedgerEvent) String() string {
	switch event {
	case LedgerEventBlockGenerated:
		return "BlockGenerated"
	case LedgerEventBackFee:
		return "BackFee"
	}
	return "Unknown"
}

// Ledger is the account bookkeeping consensus reads stake from and applies
// block effects to. Every change is recorded at a height so that it can be
// rolled back.
type Ledger interface {
	// ApplyUnconfirmed reserves the amount and fee of tx from the sender's
	// unconfirmed balance. It returns false on a double spend.
	ApplyUnconfirmed(tx *externalapi.DomainTransaction) bool

	// ApplyTransaction applies the confirmed effects of tx at tx.Height.
	ApplyTransaction(tx *externalapi.DomainTransaction) error

	// AddToBalance adds deltaNQT to both the balance and the unconfirmed
	// balance of accountID.
	AddToBalance(accountID externalapi.AccountID, deltaNQT int64, event LedgerEvent, eventID uint64,
		height int32) error

	// SetPublicKey binds publicKey to its account, creating the account when
	// it does not exist yet.
	SetPublicKey(publicKey externalapi.PublicKey, height int32) error

	// PublicKey returns the public key bound to accountID, if any.
	PublicKey(accountID externalapi.AccountID) (externalapi.PublicKey, bool)

	// EffectiveBalanceNXT returns the forging stake of accountID at height,
	// in whole coins. With pseudo set the stake ignores confirmation depth.
	// The boolean result is false when the account does not exist.
	EffectiveBalanceNXT(accountID externalapi.AccountID, height int32, pseudo bool) (int64, bool, error)

	// RedeemedNQT returns the part of the supply redeemed so far.
	RedeemedNQT() int64

	// Balance returns the confirmed, unconfirmed and forged balances of
	// accountID. The boolean result is false when the account does not
	// exist.
	Balance(accountID externalapi.AccountID) (balanceNQT, unconfirmedBalanceNQT, forgedBalanceNQT int64, ok bool)

	// RollbackTo undoes every change recorded above height. A negative
	// height empties the ledger.
	RollbackTo(height int32) error
}

// Mempool holds unconfirmed transactions waiting for a block
type Mempool interface {
	// SelectForBlock returns the transactions to include in a block with
	// the given timestamp on top of previous.
	SelectForBlock(previous externalapi.DomainBlock, timestamp int32) []*externalapi.DomainTransaction

	Add(tx *externalapi.DomainTransaction) error
	Remove(transactionID externalapi.TransactionID)

	// RemoveConfirmed drops the transactions of a pushed block.
	RemoveConfirmed(transactions []*externalapi.DomainTransaction)

	// Requeue puts back transactions of blocks that left the chain.
	Requeue(transactions []*externalapi.DomainTransaction)
}

// WorkRegistry exposes the closed works of the work subsystem
type WorkRegistry interface {
	// LastClosedMinPowTargets returns the minimum PoW targets of the last
	// count works that were closed.
	LastClosedMinPowTargets(count int) ([]*big.Int, error)
}

// RedeemClaims is the genesis claim list redeem transactions are checked
// against, together with the entries redeemed on the chain so far
type RedeemClaims interface {
	// Claim returns the genesis entry with the given address.
	Claim(address string) (*externalapi.RedeemClaim, bool)

	// IsRedeemed returns whether the entry with the given address was
	// redeemed on the chain.
	IsRedeemed(address string) bool

	// MarkRedeemed records that the entry with the given address was
	// redeemed at height.
	MarkRedeemed(address string, height int32) error

	// RollbackTo forgets every redemption recorded above height. A
	// negative height forgets all of them.
	RollbackTo(height int32) error
}

package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// These constants are used to identify a specific RuleError. A RuleError
// means the block is rejected and not stored.
var (
	// ErrBlockVersion indicates the block version is not the one the
	// network uses.
	ErrBlockVersion = newRuleError("ErrBlockVersion")

	// ErrTimestampNotAfterPrevious indicates the block timestamp is not
	// later than its parent's.
	ErrTimestampNotAfterPrevious = newRuleError("ErrTimestampNotAfterPrevious")

	// ErrPreviousBlockHash indicates the block does not commit to the
	// hash of its parent.
	ErrPreviousBlockHash = newRuleError("ErrPreviousBlockHash")

	// ErrZeroBlockID indicates a block whose id is zero.
	ErrZeroBlockID = newRuleError("ErrZeroBlockID")

	// ErrDuplicateBlock indicates a block with the same id already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrDuplicateTransactions indicates a block contains the same
	// transaction, or the same clean transaction, twice.
	ErrDuplicateTransactions = newRuleError("ErrDuplicateTransactions")

	// ErrGenerationSignature indicates the generation signature does not
	// follow from the parent's, or that the generator's hit does not
	// allow it to forge at the block's timestamp.
	ErrGenerationSignature = newRuleError("ErrGenerationSignature")

	// ErrBlockSignature indicates the block signature is invalid.
	ErrBlockSignature = newRuleError("ErrBlockSignature")

	// ErrGeneratorPublicKey indicates the generator account is already
	// bound to a different public key.
	ErrGeneratorPublicKey = newRuleError("ErrGeneratorPublicKey")

	// ErrTooManyTransactions indicates the block has more transactions
	// than allowed.
	ErrTooManyTransactions = newRuleError("ErrTooManyTransactions")

	// ErrPayloadLength indicates the declared or computed payload length
	// is out of bounds, or they differ.
	ErrPayloadLength = newRuleError("ErrPayloadLength")

	// ErrPayloadHash indicates the declared payload hash differs from the
	// computed one.
	ErrPayloadHash = newRuleError("ErrPayloadHash")

	// ErrTotals indicates the declared total amount or total fee differs
	// from the sums over the block's transactions.
	ErrTotals = newRuleError("ErrTotals")

	// ErrTooManyPows indicates the block carries too many proof of work
	// submissions for one work.
	ErrTooManyPows = newRuleError("ErrTooManyPows")

	// ErrUnknownGenerator indicates the generator has no effective
	// balance the block can be forged with.
	ErrUnknownGenerator = newRuleError("ErrUnknownGenerator")

	// ErrForgingDisabled indicates the speed factor is zero, so no hit
	// can be verified.
	ErrForgingDisabled = newRuleError("ErrForgingDisabled")
)

// These are reasons for a TransactionNotAcceptedError.
var (
	ErrTransactionSignature           = newRuleError("ErrTransactionSignature")
	ErrTransactionTimestampAfterBlock = newRuleError("ErrTransactionTimestampAfterBlock")
	ErrTransactionExpired             = newRuleError("ErrTransactionExpired")
	ErrTransactionAlreadyInChain      = newRuleError("ErrTransactionAlreadyInChain")
	ErrTransactionVersion             = newRuleError("ErrTransactionVersion")
	ErrZeroTransactionID              = newRuleError("ErrZeroTransactionID")
	ErrDoubleSpend                    = newRuleError("ErrDoubleSpend")
	ErrTransactionApply               = newRuleError("ErrTransactionApply")

	// ErrTransactionAmount indicates a negative or oversized amount or
	// fee, or block totals that do not fit in an int64.
	ErrTransactionAmount = newRuleError("ErrTransactionAmount")

	// ErrRedeemClaim indicates a redeem transaction that is not backed by
	// a valid claim on a genesis entry.
	ErrRedeemClaim = newRuleError("ErrRedeemClaim")

	// ErrRedeemAlreadyClaimed indicates a redeem of a genesis entry that
	// was redeemed before, in the chain or earlier in the same block.
	ErrRedeemAlreadyClaimed = newRuleError("ErrRedeemAlreadyClaimed")
)

// These constants identify the reasons a block is out of order. An out of
// order block is not permanently invalid: its ancestors may be unknown
// yet, or it arrived too early.
var (
	// ErrPreviousBlockMismatch indicates the block does not build on the
	// current last block.
	ErrPreviousBlockMismatch = newBlockOutOfOrderError("ErrPreviousBlockMismatch")

	// ErrTimestampTooFarInFuture indicates the block timestamp is beyond
	// the allowed clock drift.
	ErrTimestampTooFarInFuture = newBlockOutOfOrderError("ErrTimestampTooFarInFuture")

	// ErrTransactionTimestampTooFarInFuture indicates a transaction in
	// the block is timestamped beyond the allowed clock drift.
	ErrTransactionTimestampTooFarInFuture = newBlockOutOfOrderError("ErrTransactionTimestampTooFarInFuture")

	// ErrBlockAfterNextHitTime indicates a local generator should have
	// forged a block before this one.
	ErrBlockAfterNextHitTime = newBlockOutOfOrderError("ErrBlockAfterNextHitTime")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// BlockOutOfOrderError indicates a block that cannot be processed yet.
type BlockOutOfOrderError struct {
	message string
}

func (e BlockOutOfOrderError) Error() string {
	return e.message
}

func newBlockOutOfOrderError(message string) BlockOutOfOrderError {
	return BlockOutOfOrderError{message: message}
}

// IsBlockOutOfOrder returns whether err was caused by a
// BlockOutOfOrderError.
func IsBlockOutOfOrder(err error) bool {
	var outOfOrder BlockOutOfOrderError
	return errors.As(err, &outOfOrder)
}

// IsRuleError returns whether err was caused by a RuleError.
func IsRuleError(err error) bool {
	var ruleError RuleError
	return errors.As(err, &ruleError)
}

// TransactionNotAcceptedError indicates a specific transaction made its
// block invalid.
type TransactionNotAcceptedError struct {
	Transaction *externalapi.DomainTransaction
	Reason      error
}

func (e TransactionNotAcceptedError) Error() string {
	return fmt.Sprintf("transaction %d of kind %s: %s",
		e.Transaction.IndexInBlock, e.Transaction.Kind, e.Reason)
}

func (e TransactionNotAcceptedError) Unwrap() error {
	return e.Reason
}

// NewErrTransactionNotAccepted creates a new TransactionNotAcceptedError
// wrapped in a RuleError
func NewErrTransactionNotAccepted(transaction *externalapi.DomainTransaction, reason error) error {
	return errors.WithStack(RuleError{
		message: "ErrTransactionNotAccepted",
		inner:   TransactionNotAcceptedError{Transaction: transaction, Reason: reason},
	})
}

// AsTransactionNotAccepted returns the TransactionNotAcceptedError err was
// caused by, if any.
func AsTransactionNotAccepted(err error) (TransactionNotAcceptedError, bool) {
	var notAccepted TransactionNotAcceptedError
	ok := errors.As(err, &notAccepted)
	return notAccepted, ok
}

// BlockNotAcceptedError ties a rejection to the block that was rejected,
// so the peer that sent it can be held responsible.
type BlockNotAcceptedError struct {
	BlockID externalapi.BlockID
	Reason  error
}

func (e BlockNotAcceptedError) Error() string {
	return fmt.Sprintf("block %s not accepted: %s", e.BlockID, e.Reason)
}

func (e BlockNotAcceptedError) Unwrap() error {
	return e.Reason
}

// NewErrBlockNotAccepted wraps reason in a BlockNotAcceptedError for the
// given block.
func NewErrBlockNotAccepted(blockID externalapi.BlockID, reason error) error {
	return errors.WithStack(BlockNotAcceptedError{BlockID: blockID, Reason: reason})
}

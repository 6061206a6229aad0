package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/transactionhelper"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// ValidateTransactions validates the transactions of a block and the
// header fields derived from them
func (v *blockValidator) ValidateTransactions(stagingArea *model.StagingArea, block *blocks.Builder,
	previous externalapi.DomainBlock, now int32, fullValidation bool) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateTransactions")
	defer onEnd()

	header := block.Header()
	transactions := block.Transactions()

	totals := &blockTotals{}
	claimed := make(map[string]struct{})
	payloadLength := 0
	powCounts := make(map[externalapi.WorkID]int)
	for _, tx := range transactions {
		if tx.Kind.IsProofOfWork() {
			powCounts[tx.WorkID]++
			if powCounts[tx.WorkID] > v.params.MaxPowsPerBlock {
				return ruleerrors.NewErrTransactionNotAccepted(tx, errors.Wrapf(ruleerrors.ErrTooManyPows,
					"more than %d proofs of work for work %d", v.params.MaxPowsPerBlock, tx.WorkID))
			}
		}

		if tx.Timestamp > now+v.params.MaxTimeDrift {
			return errors.Wrapf(ruleerrors.ErrTransactionTimestampTooFarInFuture,
				"transaction %s timestamp %d, current time %d", consensushashing.TransactionID(tx), tx.Timestamp, now)
		}
		if !signing.VerifyTransaction(tx) {
			return ruleerrors.NewErrTransactionNotAccepted(tx, ruleerrors.ErrTransactionSignature)
		}
		err := v.validateAmountsAndClaims(tx, claimed, totals)
		if err != nil {
			return err
		}

		if fullValidation {
			err = v.validateTransactionInContext(stagingArea, tx, header)
			if err != nil {
				return ruleerrors.NewErrTransactionNotAccepted(tx, err)
			}
		}

		payloadLength += consensushashing.FullSize(tx)
	}

	if totals.amountNQT != header.TotalAmountNQT || totals.feeNQT != header.TotalFeeNQT {
		return errors.Wrapf(ruleerrors.ErrTotals, "block declares amount %d and fee %d, transactions sum "+
			"to %d and %d", header.TotalAmountNQT, header.TotalFeeNQT, totals.amountNQT, totals.feeNQT)
	}
	payloadHash := consensushashing.PayloadHash(transactions)
	if payloadHash != header.PayloadHash {
		return errors.Wrapf(ruleerrors.ErrPayloadHash, "block declares payload hash %s, expected %s",
			header.PayloadHash, payloadHash)
	}
	if int32(payloadLength) != header.PayloadLength {
		return errors.Wrapf(ruleerrors.ErrPayloadLength, "block declares a payload of %d bytes, "+
			"transactions take %d", header.PayloadLength, payloadLength)
	}
	return nil
}

type blockTotals struct {
	amountNQT int64
	feeNQT    int64
}

func (bt *blockTotals) add(tx *externalapi.DomainTransaction, maxBalanceNQT int64) error {
	err := transactionhelper.CheckAmounts(tx, maxBalanceNQT)
	if err != nil {
		return err
	}
	amountNQT, amountOK := transactionhelper.SafeAdd(bt.amountNQT, tx.AmountNQT)
	feeNQT, feeOK := transactionhelper.SafeAdd(bt.feeNQT, tx.FeeNQT)
	if !amountOK || !feeOK {
		return errors.Wrapf(ruleerrors.ErrTransactionAmount, "block totals overflow at amount %d NQT, "+
			"fee %d NQT", tx.AmountNQT, tx.FeeNQT)
	}
	bt.amountNQT, bt.feeNQT = amountNQT, feeNQT
	return nil
}

func (v *blockValidator) validateTransactionInContext(stagingArea *model.StagingArea,
	tx *externalapi.DomainTransaction, header externalapi.BlockHeader) error {

	if !v.fakeForging.InPrincipal() && tx.Timestamp > header.Timestamp+v.params.MaxTimeDrift {
		return errors.Wrapf(ruleerrors.ErrTransactionTimestampAfterBlock, "transaction timestamp %d, "+
			"block timestamp %d", tx.Timestamp, header.Timestamp)
	}
	if !tx.Kind.IsRedeem() && tx.Expiration() < header.Timestamp {
		return errors.Wrapf(ruleerrors.ErrTransactionExpired, "transaction expired at %d, block timestamp %d",
			tx.Expiration(), header.Timestamp)
	}

	transactionID := consensushashing.TransactionID(tx)
	alreadyInChain, err := v.blockStore.HasTransaction(v.databaseContext, stagingArea, transactionID)
	if err != nil {
		return err
	}
	if alreadyInChain {
		return errors.Wrapf(ruleerrors.ErrTransactionAlreadyInChain, "transaction %s", transactionID)
	}

	if tx.Version != v.params.TransactionVersion {
		return errors.Wrapf(ruleerrors.ErrTransactionVersion, "transaction version %d, expected %d",
			tx.Version, v.params.TransactionVersion)
	}
	if transactionID == 0 {
		return errors.WithStack(ruleerrors.ErrZeroTransactionID)
	}
	return nil
}

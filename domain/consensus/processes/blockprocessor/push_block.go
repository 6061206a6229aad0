package blockprocessor

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/redeemclaim"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// PushBlock validates block against the current last block and makes it
// the new last block
func (bp *blockProcessor) PushBlock(block *blocks.Builder) (externalapi.DomainBlock, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "PushBlock")
	defer onEnd()

	pushed, err := bp.pushBlock(block)
	if err != nil {
		if ruleerrors.IsRuleError(err) || ruleerrors.IsBlockOutOfOrder(err) {
			blockID, idErr := block.ID()
			if idErr != nil {
				return nil, err
			}
			return nil, ruleerrors.NewErrBlockNotAccepted(blockID, err)
		}
		return nil, err
	}
	return pushed, nil
}

func (bp *blockProcessor) pushBlock(block *blocks.Builder) (externalapi.DomainBlock, error) {
	now := bp.timeSource.Now()
	previous := bp.LastBlock()
	stagingArea := model.NewStagingArea()

	err := bp.blockValidator.ValidateBlock(stagingArea, block, previous, now)
	if err != nil {
		return nil, err
	}

	header := block.Header()
	nextHitTime := bp.forgingSchedule.NextHitTime(previous.ID(), now)
	if nextHitTime > 0 && int64(header.Timestamp) > nextHitTime+1 {
		bp.forgingSchedule.SetDelay(-bp.forgingSpeedup)
		return nil, errors.Wrapf(ruleerrors.ErrBlockAfterNextHitTime,
			"block timestamp %d is after the next hit time %d", header.Timestamp, nextHitTime)
	}

	err = bp.blockValidator.ValidateTransactions(stagingArea, block, previous, now, true)
	if err != nil {
		return nil, err
	}

	err = block.Link(previous, bp.retargetManager.Retargeter(stagingArea))
	if err != nil {
		return nil, err
	}
	domainBlock, err := block.Build()
	if err != nil {
		return nil, err
	}

	bp.blockListeners.Notify(model.BlockEventBeforeBlockAccept, domainBlock)

	err = bp.underWriteTier(func() error {
		commitment := bp.commitment.Load().Clone()
		err := bp.accept(stagingArea, domainBlock, previous)
		if err == nil {
			commitment.AddBlock(domainBlock.ID())
			bp.stageChainState(stagingArea, domainBlock, commitment)
			err = bp.commitAndPublish(stagingArea, domainBlock, commitment)
		}
		if err != nil {
			rollbackErr := bp.rollbackState(previous.Height())
			if rollbackErr != nil {
				return errors.Wrapf(rollbackErr, "could not roll back the ledger after: %s", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bp.blockListeners.Notify(model.BlockEventAfterBlockAccept, domainBlock)
	bp.mempool.RemoveConfirmed(domainBlock.Transactions())
	bp.blockListeners.Notify(model.BlockEventBlockPushed, domainBlock)
	bp.blockLogger.LogBlock(domainBlock)
	return domainBlock, nil
}

// accept stores block on top of previous and applies its effects
func (bp *blockProcessor) accept(stagingArea *model.StagingArea, block externalapi.DomainBlock,
	previous externalapi.DomainBlock) error {

	bp.blockStore.Stage(stagingArea, block)
	err := bp.blockStore.PatchNextBlockID(bp.databaseContext, stagingArea, previous.ID(), block.ID())
	if err != nil {
		return err
	}
	return bp.applyBlock(stagingArea, block)
}

// applyBlock applies the ledger and soft-fork effects of a block that is
// already staged. The caller holds the write tier.
func (bp *blockProcessor) applyBlock(stagingArea *model.StagingArea, block externalapi.DomainBlock) error {
	for _, tx := range block.Transactions() {
		if !bp.ledger.ApplyUnconfirmed(tx) {
			return ruleerrors.NewErrTransactionNotAccepted(tx,
				errors.Wrapf(ruleerrors.ErrDoubleSpend, "transaction %d is a double spend", tx.IndexInBlock))
		}
	}

	bp.blockListeners.Notify(model.BlockEventBeforeBlockApply, block)

	err := bp.ledger.SetPublicKey(block.GeneratorPublicKey(), block.Height())
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrGeneratorPublicKey, "generator %s: %s", block.GeneratorID(), err)
	}

	err = bp.payFees(stagingArea, block)
	if err != nil {
		return err
	}

	for _, tx := range block.Transactions() {
		err := bp.ledger.ApplyTransaction(tx)
		if err != nil {
			return ruleerrors.NewErrTransactionNotAccepted(tx, errors.Wrap(ruleerrors.ErrTransactionApply, err.Error()))
		}
		if tx.Kind.IsRedeem() {
			err = bp.markRedeemed(tx, block.Height())
			if err != nil {
				return ruleerrors.NewErrTransactionNotAccepted(tx, errors.Wrap(ruleerrors.ErrTransactionApply, err.Error()))
			}
		}
	}

	err = bp.softForkManager.RecordVotes(stagingArea, block)
	if err != nil {
		return err
	}

	bp.blockListeners.Notify(model.BlockEventAfterBlockApply, block)
	return nil
}

func (bp *blockProcessor) markRedeemed(tx *externalapi.DomainTransaction, height int32) error {
	attachment, err := redeemclaim.ParseAttachment(tx.Attachment)
	if err != nil {
		return err
	}
	return bp.redeemClaims.MarkRedeemed(attachment.Address, height)
}

// payFees credits the back fees to the generators of the preceding blocks
// and the rest of the block's fees to its own generator
func (bp *blockProcessor) payFees(stagingArea *model.StagingArea, block externalapi.DomainBlock) error {
	var backFees [externalapi.BackFeeBuckets]int64
	for _, tx := range block.Transactions() {
		for i, fee := range bp.backFeeSchedule(tx) {
			backFees[i] += fee
		}
	}

	var totalBackFeeNQT int64
	for i, backFee := range backFees {
		if backFee == 0 {
			break
		}
		height := block.Height() - int32(i) - 1
		if height < 0 {
			break
		}
		totalBackFeeNQT += backFee
		previous, err := bp.blockStore.BlockAtHeight(bp.databaseContext, stagingArea, height)
		if err != nil {
			return err
		}
		err = bp.ledger.AddToBalance(previous.GeneratorID(), backFee, model.LedgerEventBackFee,
			uint64(block.ID()), block.Height())
		if err != nil {
			return err
		}
		log.Debugf("Back fee %d NQT to forger at height %d", backFee, height)
	}

	if block.TotalFeeNQT() == totalBackFeeNQT {
		return nil
	}
	return bp.ledger.AddToBalance(block.GeneratorID(), block.TotalFeeNQT()-totalBackFeeNQT,
		model.LedgerEventBlockGenerated, uint64(block.ID()), block.Height())
}

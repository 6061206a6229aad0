package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// ValidateBlock validates a block against the block it claims to follow,
// in the order peers expect rejections in
func (v *blockValidator) ValidateBlock(stagingArea *model.StagingArea, block *blocks.Builder,
	previous externalapi.DomainBlock, now int32) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBlock")
	defer onEnd()

	header := block.Header()
	if header.PreviousBlockID != previous.ID() {
		return errors.Wrapf(ruleerrors.ErrPreviousBlockMismatch, "block builds on %s, the last block is %s",
			header.PreviousBlockID, previous.ID())
	}
	if header.Version != v.params.BlockVersion {
		return errors.Wrapf(ruleerrors.ErrBlockVersion, "block version %d, expected %d",
			header.Version, v.params.BlockVersion)
	}

	err := v.checkTimestamp(header, previous, now)
	if err != nil {
		return err
	}

	expectedPreviousBlockHash := consensushashing.BlockHash(previous.Bytes())
	if header.PreviousBlockHash != expectedPreviousBlockHash {
		return errors.Wrapf(ruleerrors.ErrPreviousBlockHash, "block claims previous hash %s, expected %s",
			header.PreviousBlockHash, expectedPreviousBlockHash)
	}

	err = v.checkBlockID(stagingArea, block)
	if err != nil {
		return err
	}

	if blocks.HasDuplicateTransactions(block.Transactions()) {
		return errors.Wrapf(ruleerrors.ErrDuplicateTransactions, "block on top of %s", previous.ID())
	}

	if !v.fakeForging.Allows(header.GeneratorPublicKey) {
		err = v.verifyGenerationSignature(header, block.HasRedeemTransaction(), previous)
		if err != nil {
			return err
		}
	}

	if !block.VerifySignature(v.params.RedeemAccountID()) {
		return errors.Wrapf(ruleerrors.ErrBlockSignature, "block on top of %s", previous.ID())
	}

	transactionCount := len(block.Transactions())
	if transactionCount > v.params.MaxNumberOfTransactions {
		return errors.Wrapf(ruleerrors.ErrTooManyTransactions, "block has %d transactions, the limit is %d",
			transactionCount, v.params.MaxNumberOfTransactions)
	}
	if header.PayloadLength > v.params.MaxPayloadLength || header.PayloadLength < 0 {
		return errors.Wrapf(ruleerrors.ErrPayloadLength, "block declares a payload of %d bytes, the limit is %d",
			header.PayloadLength, v.params.MaxPayloadLength)
	}

	return nil
}

func (v *blockValidator) checkTimestamp(header externalapi.BlockHeader, previous externalapi.DomainBlock,
	now int32) error {

	if header.Timestamp > now+v.params.MaxTimeDrift {
		log.Warnf("Received block timestamped %d is later than current time %d, either the block is "+
			"invalid or the local clock is behind", header.Timestamp, now)
		return errors.Wrapf(ruleerrors.ErrTimestampTooFarInFuture, "block timestamp %d, current time %d",
			header.Timestamp, now)
	}
	if header.Timestamp <= previous.Timestamp() {
		return errors.Wrapf(ruleerrors.ErrTimestampNotAfterPrevious, "block timestamp %d, previous timestamp %d",
			header.Timestamp, previous.Timestamp())
	}
	return nil
}

func (v *blockValidator) checkBlockID(stagingArea *model.StagingArea, block *blocks.Builder) error {
	blockID, err := block.ID()
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBlockSignature, "block has no id: %s", err)
	}
	if blockID == 0 {
		return errors.Wrapf(ruleerrors.ErrZeroBlockID, "block id is zero")
	}
	exists, err := v.blockStore.HasBlock(v.databaseContext, stagingArea, blockID)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already in the chain", blockID)
	}
	return nil
}

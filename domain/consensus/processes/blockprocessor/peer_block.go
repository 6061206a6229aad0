package blockprocessor

import (
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// ProcessPeerBlock handles a block received from a peer. A block on top of
// the last block is pushed. A sibling of the last block with an earlier
// timestamp replaces it; if the sibling turns out to be invalid the
// previous last block is pushed back. Any other block is ignored.
func (bp *blockProcessor) ProcessPeerBlock(block *blocks.Builder) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ProcessPeerBlock")
	defer onEnd()

	lastBlock := bp.LastBlock()
	header := block.Header()

	if header.PreviousBlockID == lastBlock.ID() {
		_, err := bp.PushBlock(block)
		return err
	}

	if header.PreviousBlockID != lastBlock.PreviousBlockID() || header.Timestamp >= lastBlock.Timestamp() {
		log.Debugf("Ignoring peer block with previous block %s", header.PreviousBlockID)
		return nil
	}

	previous, err := bp.blockStore.Block(bp.databaseContext, model.NewStagingArea(), lastBlock.PreviousBlockID())
	if err != nil {
		return err
	}
	log.Debugf("Replacing last block %s with an earlier sibling", lastBlock.ID())

	_, err = bp.PopOffTo(previous)
	if err != nil {
		return err
	}

	_, pushErr := bp.PushBlock(block)
	if pushErr == nil {
		return nil
	}

	log.Debugf("Sibling block rejected, restoring %s: %s", lastBlock.ID(), pushErr)
	oldTip, err := blocks.ToBuilder(lastBlock)
	if err != nil {
		return err
	}
	_, err = bp.PushBlock(oldTip)
	if err != nil {
		return err
	}
	bp.mempool.Requeue(block.Transactions())
	return pushErr
}

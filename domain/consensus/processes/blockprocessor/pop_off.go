package blockprocessor

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/chaincommitment"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// PopOffTo removes blocks from the tip of the chain until target is the
// last block. A target below the rollback horizon is reached with a
// rescan, in which case no blocks are returned.
func (bp *blockProcessor) PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "PopOffTo")
	defer onEnd()

	stagingArea := model.NewStagingArea()
	hasTarget, err := bp.blockStore.HasBlock(bp.databaseContext, stagingArea, target.ID())
	if err != nil {
		return nil, err
	}
	if !hasTarget {
		return nil, errors.Errorf("block %s at height %d is not in the chain", target.ID(), target.Height())
	}

	lastBlock := bp.LastBlock()
	if target.Height() > lastBlock.Height() {
		return nil, errors.Errorf("cannot pop off to height %d above the last block at height %d",
			target.Height(), lastBlock.Height())
	}
	if target.ID() == lastBlock.ID() {
		return nil, nil
	}

	if target.Height() < bp.MinRollbackHeight() {
		log.Infof("Popping off to height %d below the rollback horizon %d, rescanning",
			target.Height(), bp.MinRollbackHeight())
		return nil, bp.popOffWithRescan(target.Height() + 1)
	}

	commitment := bp.commitment.Load().Clone()
	var popped []externalapi.DomainBlock
	for block := lastBlock; block.ID() != target.ID(); {
		if block.Height() == 0 {
			return nil, errors.Errorf("cannot pop off the genesis block")
		}
		bp.blockStore.Delete(stagingArea, block)
		commitment.RemoveBlock(block.ID())
		popped = append(popped, block)

		block, err = bp.blockStore.Block(bp.databaseContext, stagingArea, block.PreviousBlockID())
		if err != nil {
			return nil, err
		}
	}

	err = bp.blockStore.PatchNextBlockID(bp.databaseContext, stagingArea, target.ID(), 0)
	if err != nil {
		return nil, err
	}
	newLastBlock := target.WithNextBlockID(0)
	bp.softForkManager.RollbackTo(stagingArea, target.Height())
	bp.stageChainState(stagingArea, newLastBlock, commitment)

	err = bp.underWriteTier(func() error {
		err := bp.rollbackState(target.Height())
		if err != nil {
			return err
		}
		err = bp.commitAndPublish(stagingArea, newLastBlock, commitment)
		if err != nil {
			log.Errorf("Could not pop off to %s, rescanning: %s", target.ID(), err)
			rescanErr := bp.scanLocked(0, false)
			if rescanErr != nil {
				return errors.Wrapf(rescanErr, "rescan after failed pop off: %s", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, block := range popped {
		bp.blockListeners.Notify(model.BlockEventBlockPopped, block)
		bp.mempool.Requeue(block.Transactions())
	}
	log.Debugf("Popped off %d blocks to %s at height %d", len(popped), target.ID(), target.Height())
	return popped, nil
}

// PopOffToHeight pops off blocks until the last block is at height. A
// height of zero or less resets the chain to the genesis block.
func (bp *blockProcessor) PopOffToHeight(height int32) ([]externalapi.DomainBlock, error) {
	if height <= 0 {
		return nil, bp.FullReset()
	}
	if height >= bp.LastBlock().Height() {
		return nil, nil
	}
	target, err := bp.blockStore.BlockAtHeight(bp.databaseContext, model.NewStagingArea(), height)
	if err != nil {
		return nil, err
	}
	return bp.PopOffTo(target)
}

// popOffWithRescan deletes every block from height up and rebuilds the
// derived state from genesis
func (bp *blockProcessor) popOffWithRescan(height int32) error {
	stagingArea := model.NewStagingArea()
	newLastBlock, commitment, err := bp.stageTruncation(stagingArea, height)
	if err != nil {
		return err
	}
	bp.stageChainState(stagingArea, newLastBlock, commitment)
	return bp.underWriteTier(func() error {
		err := bp.commitAndPublish(stagingArea, newLastBlock, commitment)
		if err != nil {
			return err
		}
		return bp.scanLocked(0, false)
	})
}

// stageTruncation stages the deletion of every block from height up and
// returns the block that becomes the last one
func (bp *blockProcessor) stageTruncation(stagingArea *model.StagingArea, height int32) (
	externalapi.DomainBlock, *chaincommitment.Commitment, error) {

	commitment := bp.commitment.Load().Clone()
	block := bp.LastBlock()
	for block.Height() >= height {
		if block.Height() == 0 {
			return nil, nil, errors.Errorf("cannot delete the genesis block")
		}
		bp.blockStore.Delete(stagingArea, block)
		commitment.RemoveBlock(block.ID())

		var err error
		block, err = bp.blockStore.Block(bp.databaseContext, stagingArea, block.PreviousBlockID())
		if err != nil {
			return nil, nil, err
		}
	}
	err := bp.blockStore.PatchNextBlockID(bp.databaseContext, stagingArea, block.ID(), 0)
	if err != nil {
		return nil, nil, err
	}
	return block.WithNextBlockID(0), commitment, nil
}

package blockprocessor

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// Scan replays the stored chain from height, rebuilding the ledger and the
// soft-fork counters. With validate set, stored blocks are re-verified and
// the chain is truncated at the first block that fails.
func (bp *blockProcessor) Scan(height int32, validate bool) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Scan")
	defer onEnd()

	return bp.scan(height, validate)
}

func (bp *blockProcessor) scan(height int32, validate bool) error {
	return bp.underWriteTier(func() error {
		return bp.scanLocked(height, validate)
	})
}

// scanLocked is scan for a caller that already holds the write tier
func (bp *blockProcessor) scanLocked(height int32, validate bool) error {
	lastBlock := bp.LastBlock()
	if height < 0 {
		height = 0
	}
	if height > lastBlock.Height()+1 {
		return errors.Errorf("cannot scan from height %d above the last block at height %d",
			height, lastBlock.Height())
	}

	bp.blockListeners.Notify(model.BlockEventRescanBegin, lastBlock)
	log.Infof("Scanning blockchain from height %d to %d", height, lastBlock.Height())

	stagingArea := model.NewStagingArea()
	err := bp.rollbackState(height - 1)
	if err != nil {
		return err
	}
	bp.softForkManager.RollbackTo(stagingArea, height-1)

	newLastBlock := lastBlock
	commitment := bp.commitment.Load()

	var previous externalapi.DomainBlock
	if height > 0 {
		previous, err = bp.blockStore.BlockAtHeight(bp.databaseContext, stagingArea, height-1)
		if err != nil {
			return err
		}
	}
	for currentHeight := height; currentHeight <= lastBlock.Height(); currentHeight++ {
		block, err := bp.blockStore.BlockAtHeight(bp.databaseContext, stagingArea, currentHeight)
		if err != nil {
			return err
		}

		if validate && currentHeight > 0 {
			err := bp.blockValidator.ValidateStoredBlock(block, previous)
			if err != nil {
				log.Errorf("Stored block %s at height %d is invalid, deleting it and the blocks after it: %s",
					block.ID(), currentHeight, err)
				newLastBlock, commitment, err = bp.stageTruncation(stagingArea, currentHeight)
				if err != nil {
					return err
				}
				break
			}
		}

		err = bp.applyBlock(stagingArea, block)
		if err != nil {
			return errors.Wrapf(err, "could not apply stored block %s at height %d", block.ID(), currentHeight)
		}
		bp.blockListeners.Notify(model.BlockEventBlockScanned, block)
		previous = block
	}

	bp.stageChainState(stagingArea, newLastBlock, commitment)
	err = bp.commitAndPublish(stagingArea, newLastBlock, commitment)
	if err != nil {
		return err
	}

	bp.blockListeners.Notify(model.BlockEventRescanEnd, newLastBlock)
	log.Infof("...done scanning at height %d", newLastBlock.Height())
	return nil
}

// FullReset deletes every block and restarts the chain from the genesis
// block
func (bp *blockProcessor) FullReset() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "FullReset")
	defer onEnd()

	lastBlock := bp.LastBlock()
	bp.blockListeners.Notify(model.BlockEventRescanBegin, lastBlock)
	log.Infof("Deleting every block and restarting from genesis")

	err := bp.addGenesisBlock()
	if err != nil {
		return err
	}

	bp.blockListeners.Notify(model.BlockEventRescanEnd, bp.LastBlock())
	return nil
}

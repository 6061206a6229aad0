package blockprocessor

import (
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/utils/chaincommitment"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// Init adds the genesis block to an empty database. On an existing
// database it loads the last block and replays the stored chain to rebuild
// the ledger, which is not persisted.
func (bp *blockProcessor) Init() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Init")
	defer onEnd()

	stagingArea := model.NewStagingArea()
	hasChainState, err := bp.chainStateStore.HasChainState(bp.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if !hasChainState {
		log.Infof("Genesis block not in database, starting from scratch")
		return bp.addGenesisBlock()
	}

	chainState, err := bp.chainStateStore.ChainState(bp.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	lastBlock, err := bp.blockStore.Block(bp.databaseContext, stagingArea, chainState.LastBlockID)
	if err != nil {
		return err
	}
	commitment, err := chaincommitment.FromBytes(chainState.Commitment)
	if err != nil {
		return err
	}
	bp.lastBlock.Store(lastBlock)
	bp.commitment.Store(commitment)
	log.Infof("Last block height: %d", lastBlock.Height())

	return bp.scan(0, false)
}

// addGenesisBlock resets the chain to the genesis block. The genesis block
// is trusted by construction and is not validated.
func (bp *blockProcessor) addGenesisBlock() error {
	return bp.underWriteTier(bp.addGenesisBlockLocked)
}

func (bp *blockProcessor) addGenesisBlockLocked() error {
	genesis := bp.params.GenesisBlock()
	stagingArea := model.NewStagingArea()

	err := bp.blockStore.DeleteAll(bp.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	bp.softForkManager.RollbackTo(stagingArea, -1)
	err = bp.rollbackState(-1)
	if err != nil {
		return err
	}

	bp.blockStore.Stage(stagingArea, genesis)
	err = bp.applyBlock(stagingArea, genesis)
	if err != nil {
		return err
	}

	commitment := chaincommitment.New()
	commitment.AddBlock(genesis.ID())
	bp.stageChainState(stagingArea, genesis, commitment)

	err = bp.commitAndPublish(stagingArea, genesis, commitment)
	if err != nil {
		return err
	}
	log.Infof("Added genesis block %s", genesis.ID())
	return nil
}

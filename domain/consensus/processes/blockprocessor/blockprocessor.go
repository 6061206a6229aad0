package blockprocessor

import (
	"sync/atomic"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/xelnet/xeld/domain/consensus/utils/chaincommitment"
	"github.com/xelnet/xeld/util/epochtime"
	"github.com/xelnet/xeld/util/locks"
)

// blockProcessor is responsible for processing incoming blocks and for
// moving the tip of the canonical chain
type blockProcessor struct {
	params         *chainconfig.Params
	maxRollback    int32
	forgingSpeedup int32

	chainLock  *locks.ReadWriteUpdateLock
	timeSource *epochtime.Source

	databaseContext model.DBManager

	blockValidator  model.BlockValidator
	retargetManager model.RetargetManager
	softForkManager model.SoftForkManager
	forgingSchedule model.ForgingSchedule

	ledger       model.Ledger
	redeemClaims model.RedeemClaims
	mempool      model.Mempool

	blockStore      model.BlockStore
	chainStateStore model.ChainStateStore

	blockListeners *model.BlockListeners
	blockLogger    *blocklogger.BlockLogger

	backFeeSchedule func(tx *externalapi.DomainTransaction) [externalapi.BackFeeBuckets]int64

	lastBlock  atomic.Value
	commitment atomic.Pointer[chaincommitment.Commitment]
}

// New instantiates a new BlockProcessor. The caller must hold the update
// tier of chainLock whenever it calls a mutating method. The processor
// upgrades to the write tier itself before it touches the ledger.
func New(
	params *chainconfig.Params,
	maxRollback int32,
	forgingSpeedup int32,
	chainLock *locks.ReadWriteUpdateLock,
	timeSource *epochtime.Source,

	databaseContext model.DBManager,

	blockValidator model.BlockValidator,
	retargetManager model.RetargetManager,
	softForkManager model.SoftForkManager,
	forgingSchedule model.ForgingSchedule,

	ledger model.Ledger,
	redeemClaims model.RedeemClaims,
	mempool model.Mempool,

	blockStore model.BlockStore,
	chainStateStore model.ChainStateStore,

	blockListeners *model.BlockListeners) model.BlockProcessor {

	return &blockProcessor{
		params:         params,
		maxRollback:    chainconfig.MaxRollback(maxRollback),
		forgingSpeedup: forgingSpeedup,

		chainLock:  chainLock,
		timeSource: timeSource,

		databaseContext: databaseContext,

		blockValidator:  blockValidator,
		retargetManager: retargetManager,
		softForkManager: softForkManager,
		forgingSchedule: forgingSchedule,

		ledger:       ledger,
		redeemClaims: redeemClaims,
		mempool:      mempool,

		blockStore:      blockStore,
		chainStateStore: chainStateStore,

		blockListeners: blockListeners,
		blockLogger:    blocklogger.New(),

		backFeeSchedule: transactionBackFees,
	}
}

func transactionBackFees(tx *externalapi.DomainTransaction) [externalapi.BackFeeBuckets]int64 {
	return tx.Kind.BackFees(tx.FeeNQT)
}

// LastBlock returns the tip of the canonical chain
func (bp *blockProcessor) LastBlock() externalapi.DomainBlock {
	lastBlock, _ := bp.lastBlock.Load().(externalapi.DomainBlock)
	return lastBlock
}

// Commitment returns the commitment to the blocks of the canonical chain
func (bp *blockProcessor) Commitment() externalapi.DomainHash {
	return bp.commitment.Load().Hash()
}

// MinRollbackHeight returns the lowest height blocks can be popped off to
// without a full rescan
func (bp *blockProcessor) MinRollbackHeight() int32 {
	return max(bp.LastBlock().Height()-bp.maxRollback, 0)
}

// underWriteTier runs f with the chain lock upgraded to the write tier.
// Everything that changes the ledger, the redeemed claims or the tip runs
// inside it, so readers never see them out of step.
func (bp *blockProcessor) underWriteTier(f func() error) error {
	bp.chainLock.Upgrade()
	defer bp.chainLock.Downgrade()

	return f()
}

// rollbackState drops the ledger and the redeemed claims back to height.
// The caller holds the write tier.
func (bp *blockProcessor) rollbackState(height int32) error {
	err := bp.ledger.RollbackTo(height)
	if err != nil {
		return err
	}
	return bp.redeemClaims.RollbackTo(height)
}

// commitAndPublish commits stagingArea and publishes the new tip. The
// caller holds the write tier.
func (bp *blockProcessor) commitAndPublish(stagingArea *model.StagingArea, lastBlock externalapi.DomainBlock,
	commitment *chaincommitment.Commitment) error {

	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		return err
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	bp.lastBlock.Store(lastBlock)
	bp.commitment.Store(commitment)
	return nil
}

func (bp *blockProcessor) stageChainState(stagingArea *model.StagingArea, lastBlock externalapi.DomainBlock,
	commitment *chaincommitment.Commitment) {

	bp.chainStateStore.Stage(stagingArea, &model.ChainState{
		LastBlockID: lastBlock.ID(),
		Commitment:  commitment.Serialize(),
	})
}

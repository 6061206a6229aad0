package retargetmanager

import (
	"math/big"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
)

// retargetManager computes the base target and cumulative difficulty of
// every block from its ancestors
type retargetManager struct {
	databaseContext model.DBReader
	blockStore      model.BlockStore
	params          *chainconfig.Params
}

// New instantiates a new RetargetManager
func New(databaseContext model.DBReader, blockStore model.BlockStore, params *chainconfig.Params) model.RetargetManager {
	return &retargetManager{
		databaseContext: databaseContext,
		blockStore:      blockStore,
		params:          params,
	}
}

func (rm *retargetManager) Retargeter(stagingArea *model.StagingArea) blocks.Retargeter {
	return &retargeter{
		retargetManager: rm,
		stagingArea:     stagingArea,
	}
}

type retargeter struct {
	*retargetManager
	stagingArea *model.StagingArea
}

// NextTarget implements blocks.Retargeter
func (r *retargeter) NextTarget(parent externalapi.DomainBlock, timestamp int32) (int64, *big.Int, error) {
	if parent == nil {
		return r.params.InitialBaseTarget, new(big.Int), nil
	}

	baseTarget := parent.BaseTarget()
	if IsRetargetHeight(parent.Height()) {
		ancestor, err := r.blockStore.BlockAtHeight(r.databaseContext, r.stagingArea, parent.Height()-2)
		if err != nil {
			return 0, nil, err
		}
		baseTarget = NextBaseTarget(r.params, parent.BaseTarget(), timestamp, ancestor.Timestamp())
		log.Tracef("Retargeted at height %d: base target %d -> %d", parent.Height()+1,
			parent.BaseTarget(), baseTarget)
	}

	cumulativeDifficulty := new(big.Int).Add(parent.CumulativeDifficulty(),
		targetmath.CumulativeDifficultyIncrement(baseTarget))
	return baseTarget, cumulativeDifficulty, nil
}

// IsRetargetHeight returns whether the child of a block at parentHeight
// gets a new base target. Other blocks inherit the base target of their
// parent.
func IsRetargetHeight(parentHeight int32) bool {
	return parentHeight > 2 && parentHeight%2 == 0
}

// NextBaseTarget returns the base target of a block with the given
// timestamp whose parent has previousBaseTarget, where ancestorTimestamp is
// the timestamp of the block two below the parent. The arithmetic wraps
// like the deployed chain's, and a wrapped result snaps to MaxBaseTarget2.
func NextBaseTarget(params *chainconfig.Params, previousBaseTarget int64, timestamp int32,
	ancestorTimestamp int32) int64 {

	blockTimeAverage := int64((timestamp - ancestorTimestamp) / 3)

	var baseTarget int64
	if blockTimeAverage > params.TargetBlockTime {
		baseTarget = previousBaseTarget * min(blockTimeAverage, params.MaxBlockTimeLimit) / params.TargetBlockTime
	} else {
		baseTarget = previousBaseTarget - previousBaseTarget*params.BaseTargetGamma*
			(params.TargetBlockTime-max(blockTimeAverage, params.MinBlockTimeLimit))/6000
	}

	if baseTarget < 0 || baseTarget > params.MaxBaseTarget2 {
		baseTarget = params.MaxBaseTarget2
	}
	if baseTarget < params.MinBaseTarget {
		baseTarget = params.MinBaseTarget
	}
	return baseTarget
}

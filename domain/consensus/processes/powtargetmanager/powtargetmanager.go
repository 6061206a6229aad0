package powtargetmanager

import (
	"math/big"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/lrucache"
)

const (
	closedWorksWindow = 10
	minPowCacheSize   = 50
	powCountCacheSize = 100
)

type powCountKey struct {
	blockID externalapi.BlockID
	workID  externalapi.WorkID
}

type powTargetManager struct {
	databaseContext model.DBReader
	blockStore      model.BlockStore
	workRegistry    model.WorkRegistry
	params          *chainconfig.Params

	minPowTargetCache *lrucache.LRUCache[externalapi.BlockID, *big.Int]
	powCountCache     *lrucache.LRUCache[powCountKey, int]
}

// New instantiates a new PowTargetManager
func New(databaseContext model.DBReader, blockStore model.BlockStore, workRegistry model.WorkRegistry,
	params *chainconfig.Params) model.PowTargetManager {

	return &powTargetManager{
		databaseContext:   databaseContext,
		blockStore:        blockStore,
		workRegistry:      workRegistry,
		params:            params,
		minPowTargetCache: lrucache.New[externalapi.BlockID, *big.Int](minPowCacheSize),
		powCountCache:     lrucache.New[powCountKey, int](powCountCacheSize),
	}
}

// MinPowTarget returns the largest minimum PoW target of the last closed
// works, or LeastPossibleTarget when no work was closed yet. Results are
// cached per last block since closing a work takes a block.
func (pm *powTargetManager) MinPowTarget(lastBlockID externalapi.BlockID) (*big.Int, error) {
	if cached, ok := pm.minPowTargetCache.Get(lastBlockID); ok {
		return new(big.Int).Set(cached), nil
	}

	targets, err := pm.workRegistry.LastClosedMinPowTargets(closedWorksWindow)
	if err != nil {
		return nil, err
	}

	var minPowTarget *big.Int
	if len(targets) == 0 {
		minPowTarget = new(big.Int).Set(pm.params.LeastPossibleTarget)
	} else {
		minPowTarget = new(big.Int)
		for _, target := range targets {
			if target.Cmp(minPowTarget) > 0 {
				minPowTarget.Set(target)
			}
		}
	}

	pm.minPowTargetCache.Add(lastBlockID, minPowTarget)
	return new(big.Int).Set(minPowTarget), nil
}

func (pm *powTargetManager) PowCount(stagingArea *model.StagingArea, blockID externalapi.BlockID,
	workID externalapi.WorkID) (int, error) {

	key := powCountKey{blockID: blockID, workID: workID}
	if count, ok := pm.powCountCache.Get(key); ok {
		return count, nil
	}

	block, err := pm.blockStore.Block(pm.databaseContext, stagingArea, blockID)
	if err != nil {
		return 0, err
	}
	count := blocks.PowCounts(block.Transactions())[workID]
	pm.powCountCache.Add(key, count)
	return count, nil
}

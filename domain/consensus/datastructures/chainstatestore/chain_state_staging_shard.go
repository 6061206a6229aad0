package chainstatestore

import (
	"github.com/xelnet/xeld/domain/consensus/model"
)

type chainStateStagingShard struct {
	store            *chainStateStore
	chainStateStaged *model.ChainState
}

func (css *chainStateStore) stagingShard(stagingArea *model.StagingArea) *chainStateStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDChainState, func() model.StagingShard {
		return &chainStateStagingShard{
			store:            css,
			chainStateStaged: nil,
		}
	}).(*chainStateStagingShard)
}

func (csss *chainStateStagingShard) Commit(dbTx model.DBTransaction) error {
	if csss.chainStateStaged == nil {
		return nil
	}

	err := dbTx.Put(chainStateKey, csss.store.serializeChainState(csss.chainStateStaged))
	if err != nil {
		return err
	}
	csss.store.cacheLock.Lock()
	csss.store.cache = cloneChainState(csss.chainStateStaged)
	csss.store.cacheLock.Unlock()
	return nil
}

func (csss *chainStateStagingShard) isStaged() bool {
	return csss.chainStateStaged != nil
}

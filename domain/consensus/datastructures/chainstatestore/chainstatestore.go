package chainstatestore

import (
	"sync"

	"github.com/xelnet/xeld/domain/consensus/database"
	"github.com/xelnet/xeld/domain/consensus/database/serialization"
	"github.com/xelnet/xeld/domain/consensus/model"
)

var chainStateKey = database.MakeBucket(nil).Key([]byte("chain-state"))

// chainStateStore represents a store for the chain state
type chainStateStore struct {
	cacheLock sync.Mutex
	cache     *model.ChainState
}

// New instantiates a new ChainStateStore
func New() model.ChainStateStore {
	return &chainStateStore{}
}

// Stage stages the given chain state
func (css *chainStateStore) Stage(stagingArea *model.StagingArea, chainState *model.ChainState) {
	css.stagingShard(stagingArea).chainStateStaged = cloneChainState(chainState)
}

func (css *chainStateStore) IsStaged(stagingArea *model.StagingArea) bool {
	return css.stagingShard(stagingArea).isStaged()
}

// ChainState returns the current chain state
func (css *chainStateStore) ChainState(dbContext model.DBReader,
	stagingArea *model.StagingArea) (*model.ChainState, error) {

	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.chainStateStaged != nil {
		return cloneChainState(stagingShard.chainStateStaged), nil
	}

	css.cacheLock.Lock()
	defer css.cacheLock.Unlock()

	if css.cache != nil {
		return cloneChainState(css.cache), nil
	}

	chainStateBytes, err := dbContext.Get(chainStateKey)
	if err != nil {
		return nil, err
	}
	chainState, err := css.deserializeChainState(chainStateBytes)
	if err != nil {
		return nil, err
	}
	css.cache = chainState
	return cloneChainState(chainState), nil
}

// HasChainState returns whether a chain state was ever stored
func (css *chainStateStore) HasChainState(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	if css.stagingShard(stagingArea).isStaged() {
		return true, nil
	}

	css.cacheLock.Lock()
	cached := css.cache != nil
	css.cacheLock.Unlock()
	if cached {
		return true, nil
	}

	return dbContext.Has(chainStateKey)
}

func (css *chainStateStore) serializeChainState(chainState *model.ChainState) []byte {
	return serialization.ChainStateToDBChainStateBytes(chainState.LastBlockID, chainState.Commitment)
}

func (css *chainStateStore) deserializeChainState(chainStateBytes []byte) (*model.ChainState, error) {
	lastBlockID, commitment, err := serialization.DBChainStateBytesToChainState(chainStateBytes)
	if err != nil {
		return nil, err
	}
	return &model.ChainState{LastBlockID: lastBlockID, Commitment: commitment}, nil
}

func cloneChainState(chainState *model.ChainState) *model.ChainState {
	commitment := make([]byte, len(chainState.Commitment))
	copy(commitment, chainState.Commitment)
	return &model.ChainState{LastBlockID: chainState.LastBlockID, Commitment: commitment}
}

package model

import "github.com/xelnet/xeld/domain/consensus/model/externalapi"

// ChainState is the persisted pointer to the canonical chain
type ChainState struct {
	LastBlockID externalapi.BlockID
	Commitment  []byte
}

// ChainStateStore represents a store for the ChainState
type ChainStateStore interface {
	Stage(stagingArea *StagingArea, chainState *ChainState)
	IsStaged(stagingArea *StagingArea) bool
	ChainState(dbContext DBReader, stagingArea *StagingArea) (*ChainState, error)
	HasChainState(dbContext DBReader, stagingArea *StagingArea) (bool, error)
}

package model

import "github.com/xelnet/xeld/domain/consensus/model/externalapi"

// BlockStore represents a store of the blocks of the canonical chain,
// indexed by id, by height and by the ids of their transactions
type BlockStore interface {
	Stage(stagingArea *StagingArea, block externalapi.DomainBlock)
	IsStaged(stagingArea *StagingArea) bool
	Delete(stagingArea *StagingArea, block externalapi.DomainBlock)
	PatchNextBlockID(dbContext DBReader, stagingArea *StagingArea, blockID externalapi.BlockID,
		nextBlockID externalapi.BlockID) error
	Block(dbContext DBReader, stagingArea *StagingArea, blockID externalapi.BlockID) (externalapi.DomainBlock, error)
	HasBlock(dbContext DBReader, stagingArea *StagingArea, blockID externalapi.BlockID) (bool, error)
	BlockIDAtHeight(dbContext DBReader, stagingArea *StagingArea, height int32) (externalapi.BlockID, error)
	BlockAtHeight(dbContext DBReader, stagingArea *StagingArea, height int32) (externalapi.DomainBlock, error)
	BlockIDsFromHeight(dbContext DBReader, height int32, limit int) ([]externalapi.BlockID, error)
	HasTransaction(dbContext DBReader, stagingArea *StagingArea, transactionID externalapi.TransactionID) (bool, error)
	DeleteAll(dbContext DBReader, stagingArea *StagingArea) error
}

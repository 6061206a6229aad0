package blockstore

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/database"
	"github.com/xelnet/xeld/domain/consensus/database/binaryserialization"
	"github.com/xelnet/xeld/domain/consensus/database/serialization"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/lrucache"
)

var bucket = database.MakeBucket([]byte("blocks"))
var heightBucket = database.MakeBucket([]byte("block-ids-by-height"))
var transactionBucket = database.MakeBucket([]byte("block-ids-by-transaction"))

// blockStore represents a store of blocks
type blockStore struct {
	blockCache  *lrucache.LRUCache[externalapi.BlockID, externalapi.DomainBlock]
	heightCache *lrucache.LRUCache[int32, externalapi.BlockID]
}

// New instantiates a new BlockStore
func New(cacheSize int) model.BlockStore {
	return &blockStore{
		blockCache:  lrucache.New[externalapi.BlockID, externalapi.DomainBlock](cacheSize),
		heightCache: lrucache.New[int32, externalapi.BlockID](cacheSize),
	}
}

// Stage stages the given block. Staging a block that is already stored
// replaces it, which is how its NextBlockID is patched.
func (bs *blockStore) Stage(stagingArea *model.StagingArea, block externalapi.DomainBlock) {
	stagingShard := bs.stagingShard(stagingArea)

	blockID := block.ID()
	delete(stagingShard.toDelete, blockID)
	stagingShard.toAdd[blockID] = block

	delete(stagingShard.heightsToDelete, block.Height())
	stagingShard.heightsToAdd[block.Height()] = blockID

	for _, tx := range block.Transactions() {
		transactionID := consensushashing.TransactionID(tx)
		delete(stagingShard.transactionsToDelete, transactionID)
		stagingShard.transactionsToAdd[transactionID] = blockID
	}
}

func (bs *blockStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bs.stagingShard(stagingArea).isStaged()
}

// Delete deletes the given block together with its height and transaction
// index entries
func (bs *blockStore) Delete(stagingArea *model.StagingArea, block externalapi.DomainBlock) {
	stagingShard := bs.stagingShard(stagingArea)

	blockID := block.ID()
	delete(stagingShard.toAdd, blockID)
	stagingShard.toDelete[blockID] = struct{}{}

	if stagedID, ok := stagingShard.heightsToAdd[block.Height()]; !ok || stagedID == blockID {
		delete(stagingShard.heightsToAdd, block.Height())
		stagingShard.heightsToDelete[block.Height()] = struct{}{}
	}

	for _, tx := range block.Transactions() {
		transactionID := consensushashing.TransactionID(tx)
		delete(stagingShard.transactionsToAdd, transactionID)
		stagingShard.transactionsToDelete[transactionID] = struct{}{}
	}
}

// DeleteAll stages the removal of every block
func (bs *blockStore) DeleteAll(_ model.DBReader, stagingArea *model.StagingArea) error {
	stagingShard := bs.stagingShard(stagingArea)
	*stagingShard = blockStagingShard{
		store:                bs,
		deleteAll:            true,
		toAdd:                make(map[externalapi.BlockID]externalapi.DomainBlock),
		toDelete:             make(map[externalapi.BlockID]struct{}),
		heightsToAdd:         make(map[int32]externalapi.BlockID),
		heightsToDelete:      make(map[int32]struct{}),
		transactionsToAdd:    make(map[externalapi.TransactionID]externalapi.BlockID),
		transactionsToDelete: make(map[externalapi.TransactionID]struct{}),
	}
	return nil
}

// PatchNextBlockID stages a copy of the stored block whose NextBlockID is
// nextBlockID
func (bs *blockStore) PatchNextBlockID(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockID externalapi.BlockID, nextBlockID externalapi.BlockID) error {

	block, err := bs.Block(dbContext, stagingArea, blockID)
	if err != nil {
		return err
	}
	stagingShard := bs.stagingShard(stagingArea)
	delete(stagingShard.toDelete, blockID)
	stagingShard.toAdd[blockID] = block.WithNextBlockID(nextBlockID)
	return nil
}

// Block gets the block associated with the given blockID
func (bs *blockStore) Block(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockID externalapi.BlockID) (externalapi.DomainBlock, error) {

	stagingShard := bs.stagingShard(stagingArea)

	if block, ok := stagingShard.toAdd[blockID]; ok {
		return block, nil
	}
	if _, ok := stagingShard.toDelete[blockID]; ok || stagingShard.deleteAll {
		return nil, errors.Wrapf(database.ErrNotFound, "block %s", blockID)
	}

	if block, ok := bs.blockCache.Get(blockID); ok {
		return block, nil
	}

	blockBytes, err := dbContext.Get(bs.blockIDAsKey(blockID))
	if err != nil {
		return nil, err
	}

	block, err := bs.deserializeBlock(blockBytes)
	if err != nil {
		return nil, err
	}
	bs.blockCache.Add(blockID, block)
	return block, nil
}

// HasBlock returns whether a block with a given id exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockID externalapi.BlockID) (bool, error) {

	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[blockID]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[blockID]; ok || stagingShard.deleteAll {
		return false, nil
	}

	if bs.blockCache.Has(blockID) {
		return true, nil
	}

	return dbContext.Has(bs.blockIDAsKey(blockID))
}

// BlockIDAtHeight returns the id of the chain block at height
func (bs *blockStore) BlockIDAtHeight(dbContext model.DBReader, stagingArea *model.StagingArea,
	height int32) (externalapi.BlockID, error) {

	if height < 0 {
		return 0, errors.Wrapf(database.ErrNotFound, "block at height %d", height)
	}

	stagingShard := bs.stagingShard(stagingArea)

	if blockID, ok := stagingShard.heightsToAdd[height]; ok {
		return blockID, nil
	}
	if _, ok := stagingShard.heightsToDelete[height]; ok || stagingShard.deleteAll {
		return 0, errors.Wrapf(database.ErrNotFound, "block at height %d", height)
	}

	if blockID, ok := bs.heightCache.Get(height); ok {
		return blockID, nil
	}

	blockIDBytes, err := dbContext.Get(bs.heightAsKey(height))
	if err != nil {
		return 0, err
	}
	blockID, err := binaryserialization.DeserializeBlockID(blockIDBytes)
	if err != nil {
		return 0, err
	}
	bs.heightCache.Add(height, blockID)
	return blockID, nil
}

// BlockAtHeight returns the chain block at height
func (bs *blockStore) BlockAtHeight(dbContext model.DBReader, stagingArea *model.StagingArea,
	height int32) (externalapi.DomainBlock, error) {

	blockID, err := bs.BlockIDAtHeight(dbContext, stagingArea, height)
	if err != nil {
		return nil, err
	}
	return bs.Block(dbContext, stagingArea, blockID)
}

// BlockIDsFromHeight returns the ids of at most limit committed chain
// blocks, starting at height
func (bs *blockStore) BlockIDsFromHeight(dbContext model.DBReader, height int32,
	limit int) ([]externalapi.BlockID, error) {

	if height < 0 {
		height = 0
	}
	cursor, err := dbContext.Cursor(heightBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	err = cursor.Seek(bs.heightAsKey(height))
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var blockIDs []externalapi.BlockID
	for len(blockIDs) < limit {
		blockIDBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		blockID, err := binaryserialization.DeserializeBlockID(blockIDBytes)
		if err != nil {
			return nil, err
		}
		blockIDs = append(blockIDs, blockID)
		if !cursor.Next() {
			break
		}
	}
	return blockIDs, nil
}

// HasTransaction returns whether a stored block contains the given
// transaction
func (bs *blockStore) HasTransaction(dbContext model.DBReader, stagingArea *model.StagingArea,
	transactionID externalapi.TransactionID) (bool, error) {

	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.transactionsToAdd[transactionID]; ok {
		return true, nil
	}
	if _, ok := stagingShard.transactionsToDelete[transactionID]; ok || stagingShard.deleteAll {
		return false, nil
	}

	return dbContext.Has(bs.transactionIDAsKey(transactionID))
}

func (bs *blockStore) serializeBlock(block externalapi.DomainBlock) []byte {
	return serialization.DomainBlockToDBBlockBytes(block)
}

func (bs *blockStore) deserializeBlock(blockBytes []byte) (externalapi.DomainBlock, error) {
	return serialization.DBBlockBytesToDomainBlock(blockBytes)
}

func (bs *blockStore) blockIDAsKey(blockID externalapi.BlockID) model.DBKey {
	return bucket.Key(binaryserialization.SerializeBlockID(blockID))
}

func (bs *blockStore) heightAsKey(height int32) model.DBKey {
	return heightBucket.Key(binaryserialization.SerializeHeight(height))
}

func (bs *blockStore) transactionIDAsKey(transactionID externalapi.TransactionID) model.DBKey {
	return transactionBucket.Key(binaryserialization.SerializeTransactionID(transactionID))
}

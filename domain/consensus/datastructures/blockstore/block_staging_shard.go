package blockstore

import (
	"github.com/xelnet/xeld/domain/consensus/database/binaryserialization"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

type blockStagingShard struct {
	store *blockStore

	deleteAll bool

	toAdd    map[externalapi.BlockID]externalapi.DomainBlock
	toDelete map[externalapi.BlockID]struct{}

	heightsToAdd    map[int32]externalapi.BlockID
	heightsToDelete map[int32]struct{}

	transactionsToAdd    map[externalapi.TransactionID]externalapi.BlockID
	transactionsToDelete map[externalapi.TransactionID]struct{}
}

func (bs *blockStore) stagingShard(stagingArea *model.StagingArea) *blockStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDBlock, func() model.StagingShard {
		return &blockStagingShard{
			store:                bs,
			toAdd:                make(map[externalapi.BlockID]externalapi.DomainBlock),
			toDelete:             make(map[externalapi.BlockID]struct{}),
			heightsToAdd:         make(map[int32]externalapi.BlockID),
			heightsToDelete:      make(map[int32]struct{}),
			transactionsToAdd:    make(map[externalapi.TransactionID]externalapi.BlockID),
			transactionsToDelete: make(map[externalapi.TransactionID]struct{}),
		}
	}).(*blockStagingShard)
}

func (bss *blockStagingShard) Commit(dbTx model.DBTransaction) error {
	if bss.deleteAll {
		for _, bucket := range []model.DBBucket{bucket, heightBucket, transactionBucket} {
			err := deleteBucket(dbTx, bucket)
			if err != nil {
				return err
			}
		}
		bss.store.blockCache.Clear()
		bss.store.heightCache.Clear()
	}

	for blockID := range bss.toDelete {
		err := dbTx.Delete(bss.store.blockIDAsKey(blockID))
		if err != nil {
			return err
		}
		bss.store.blockCache.Remove(blockID)
	}
	for height := range bss.heightsToDelete {
		err := dbTx.Delete(bss.store.heightAsKey(height))
		if err != nil {
			return err
		}
		bss.store.heightCache.Remove(height)
	}
	for transactionID := range bss.transactionsToDelete {
		err := dbTx.Delete(bss.store.transactionIDAsKey(transactionID))
		if err != nil {
			return err
		}
	}

	for blockID, block := range bss.toAdd {
		err := dbTx.Put(bss.store.blockIDAsKey(blockID), bss.store.serializeBlock(block))
		if err != nil {
			return err
		}
		bss.store.blockCache.Add(blockID, block)
	}
	for height, blockID := range bss.heightsToAdd {
		err := dbTx.Put(bss.store.heightAsKey(height), binaryserialization.SerializeBlockID(blockID))
		if err != nil {
			return err
		}
		bss.store.heightCache.Add(height, blockID)
	}
	for transactionID, blockID := range bss.transactionsToAdd {
		err := dbTx.Put(bss.store.transactionIDAsKey(transactionID), binaryserialization.SerializeBlockID(blockID))
		if err != nil {
			return err
		}
	}

	return nil
}

func (bss *blockStagingShard) isStaged() bool {
	return bss.deleteAll ||
		len(bss.toAdd) != 0 ||
		len(bss.toDelete) != 0 ||
		len(bss.heightsToAdd) != 0 ||
		len(bss.heightsToDelete) != 0 ||
		len(bss.transactionsToAdd) != 0 ||
		len(bss.transactionsToDelete) != 0
}

func deleteBucket(dbTx model.DBTransaction, bucket model.DBBucket) error {
	cursor, err := dbTx.Cursor(bucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	var keys []model.DBKey
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return err
		}
		suffix := make([]byte, len(key.Suffix()))
		copy(suffix, key.Suffix())
		keys = append(keys, bucket.Key(suffix))
	}

	for _, key := range keys {
		err := dbTx.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

package forkvotestore

import (
	"github.com/xelnet/xeld/domain/consensus/database/binaryserialization"
	"github.com/xelnet/xeld/domain/consensus/database/serialization"
	"github.com/xelnet/xeld/domain/consensus/model"
)

type forkVoteKey struct {
	feature int
	height  int32
}

type forkVoteStagingShard struct {
	store *forkVoteStore

	toAdd map[forkVoteKey]int32

	hasDeleteAbove bool
	deleteAbove    int32
}

func (fvs *forkVoteStore) stagingShard(stagingArea *model.StagingArea) *forkVoteStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDForkVote, func() model.StagingShard {
		return &forkVoteStagingShard{
			store: fvs,
			toAdd: make(map[forkVoteKey]int32),
		}
	}).(*forkVoteStagingShard)
}

func (fvss *forkVoteStagingShard) Commit(dbTx model.DBTransaction) error {
	if !fvss.isStaged() {
		return nil
	}

	if fvss.hasDeleteAbove {
		for feature := 0; feature < NumberOfFeatures; feature++ {
			err := fvss.deleteFeatureAbove(dbTx, feature)
			if err != nil {
				return err
			}
		}
	}

	for key, count := range fvss.toAdd {
		err := dbTx.Put(fvss.store.forkVoteAsKey(key.feature, key.height),
			serialization.ForkVoteCountToDBForkVoteBytes(count))
		if err != nil {
			return err
		}
	}

	fvss.store.cache.Clear()
	return nil
}

func (fvss *forkVoteStagingShard) deleteFeatureAbove(dbTx model.DBTransaction, feature int) error {
	featureBucket := fvss.store.featureBucket(feature)
	cursor, err := dbTx.Cursor(featureBucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	// Entries are ordered from the highest height down.
	var keys []model.DBKey
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return err
		}
		height, err := binaryserialization.DeserializeDescendingHeight(key.Suffix())
		if err != nil {
			return err
		}
		if height <= fvss.deleteAbove {
			break
		}
		keys = append(keys, fvss.store.forkVoteAsKey(feature, height))
	}

	for _, key := range keys {
		err := dbTx.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

func (fvss *forkVoteStagingShard) isStaged() bool {
	return fvss.hasDeleteAbove || len(fvss.toAdd) != 0
}

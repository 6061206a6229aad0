package forkvotestore

import (
	"github.com/xelnet/xeld/domain/consensus/database"
	"github.com/xelnet/xeld/domain/consensus/database/binaryserialization"
	"github.com/xelnet/xeld/domain/consensus/database/serialization"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/utils/lrucache"
)

// NumberOfFeatures is the number of soft-fork feature slots
const NumberOfFeatures = 64

var bucket = database.MakeBucket([]byte("fork-votes"))

// forkVoteStore represents a store of soft-fork vote counts versioned by
// height
type forkVoteStore struct {
	cache *lrucache.LRUCache[forkVoteKey, storedEntry]
}

type storedEntry struct {
	height int32
	count  int32
	found  bool
}

// New instantiates a new ForkVoteStore
func New(cacheSize int) model.ForkVoteStore {
	return &forkVoteStore{
		cache: lrucache.New[forkVoteKey, storedEntry](cacheSize),
	}
}

// StageCount stages the count of feature at height
func (fvs *forkVoteStore) StageCount(stagingArea *model.StagingArea, feature int, height int32, count int32) {
	fvs.stagingShard(stagingArea).toAdd[forkVoteKey{feature: feature, height: height}] = count
}

func (fvs *forkVoteStore) IsStaged(stagingArea *model.StagingArea) bool {
	return fvs.stagingShard(stagingArea).isStaged()
}

// DeleteAbove stages the removal of every entry above height
func (fvs *forkVoteStore) DeleteAbove(stagingArea *model.StagingArea, height int32) {
	stagingShard := fvs.stagingShard(stagingArea)
	if !stagingShard.hasDeleteAbove || height < stagingShard.deleteAbove {
		stagingShard.hasDeleteAbove = true
		stagingShard.deleteAbove = height
	}
	for key := range stagingShard.toAdd {
		if key.height > height {
			delete(stagingShard.toAdd, key)
		}
	}
}

// Count returns the latest count of feature at or below height
func (fvs *forkVoteStore) Count(dbContext model.DBReader, stagingArea *model.StagingArea,
	feature int, height int32) (int32, error) {

	stagingShard := fvs.stagingShard(stagingArea)

	stagedHeight := int32(-1)
	stagedCount := int32(0)
	for key, count := range stagingShard.toAdd {
		if key.feature == feature && key.height <= height && key.height > stagedHeight {
			stagedHeight = key.height
			stagedCount = count
		}
	}
	if stagedHeight == height {
		return stagedCount, nil
	}

	dbHeight := height
	if stagingShard.hasDeleteAbove && stagingShard.deleteAbove < dbHeight {
		dbHeight = stagingShard.deleteAbove
	}
	if dbHeight <= stagedHeight {
		return stagedCount, nil
	}

	storedHeight, storedCount, found, err := fvs.storedCount(dbContext, feature, dbHeight)
	if err != nil {
		return 0, err
	}
	if !found || storedHeight <= stagedHeight {
		return stagedCount, nil
	}
	return storedCount, nil
}

func (fvs *forkVoteStore) storedCount(dbContext model.DBReader, feature int, height int32) (
	storedHeight int32, count int32, found bool, err error) {

	cacheKey := forkVoteKey{feature: feature, height: height}
	if entry, ok := fvs.cache.Get(cacheKey); ok {
		return entry.height, entry.count, entry.found, nil
	}

	entry, err := fvs.seekCount(dbContext, feature, height)
	if err != nil {
		return 0, 0, false, err
	}
	fvs.cache.Add(cacheKey, entry)
	return entry.height, entry.count, entry.found, nil
}

func (fvs *forkVoteStore) seekCount(dbContext model.DBReader, feature int, height int32) (storedEntry, error) {
	cursor, err := dbContext.Cursor(fvs.featureBucket(feature))
	if err != nil {
		return storedEntry{}, err
	}
	defer cursor.Close()

	err = cursor.Seek(fvs.forkVoteAsKey(feature, height))
	if database.IsNotFoundError(err) {
		return storedEntry{}, nil
	}
	if err != nil {
		return storedEntry{}, err
	}

	key, err := cursor.Key()
	if err != nil {
		return storedEntry{}, err
	}
	storedHeight, err := binaryserialization.DeserializeDescendingHeight(key.Suffix())
	if err != nil {
		return storedEntry{}, err
	}
	countBytes, err := cursor.Value()
	if err != nil {
		return storedEntry{}, err
	}
	count, err := serialization.DBForkVoteBytesToForkVoteCount(countBytes)
	if err != nil {
		return storedEntry{}, err
	}
	return storedEntry{height: storedHeight, count: count, found: true}, nil
}

func (fvs *forkVoteStore) featureBucket(feature int) model.DBBucket {
	return bucket.Bucket([]byte{byte(feature)})
}

func (fvs *forkVoteStore) forkVoteAsKey(feature int, height int32) model.DBKey {
	return fvs.featureBucket(feature).Key(binaryserialization.SerializeDescendingHeight(height))
}

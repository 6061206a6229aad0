package forkvotestore

import (
	"testing"

	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
)

func requireCount(t *testing.T, store model.ForkVoteStore, dbContext model.DBReader,
	stagingArea *model.StagingArea, feature int, height int32, expected int32) {

	t.Helper()
	count, err := store.Count(dbContext, stagingArea, feature, height)
	if err != nil {
		t.Fatalf("Count: %+v", err)
	}
	if count != expected {
		t.Fatalf("Count(%d, %d): expected %d, got %d", feature, height, expected, count)
	}
}

func TestForkVoteStoreLatestAtOrBelow(t *testing.T) {
	dbManager := testutils.NewTestDB(t)
	store := New(100)

	stagingArea := model.NewStagingArea()
	store.StageCount(stagingArea, 3, 5, 1)
	store.StageCount(stagingArea, 3, 9, 2)
	store.StageCount(stagingArea, 4, 7, 6)
	requireCount(t, store, dbManager, stagingArea, 3, 8, 1)
	testutils.CommitStagingArea(t, dbManager, stagingArea)

	readArea := model.NewStagingArea()
	requireCount(t, store, dbManager, readArea, 3, 4, 0)
	requireCount(t, store, dbManager, readArea, 3, 5, 1)
	requireCount(t, store, dbManager, readArea, 3, 8, 1)
	requireCount(t, store, dbManager, readArea, 3, 9, 2)
	requireCount(t, store, dbManager, readArea, 3, 1000, 2)
	requireCount(t, store, dbManager, readArea, 4, 1000, 6)
	requireCount(t, store, dbManager, readArea, 5, 1000, 0)
	requireCount(t, store, dbManager, readArea, 3, -1, 0)

	// A staged entry below the latest stored one does not hide it
	nextArea := model.NewStagingArea()
	store.StageCount(nextArea, 3, 12, 3)
	requireCount(t, store, dbManager, nextArea, 3, 11, 2)
	requireCount(t, store, dbManager, nextArea, 3, 12, 3)
	requireCount(t, store, dbManager, nextArea, 3, 20, 3)
}

func TestForkVoteStoreDeleteAbove(t *testing.T) {
	dbManager := testutils.NewTestDB(t)
	store := New(100)

	stagingArea := model.NewStagingArea()
	for height := int32(1); height <= 10; height++ {
		store.StageCount(stagingArea, 0, height, height)
	}
	testutils.CommitStagingArea(t, dbManager, stagingArea)
	requireCount(t, store, dbManager, model.NewStagingArea(), 0, 10, 10)

	rollbackArea := model.NewStagingArea()
	store.DeleteAbove(rollbackArea, 6)
	requireCount(t, store, dbManager, rollbackArea, 0, 10, 6)
	store.StageCount(rollbackArea, 0, 7, 100)
	requireCount(t, store, dbManager, rollbackArea, 0, 10, 100)
	requireCount(t, store, dbManager, rollbackArea, 0, 6, 6)
	testutils.CommitStagingArea(t, dbManager, rollbackArea)

	readArea := model.NewStagingArea()
	requireCount(t, store, dbManager, readArea, 0, 10, 100)
	requireCount(t, store, dbManager, readArea, 0, 6, 6)

	resetArea := model.NewStagingArea()
	store.DeleteAbove(resetArea, -1)
	requireCount(t, store, dbManager, resetArea, 0, 10, 0)
	testutils.CommitStagingArea(t, dbManager, resetArea)
	requireCount(t, store, dbManager, model.NewStagingArea(), 0, 10, 0)
}

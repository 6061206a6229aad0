package chainstatestore

import (
	"bytes"
	"testing"

	"github.com/xelnet/xeld/domain/consensus/database"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
)

func TestChainStateStore(t *testing.T) {
	dbManager := testutils.NewTestDB(t)
	store := New()

	readArea := model.NewStagingArea()
	has, err := store.HasChainState(dbManager, readArea)
	if err != nil {
		t.Fatalf("HasChainState: %+v", err)
	}
	if has {
		t.Fatalf("HasChainState: expected an empty store")
	}
	_, err = store.ChainState(dbManager, readArea)
	if !database.IsNotFoundError(err) {
		t.Fatalf("ChainState: expected ErrNotFound, got %v", err)
	}

	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, &model.ChainState{LastBlockID: 42, Commitment: []byte{1, 2, 3}})
	testutils.CommitStagingArea(t, dbManager, stagingArea)

	for _, s := range []model.ChainStateStore{store, New()} {
		chainState, err := s.ChainState(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("ChainState: %+v", err)
		}
		if chainState.LastBlockID != 42 || !bytes.Equal(chainState.Commitment, []byte{1, 2, 3}) {
			t.Fatalf("ChainState: unexpected %+v", chainState)
		}
		chainState.Commitment[0] = 9
	}

	chainState, err := store.ChainState(dbManager, model.NewStagingArea())
	if err != nil {
		t.Fatalf("ChainState: %+v", err)
	}
	if chainState.Commitment[0] != 1 {
		t.Fatalf("ChainState: the cached state was modified through a returned copy")
	}
}

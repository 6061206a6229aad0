package testutils

import (
	"testing"

	"github.com/xelnet/xeld/domain/consensus/database"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/infrastructure/db/database/ldb"
)

// NewTestDB opens a LevelDB database in a temporary directory that is
// removed when the test ends.
func NewTestDB(t testing.TB) model.DBManager {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	dbManager := database.New(db)
	t.Cleanup(func() {
		err := dbManager.Close()
		if err != nil {
			t.Errorf("Close: %+v", err)
		}
	})
	return dbManager
}

// CommitStagingArea commits stagingArea to dbManager in a single
// transaction.
func CommitStagingArea(t testing.TB, dbManager model.DBManager, stagingArea *model.StagingArea) {
	dbTx, err := dbManager.Begin()
	if err != nil {
		t.Fatalf("Begin: %+v", err)
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		t.Fatalf("Commit staging area: %+v", err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("Commit transaction: %+v", err)
	}
}

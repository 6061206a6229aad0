package app

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/processes/softforkmanager"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
	"github.com/xelnet/xeld/infrastructure/config"
	"github.com/xelnet/xeld/infrastructure/db/database/ldb"
)

func newTestConfig(t *testing.T, forgingKeys ...*signing.PrivateKey) *config.Config {
	cfg := &config.Config{
		Flags: &config.Flags{
			DbType:         "leveldb",
			DbCacheSize:    8,
			MaxRollback:    chainconfig.DefaultMaxRollback,
			ForgingDelay:   20,
			ForgingSpeedup: 3,
			MaxForgers:     10,
			NetworkFlags:   config.NetworkFlags{Testnet: true},
		},
		DataDir:     t.TempDir(),
		ForgingKeys: forgingKeys,
	}
	cfg.ResolveNetwork()
	return cfg
}

func TestDatabaseVersion(t *testing.T) {
	path := t.TempDir()

	exists, err := checkDatabaseVersion(path, "leveldb")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, createDatabaseVersionFile(path, "leveldb"))
	exists, err = checkDatabaseVersion(path, "leveldb")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = checkDatabaseVersion(path, "pebble")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(versionFilePath(path), []byte("7 leveldb"), 0600))
	_, err = checkDatabaseVersion(path, "leveldb")
	require.Error(t, err)

	// Version files without a backend predate the backend choice
	require.NoError(t, os.WriteFile(versionFilePath(path), []byte("1"), 0600))
	exists, err = checkDatabaseVersion(path, "pebble")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestOpenDB(t *testing.T) {
	for _, dbType := range []string{"leveldb", "pebble"} {
		t.Run(dbType, func(t *testing.T) {
			cfg := newTestConfig(t)
			cfg.DbType = dbType

			db, err := openDB(cfg)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			cfg.DbType = map[string]string{"leveldb": "pebble", "pebble": "leveldb"}[dbType]
			_, err = openDB(cfg)
			require.Error(t, err, "a database must not be opened by the other backend")
		})
	}
}

func TestComponentManagerStartsForgingKeys(t *testing.T) {
	key := testutils.NewTestKey(t)
	cfg := newTestConfig(t, key)

	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	defer db.Close()

	componentManager, err := NewComponentManager(cfg, db)
	require.NoError(t, err)

	chain := componentManager.Domain().Consensus()
	require.NoError(t, componentManager.Start())
	_, forging := chain.Generator(key.AccountID())
	require.True(t, forging)

	componentManager.Stop()
	require.Empty(t, chain.Generators())

	// Stopping twice is harmless
	componentManager.Stop()
}

func TestComponentManagerRefusesUnimplementedVotes(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SoftForkVoteMask = 1 << 2

	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	defer db.Close()

	_, err = NewComponentManager(cfg, db)
	require.True(t, errors.Is(err, softforkmanager.ErrUnimplementedFeatureVote), "unexpected error: %+v", err)
}

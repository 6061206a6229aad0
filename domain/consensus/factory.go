package consensus

import (
	"github.com/lightningnetwork/lnd/clock"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/database"
	"github.com/xelnet/xeld/domain/consensus/datastructures/blockstore"
	"github.com/xelnet/xeld/domain/consensus/datastructures/chainstatestore"
	"github.com/xelnet/xeld/domain/consensus/datastructures/forkvotestore"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/processes/activegenerators"
	"github.com/xelnet/xeld/domain/consensus/processes/blockbuilder"
	"github.com/xelnet/xeld/domain/consensus/processes/blockprocessor"
	"github.com/xelnet/xeld/domain/consensus/processes/blockvalidator"
	"github.com/xelnet/xeld/domain/consensus/processes/generatormanager"
	"github.com/xelnet/xeld/domain/consensus/processes/powtargetmanager"
	"github.com/xelnet/xeld/domain/consensus/processes/retargetmanager"
	"github.com/xelnet/xeld/domain/consensus/processes/softforkmanager"
	infrastructuredatabase "github.com/xelnet/xeld/infrastructure/db/database"
	"github.com/xelnet/xeld/infrastructure/logger"
	"github.com/xelnet/xeld/util/epochtime"
	"github.com/xelnet/xeld/util/locks"
)

const (
	defaultBlockCacheSize    = 720
	defaultForkVoteCacheSize = 1000
)

// Config is the configuration of a Consensus
type Config struct {
	Params *chainconfig.Params

	MaxRollback    int32
	ForgingDelay   int32
	ForgingSpeedup int32
	MaxForgers     int

	FakeForging chainconfig.FakeForging
	Offline     bool

	// SoftForkVotes are the features armed by configuration
	SoftForkVotes uint64

	// RedeemClaims is the genesis claim list redeem transactions pay out.
	RedeemClaims []*externalapi.RedeemClaim

	// Clock defaults to the system clock.
	Clock clock.Clock
}

// DefaultConfig returns the default Consensus config for params
func DefaultConfig(params *chainconfig.Params) *Config {
	return &Config{
		Params:         params,
		MaxRollback:    chainconfig.DefaultMaxRollback,
		ForgingDelay:   20,
		ForgingSpeedup: 3,
		MaxForgers:     100,
	}
}

// Collaborators are the services consensus reads stake from and takes
// transactions from
type Collaborators struct {
	Ledger       model.Ledger
	Mempool      model.Mempool
	WorkRegistry model.WorkRegistry
	RedeemClaims model.RedeemClaims
}

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db infrastructuredatabase.Database, collaborators *Collaborators) (Consensus, error)
}

type factory struct{}

// NewConsensus instantiates a new Consensus and loads the chain stored in
// db, adding the genesis block to an empty database
func (f *factory) NewConsensus(config *Config, db infrastructuredatabase.Database,
	collaborators *Collaborators) (Consensus, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "NewConsensus")
	defer onEnd()

	params := config.Params
	dbManager := database.New(db)
	systemClock := config.Clock
	if systemClock == nil {
		systemClock = clock.NewDefaultClock()
	}
	timeSource := epochtime.NewSource(systemClock)
	chainLock := locks.NewReadWriteUpdateLock()
	blockListeners := model.NewBlockListeners()
	generatorListeners := model.NewGeneratorListeners()

	// Data Structures
	blockStore := blockstore.New(defaultBlockCacheSize)
	chainStateStore := chainstatestore.New()
	forkVoteStore := forkvotestore.New(defaultForkVoteCacheSize)

	// Processes
	blockValidator := blockvalidator.New(
		params,
		config.FakeForging,
		config.Offline,

		dbManager,
		collaborators.Ledger,
		collaborators.RedeemClaims,
		blockStore)
	retargetManager := retargetmanager.New(
		dbManager,
		blockStore,
		params)
	softForkManager := softforkmanager.New(
		dbManager,
		blockStore,
		forkVoteStore,
		params,
		config.SoftForkVotes)
	powTargetManager := powtargetmanager.New(
		dbManager,
		blockStore,
		collaborators.WorkRegistry,
		params)
	generatorManager := generatormanager.New(
		params,
		config.MaxForgers,
		config.ForgingDelay,
		config.FakeForging,
		config.Offline,

		collaborators.Ledger,
		timeSource,
		generatorListeners)
	blockProcessor := blockprocessor.New(
		params,
		config.MaxRollback,
		config.ForgingSpeedup,
		chainLock,
		timeSource,
		dbManager,

		blockValidator,
		retargetManager,
		softForkManager,
		generatorManager,

		collaborators.Ledger,
		collaborators.RedeemClaims,
		collaborators.Mempool,

		blockStore,
		chainStateStore,
		blockListeners)
	blockGenerator := blockbuilder.New(
		params,
		blockProcessor,
		softForkManager,
		powTargetManager,
		collaborators.Mempool,
		blockListeners)
	activeGenerators := activegenerators.New(
		dbManager,
		blockStore,
		collaborators.Ledger,
		params,
		config.FakeForging)

	c := &consensus{
		params:          params,
		chainLock:       chainLock,
		timeSource:      timeSource,
		databaseContext: dbManager,

		blockProcessor:   blockProcessor,
		blockGenerator:   blockGenerator,
		softForkManager:  softForkManager,
		generatorManager: generatorManager,
		activeGenerators: activeGenerators,

		ledger:     collaborators.Ledger,
		blockStore: blockStore,

		blockListeners:     blockListeners,
		generatorListeners: generatorListeners,
	}

	err := c.init()
	if err != nil {
		return nil, err
	}
	blockListeners.AddListener(model.BlockEventBlockPushed, activeGenerators.AddBlock)
	blockListeners.AddListener(model.BlockEventRescanEnd, c.reloadActiveGenerators)
	return c, nil
}

// reloadActiveGenerators rebuilds the active generator set after a rescan
// replaced the blocks it was derived from
func (s *consensus) reloadActiveGenerators(lastBlock externalapi.DomainBlock) {
	err := s.activeGenerators.Init(model.NewStagingArea(), lastBlock)
	if err != nil {
		log.Errorf("Could not reload the active generators at height %d: %s", lastBlock.Height(), err)
	}
}

func (s *consensus) init() error {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	err := s.blockProcessor.Init()
	if err != nil {
		return err
	}

	lastBlock := s.blockProcessor.LastBlock()
	stagingArea := model.NewStagingArea()
	err = s.softForkManager.CheckSafety(stagingArea, lastBlock.Height())
	if err != nil {
		return err
	}
	err = s.activeGenerators.Init(stagingArea, lastBlock)
	if err != nil {
		return err
	}
	log.Infof("Chain loaded at height %d, last block %s", lastBlock.Height(), lastBlock.ID())
	return nil
}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

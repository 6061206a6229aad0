package app

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/xelnet/xeld/app/rpc"
	"github.com/xelnet/xeld/domain"
	"github.com/xelnet/xeld/domain/consensus"
	"github.com/xelnet/xeld/infrastructure/config"
	infrastructuredatabase "github.com/xelnet/xeld/infrastructure/db/database"
	"github.com/xelnet/xeld/infrastructure/metrics"
	"github.com/xelnet/xeld/util/panics"
	"golang.org/x/sync/errgroup"
)

// ComponentManager is a wrapper for all the xeld services
type ComponentManager struct {
	cfg        *config.Config
	domain     domain.Domain
	collector  *metrics.Collector
	rpcManager *rpc.Manager

	forgingCancel context.CancelFunc
	forgingGroup  *errgroup.Group

	started, shutdown int32
}

// Start launches all the xeld services.
func (a *ComponentManager) Start() error {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return nil
	}

	log.Trace("Starting xeld")

	chain := a.domain.Consensus()
	for _, key := range a.cfg.ForgingKeys {
		_, err := chain.StartForging(key)
		if err != nil {
			return err
		}
	}

	if a.rpcManager != nil {
		err := a.rpcManager.Start()
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	a.forgingCancel = cancel
	a.forgingGroup = group

	stackTrace := debug.Stack()
	group.Go(func() error {
		defer panics.HandlePanic(log, "consensus.RunForging", stackTrace)
		return consensus.RunForging(ctx, chain, consensus.NewForgingTicker())
	})
	return nil
}

// Stop gracefully shuts down all the xeld services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Xeld is already in the process of shutting down")
		return
	}

	log.Warnf("Xeld shutting down")

	if a.forgingCancel != nil {
		a.forgingCancel()
		err := a.forgingGroup.Wait()
		if err != nil {
			log.Errorf("Error stopping the forging scheduler: %+v", err)
		}
	}

	stopped := a.domain.Consensus().StopAllForging()
	log.Infof("Stopped forging with %d accounts", stopped)

	if a.rpcManager != nil {
		err := a.rpcManager.Stop()
		if err != nil {
			log.Errorf("Error stopping the admin interface: %+v", err)
		}
	}
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := newConsensusConfig(cfg, clock.NewDefaultClock())

	domainInstance, err := domain.New(consensusConfig, db)
	if err != nil {
		return nil, err
	}

	collector := metrics.New(domainInstance.Consensus())

	var rpcManager *rpc.Manager
	if cfg.NodeAdmin {
		rpcManager = rpc.NewManager(cfg.AdminListen, domainInstance, collector)
	}

	return &ComponentManager{
		cfg:        cfg,
		domain:     domainInstance,
		collector:  collector,
		rpcManager: rpcManager,
	}, nil
}

func newConsensusConfig(cfg *config.Config, clock clock.Clock) *consensus.Config {
	consensusConfig := consensus.DefaultConfig(cfg.NetParams())
	consensusConfig.MaxRollback = cfg.MaxRollback
	consensusConfig.ForgingDelay = cfg.ForgingDelay
	consensusConfig.ForgingSpeedup = cfg.ForgingSpeedup
	consensusConfig.MaxForgers = cfg.MaxForgers
	consensusConfig.FakeForging = cfg.FakeForging
	consensusConfig.Offline = cfg.Offline
	consensusConfig.SoftForkVotes = cfg.SoftForkVoteMask
	consensusConfig.RedeemClaims = cfg.RedeemClaims
	consensusConfig.Clock = clock
	return consensusConfig
}

// Domain returns the Domain associated with this ComponentManager
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}

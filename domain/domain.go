package domain

import (
	"math/big"

	"github.com/xelnet/xeld/domain/consensus"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/ledger"
	"github.com/xelnet/xeld/domain/mempool"
	"github.com/xelnet/xeld/domain/redeem"
	"github.com/xelnet/xeld/domain/works"
	infrastructuredatabase "github.com/xelnet/xeld/infrastructure/db/database"
)

// Domain provides a reference to the domain's external aps
type Domain interface {
	Consensus() consensus.Consensus
	Mempool() *mempool.Mempool
	Works() *works.Registry

	// SubmitTransaction verifies tx and queues it for the next forged block
	SubmitTransaction(tx *externalapi.DomainTransaction) error

	// CloseWork records that workID closed at the current height
	CloseWork(workID externalapi.WorkID, minPowTarget *big.Int) error
}

type domain struct {
	consensus consensus.Consensus
	mempool   *mempool.Mempool
	works     *works.Registry
}

func (d *domain) Consensus() consensus.Consensus {
	return d.consensus
}

func (d *domain) Mempool() *mempool.Mempool {
	return d.mempool
}

func (d *domain) Works() *works.Registry {
	return d.works
}

func (d *domain) SubmitTransaction(tx *externalapi.DomainTransaction) error {
	return d.mempool.Add(tx)
}

func (d *domain) CloseWork(workID externalapi.WorkID, minPowTarget *big.Int) error {
	return d.works.Close(workID, d.consensus.Height(), minPowTarget)
}

// New instantiates a new instance of a Domain object, loading the chain stored
// in db
func New(consensusConfig *consensus.Config, db infrastructuredatabase.Database) (Domain, error) {
	ledgerInstance := ledger.New(consensusConfig.Params)
	redeemClaims, err := redeem.New(consensusConfig.RedeemClaims, consensusConfig.Params.MaxBalanceNQT)
	if err != nil {
		return nil, err
	}
	mempoolInstance := mempool.New(mempool.DefaultConfig(consensusConfig.Params, consensusConfig.FakeForging))
	workRegistry := works.New()

	consensusFactory := consensus.NewFactory()
	consensusInstance, err := consensusFactory.NewConsensus(consensusConfig, db, &consensus.Collaborators{
		Ledger:       ledgerInstance,
		Mempool:      mempoolInstance,
		WorkRegistry: workRegistry,
		RedeemClaims: redeemClaims,
	})
	if err != nil {
		return nil, err
	}

	// Works closed by blocks that left the chain are reopened.
	consensusInstance.BlockListeners().AddListener(model.BlockEventBlockPopped, func(block externalapi.DomainBlock) {
		workRegistry.RollbackTo(block.Height() - 1)
	})

	log.Infof("Domain loaded at height %d", consensusInstance.Height())
	return &domain{
		consensus: consensusInstance,
		mempool:   mempoolInstance,
		works:     workRegistry,
	}, nil
}

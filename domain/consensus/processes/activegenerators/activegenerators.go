package activegenerators

import (
	"sort"
	"sync"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
	"github.com/xelnet/xeld/infrastructure/logger"
)

// seedWindow is the number of last blocks whose generators are tracked on
// startup
const seedWindow = 10000

type activeGenerator struct {
	accountID           externalapi.AccountID
	effectiveBalanceNXT int64
	hitTime             int64
}

type activeGeneratorManager struct {
	databaseContext model.DBReader
	blockStore      model.BlockStore
	ledger          model.Ledger
	params          *chainconfig.Params
	fakeForging     chainconfig.FakeForging

	lock        sync.Mutex
	generators  map[externalapi.AccountID]*activeGenerator
	lastBlockID externalapi.BlockID
	sorted      []*activeGenerator
}

// New instantiates a new ActiveGeneratorManager
func New(databaseContext model.DBReader, blockStore model.BlockStore, ledger model.Ledger,
	params *chainconfig.Params, fakeForging chainconfig.FakeForging) model.ActiveGeneratorManager {

	return &activeGeneratorManager{
		databaseContext: databaseContext,
		blockStore:      blockStore,
		ledger:          ledger,
		params:          params,
		fakeForging:     fakeForging,
		generators:      make(map[externalapi.AccountID]*activeGenerator),
	}
}

// Init tracks the generators of the last blocks up to lastBlock
func (agm *activeGeneratorManager) Init(stagingArea *model.StagingArea, lastBlock externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Init")
	defer onEnd()

	agm.lock.Lock()
	defer agm.lock.Unlock()

	agm.generators = make(map[externalapi.AccountID]*activeGenerator)
	agm.lastBlockID = 0
	agm.sorted = nil

	from := max(lastBlock.Height()-seedWindow, 1)
	if from > lastBlock.Height() {
		return nil
	}
	blockIDs, err := agm.blockStore.BlockIDsFromHeight(agm.databaseContext, from, int(lastBlock.Height()-from+1))
	if err != nil {
		return err
	}
	for _, blockID := range blockIDs {
		block, err := agm.blockStore.Block(agm.databaseContext, stagingArea, blockID)
		if err != nil {
			return err
		}
		agm.track(block.GeneratorID())
	}
	log.Debugf("Tracking %d active generators from height %d", len(agm.generators), from)
	return nil
}

// AddBlock tracks the generator of a pushed block
func (agm *activeGeneratorManager) AddBlock(block externalapi.DomainBlock) {
	agm.lock.Lock()
	defer agm.lock.Unlock()

	if agm.track(block.GeneratorID()) {
		agm.sorted = nil
	}
}

func (agm *activeGeneratorManager) track(accountID externalapi.AccountID) bool {
	if _, ok := agm.generators[accountID]; ok {
		return false
	}
	agm.generators[accountID] = &activeGenerator{accountID: accountID, hitTime: externalapi.InfiniteHitTime}
	return true
}

// NextGenerators returns the tracked generators that may forge on top of
// lastBlock, in the order of their hit times
func (agm *activeGeneratorManager) NextGenerators(lastBlock externalapi.DomainBlock) (
	[]*externalapi.ActiveGeneratorInfo, error) {

	agm.lock.Lock()
	defer agm.lock.Unlock()

	if lastBlock.ID() != agm.lastBlockID || agm.sorted == nil {
		err := agm.recompute(lastBlock)
		if err != nil {
			return nil, err
		}
	}

	infos := make([]*externalapi.ActiveGeneratorInfo, len(agm.sorted))
	for i, g := range agm.sorted {
		infos[i] = &externalapi.ActiveGeneratorInfo{
			AccountID:           g.accountID,
			EffectiveBalanceNXT: g.effectiveBalanceNXT,
			HitTime:             g.hitTime,
		}
	}
	return infos, nil
}

func (agm *activeGeneratorManager) recompute(lastBlock externalapi.DomainBlock) error {
	factor, err := targetmath.SpeedFactor(agm.ledger.RedeemedNQT(), agm.params.MaxBalanceNQT)
	if err != nil {
		log.Debugf("No active generator can forge: %s", err)
		factor = 0
	}
	pseudo := lastBlock.Height() <= agm.params.FirstXBlocksPseudoEffectiveBalance

	sorted := make([]*activeGenerator, 0, len(agm.generators))
	for _, g := range agm.generators {
		g.effectiveBalanceNXT = 0
		g.hitTime = externalapi.InfiniteHitTime

		publicKey, ok := agm.ledger.PublicKey(g.accountID)
		if !ok {
			continue
		}
		effectiveBalanceNXT, _, err := agm.ledger.EffectiveBalanceNXT(g.accountID, lastBlock.Height(), pseudo)
		if err != nil {
			return err
		}
		g.effectiveBalanceNXT = effectiveBalanceNXT

		switch {
		case agm.fakeForging.Allows(publicKey):
			g.hitTime = int64(lastBlock.Timestamp())
		case effectiveBalanceNXT > 0 && factor > 0:
			hit := targetmath.Hit(lastBlock.GenerationSignature(), publicKey)
			g.hitTime = targetmath.HitTime(lastBlock.Timestamp(), hit, lastBlock.BaseTarget(), effectiveBalanceNXT, factor)
		default:
			continue
		}
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].hitTime != sorted[j].hitTime {
			return sorted[i].hitTime < sorted[j].hitTime
		}
		return sorted[i].accountID < sorted[j].accountID
	})

	agm.sorted = sorted
	agm.lastBlockID = lastBlock.ID()
	return nil
}

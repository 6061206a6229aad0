package generatormanager

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/util/epochtime"
)

// ErrTooManyForgers is returned when starting to forge with more accounts
// than the node allows
var ErrTooManyForgers = errors.New("too many forging accounts")

// ErrForgingWithRedeemAccount is returned when starting to forge with the
// redeem account
var ErrForgingWithRedeemAccount = errors.New("cannot forge with the redeem account")

type manager struct {
	params       *chainconfig.Params
	maxForgers   int
	forgingDelay int32
	fakeForging  chainconfig.FakeForging
	offline      bool

	ledger             model.Ledger
	timeSource         *epochtime.Source
	generatorListeners *model.GeneratorListeners

	delay atomic.Int32

	lock       sync.RWMutex
	generators map[externalapi.AccountID]*generator
	// sortedForgers is nil when it must be recomputed
	sortedForgers []*generator
	lastBlockID   externalapi.BlockID
	logged        bool
}

// New instantiates a new GeneratorManager
func New(
	params *chainconfig.Params,
	maxForgers int,
	forgingDelay int32,
	fakeForging chainconfig.FakeForging,
	offline bool,

	ledger model.Ledger,
	timeSource *epochtime.Source,
	generatorListeners *model.GeneratorListeners,
) model.GeneratorManager {

	m := &manager{
		params:       params,
		maxForgers:   maxForgers,
		forgingDelay: forgingDelay,
		fakeForging:  fakeForging,
		offline:      offline,

		ledger:             ledger,
		timeSource:         timeSource,
		generatorListeners: generatorListeners,

		generators: make(map[externalapi.AccountID]*generator),
	}
	m.delay.Store(forgingDelay)
	return m
}

// StartForging adds key to the forging accounts. Starting an account that
// already forges returns its current state.
func (m *manager) StartForging(key *signing.PrivateKey, lastBlock externalapi.DomainBlock) (
	*externalapi.GeneratorInfo, error) {

	accountID := key.AccountID()
	if accountID == m.params.RedeemAccountID() {
		return nil, errors.WithStack(ErrForgingWithRedeemAccount)
	}

	m.lock.Lock()
	if existing, ok := m.generators[accountID]; ok {
		info := existing.info()
		m.lock.Unlock()
		log.Debugf("%s is already forging", existing)
		return info, nil
	}
	if len(m.generators) >= m.maxForgers {
		m.lock.Unlock()
		return nil, errors.Wrapf(ErrTooManyForgers, "cannot forge with more than %d accounts on the same node",
			m.maxForgers)
	}

	g := newGenerator(key)
	var deadlineInfo *externalapi.GeneratorInfo
	if lastBlock != nil && lastBlock.Height() >= m.params.LastKnownBlock {
		m.setLastBlock(g, lastBlock)
		deadlineInfo = g.info()
	}
	m.generators[accountID] = g
	m.sortedForgers = nil
	info := g.info()
	m.lock.Unlock()

	if deadlineInfo != nil {
		m.generatorListeners.Notify(model.GeneratorEventGenerationDeadline, deadlineInfo)
	}
	m.generatorListeners.Notify(model.GeneratorEventStartForging, info)
	log.Infof("%s started", g)
	return info, nil
}

// StopForging removes accountID from the forging accounts
func (m *manager) StopForging(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool) {
	m.lock.Lock()
	g, ok := m.generators[accountID]
	if !ok {
		m.lock.Unlock()
		return nil, false
	}
	delete(m.generators, accountID)
	m.sortedForgers = nil
	info := g.info()
	m.lock.Unlock()

	log.Debugf("%s stopped", g)
	m.generatorListeners.Notify(model.GeneratorEventStopForging, info)
	return info, true
}

// StopAll removes every forging account and returns how many there were
func (m *manager) StopAll() int {
	m.lock.Lock()
	stopped := make([]*externalapi.GeneratorInfo, 0, len(m.generators))
	for accountID, g := range m.generators {
		stopped = append(stopped, g.info())
		delete(m.generators, accountID)
	}
	m.sortedForgers = nil
	m.lock.Unlock()

	for _, info := range stopped {
		log.Debugf("Forger %s stopped", info.AccountID)
		m.generatorListeners.Notify(model.GeneratorEventStopForging, info)
	}
	return len(stopped)
}

// Generator returns the state of a forging account
func (m *manager) Generator(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	g, ok := m.generators[accountID]
	if !ok {
		return nil, false
	}
	return g.info(), true
}

// Generators returns the state of every forging account, in forging order
func (m *manager) Generators() []*externalapi.GeneratorInfo {
	m.lock.RLock()
	defer m.lock.RUnlock()

	generators := make([]*generator, 0, len(m.generators))
	for _, g := range m.generators {
		generators = append(generators, g)
	}
	sortGenerators(generators)

	infos := make([]*externalapi.GeneratorInfo, len(generators))
	for i, g := range generators {
		infos[i] = g.info()
	}
	return infos
}

// AllowsFakeForging returns whether publicKey belongs to the fake forging
// account
func (m *manager) AllowsFakeForging(publicKey externalapi.PublicKey) bool {
	return m.fakeForging.Allows(publicKey)
}

// NextHitTime returns the first hit time of the local forgers on top of
// lastBlockID that is not older than the forging delay, or 0 when the
// forgers were not computed for lastBlockID
func (m *manager) NextHitTime(lastBlockID externalapi.BlockID, now int32) int64 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if lastBlockID != m.lastBlockID || m.sortedForgers == nil {
		return 0
	}
	for _, g := range m.sortedForgers {
		if g.hitTime >= int64(now-m.forgingDelay) {
			return g.hitTime
		}
	}
	return 0
}

// SetDelay sets the number of seconds forging lags behind the clock. A
// negative delay lets local forgers catch up.
func (m *manager) SetDelay(delay int32) {
	m.delay.Store(delay)
}

func (m *manager) effectiveBalanceNXT(accountID externalapi.AccountID, height int32) int64 {
	pseudo := height <= m.params.FirstXBlocksPseudoEffectiveBalance
	effectiveBalanceNXT, exists, err := m.ledger.EffectiveBalanceNXT(accountID, height, pseudo)
	if err != nil {
		log.Warnf("Could not read the effective balance of %s: %s", accountID, err)
		return 0
	}
	if !exists {
		return 0
	}
	return max(effectiveBalanceNXT, 0)
}

func sortGenerators(generators []*generator) {
	sort.Slice(generators, func(i, j int) bool {
		return generators[i].less(generators[j])
	})
}

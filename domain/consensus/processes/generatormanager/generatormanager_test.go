package generatormanager

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
	"github.com/xelnet/xeld/domain/ledger"
	"github.com/xelnet/xeld/util/epochtime"
)

const testForgingDelay = 20

type generateCall struct {
	accountID externalapi.AccountID
	timestamp int32
	lastBlock externalapi.BlockID
}

// fakeChain records what the scheduler asks of the chain
type fakeChain struct {
	lastBlock externalapi.DomainBlock
	blocks    map[externalapi.BlockID]externalapi.DomainBlock
	popped    []externalapi.DomainBlock
	generated []generateCall
	// generateErrs are returned by the next GenerateBlock calls, in order
	generateErrs []error
}

func newFakeChain(blocks ...externalapi.DomainBlock) *fakeChain {
	chain := &fakeChain{blocks: make(map[externalapi.BlockID]externalapi.DomainBlock)}
	for _, block := range blocks {
		chain.blocks[block.ID()] = block
		chain.lastBlock = block
	}
	return chain
}

func (c *fakeChain) LastBlock() externalapi.DomainBlock {
	return c.lastBlock
}

func (c *fakeChain) Block(blockID externalapi.BlockID) (externalapi.DomainBlock, error) {
	block, ok := c.blocks[blockID]
	if !ok {
		return nil, errors.Errorf("block %s not found", blockID)
	}
	return block, nil
}

func (c *fakeChain) PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error) {
	var popped []externalapi.DomainBlock
	for c.lastBlock.ID() != target.ID() {
		popped = append(popped, c.lastBlock)
		c.lastBlock = c.blocks[c.lastBlock.PreviousBlockID()]
	}
	c.popped = append(c.popped, popped...)
	return popped, nil
}

func (c *fakeChain) GenerateBlock(key *signing.PrivateKey, timestamp int32) (externalapi.DomainBlock, error) {
	c.generated = append(c.generated, generateCall{
		accountID: key.AccountID(),
		timestamp: timestamp,
		lastBlock: c.lastBlock.ID(),
	})
	if len(c.generateErrs) > 0 {
		err := c.generateErrs[0]
		c.generateErrs = c.generateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return c.lastBlock, nil
}

type managerHarness struct {
	t           *testing.T
	params      *chainconfig.Params
	ledger      *ledger.Ledger
	clock       *clock.TestClock
	listeners   *model.GeneratorListeners
	manager     *manager
	forger      *signing.PrivateKey
	genesis     externalapi.DomainBlock
	redeemBlock externalapi.DomainBlock
}

func newManagerHarness(t *testing.T, params *chainconfig.Params, fakeForging chainconfig.FakeForging,
	maxForgers int) *managerHarness {

	h := &managerHarness{
		t:         t,
		params:    params,
		ledger:    ledger.New(params),
		clock:     clock.NewTestClock(epochtime.ToTime(1)),
		listeners: model.NewGeneratorListeners(),
		forger:    testutils.NewTestKey(t),
		genesis:   params.GenesisBlock(),
	}
	redeem := &externalapi.DomainTransaction{
		Kind:            externalapi.KindRedeem,
		Version:         params.TransactionVersion,
		Timestamp:       1,
		Deadline:        1440,
		SenderPublicKey: params.RedeemPublicKey,
		RecipientID:     h.forger.AccountID(),
		AmountNQT:       params.MaxBalanceNQT,
	}
	h.redeemBlock = testutils.BuildBlock(t, h.genesis, h.forger, 1, 0,
		testutils.ConstantRetargeter{BaseTarget: params.InitialBaseTarget}, redeem)
	for _, block := range []externalapi.DomainBlock{h.genesis, h.redeemBlock} {
		for _, tx := range block.Transactions() {
			if !h.ledger.ApplyUnconfirmed(tx) {
				t.Fatalf("ApplyUnconfirmed: transaction at height %d was rejected", tx.Height)
			}
			err := h.ledger.ApplyTransaction(tx)
			if err != nil {
				t.Fatalf("ApplyTransaction: %+v", err)
			}
		}
	}

	h.manager = New(params, maxForgers, testForgingDelay, fakeForging, false, h.ledger,
		epochtime.NewSource(h.clock), h.listeners).(*manager)
	return h
}

// hitTime returns the hit time of the forger on top of the redeem block
func (h *managerHarness) hitTime() int64 {
	effectiveBalance, _, err := h.ledger.EffectiveBalanceNXT(h.forger.AccountID(), h.redeemBlock.Height(), true)
	if err != nil {
		h.t.Fatalf("EffectiveBalanceNXT: %+v", err)
	}
	hit := targetmath.Hit(h.redeemBlock.GenerationSignature(), h.forger.PublicKey())
	return targetmath.HitTime(h.redeemBlock.Timestamp(), hit, h.redeemBlock.BaseTarget(), effectiveBalance, 1)
}

func (h *managerHarness) startForging(key *signing.PrivateKey) *externalapi.GeneratorInfo {
	info, err := h.manager.StartForging(key, h.redeemBlock)
	if err != nil {
		h.t.Fatalf("StartForging: %+v", err)
	}
	return info
}

func (h *managerHarness) setNow(now int32) {
	h.clock.SetTime(epochtime.ToTime(now))
}

func (h *managerHarness) tick(chain model.ForgingChain, now int32) {
	h.setNow(now)
	err := h.manager.Tick(chain, now)
	if err != nil {
		h.t.Fatalf("Tick: %+v", err)
	}
}

func TestStartAndStopForging(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		h := newManagerHarness(t, params, chainconfig.FakeForging{}, 2)

		events := make(map[model.GeneratorEvent]int)
		for _, event := range []model.GeneratorEvent{model.GeneratorEventStartForging,
			model.GeneratorEventStopForging, model.GeneratorEventGenerationDeadline} {
			event := event
			h.listeners.AddListener(event, func(*externalapi.GeneratorInfo) { events[event]++ })
		}

		info := h.startForging(h.forger)
		if info.HitTime != h.hitTime() {
			t.Fatalf("StartForging: expected hit time %d, got %d", h.hitTime(), info.HitTime)
		}
		if info.Deadline != h.hitTime()-int64(h.redeemBlock.Timestamp()) {
			t.Fatalf("StartForging: unexpected deadline %d", info.Deadline)
		}
		if info.EffectiveBalanceNXT != params.MaxBalanceNXT {
			t.Fatalf("StartForging: expected effective balance %d, got %d",
				params.MaxBalanceNXT, info.EffectiveBalanceNXT)
		}

		again := h.startForging(h.forger)
		if again.AccountID != info.AccountID {
			t.Fatalf("StartForging: restarting returned another account")
		}

		idle := testutils.NewTestKey(t)
		idleInfo := h.startForging(idle)
		if idleInfo.HitTime != externalapi.InfiniteHitTime {
			t.Fatalf("StartForging: account without balance has hit time %d", idleInfo.HitTime)
		}

		_, err := h.manager.StartForging(testutils.NewTestKey(t), h.redeemBlock)
		if !errors.Is(err, ErrTooManyForgers) {
			t.Fatalf("StartForging: expected ErrTooManyForgers, got %+v", err)
		}

		generators := h.manager.Generators()
		if len(generators) != 2 {
			t.Fatalf("Generators: expected 2 generators, got %d", len(generators))
		}
		if _, ok := h.manager.Generator(idle.AccountID()); !ok {
			t.Fatalf("Generator: idle forger not found")
		}

		if _, ok := h.manager.StopForging(idle.AccountID()); !ok {
			t.Fatalf("StopForging: idle forger was not forging")
		}
		if _, ok := h.manager.StopForging(idle.AccountID()); ok {
			t.Fatalf("StopForging: idle forger stopped twice")
		}
		if count := h.manager.StopAll(); count != 1 {
			t.Fatalf("StopAll: expected 1 stopped forger, got %d", count)
		}
		if len(h.manager.Generators()) != 0 {
			t.Fatalf("StopAll: forgers remain")
		}

		if events[model.GeneratorEventStartForging] != 2 || events[model.GeneratorEventStopForging] != 2 ||
			events[model.GeneratorEventGenerationDeadline] != 2 {
			t.Fatalf("unexpected events %v", events)
		}
	})
}

func TestTickForgesAtHitTime(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		h := newManagerHarness(t, params, chainconfig.FakeForging{}, 10)
		h.startForging(h.forger)
		chain := newFakeChain(h.genesis, h.redeemBlock)
		hitTime := h.hitTime()

		early := int32(hitTime) + testForgingDelay - 1
		h.tick(chain, early)
		if len(chain.generated) != 0 {
			t.Fatalf("Tick: forged before the hit time")
		}
		if next := h.manager.NextHitTime(h.redeemBlock.ID(), early); next != hitTime {
			t.Fatalf("NextHitTime: expected %d, got %d", hitTime, next)
		}
		if next := h.manager.NextHitTime(h.genesis.ID(), early); next != 0 {
			t.Fatalf("NextHitTime: expected 0 for another last block, got %d", next)
		}

		h.manager.SetDelay(-3)
		h.tick(chain, int32(hitTime)-3)
		if len(chain.generated) != 1 {
			t.Fatalf("Tick: expected one generated block, got %d", len(chain.generated))
		}
		call := chain.generated[0]
		if call.accountID != h.forger.AccountID() || int64(call.timestamp) != hitTime+1 ||
			call.lastBlock != h.redeemBlock.ID() {
			t.Fatalf("Tick: unexpected generation %+v", call)
		}
		if delay := h.manager.delay.Load(); delay != testForgingDelay {
			t.Fatalf("Tick: forging did not reset the delay, got %d", delay)
		}
	})
}

func TestTickPopsOffLateBlock(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		h := newManagerHarness(t, params, chainconfig.FakeForging{}, 10)
		h.startForging(h.forger)
		hitTime := h.hitTime()

		late := testutils.BuildBlock(t, h.redeemBlock, testutils.NewTestKey(t), int32(hitTime)+50, 0,
			testutils.ConstantRetargeter{BaseTarget: params.InitialBaseTarget})
		chain := newFakeChain(h.genesis, h.redeemBlock, late)

		h.tick(chain, late.Timestamp()+testForgingDelay)
		if len(chain.popped) != 1 || chain.popped[0].ID() != late.ID() {
			t.Fatalf("Tick: expected the late block to be popped off")
		}
		if len(chain.generated) != 1 || chain.generated[0].lastBlock != h.redeemBlock.ID() ||
			int64(chain.generated[0].timestamp) != hitTime+1 {
			t.Fatalf("Tick: expected a block on top of the redeem block, got %+v", chain.generated)
		}
	})
}

func TestTickKeepsOldBlock(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		h := newManagerHarness(t, params, chainconfig.FakeForging{}, 10)
		h.startForging(h.forger)
		hitTime := h.hitTime()

		late := testutils.BuildBlock(t, h.redeemBlock, testutils.NewTestKey(t), int32(hitTime)+50, 0,
			testutils.ConstantRetargeter{BaseTarget: params.InitialBaseTarget})
		chain := newFakeChain(h.genesis, h.redeemBlock, late)

		h.tick(chain, late.Timestamp()+recentBlockAge+1)
		if len(chain.popped) != 0 {
			t.Fatalf("Tick: a block older than %d seconds was popped off", recentBlockAge)
		}
	})
}

func TestTickRetriesRejectedTransactions(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		h := newManagerHarness(t, params, chainconfig.FakeForging{}, 10)
		h.startForging(h.forger)
		chain := newFakeChain(h.genesis, h.redeemBlock)
		tx := h.redeemBlock.Transactions()[0]
		chain.generateErrs = []error{
			ruleerrors.NewErrTransactionNotAccepted(tx, ruleerrors.ErrDoubleSpend),
			ruleerrors.NewErrTransactionNotAccepted(tx, ruleerrors.ErrTransactionExpired),
		}

		h.tick(chain, int32(h.hitTime())+testForgingDelay)
		if len(chain.generated) != 3 {
			t.Fatalf("Tick: expected 3 attempts, got %d", len(chain.generated))
		}

		chain = newFakeChain(h.genesis, h.redeemBlock)
		chain.generateErrs = []error{errors.New("database is closed")}
		h.manager.sortedForgers = nil
		err := h.manager.Tick(chain, int32(h.hitTime())+testForgingDelay)
		if err == nil {
			t.Fatalf("Tick: expected the generation error")
		}
		if len(chain.generated) != 1 {
			t.Fatalf("Tick: non transaction errors must not be retried")
		}
	})
}

func TestTickGivesUpAfterRetryWindow(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		h := newManagerHarness(t, params, chainconfig.FakeForging{}, 10)
		h.startForging(h.forger)
		chain := newFakeChain(h.genesis, h.redeemBlock)
		now := int32(h.hitTime()) + testForgingDelay
		h.setNow(now)

		tx := h.redeemBlock.Transactions()[0]
		rejected := ruleerrors.NewErrTransactionNotAccepted(tx, ruleerrors.ErrDoubleSpend)
		chain.generateErrs = []error{rejected, rejected}

		attempts := 0
		retryChain := &clockAdvancingChain{fakeChain: chain, onGenerate: func() {
			attempts++
			h.clock.SetTime(h.clock.Now().Add((forgeRetrySeconds + 1) * time.Second))
		}}
		err := h.manager.Tick(retryChain, now)
		if _, ok := ruleerrors.AsTransactionNotAccepted(err); !ok {
			t.Fatalf("Tick: expected the rejection after the retry window, got %+v", err)
		}
		if attempts != 1 {
			t.Fatalf("Tick: expected a single attempt once the window passed, got %d", attempts)
		}
	})
}

// clockAdvancingChain lets time pass during every generation attempt
type clockAdvancingChain struct {
	*fakeChain
	onGenerate func()
}

func (c *clockAdvancingChain) GenerateBlock(key *signing.PrivateKey, timestamp int32) (externalapi.DomainBlock, error) {
	c.onGenerate()
	return c.fakeChain.GenerateBlock(key, timestamp)
}

func TestFakeForgingSkipsHitVerification(t *testing.T) {
	params := &chainconfig.TestnetParams
	fakeForger := testutils.NewTestKey(t)
	fakeForging, err := chainconfig.NewFakeForging(params, fakeForger.AccountID())
	if err != nil {
		t.Fatalf("NewFakeForging: %+v", err)
	}
	h := newManagerHarness(t, params, fakeForging, 10)
	if !h.manager.AllowsFakeForging(fakeForger.PublicKey()) || h.manager.AllowsFakeForging(h.forger.PublicKey()) {
		t.Fatalf("AllowsFakeForging: only the fake forging account may fake forge")
	}

	h.startForging(fakeForger)
	chain := newFakeChain(h.genesis, h.redeemBlock)
	h.tick(chain, h.redeemBlock.Timestamp()+testForgingDelay)

	if len(chain.generated) != 1 || chain.generated[0].accountID != fakeForger.AccountID() {
		t.Fatalf("Tick: the fake forging account did not forge")
	}
	if chain.generated[0].timestamp != h.redeemBlock.Timestamp()+1 {
		t.Fatalf("Tick: expected timestamp %d, got %d", h.redeemBlock.Timestamp()+1, chain.generated[0].timestamp)
	}
}

func TestGeneratorTimestamp(t *testing.T) {
	g := &generator{hitTime: 1000}
	tests := []struct {
		generationLimit int32
		expected        int32
	}{
		{generationLimit: 900, expected: 1001},
		{generationLimit: 1000 + stallTimestampLimit, expected: 1001},
		{generationLimit: 1001 + stallTimestampLimit, expected: 1001 + stallTimestampLimit},
	}
	for _, test := range tests {
		if got := g.timestamp(test.generationLimit); got != test.expected {
			t.Fatalf("timestamp(%d): expected %d, got %d", test.generationLimit, test.expected, got)
		}
	}
}

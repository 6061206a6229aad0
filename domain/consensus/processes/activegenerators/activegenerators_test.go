package activegenerators

import (
	"testing"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/datastructures/blockstore"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
	"github.com/xelnet/xeld/domain/ledger"
)

func redeem(params *chainconfig.Params, recipient *signing.PrivateKey, amountNQT int64) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Kind:            externalapi.KindRedeem,
		Version:         params.TransactionVersion,
		Timestamp:       1,
		Deadline:        1440,
		SenderPublicKey: params.RedeemPublicKey,
		RecipientID:     recipient.AccountID(),
		AmountNQT:       amountNQT,
	}
}

func applyBlock(t *testing.T, l *ledger.Ledger, block externalapi.DomainBlock) {
	for _, tx := range block.Transactions() {
		if !l.ApplyUnconfirmed(tx) {
			t.Fatalf("ApplyUnconfirmed: transaction at height %d was rejected", tx.Height)
		}
		err := l.ApplyTransaction(tx)
		if err != nil {
			t.Fatalf("ApplyTransaction: %+v", err)
		}
	}
	err := l.SetPublicKey(block.GeneratorPublicKey(), block.Height())
	if err != nil {
		t.Fatalf("SetPublicKey: %+v", err)
	}
}

func expectedHitTime(t *testing.T, params *chainconfig.Params, l *ledger.Ledger, key *signing.PrivateKey,
	lastBlock externalapi.DomainBlock) int64 {

	effectiveBalanceNXT, _, err := l.EffectiveBalanceNXT(key.AccountID(), lastBlock.Height(), true)
	if err != nil {
		t.Fatalf("EffectiveBalanceNXT: %+v", err)
	}
	factor, err := targetmath.SpeedFactor(l.RedeemedNQT(), params.MaxBalanceNQT)
	if err != nil {
		t.Fatalf("SpeedFactor: %+v", err)
	}
	hit := targetmath.Hit(lastBlock.GenerationSignature(), key.PublicKey())
	return targetmath.HitTime(lastBlock.Timestamp(), hit, lastBlock.BaseTarget(), effectiveBalanceNXT, factor)
}

func TestNextGenerators(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		dbManager := testutils.NewTestDB(t)
		store := blockstore.New(10)
		l := ledger.New(params)
		forger := testutils.NewTestKey(t)
		forger2 := testutils.NewTestKey(t)
		retargeter := testutils.ConstantRetargeter{BaseTarget: params.InitialBaseTarget}

		genesis := params.GenesisBlock()
		redeemBlock := testutils.BuildBlock(t, genesis, forger, 1, 0, retargeter,
			redeem(params, forger, params.MaxBalanceNQT/10*6), redeem(params, forger2, params.MaxBalanceNQT/10*4))
		second := testutils.BuildBlock(t, redeemBlock, forger2, 60, 0, retargeter)

		stagingArea := model.NewStagingArea()
		for _, block := range []externalapi.DomainBlock{genesis, redeemBlock, second} {
			store.Stage(stagingArea, block)
			applyBlock(t, l, block)
		}
		testutils.CommitStagingArea(t, dbManager, stagingArea)

		manager := New(dbManager, store, l, params, chainconfig.FakeForging{})
		err := manager.Init(model.NewStagingArea(), second)
		if err != nil {
			t.Fatalf("Init: %+v", err)
		}

		next, err := manager.NextGenerators(second)
		if err != nil {
			t.Fatalf("NextGenerators: %+v", err)
		}
		if len(next) != 2 {
			t.Fatalf("NextGenerators: expected 2 generators, got %d", len(next))
		}
		if next[0].HitTime > next[1].HitTime {
			t.Fatalf("NextGenerators: generators are not sorted by hit time")
		}
		for _, key := range []*signing.PrivateKey{forger, forger2} {
			found := false
			for _, info := range next {
				if info.AccountID != key.AccountID() {
					continue
				}
				found = true
				if expected := expectedHitTime(t, params, l, key, second); info.HitTime != expected {
					t.Fatalf("NextGenerators: expected hit time %d for %s, got %d", expected, key.AccountID(), info.HitTime)
				}
			}
			if !found {
				t.Fatalf("NextGenerators: %s is missing", key.AccountID())
			}
		}

		// Generators without a known public key cannot forge
		stranger := testutils.NewTestKey(t)
		third := testutils.BuildBlock(t, second, stranger, 120, 0, retargeter)
		manager.AddBlock(third)
		next, err = manager.NextGenerators(second)
		if err != nil {
			t.Fatalf("NextGenerators: %+v", err)
		}
		if len(next) != 2 {
			t.Fatalf("NextGenerators: expected the stranger to be skipped, got %d generators", len(next))
		}

		applyBlock(t, l, third)
		next, err = manager.NextGenerators(third)
		if err != nil {
			t.Fatalf("NextGenerators: %+v", err)
		}
		if len(next) != 2 {
			t.Fatalf("NextGenerators: expected the stranger without balance to be skipped, got %d generators",
				len(next))
		}
	})
}

func TestInitEmptyChain(t *testing.T) {
	params := &chainconfig.MainnetParams
	dbManager := testutils.NewTestDB(t)
	store := blockstore.New(10)
	genesis := params.GenesisBlock()
	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, genesis)
	testutils.CommitStagingArea(t, dbManager, stagingArea)

	manager := New(dbManager, store, ledger.New(params), params, chainconfig.FakeForging{})
	err := manager.Init(model.NewStagingArea(), genesis)
	if err != nil {
		t.Fatalf("Init: %+v", err)
	}
	next, err := manager.NextGenerators(genesis)
	if err != nil {
		t.Fatalf("NextGenerators: %+v", err)
	}
	if len(next) != 0 {
		t.Fatalf("NextGenerators: expected no generators on the genesis block, got %d", len(next))
	}
}

package chainconfig

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

func TestGenesisBlock(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams} {
		genesis := params.GenesisBlock()
		if genesis.Height() != 0 || genesis.PreviousBlockID() != 0 {
			t.Fatalf("%s: genesis is not at height 0", params.Name)
		}
		if genesis.BaseTarget() != params.InitialBaseTarget || genesis.CumulativeDifficulty().Sign() != 0 {
			t.Fatalf("%s: unexpected genesis targets", params.Name)
		}
		if genesis.ID() != params.GenesisBlock().ID() {
			t.Fatalf("%s: genesis id is not deterministic", params.Name)
		}
		transactions := genesis.Transactions()
		if len(transactions) != 1 || transactions[0].RecipientID != params.RedeemAccountID() {
			t.Fatalf("%s: genesis doesn't fund the redeem account", params.Name)
		}
	}
}

func TestNetworkSpecificParams(t *testing.T) {
	if MainnetParams.MaxBaseTarget2 != MainnetParams.InitialBaseTarget*50 {
		t.Fatalf("unexpected mainnet MaxBaseTarget2 %d", MainnetParams.MaxBaseTarget2)
	}
	if TestnetParams.MaxBaseTarget2 != TestnetParams.MaxBaseTarget {
		t.Fatalf("unexpected testnet MaxBaseTarget2 %d", TestnetParams.MaxBaseTarget2)
	}
	if MainnetParams.BlocksToLockInSoftFork != 1440 || TestnetParams.BlocksToLockInSoftFork != 15 {
		t.Fatalf("unexpected soft-fork windows")
	}
	if MaxRollback(100) != 720 || MaxRollback(1000) != 1000 {
		t.Fatalf("MaxRollback doesn't enforce its floor")
	}
}

func TestParamsByName(t *testing.T) {
	params, err := ParamsByName("testnet")
	if err != nil || params != &TestnetParams {
		t.Fatalf("ParamsByName(testnet): %v", err)
	}
	_, err = ParamsByName("simnet")
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("ParamsByName(simnet): expected ErrUnknownNetwork, got: %v", err)
	}
}

func TestFakeForging(t *testing.T) {
	_, err := NewFakeForging(&MainnetParams, 42)
	if !errors.Is(err, ErrFakeForgingOnMainnet) {
		t.Fatalf("NewFakeForging(mainnet): expected ErrFakeForgingOnMainnet, got: %v", err)
	}

	disabled, err := NewFakeForging(&MainnetParams, 0)
	if err != nil || disabled.InPrincipal() {
		t.Fatalf("NewFakeForging(mainnet, 0): %v", err)
	}
	if disabled.Allows(TestnetParams.CreatorPublicKey) {
		t.Fatalf("disabled fake forging allows a generator")
	}

	creatorID := consensushashing.AccountID(TestnetParams.CreatorPublicKey)
	fakeForging, err := NewFakeForging(&TestnetParams, creatorID)
	if err != nil {
		t.Fatalf("NewFakeForging(testnet): %+v", err)
	}
	if !fakeForging.InPrincipal() || !fakeForging.Allows(TestnetParams.CreatorPublicKey) {
		t.Fatalf("fake forging doesn't allow its account")
	}
	if fakeForging.Allows(TestnetParams.RedeemPublicKey) {
		t.Fatalf("fake forging allows another account")
	}
}

package retargetmanager

import (
	"math/big"
	"testing"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/datastructures/blockstore"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
	"pgregory.net/rapid"
)

func TestNextBaseTarget(t *testing.T) {
	params := &chainconfig.MainnetParams
	initial := params.InitialBaseTarget

	tests := []struct {
		name               string
		previousBaseTarget int64
		average            int32
		expected           int64
	}{
		{name: "slow blocks", previousBaseTarget: initial, average: 90, expected: 1716572014},
		{name: "slow blocks within limit", previousBaseTarget: initial, average: 63, expected: initial * 63 / 60},
		{name: "on target", previousBaseTarget: initial, average: 60, expected: initial},
		{name: "fast blocks", previousBaseTarget: initial, average: 30, expected: 1422448930},
		{name: "fast blocks clamp to minimum", previousBaseTarget: params.MinBaseTarget, average: 30,
			expected: params.MinBaseTarget},
		{name: "slow blocks clamp to maximum", previousBaseTarget: params.MaxBaseTarget2, average: 90,
			expected: params.MaxBaseTarget2},
	}
	for _, test := range tests {
		got := NextBaseTarget(params, test.previousBaseTarget, 1000+3*test.average, 1000)
		if got != test.expected {
			t.Errorf("TestNextBaseTarget: %s: expected %d, got %d", test.name, test.expected, got)
		}
	}
}

func TestIsRetargetHeight(t *testing.T) {
	for parentHeight, expected := range map[int32]bool{0: false, 1: false, 2: false, 3: false, 4: true, 5: false, 6: true} {
		if IsRetargetHeight(parentHeight) != expected {
			t.Errorf("TestIsRetargetHeight: parent height %d: expected %t", parentHeight, expected)
		}
	}
}

// buildRetargetedChain links blocks with the given spacings on top of
// genesis, reading ancestors through a block store.
func buildRetargetedChain(t testing.TB, dbManager model.DBReader, params *chainconfig.Params,
	key *signing.PrivateKey, spacings []int32) []externalapi.DomainBlock {

	store := blockstore.New(100)
	manager := New(dbManager, store, params)
	stagingArea := model.NewStagingArea()

	genesis := params.GenesisBlock()
	store.Stage(stagingArea, genesis)
	chain := []externalapi.DomainBlock{genesis}
	for _, spacing := range spacings {
		parent := chain[len(chain)-1]
		block := testutils.BuildBlock(t, parent, key, parent.Timestamp()+spacing, 0, manager.Retargeter(stagingArea))
		store.Stage(stagingArea, block)
		chain = append(chain, block)
	}
	return chain
}

func TestRetargetAlongChain(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		spacings := []int32{30, 90, 45, 200, 60, 10, 120, 61, 59, 80, 5, 5, 5}
		chain := buildRetargetedChain(t, testutils.NewTestDB(t), params, testutils.NewTestKey(t), spacings)

		for i := 1; i < len(chain); i++ {
			parent, block := chain[i-1], chain[i]
			if block.Height() != parent.Height()+1 {
				t.Fatalf("Height: expected %d, got %d", parent.Height()+1, block.Height())
			}

			expectedBaseTarget := parent.BaseTarget()
			if IsRetargetHeight(parent.Height()) {
				expectedBaseTarget = NextBaseTarget(params, parent.BaseTarget(), block.Timestamp(),
					chain[parent.Height()-2].Timestamp())
			}
			if block.BaseTarget() != expectedBaseTarget {
				t.Fatalf("BaseTarget at height %d: expected %d, got %d", block.Height(),
					expectedBaseTarget, block.BaseTarget())
			}
			if block.BaseTarget() < params.MinBaseTarget || block.BaseTarget() > params.MaxBaseTarget2 {
				t.Fatalf("BaseTarget at height %d is out of bounds: %d", block.Height(), block.BaseTarget())
			}

			expectedDifficulty := new(big.Int).Add(parent.CumulativeDifficulty(),
				targetmath.CumulativeDifficultyIncrement(block.BaseTarget()))
			if block.CumulativeDifficulty().Cmp(expectedDifficulty) != 0 {
				t.Fatalf("CumulativeDifficulty at height %d: expected %s, got %s", block.Height(),
					expectedDifficulty, block.CumulativeDifficulty())
			}
			if block.CumulativeDifficulty().Cmp(parent.CumulativeDifficulty()) <= 0 {
				t.Fatalf("CumulativeDifficulty is not strictly increasing at height %d", block.Height())
			}
		}

		// Blocks at heights 1 to 4 inherit the genesis base target
		for _, block := range chain[:5] {
			if block.BaseTarget() != params.InitialBaseTarget {
				t.Fatalf("BaseTarget at height %d: expected the initial base target, got %d",
					block.Height(), block.BaseTarget())
			}
		}
	})
}

func TestRetargetIsDeterministic(t *testing.T) {
	params := &chainconfig.MainnetParams
	key := testutils.NewTestKey(t)
	dbManager := testutils.NewTestDB(t)
	rapid.Check(t, func(rt *rapid.T) {
		spacings := rapid.SliceOfN(rapid.Int32Range(1, 400), 1, 24).Draw(rt, "spacings")

		first := buildRetargetedChain(t, dbManager, params, key, spacings)
		second := buildRetargetedChain(t, dbManager, params, key, spacings)
		for i := range first {
			if first[i].BaseTarget() != second[i].BaseTarget() {
				rt.Fatalf("base targets differ at height %d: %d != %d", i,
					first[i].BaseTarget(), second[i].BaseTarget())
			}
			if first[i].CumulativeDifficulty().Cmp(second[i].CumulativeDifficulty()) != 0 {
				rt.Fatalf("cumulative difficulties differ at height %d", i)
			}
		}
	})
}

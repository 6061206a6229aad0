package chainconfig

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

const (
	oneNXT             = 100000000
	maxBalanceNXT      = 100000000
	initialBaseTarget  = 1537228670
	maxBaseTarget      = maxBalanceNXT * initialBaseTarget
	minBaseTarget      = initialBaseTarget * 9 / 10
	maxTransactions    = 255
	minTransactionSize = 176
	minMaxRollback     = 720
)

// DefaultMaxRollback is the rollback horizon used when none is configured
const DefaultMaxRollback int32 = minMaxRollback

// leastPossibleTarget is the easiest proof-of-work target a work may ask for.
var leastPossibleTarget, _ = new(big.Int).SetString("000000ffffffffffffffffffffffffff", 16)

// Params defines a network by its consensus parameters.
type Params struct {
	// Name is a human-readable identifier for the network.
	Name string

	// Testnet enables the test network relaxations: fake forging, a
	// shorter stall grace period and a short soft-fork window.
	Testnet bool

	OneNXT        int64
	MaxBalanceNXT int64
	MaxBalanceNQT int64

	// Base target bounds and retargeting constants.
	InitialBaseTarget int64
	MaxBaseTarget     int64
	MaxBaseTarget2    int64
	MinBaseTarget     int64
	TargetBlockTime   int64
	MinBlockTimeLimit int64
	MaxBlockTimeLimit int64
	BaseTargetGamma   int64

	MaxNumberOfTransactions int
	MaxPayloadLength        int32
	MaxTimeDrift            int32
	MaxPowsPerBlock         int
	BlockVersion            int32
	TransactionVersion      byte

	// FirstXBlocksPseudoEffectiveBalance is the number of blocks during which
	// forgers use their pseudo effective balance, which needs no
	// confirmations.
	FirstXBlocksPseudoEffectiveBalance int32

	// StallGracePeriod is the number of seconds without blocks after which
	// any forger with stake may forge.
	StallGracePeriod int32

	// LastKnownBlock is the height below which the node does not forge.
	LastKnownBlock int32

	// BlocksToLockInSoftFork is the sliding window of soft-fork voting. A
	// feature voted in every block of the window is live.
	BlocksToLockInSoftFork int32

	// PotentialSoftForkThreshold is the vote count from which a feature is
	// reported as potentially going live.
	PotentialSoftForkThreshold int32

	// ImplementedFeatures is the bitmask of soft-fork features this node
	// implements.
	ImplementedFeatures uint64

	LeastPossibleTarget *big.Int

	RedeemPublicKey  externalapi.PublicKey
	CreatorPublicKey externalapi.PublicKey
}

// RedeemAccountID returns the account that holds the unredeemed supply.
// It may neither forge nor sign blocks.
func (p *Params) RedeemAccountID() externalapi.AccountID {
	return consensushashing.AccountID(p.RedeemPublicKey)
}

// MaxRollback returns the rollback horizon for the given configured value.
// Pop-offs deeper than the horizon are served by a full rescan.
func MaxRollback(configured int32) int32 {
	if configured < minMaxRollback {
		return minMaxRollback
	}
	return configured
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:    "mainnet",
	Testnet: false,

	OneNXT:        oneNXT,
	MaxBalanceNXT: maxBalanceNXT,
	MaxBalanceNQT: maxBalanceNXT * oneNXT,

	InitialBaseTarget: initialBaseTarget,
	MaxBaseTarget:     maxBaseTarget,
	MaxBaseTarget2:    initialBaseTarget * 50,
	MinBaseTarget:     minBaseTarget,
	TargetBlockTime:   60,
	MinBlockTimeLimit: 53,
	MaxBlockTimeLimit: 67,
	BaseTargetGamma:   64,

	MaxNumberOfTransactions: maxTransactions,
	MaxPayloadLength:        maxTransactions * minTransactionSize,
	MaxTimeDrift:            15,
	MaxPowsPerBlock:         20,
	BlockVersion:            1,
	TransactionVersion:      1,

	FirstXBlocksPseudoEffectiveBalance: 5000,
	StallGracePeriod:                   3600,
	LastKnownBlock:                     0,

	BlocksToLockInSoftFork:     1440,
	PotentialSoftForkThreshold: 1440 * 8 / 10,
	ImplementedFeatures:        0,

	LeastPossibleTarget: leastPossibleTarget,
	RedeemPublicKey:     redeemPublicKey,
	CreatorPublicKey:    creatorPublicKey,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:    "testnet",
	Testnet: true,

	OneNXT:        oneNXT,
	MaxBalanceNXT: maxBalanceNXT,
	MaxBalanceNQT: maxBalanceNXT * oneNXT,

	InitialBaseTarget: initialBaseTarget,
	MaxBaseTarget:     maxBaseTarget,
	MaxBaseTarget2:    maxBaseTarget,
	MinBaseTarget:     minBaseTarget,
	TargetBlockTime:   60,
	MinBlockTimeLimit: 53,
	MaxBlockTimeLimit: 67,
	BaseTargetGamma:   64,

	MaxNumberOfTransactions: maxTransactions,
	MaxPayloadLength:        maxTransactions * minTransactionSize,
	MaxTimeDrift:            15,
	MaxPowsPerBlock:         20,
	BlockVersion:            1,
	TransactionVersion:      1,

	FirstXBlocksPseudoEffectiveBalance: 5000,
	StallGracePeriod:                   300,
	LastKnownBlock:                     0,

	BlocksToLockInSoftFork:     15,
	PotentialSoftForkThreshold: 15 * 8 / 10,
	ImplementedFeatures:        0,

	LeastPossibleTarget: leastPossibleTarget,
	RedeemPublicKey:     redeemPublicKey,
	CreatorPublicKey:    creatorPublicKey,
}

// ErrUnknownNetwork describes an error where the requested network is not
// one of the known networks.
var ErrUnknownNetwork = errors.New("unknown network")

// ParamsByName returns the parameters of the named network.
func ParamsByName(name string) (*Params, error) {
	switch name {
	case MainnetParams.Name:
		return &MainnetParams, nil
	case TestnetParams.Name:
		return &TestnetParams, nil
	}
	return nil, errors.Wrapf(ErrUnknownNetwork, "network %q", name)
}

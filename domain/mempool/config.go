package mempool

import (
	"github.com/xelnet/xeld/domain/chainconfig"
)

const defaultMaximumTransactionCount = 100_000

// Config holds the mempool limits and the block assembly rules the mempool
// applies when it selects transactions for a block
type Config struct {
	MaximumTransactionCount int
	MaxNumberOfTransactions int
	MaxPayloadLength        int
	MaxPowsPerBlock         int
	MaxTimeDrift            int32
	TransactionVersion      byte
	MaxBalanceNQT           int64

	// AllowFutureTransactions lets transactions timestamped past the block
	// in, as fake forging on testnet does.
	AllowFutureTransactions bool
}

// DefaultConfig returns the default mempool config for the given network
func DefaultConfig(params *chainconfig.Params, fakeForging chainconfig.FakeForging) *Config {
	return &Config{
		MaximumTransactionCount: defaultMaximumTransactionCount,
		MaxNumberOfTransactions: params.MaxNumberOfTransactions,
		MaxPayloadLength:        int(params.MaxPayloadLength),
		MaxPowsPerBlock:         params.MaxPowsPerBlock,
		MaxTimeDrift:            params.MaxTimeDrift,
		TransactionVersion:      params.TransactionVersion,
		MaxBalanceNQT:           params.MaxBalanceNQT,
		AllowFutureTransactions: fakeForging.InPrincipal(),
	}
}

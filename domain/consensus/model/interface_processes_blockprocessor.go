package model

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
)

// BlockProcessor owns the canonical chain: it accepts blocks on top of it
// and pops blocks off it. Callers hold the update tier of the chain lock;
// the processor takes the write tier while it publishes a change.
type BlockProcessor interface {
	// Init adds the genesis block to an empty database, or loads the last
	// block of an existing one.
	Init() error

	LastBlock() externalapi.DomainBlock
	Commitment() externalapi.DomainHash

	PushBlock(block *blocks.Builder) (externalapi.DomainBlock, error)
	ProcessPeerBlock(block *blocks.Builder) error

	// PopOffTo removes blocks from the tip until target is the last block.
	// The removed blocks are returned in pop order and their transactions
	// are requeued.
	PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error)
	PopOffToHeight(height int32) ([]externalapi.DomainBlock, error)

	// Scan replays the stored chain from height, rebuilding the derived
	// state.
	Scan(height int32, validate bool) error
	FullReset() error

	MinRollbackHeight() int32
}

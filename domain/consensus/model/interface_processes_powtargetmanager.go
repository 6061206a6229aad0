package model

import (
	"math/big"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// PowTargetManager derives the proof-of-work bounds blocks carry for the
// work subsystem
type PowTargetManager interface {
	// MinPowTarget returns the minimum PoW target of the block following
	// lastBlockID.
	MinPowTarget(lastBlockID externalapi.BlockID) (*big.Int, error)

	// PowCount returns the number of proofs of work for workID in the block.
	PowCount(stagingArea *StagingArea, blockID externalapi.BlockID, workID externalapi.WorkID) (int, error)
}

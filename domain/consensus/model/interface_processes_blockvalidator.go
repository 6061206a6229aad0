package model

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
)

// BlockValidator exposes a set of validation functions for blocks
type BlockValidator interface {
	// ValidateBlock checks the block itself against its previous block.
	ValidateBlock(stagingArea *StagingArea, block *blocks.Builder, previous externalapi.DomainBlock, now int32) error

	// ValidateTransactions checks the transactions of the block. Checks that
	// depend on chain history run only with fullValidation.
	ValidateTransactions(stagingArea *StagingArea, block *blocks.Builder, previous externalapi.DomainBlock,
		now int32, fullValidation bool) error

	// ValidateStoredBlock re-checks the signatures and the generation
	// signature of a stored block while the chain is replayed.
	ValidateStoredBlock(block externalapi.DomainBlock, previous externalapi.DomainBlock) error
}

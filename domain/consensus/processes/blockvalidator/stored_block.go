package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

// ValidateStoredBlock re-checks a block of the stored chain against its
// previous block. Checks that only guard against duplicates or clock
// drift are skipped, since the block is already part of the chain.
func (v *blockValidator) ValidateStoredBlock(block externalapi.DomainBlock, previous externalapi.DomainBlock) error {
	if block.PreviousBlockID() != previous.ID() {
		return errors.Wrapf(ruleerrors.ErrPreviousBlockMismatch, "stored block %s builds on %s, expected %s",
			block.ID(), block.PreviousBlockID(), previous.ID())
	}
	if !blocks.VerifySignature(block, v.params.RedeemAccountID()) {
		return errors.Wrapf(ruleerrors.ErrBlockSignature, "stored block %s", block.ID())
	}
	if !v.fakeForging.Allows(block.GeneratorPublicKey()) {
		err := v.verifyGenerationSignature(block.Header(), block.HasRedeemTransaction(), previous)
		if err != nil {
			return err
		}
	}
	totals := &blockTotals{}
	claimed := make(map[string]struct{})
	for _, tx := range block.Transactions() {
		if !signing.VerifyTransaction(tx) {
			return ruleerrors.NewErrTransactionNotAccepted(tx, ruleerrors.ErrTransactionSignature)
		}
		err := v.validateAmountsAndClaims(tx, claimed, totals)
		if err != nil {
			return err
		}
	}
	return nil
}

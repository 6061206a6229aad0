package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/redeemclaim"
)

// validateRedeem checks that a redeem transaction pays out exactly one
// unredeemed genesis entry, signed by the keys of that entry. claimed holds
// the entries redeemed earlier in the same block.
func (v *blockValidator) validateRedeem(tx *externalapi.DomainTransaction, claimed map[string]struct{}) error {
	if tx.SenderPublicKey != v.params.RedeemPublicKey {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "redeem sent by %s", tx.SenderPublicKey)
	}
	if tx.FeeNQT != 0 {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "redeem carries a fee of %d NQT", tx.FeeNQT)
	}
	if tx.RecipientID == 0 {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "redeem has no recipient")
	}

	attachment, err := redeemclaim.ParseAttachment(tx.Attachment)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "%s", err)
	}
	claim, ok := v.redeemClaims.Claim(attachment.Address)
	if !ok {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "no genesis entry %s", attachment.Address)
	}
	if tx.AmountNQT != claim.AmountNQT {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "redeem of %d NQT from genesis entry %s, "+
			"which holds %d", tx.AmountNQT, claim.Address, claim.AmountNQT)
	}
	if _, ok := claimed[claim.Address]; ok || v.redeemClaims.IsRedeemed(claim.Address) {
		return errors.Wrapf(ruleerrors.ErrRedeemAlreadyClaimed, "genesis entry %s", claim.Address)
	}

	messageHash := redeemclaim.MessageHash(claim.Address, tx.AmountNQT, tx.RecipientID)
	if !redeemclaim.VerifySignatures(claim, messageHash, attachment.Signatures) {
		return errors.Wrapf(ruleerrors.ErrRedeemClaim, "genesis entry %s needs exactly %d signatures "+
			"by its keys, got %d", claim.Address, claim.RequiredSignatures, len(attachment.Signatures))
	}
	claimed[claim.Address] = struct{}{}
	return nil
}

// validateAmountsAndClaims runs the checks every transaction of a block
// faces regardless of the validation depth, and adds tx to the totals.
func (v *blockValidator) validateAmountsAndClaims(tx *externalapi.DomainTransaction, claimed map[string]struct{},
	totals *blockTotals) error {

	err := totals.add(tx, v.params.MaxBalanceNQT)
	if err != nil {
		return ruleerrors.NewErrTransactionNotAccepted(tx, err)
	}
	if tx.Kind.IsRedeem() {
		err = v.validateRedeem(tx, claimed)
		if err != nil {
			return ruleerrors.NewErrTransactionNotAccepted(tx, err)
		}
	}
	return nil
}

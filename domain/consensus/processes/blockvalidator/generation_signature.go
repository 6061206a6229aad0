package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
)

// verifyGenerationSignature checks that the generator was entitled to forge
// the block: its generation signature chains to the previous block and its
// hit falls in the window its stake allows at the block timestamp
func (v *blockValidator) verifyGenerationSignature(header externalapi.BlockHeader, hasRedeemTransaction bool,
	previous externalapi.DomainBlock) error {

	// Blocks redeeming coins are exempt, since the chain is bootstrapped
	// from an account without stake.
	if hasRedeemTransaction {
		return nil
	}

	generatorID := consensushashing.AccountID(header.GeneratorPublicKey)
	pseudo := previous.Height() <= v.params.FirstXBlocksPseudoEffectiveBalance
	effectiveBalance, exists, err := v.ledger.EffectiveBalanceNXT(generatorID, previous.Height(), pseudo)
	if err != nil {
		return err
	}
	if !exists || effectiveBalance <= 0 {
		return errors.Wrapf(ruleerrors.ErrUnknownGenerator, "generator %s has an effective balance of %d",
			generatorID, effectiveBalance)
	}

	expectedGenerationSignature := targetmath.GenerationSignature(previous.GenerationSignature(),
		header.GeneratorPublicKey)
	if header.GenerationSignature != expectedGenerationSignature {
		return errors.Wrapf(ruleerrors.ErrGenerationSignature, "generation signature %s, expected %s",
			header.GenerationSignature, expectedGenerationSignature)
	}

	factor, err := targetmath.SpeedFactor(v.ledger.RedeemedNQT(), v.params.MaxBalanceNQT)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrForgingDisabled, "%s", err)
	}

	hit := targetmath.HitFromGenerationSignature(header.GenerationSignature)
	isValidHit := targetmath.VerifyHit(hit, effectiveBalance, header.Timestamp, targetmath.HitVerification{
		PreviousTimestamp:  previous.Timestamp(),
		PreviousBaseTarget: previous.BaseTarget(),
		Factor:             factor,
		StallGracePeriod:   v.params.StallGracePeriod,
		Offline:            v.offline,
	})
	if !isValidHit {
		return errors.Wrapf(ruleerrors.ErrGenerationSignature, "hit %s of generator %s with balance %d "+
			"doesn't allow a block at %d", hit, generatorID, effectiveBalance, header.Timestamp)
	}
	return nil
}

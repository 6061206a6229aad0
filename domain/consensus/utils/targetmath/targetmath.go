// Package targetmath holds the arbitrary precision arithmetic of forging:
// hits, hit times, hit verification and cumulative difficulty.
package targetmath

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
)

var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

// ErrZeroSpeedFactor is returned when the redeemed share of the supply
// yields no usable speed factor. Forging is rejected in that case.
var ErrZeroSpeedFactor = errors.New("speed factor is zero")

// GenerationSignature returns the generation signature of a block forged by
// publicKey on top of a block whose generation signature is
// previousGenerationSignature.
func GenerationSignature(previousGenerationSignature externalapi.DomainHash,
	publicKey externalapi.PublicKey) externalapi.DomainHash {

	return hashes.Sum256(previousGenerationSignature[:], publicKey[:])
}

// HitFromGenerationSignature reads the hit out of a generation signature.
func HitFromGenerationSignature(generationSignature externalapi.DomainHash) *big.Int {
	return new(big.Int).SetUint64(hashes.FirstEightBytesLE(generationSignature))
}

// Hit returns the hit of publicKey on top of a block whose generation
// signature is previousGenerationSignature.
func Hit(previousGenerationSignature externalapi.DomainHash, publicKey externalapi.PublicKey) *big.Int {
	return HitFromGenerationSignature(GenerationSignature(previousGenerationSignature, publicKey))
}

// CumulativeDifficultyIncrement returns 2^64 / baseTarget.
func CumulativeDifficultyIncrement(baseTarget int64) *big.Int {
	return new(big.Int).Div(two64, big.NewInt(baseTarget))
}

// SpeedFactor converts the redeemed share of the supply into the integer
// factor that scales forging targets. The conversion goes through float32
// and truncation exactly as the deployed chain does; changing it would
// change consensus.
func SpeedFactor(redeemedNQT int64, maxBalanceNQT int64) (int64, error) {
	ratio := float32(redeemedNQT) / float32(maxBalanceNQT)
	if ratio <= 0 || math.IsNaN(float64(ratio)) {
		return 0, errors.Wrapf(ErrZeroSpeedFactor, "redeemed %d of %d", redeemedNQT, maxBalanceNQT)
	}
	inverse := float32(1.0 / float64(ratio))
	var factor int64
	if float64(inverse) >= math.MaxInt64 {
		factor = math.MaxInt64
	} else {
		factor = int64(inverse)
	}
	if factor == 0 {
		return 0, errors.Wrapf(ErrZeroSpeedFactor, "redeemed %d of %d", redeemedNQT, maxBalanceNQT)
	}
	return factor, nil
}

// EffectiveBaseTarget returns baseTarget * effectiveBalance * factor.
func EffectiveBaseTarget(baseTarget int64, effectiveBalance int64, factor int64) *big.Int {
	effectiveBaseTarget := big.NewInt(baseTarget)
	effectiveBaseTarget.Mul(effectiveBaseTarget, big.NewInt(effectiveBalance))
	return effectiveBaseTarget.Mul(effectiveBaseTarget, big.NewInt(factor))
}

// HitTime returns the earliest timestamp at which a generator with the
// given hit and effective balance may forge on top of a block with the
// given timestamp and base target. A generator without balance gets
// externalapi.InfiniteHitTime.
func HitTime(previousTimestamp int32, hit *big.Int, baseTarget int64, effectiveBalance int64, factor int64) int64 {
	if effectiveBalance <= 0 || factor <= 0 || baseTarget <= 0 {
		return externalapi.InfiniteHitTime
	}
	delay := new(big.Int).Div(hit, EffectiveBaseTarget(baseTarget, effectiveBalance, factor))
	if !delay.IsInt64() || delay.Int64() > externalapi.InfiniteHitTime-int64(previousTimestamp) {
		return externalapi.InfiniteHitTime
	}
	return int64(previousTimestamp) + delay.Int64()
}

// HitVerification holds the chain context a hit is verified against.
type HitVerification struct {
	PreviousTimestamp  int32
	PreviousBaseTarget int64
	Factor             int64

	// StallGracePeriod is the number of seconds after which any hit below
	// the target is accepted.
	StallGracePeriod int32
	Offline          bool
}

// VerifyHit returns whether hit allows a generator with effectiveBalance to
// forge a block at timestamp. With elapsed = timestamp - previous
// timestamp, the hit must fall in [ebt*(elapsed-1), ebt*elapsed) where ebt
// is the effective base target. The lower bound is waived after a chain
// stall or when running offline.
func VerifyHit(hit *big.Int, effectiveBalance int64, timestamp int32, context HitVerification) bool {
	elapsed := int64(timestamp) - int64(context.PreviousTimestamp)
	if elapsed <= 0 {
		return false
	}
	effectiveBaseTarget := EffectiveBaseTarget(context.PreviousBaseTarget, effectiveBalance, context.Factor)
	previousTarget := new(big.Int).Mul(effectiveBaseTarget, big.NewInt(elapsed-1))
	target := new(big.Int).Add(previousTarget, effectiveBaseTarget)

	if hit.Cmp(target) >= 0 {
		return false
	}
	return hit.Cmp(previousTarget) >= 0 ||
		elapsed > int64(context.StallGracePeriod) ||
		context.Offline
}

package externalapi

import "math/big"

// GeneratorInfo is a snapshot of a local forging account
type GeneratorInfo struct {
	AccountID           AccountID
	PublicKey           PublicKey
	EffectiveBalanceNXT int64
	Hit                 *big.Int
	HitTime             int64
	// Deadline is the number of seconds between the last block and HitTime.
	Deadline int64
}

// ActiveGeneratorInfo describes an account that forged recently, local or
// not, and when it may forge next
type ActiveGeneratorInfo struct {
	AccountID           AccountID
	EffectiveBalanceNXT int64
	HitTime             int64
}

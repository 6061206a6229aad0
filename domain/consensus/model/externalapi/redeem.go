package externalapi

// RedeemClaim is an entry of the genesis claim list. Its AmountNQT may be
// redeemed once, to any account, by a redeem transaction carrying
// RequiredSignatures signatures by distinct keys of PublicKeys.
type RedeemClaim struct {
	Address            string
	AmountNQT          int64
	RequiredSignatures int
	PublicKeys         []PublicKey
}

// AccountInfo is a snapshot of an account at Height
type AccountInfo struct {
	AccountID             AccountID
	Height                int32
	BalanceNQT            int64
	UnconfirmedBalanceNQT int64
	ForgedBalanceNQT      int64
	EffectiveBalanceNXT   int64
	HasPublicKey          bool
}

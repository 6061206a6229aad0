package testutils

import (
	"fmt"
	"testing"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/redeemclaim"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/redeem"
)

// TestClaims is a genesis claim list whose entries are each owned by a
// single key the test holds.
type TestClaims struct {
	Claims []*externalapi.RedeemClaim
	keys   []*signing.PrivateKey
}

// NewTestClaims returns one single-signature entry per amount, named
// testentry0, testentry1 and so on.
func NewTestClaims(t testing.TB, amountsNQT ...int64) *TestClaims {
	claims := &TestClaims{}
	for i, amountNQT := range amountsNQT {
		key := NewTestKey(t)
		claims.keys = append(claims.keys, key)
		claims.Claims = append(claims.Claims, &externalapi.RedeemClaim{
			Address:            fmt.Sprintf("testentry%d", i),
			AmountNQT:          amountNQT,
			RequiredSignatures: 1,
			PublicKeys:         []externalapi.PublicKey{key.PublicKey()},
		})
	}
	return claims
}

// NewClaims returns a fresh redeem.Claims holding the entries.
func (c *TestClaims) NewClaims(t testing.TB, params *chainconfig.Params) *redeem.Claims {
	claims, err := redeem.New(c.Claims, params.MaxBalanceNQT)
	if err != nil {
		t.Fatalf("redeem.New: %+v", err)
	}
	return claims
}

// Redeem returns a redeem transaction paying the entry at index to
// recipientID, signed by the entry key.
func (c *TestClaims) Redeem(t testing.TB, params *chainconfig.Params, index int,
	recipientID externalapi.AccountID) *externalapi.DomainTransaction {

	claim := c.Claims[index]
	tx := &externalapi.DomainTransaction{
		Kind:            externalapi.KindRedeem,
		Version:         params.TransactionVersion,
		Timestamp:       1,
		Deadline:        1440,
		SenderPublicKey: params.RedeemPublicKey,
		RecipientID:     recipientID,
		AmountNQT:       claim.AmountNQT,
	}
	err := redeemclaim.Sign(tx, claim.Address, c.keys[index])
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}
	return tx
}

// Package redeem keeps the genesis claim list and the entries redeemed on
// the chain in memory.
package redeem

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

type redemption struct {
	address string
	height  int32
}

// Claims is an in-memory model.RedeemClaims
type Claims struct {
	lock        sync.RWMutex
	claims      map[string]*externalapi.RedeemClaim
	redeemed    map[string]int32
	redemptions []redemption
}

var _ model.RedeemClaims = (*Claims)(nil)

// New returns the claim list made of claims, none of them redeemed. The
// claims together may not exceed maxBalanceNQT.
func New(claims []*externalapi.RedeemClaim, maxBalanceNQT int64) (*Claims, error) {
	byAddress := make(map[string]*externalapi.RedeemClaim, len(claims))
	var totalNQT int64
	for _, claim := range claims {
		if _, ok := byAddress[claim.Address]; ok {
			return nil, errors.Errorf("genesis entry %s is listed twice", claim.Address)
		}
		if claim.AmountNQT <= 0 || claim.AmountNQT > maxBalanceNQT-totalNQT {
			return nil, errors.Errorf("genesis entry %s claims %d NQT, which does not fit the supply",
				claim.Address, claim.AmountNQT)
		}
		if claim.RequiredSignatures <= 0 || claim.RequiredSignatures > len(claim.PublicKeys) {
			return nil, errors.Errorf("genesis entry %s requires %d of %d signatures",
				claim.Address, claim.RequiredSignatures, len(claim.PublicKeys))
		}
		totalNQT += claim.AmountNQT
		byAddress[claim.Address] = claim
	}
	log.Debugf("Loaded %d genesis entries claiming %d NQT", len(byAddress), totalNQT)

	return &Claims{
		claims:   byAddress,
		redeemed: make(map[string]int32),
	}, nil
}

// Claim returns the genesis entry with the given address
func (c *Claims) Claim(address string) (*externalapi.RedeemClaim, bool) {
	claim, ok := c.claims[address]
	return claim, ok
}

// IsRedeemed returns whether the entry with the given address was redeemed
func (c *Claims) IsRedeemed(address string) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	_, ok := c.redeemed[address]
	return ok
}

// MarkRedeemed records the redemption of the entry with the given address
// at height
func (c *Claims) MarkRedeemed(address string, height int32) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.claims[address]; !ok {
		return errors.Errorf("genesis entry %s does not exist", address)
	}
	if redeemedAt, ok := c.redeemed[address]; ok {
		return errors.Errorf("genesis entry %s was redeemed at height %d", address, redeemedAt)
	}
	c.redeemed[address] = height
	c.redemptions = append(c.redemptions, redemption{address: address, height: height})
	return nil
}

// RollbackTo forgets every redemption above height
func (c *Claims) RollbackTo(height int32) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	for len(c.redemptions) > 0 && c.redemptions[len(c.redemptions)-1].height > height {
		last := c.redemptions[len(c.redemptions)-1]
		c.redemptions = c.redemptions[:len(c.redemptions)-1]
		delete(c.redeemed, last.address)
	}
	return nil
}

// RedeemedCount returns the number of entries redeemed so far
func (c *Claims) RedeemedCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.redemptions)
}

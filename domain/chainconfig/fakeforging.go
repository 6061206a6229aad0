package chainconfig

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

// ErrFakeForgingOnMainnet is returned when fake forging is configured for a
// network that does not allow it.
var ErrFakeForgingOnMainnet = errors.New("fake forging is only allowed on testnet")

// FakeForging lets a single configured account forge without a valid hit.
// It only exists on testnet.
type FakeForging struct {
	AccountID externalapi.AccountID
	Enabled   bool
}

// NewFakeForging returns the fake forging setting for accountID. A zero
// accountID disables fake forging.
func NewFakeForging(params *Params, accountID externalapi.AccountID) (FakeForging, error) {
	if accountID == 0 {
		return FakeForging{}, nil
	}
	if !params.Testnet {
		return FakeForging{}, errors.Wrapf(ErrFakeForgingOnMainnet, "network %s", params.Name)
	}
	return FakeForging{AccountID: accountID, Enabled: true}, nil
}

// InPrincipal returns whether fake forging is configured at all
func (f FakeForging) InPrincipal() bool {
	return f.Enabled
}

// Allows returns whether the generator with publicKey may forge without a
// valid hit
func (f FakeForging) Allows(publicKey externalapi.PublicKey) bool {
	return f.Enabled && consensushashing.AccountID(publicKey) == f.AccountID
}

package blockvalidator

import (
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid on top of its
// previous block
type blockValidator struct {
	params      *chainconfig.Params
	fakeForging chainconfig.FakeForging
	offline     bool

	databaseContext model.DBReader
	ledger          model.Ledger
	redeemClaims    model.RedeemClaims
	blockStore      model.BlockStore
}

// New instantiates a new BlockValidator
func New(params *chainconfig.Params,
	fakeForging chainconfig.FakeForging,
	offline bool,

	databaseContext model.DBReader,
	ledger model.Ledger,
	redeemClaims model.RedeemClaims,
	blockStore model.BlockStore) model.BlockValidator {

	return &blockValidator{
		params:      params,
		fakeForging: fakeForging,
		offline:     offline,

		databaseContext: databaseContext,
		ledger:          ledger,
		redeemClaims:    redeemClaims,
		blockStore:      blockStore,
	}
}

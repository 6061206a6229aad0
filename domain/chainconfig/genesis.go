package chainconfig

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

// redeemPublicKey owns the whole supply at genesis. Coins leave it only
// through redeem transactions.
var redeemPublicKey = externalapi.PublicKey{
	0x15, 0xd0, 0x39, 0xed, 0x64, 0x44, 0x01, 0x85,
	0x6c, 0xf2, 0x94, 0xe4, 0x75, 0xcc, 0x9b, 0x9e,
	0xd1, 0xd8, 0xab, 0xbf, 0x83, 0x93, 0x43, 0x5f,
	0x89, 0xf4, 0xab, 0x48, 0x4f, 0xaa, 0x0e, 0x2e,
}

// creatorPublicKey is the generator of the genesis block.
var creatorPublicKey = externalapi.PublicKey{
	0x1c, 0x85, 0xd3, 0xe4, 0x54, 0x9b, 0x33, 0x54,
	0xa5, 0x4d, 0xf2, 0x4d, 0xd0, 0x01, 0x6d, 0xb1,
	0x87, 0x11, 0x12, 0xf8, 0x77, 0xd0, 0xf5, 0x65,
	0xc9, 0xe6, 0xfe, 0x11, 0x85, 0x9e, 0x12, 0xca,
}

var genesisBlockSignature = externalapi.Signature{
	0xc4, 0xdc, 0xf8, 0xd4, 0x87, 0x9c, 0x64, 0x23,
	0x78, 0x18, 0x37, 0x0d, 0x68, 0x0a, 0x17, 0x05,
	0x15, 0x4a, 0x7f, 0x0f, 0x42, 0x7a, 0x42, 0x6b,
	0xcf, 0xf5, 0x06, 0x42, 0x29, 0x17, 0xae, 0x54,
	0x86, 0x72, 0x61, 0x97, 0x3e, 0x20, 0x1e, 0x59,
	0x16, 0x71, 0x21, 0x1a, 0xa1, 0x8f, 0x7b, 0x56,
	0x5f, 0x25, 0x37, 0x11, 0x78, 0xa1, 0x83, 0x0d,
	0x32, 0x6d, 0xe3, 0x5e, 0x01, 0xb9, 0x7e, 0x31,
}

var genesisTransactionSignature = externalapi.Signature{
	0x4f, 0x8a, 0xbe, 0x64, 0x79, 0x9b, 0x98, 0xdf,
	0x15, 0xfa, 0xc0, 0x48, 0x0b, 0x01, 0x3e, 0x9c,
	0xf2, 0x75, 0x63, 0x2b, 0xb4, 0x57, 0x4a, 0x03,
	0x0c, 0xd1, 0x3a, 0x23, 0x02, 0xb6, 0x80, 0x57,
}

// GenesisBlock builds the genesis block of the network. It is not
// validated: the chain trusts it by construction.
func (p *Params) GenesisBlock() externalapi.DomainBlock {
	genesisBlock, err := p.buildGenesisBlock()
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. The genesis block is constant"))
	}
	return genesisBlock
}

func (p *Params) buildGenesisBlock() (externalapi.DomainBlock, error) {
	transactions := []*externalapi.DomainTransaction{{
		Kind:            externalapi.KindOrdinaryPayment,
		SenderPublicKey: p.CreatorPublicKey,
		RecipientID:     p.RedeemAccountID(),
		AmountNQT:       p.MaxBalanceNQT,
		Signature:       genesisTransactionSignature,
	}}

	header := externalapi.BlockHeader{
		TotalAmountNQT:     p.MaxBalanceNQT,
		PayloadLength:      int32(consensushashing.PayloadLength(transactions)),
		PayloadHash:        consensushashing.PayloadHash(transactions),
		GeneratorPublicKey: p.CreatorPublicKey,
	}
	builder := blocks.NewBuilder(header, transactions, p.LeastPossibleTarget, 0)
	err := builder.SetSignature(genesisBlockSignature)
	if err != nil {
		return nil, err
	}
	err = builder.Link(nil, genesisRetargeter{baseTarget: p.InitialBaseTarget})
	if err != nil {
		return nil, err
	}
	return builder.Build()
}

type genesisRetargeter struct {
	baseTarget int64
}

func (r genesisRetargeter) NextTarget(_ externalapi.DomainBlock, _ int32) (int64, *big.Int, error) {
	return r.baseTarget, new(big.Int), nil
}

package blocks

import (
	"math/big"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// block is the immutable implementation of externalapi.DomainBlock.
type block struct {
	id            externalapi.BlockID
	bytes         []byte
	header        externalapi.BlockHeader
	signature     externalapi.Signature
	generatorID   externalapi.AccountID
	transactions  []*externalapi.DomainTransaction
	minPowTarget  *big.Int
	softforkVotes uint64

	height               int32
	baseTarget           int64
	cumulativeDifficulty *big.Int
	nextBlockID          externalapi.BlockID
}

func (b *block) ID() externalapi.BlockID {
	return b.id
}

func (b *block) Header() externalapi.BlockHeader {
	return b.header
}

func (b *block) Version() int32 {
	return b.header.Version
}

func (b *block) Timestamp() int32 {
	return b.header.Timestamp
}

func (b *block) PreviousBlockID() externalapi.BlockID {
	return b.header.PreviousBlockID
}

func (b *block) TotalAmountNQT() int64 {
	return b.header.TotalAmountNQT
}

func (b *block) TotalFeeNQT() int64 {
	return b.header.TotalFeeNQT
}

func (b *block) PayloadLength() int32 {
	return b.header.PayloadLength
}

func (b *block) PayloadHash() externalapi.DomainHash {
	return b.header.PayloadHash
}

func (b *block) GeneratorPublicKey() externalapi.PublicKey {
	return b.header.GeneratorPublicKey
}

func (b *block) GeneratorID() externalapi.AccountID {
	return b.generatorID
}

func (b *block) GenerationSignature() externalapi.DomainHash {
	return b.header.GenerationSignature
}

func (b *block) PreviousBlockHash() externalapi.DomainHash {
	return b.header.PreviousBlockHash
}

func (b *block) Signature() externalapi.Signature {
	return b.signature
}

func (b *block) Height() int32 {
	return b.height
}

func (b *block) BaseTarget() int64 {
	return b.baseTarget
}

func (b *block) NextBlockID() externalapi.BlockID {
	return b.nextBlockID
}

func (b *block) SoftforkVotes() uint64 {
	return b.softforkVotes
}

func (b *block) TransactionCount() int {
	return len(b.transactions)
}

func (b *block) HasRedeemTransaction() bool {
	return hasRedeemTransaction(b.transactions)
}

func (b *block) CumulativeDifficulty() *big.Int {
	return new(big.Int).Set(b.cumulativeDifficulty)
}

func (b *block) MinPowTarget() *big.Int {
	return new(big.Int).Set(b.minPowTarget)
}

func (b *block) Transactions() []*externalapi.DomainTransaction {
	return externalapi.CloneTransactions(b.transactions)
}

func (b *block) Bytes() []byte {
	blockBytes := make([]byte, len(b.bytes))
	copy(blockBytes, b.bytes)
	return blockBytes
}

func (b *block) WithNextBlockID(nextBlockID externalapi.BlockID) externalapi.DomainBlock {
	clone := *b
	clone.nextBlockID = nextBlockID
	return &clone
}

// ToBuilder returns an unlinked builder carrying the signed content of
// domainBlock. It is used to push a popped-off block again.
func ToBuilder(domainBlock externalapi.DomainBlock) (*Builder, error) {
	builder := NewBuilder(domainBlock.Header(), unbind(domainBlock.Transactions()),
		domainBlock.MinPowTarget(), domainBlock.SoftforkVotes())
	if !domainBlock.Signature().IsZero() {
		err := builder.SetSignature(domainBlock.Signature())
		if err != nil {
			return nil, err
		}
	}
	return builder, nil
}

func unbind(transactions []*externalapi.DomainTransaction) []*externalapi.DomainTransaction {
	for _, tx := range transactions {
		tx.BlockID = 0
		tx.Height = 0
		tx.IndexInBlock = 0
		tx.BlockTimestamp = 0
	}
	return transactions
}

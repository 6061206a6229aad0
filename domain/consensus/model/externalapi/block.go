package externalapi

import (
	"math"
	"math/big"
)

// UndefinedHeight is the height of a block that was not linked to its
// parent yet.
const UndefinedHeight int32 = -1

// BlockHeader holds the signed fields of a block, except the transaction
// count which is taken from the block's transactions.
type BlockHeader struct {
	Version             int32
	Timestamp           int32
	PreviousBlockID     BlockID
	TotalAmountNQT      int64
	TotalFeeNQT         int64
	PayloadLength       int32
	PayloadHash         DomainHash
	GeneratorPublicKey  PublicKey
	GenerationSignature DomainHash
	PreviousBlockHash   DomainHash
}

// DomainBlock is an immutable, signed and linked block. Getters returning
// reference types return copies.
type DomainBlock interface {
	ID() BlockID
	Header() BlockHeader
	Version() int32
	Timestamp() int32
	PreviousBlockID() BlockID
	TotalAmountNQT() int64
	TotalFeeNQT() int64
	PayloadLength() int32
	PayloadHash() DomainHash
	GeneratorPublicKey() PublicKey
	GeneratorID() AccountID
	GenerationSignature() DomainHash
	PreviousBlockHash() DomainHash
	Signature() Signature

	Height() int32
	BaseTarget() int64
	CumulativeDifficulty() *big.Int
	NextBlockID() BlockID
	MinPowTarget() *big.Int
	SoftforkVotes() uint64

	Transactions() []*DomainTransaction
	TransactionCount() int
	HasRedeemTransaction() bool

	// Bytes returns the signed serialization of the block.
	Bytes() []byte

	// WithNextBlockID returns a copy of the block whose NextBlockID is set.
	WithNextBlockID(nextBlockID BlockID) DomainBlock
}

// InfiniteHitTime is the hit time of a generator that can never forge.
const InfiniteHitTime int64 = math.MaxInt64

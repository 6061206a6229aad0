// Package blocks builds blocks in two phases. A Builder holds an unsigned,
// unlinked block and may be mutated; once it is signed (or exempt from
// signing) and linked to its parent it is turned into an immutable
// externalapi.DomainBlock.
package blocks

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

// ErrAlreadySigned is returned when signing a block twice.
var ErrAlreadySigned = errors.New("block is already signed")

// ErrUnsignedBlock is returned when an id is requested from a block that is
// neither signed nor exempt from signing.
var ErrUnsignedBlock = errors.New("block is not signed")

// Retargeter computes the base target and cumulative difficulty of a block
// from its parent. A nil parent denotes the genesis block.
type Retargeter interface {
	NextTarget(parent externalapi.DomainBlock, timestamp int32) (baseTarget int64, cumulativeDifficulty *big.Int, err error)
}

// Builder is a block under construction.
type Builder struct {
	header        externalapi.BlockHeader
	transactions  []*externalapi.DomainTransaction
	signature     *externalapi.Signature
	minPowTarget  *big.Int
	softforkVotes uint64

	height               int32
	baseTarget           int64
	cumulativeDifficulty *big.Int
}

// NewBuilder returns a builder for an unsigned, unlinked block. The builder
// takes ownership of transactions.
func NewBuilder(header externalapi.BlockHeader, transactions []*externalapi.DomainTransaction,
	minPowTarget *big.Int, softforkVotes uint64) *Builder {

	if minPowTarget == nil {
		minPowTarget = new(big.Int)
	}
	return &Builder{
		header:        header,
		transactions:  transactions,
		minPowTarget:  new(big.Int).Set(minPowTarget),
		softforkVotes: softforkVotes,
		height:        externalapi.UndefinedHeight,
	}
}

// Header returns the header of the block.
func (b *Builder) Header() externalapi.BlockHeader {
	return b.header
}

// Transactions returns the transactions of the block. They are shared with
// the builder.
func (b *Builder) Transactions() []*externalapi.DomainTransaction {
	return b.transactions
}

// HasRedeemTransaction returns whether the block carries a redeem
// transaction.
func (b *Builder) HasRedeemTransaction() bool {
	return hasRedeemTransaction(b.transactions)
}

// IsSigned returns whether the block carries a signature.
func (b *Builder) IsSigned() bool {
	return b.signature != nil
}

// UnsignedBytes returns the serialization of the block without signature.
func (b *Builder) UnsignedBytes() []byte {
	return consensushashing.BlockBytes(&b.header, len(b.transactions), nil)
}

// Sign signs the block with key. A block can be signed only once.
func (b *Builder) Sign(key *signing.PrivateKey) error {
	if b.signature != nil {
		return errors.WithStack(ErrAlreadySigned)
	}
	signature, err := key.Sign(hashes.Sum256(b.UnsignedBytes()))
	if err != nil {
		return err
	}
	b.signature = &signature
	return nil
}

// SetSignature attaches an existing signature, as found in stored or
// received blocks.
func (b *Builder) SetSignature(signature externalapi.Signature) error {
	if b.signature != nil {
		return errors.WithStack(ErrAlreadySigned)
	}
	b.signature = &signature
	return nil
}

// Bytes returns the serialization of the block, signature included.
func (b *Builder) Bytes() ([]byte, error) {
	if b.signature == nil {
		// Known special case: blocks carrying a redeem transaction are
		// exempt from signing. It is kept to stay compatible with the
		// existing chain and awaits confirmation before being changed.
		if b.HasRedeemTransaction() {
			return b.UnsignedBytes(), nil
		}
		return nil, errors.WithStack(ErrUnsignedBlock)
	}
	return consensushashing.BlockBytes(&b.header, len(b.transactions), b.signature), nil
}

// ID returns the id of the block.
func (b *Builder) ID() (externalapi.BlockID, error) {
	blockBytes, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	return consensushashing.BlockID(blockBytes), nil
}

// Height returns the height of a linked block. Calling it before Link is a
// programming error.
func (b *Builder) Height() int32 {
	if b.height == externalapi.UndefinedHeight {
		panic("block height is undefined before the block is linked to its parent")
	}
	return b.height
}

// Link sets the height, base target and cumulative difficulty of the block
// from its parent, and binds the transactions to the block. parent must be
// the block referenced by PreviousBlockID, or nil for genesis; anything
// else is a programming error.
func (b *Builder) Link(parent externalapi.DomainBlock, retargeter Retargeter) error {
	if parent == nil {
		if b.header.PreviousBlockID != 0 {
			panic(fmt.Sprintf("block with previous block %s linked as genesis", b.header.PreviousBlockID))
		}
	} else if parent.ID() != b.header.PreviousBlockID {
		panic(fmt.Sprintf("block with previous block %s linked to parent %s",
			b.header.PreviousBlockID, parent.ID()))
	}

	id, err := b.ID()
	if err != nil {
		return err
	}

	baseTarget, cumulativeDifficulty, err := retargeter.NextTarget(parent, b.header.Timestamp)
	if err != nil {
		return err
	}

	height := int32(0)
	if parent != nil {
		height = parent.Height() + 1
	}
	b.height = height
	b.baseTarget = baseTarget
	b.cumulativeDifficulty = cumulativeDifficulty
	b.bindTransactions(id)
	return nil
}

func (b *Builder) bindTransactions(id externalapi.BlockID) {
	for i, tx := range b.transactions {
		tx.BlockID = id
		tx.Height = b.height
		tx.IndexInBlock = int16(i)
		tx.BlockTimestamp = b.header.Timestamp
	}
}

// Build returns the immutable block. The block must be linked.
func (b *Builder) Build() (externalapi.DomainBlock, error) {
	if b.height == externalapi.UndefinedHeight {
		return nil, errors.New("cannot build a block that is not linked")
	}
	return b.build(0)
}

// Restore builds the immutable form of a block read back from storage,
// using its stored linkage instead of recomputing it.
func (b *Builder) Restore(height int32, baseTarget int64, cumulativeDifficulty *big.Int,
	nextBlockID externalapi.BlockID) (externalapi.DomainBlock, error) {

	id, err := b.ID()
	if err != nil {
		return nil, err
	}
	b.height = height
	b.baseTarget = baseTarget
	b.cumulativeDifficulty = new(big.Int).Set(cumulativeDifficulty)
	b.bindTransactions(id)
	return b.build(nextBlockID)
}

func (b *Builder) build(nextBlockID externalapi.BlockID) (externalapi.DomainBlock, error) {
	blockBytes, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	var signature externalapi.Signature
	if b.signature != nil {
		signature = *b.signature
	}
	return &block{
		id:                   consensushashing.BlockID(blockBytes),
		bytes:                blockBytes,
		header:               b.header,
		signature:            signature,
		generatorID:          consensushashing.AccountID(b.header.GeneratorPublicKey),
		transactions:         externalapi.CloneTransactions(b.transactions),
		minPowTarget:         new(big.Int).Set(b.minPowTarget),
		softforkVotes:        b.softforkVotes,
		height:               b.height,
		baseTarget:           b.baseTarget,
		cumulativeDifficulty: new(big.Int).Set(b.cumulativeDifficulty),
		nextBlockID:          nextBlockID,
	}, nil
}

func hasRedeemTransaction(transactions []*externalapi.DomainTransaction) bool {
	for _, tx := range transactions {
		if tx.Kind.IsRedeem() {
			return true
		}
	}
	return false
}

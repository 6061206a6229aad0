package testutils

import (
	"math/big"
	"testing"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
)

// ConstantRetargeter keeps the base target fixed and adds one to the
// cumulative difficulty of every block.
type ConstantRetargeter struct {
	BaseTarget int64
}

// NextTarget implements blocks.Retargeter
func (r ConstantRetargeter) NextTarget(parent externalapi.DomainBlock, _ int32) (int64, *big.Int, error) {
	cumulativeDifficulty := new(big.Int)
	if parent != nil {
		cumulativeDifficulty.Add(parent.CumulativeDifficulty(), big.NewInt(1))
	}
	return r.BaseTarget, cumulativeDifficulty, nil
}

// NewTestKey generates a signing key or fails the test
func NewTestKey(t testing.TB) *signing.PrivateKey {
	key, err := signing.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %+v", err)
	}
	return key
}

// BuildBlock builds a signed block on top of parent (nil for a genesis
// block) and links it with retargeter.
func BuildBlock(t testing.TB, parent externalapi.DomainBlock, key *signing.PrivateKey, timestamp int32,
	softforkVotes uint64, retargeter blocks.Retargeter,
	transactions ...*externalapi.DomainTransaction) externalapi.DomainBlock {

	builder := NewSignedBuilder(t, parent, key, timestamp, softforkVotes, transactions...)
	err := builder.Link(parent, retargeter)
	if err != nil {
		t.Fatalf("Link: %+v", err)
	}
	block, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %+v", err)
	}
	return block
}

// NewSignedBuilder returns a signed, unlinked block on top of parent whose
// totals and payload fields match transactions.
func NewSignedBuilder(t testing.TB, parent externalapi.DomainBlock, key *signing.PrivateKey, timestamp int32,
	softforkVotes uint64, transactions ...*externalapi.DomainTransaction) *blocks.Builder {

	header := externalapi.BlockHeader{
		Version:            1,
		Timestamp:          timestamp,
		PayloadLength:      int32(consensushashing.PayloadLength(transactions)),
		PayloadHash:        consensushashing.PayloadHash(transactions),
		GeneratorPublicKey: key.PublicKey(),
	}
	for _, tx := range transactions {
		header.TotalAmountNQT += tx.AmountNQT
		header.TotalFeeNQT += tx.FeeNQT
	}
	if parent != nil {
		header.PreviousBlockID = parent.ID()
		header.PreviousBlockHash = consensushashing.BlockHash(parent.Bytes())
		header.GenerationSignature = targetmath.GenerationSignature(parent.GenerationSignature(), key.PublicKey())
	}
	builder := blocks.NewBuilder(header, transactions, big.NewInt(1), softforkVotes)
	err := builder.Sign(key)
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}
	return builder
}

// BuildChain builds a chain of length blocks on top of genesis, one block
// every 60 seconds, all forged by key.
func BuildChain(t testing.TB, genesis externalapi.DomainBlock, key *signing.PrivateKey,
	length int) []externalapi.DomainBlock {

	chain := make([]externalapi.DomainBlock, 0, length)
	parent := genesis
	for i := 0; i < length; i++ {
		block := BuildBlock(t, parent, key, parent.Timestamp()+60, 0, ConstantRetargeter{BaseTarget: 100})
		chain = append(chain, block)
		parent = block
	}
	return chain
}

package blocks

import (
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

type fixedRetargeter struct {
	baseTarget int64
}

func (r fixedRetargeter) NextTarget(parent externalapi.DomainBlock, _ int32) (int64, *big.Int, error) {
	cumulativeDifficulty := new(big.Int)
	if parent != nil {
		cumulativeDifficulty.Add(parent.CumulativeDifficulty(), big.NewInt(1))
	}
	return r.baseTarget, cumulativeDifficulty, nil
}

func newTestKey(t *testing.T) *signing.PrivateKey {
	key, err := signing.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %+v", err)
	}
	return key
}

func newTestBuilder(key *signing.PrivateKey, previousBlockID externalapi.BlockID, timestamp int32,
	transactions ...*externalapi.DomainTransaction) *Builder {

	header := externalapi.BlockHeader{
		Version:            1,
		Timestamp:          timestamp,
		PreviousBlockID:    previousBlockID,
		PayloadLength:      int32(consensushashing.PayloadLength(transactions)),
		PayloadHash:        consensushashing.PayloadHash(transactions),
		GeneratorPublicKey: key.PublicKey(),
	}
	return NewBuilder(header, transactions, big.NewInt(5), 0b101)
}

func buildGenesis(t *testing.T, key *signing.PrivateKey) externalapi.DomainBlock {
	builder := newTestBuilder(key, 0, 0)
	err := builder.Sign(key)
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}
	err = builder.Link(nil, fixedRetargeter{baseTarget: 100})
	if err != nil {
		t.Fatalf("Link: %+v", err)
	}
	genesis, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %+v", err)
	}
	return genesis
}

func TestSignOnce(t *testing.T) {
	key := newTestKey(t)
	builder := newTestBuilder(key, 0, 0)

	_, err := builder.ID()
	if !errors.Is(err, ErrUnsignedBlock) {
		t.Fatalf("TestSignOnce: expected ErrUnsignedBlock, got: %v", err)
	}

	err = builder.Sign(key)
	if err != nil {
		t.Fatalf("TestSignOnce: Sign: %+v", err)
	}
	err = builder.Sign(key)
	if !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("TestSignOnce: expected ErrAlreadySigned, got: %v", err)
	}

	firstID, err := builder.ID()
	if err != nil {
		t.Fatalf("TestSignOnce: ID: %+v", err)
	}
	secondID, err := builder.ID()
	if err != nil {
		t.Fatalf("TestSignOnce: ID: %+v", err)
	}
	if firstID != secondID {
		t.Fatalf("TestSignOnce: ID changed between calls: %s != %s", firstID, secondID)
	}
}

func TestRedeemBlockIsExemptFromSigning(t *testing.T) {
	key := newTestKey(t)
	redeem := &externalapi.DomainTransaction{Kind: externalapi.KindRedeem, Version: 1, AmountNQT: 10}
	builder := newTestBuilder(key, 0, 0, redeem)

	_, err := builder.ID()
	if err != nil {
		t.Fatalf("TestRedeemBlockIsExemptFromSigning: ID: %+v", err)
	}
	err = builder.Link(nil, fixedRetargeter{baseTarget: 100})
	if err != nil {
		t.Fatalf("TestRedeemBlockIsExemptFromSigning: Link: %+v", err)
	}
	domainBlock, err := builder.Build()
	if err != nil {
		t.Fatalf("TestRedeemBlockIsExemptFromSigning: Build: %+v", err)
	}
	if !VerifySignature(domainBlock, 1) {
		t.Fatalf("TestRedeemBlockIsExemptFromSigning: redeem block didn't verify")
	}
	if VerifySignature(domainBlock, domainBlock.GeneratorID()) {
		t.Fatalf("TestRedeemBlockIsExemptFromSigning: block of the redeem account verified")
	}
}

func TestHeightBeforeLinkPanics(t *testing.T) {
	key := newTestKey(t)
	builder := newTestBuilder(key, 0, 0)
	defer func() {
		if r := recover(); r == nil || !strings.Contains(r.(string), "undefined") {
			t.Fatalf("TestHeightBeforeLinkPanics: expected a panic about the undefined height, got: %v", r)
		}
	}()
	builder.Height()
}

func TestLinkToWrongParentPanics(t *testing.T) {
	key := newTestKey(t)
	genesis := buildGenesis(t, key)

	builder := newTestBuilder(key, genesis.ID()+1, 10)
	err := builder.Sign(key)
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("TestLinkToWrongParentPanics: expected a panic")
		}
	}()
	_ = builder.Link(genesis, fixedRetargeter{baseTarget: 100})
}

func TestLinkBindsTransactions(t *testing.T) {
	key := newTestKey(t)
	genesis := buildGenesis(t, key)
	if genesis.Height() != 0 || genesis.CumulativeDifficulty().Sign() != 0 {
		t.Fatalf("TestLinkBindsTransactions: unexpected genesis linkage")
	}

	transactions := []*externalapi.DomainTransaction{
		{Kind: externalapi.KindOrdinaryPayment, Version: 1, Timestamp: 1, AmountNQT: 1},
		{Kind: externalapi.KindOrdinaryPayment, Version: 1, Timestamp: 2, AmountNQT: 2},
	}
	builder := newTestBuilder(key, genesis.ID(), 10, transactions...)
	err := builder.Sign(key)
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}
	err = builder.Link(genesis, fixedRetargeter{baseTarget: 100})
	if err != nil {
		t.Fatalf("Link: %+v", err)
	}
	child, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %+v", err)
	}

	if child.Height() != 1 || child.BaseTarget() != 100 || child.CumulativeDifficulty().Int64() != 1 {
		t.Fatalf("TestLinkBindsTransactions: unexpected child linkage")
	}
	for i, tx := range child.Transactions() {
		if tx.BlockID != child.ID() || tx.Height != 1 || int(tx.IndexInBlock) != i || tx.BlockTimestamp != 10 {
			t.Fatalf("TestLinkBindsTransactions: transaction %d is not bound to the block", i)
		}
	}
	if !VerifySignature(child, 1) {
		t.Fatalf("TestLinkBindsTransactions: signed block didn't verify")
	}

	child.Transactions()[0].AmountNQT = 1000
	if child.Transactions()[0].AmountNQT != 1 {
		t.Fatalf("TestLinkBindsTransactions: block transactions were mutated through a getter")
	}

	patched := child.WithNextBlockID(77)
	if patched.NextBlockID() != 77 || child.NextBlockID() != 0 || patched.ID() != child.ID() {
		t.Fatalf("TestLinkBindsTransactions: WithNextBlockID must return a patched copy")
	}
}

func TestRestore(t *testing.T) {
	key := newTestKey(t)
	genesis := buildGenesis(t, key)

	builder, err := ToBuilder(genesis)
	if err != nil {
		t.Fatalf("ToBuilder: %+v", err)
	}
	restored, err := builder.Restore(genesis.Height(), genesis.BaseTarget(), genesis.CumulativeDifficulty(), 9)
	if err != nil {
		t.Fatalf("Restore: %+v", err)
	}
	if restored.ID() != genesis.ID() || restored.NextBlockID() != 9 ||
		restored.MinPowTarget().Cmp(genesis.MinPowTarget()) != 0 || restored.SoftforkVotes() != genesis.SoftforkVotes() {
		t.Fatalf("TestRestore: restored block doesn't match the original")
	}
}

func TestHasDuplicateTransactions(t *testing.T) {
	payment := &externalapi.DomainTransaction{Kind: externalapi.KindOrdinaryPayment, Version: 1, AmountNQT: 1}
	if !HasDuplicateTransactions([]*externalapi.DomainTransaction{payment, payment.Clone()}) {
		t.Fatalf("TestHasDuplicateTransactions: identical transactions were not detected")
	}
}

func TestHasDuplicateCleanIDs(t *testing.T) {
	work := &externalapi.DomainTransaction{Kind: externalapi.KindNewWork, Version: 1,
		SupernodeSignature: externalapi.Signature{1}}
	relayedTwice := work.Clone()
	relayedTwice.SupernodeSignature = externalapi.Signature{2}

	if !HasDuplicateTransactions([]*externalapi.DomainTransaction{work, relayedTwice}) {
		t.Fatalf("TestHasDuplicateCleanIDs: transactions with the same clean id were not detected")
	}

	other := work.Clone()
	other.AmountNQT = 3
	if HasDuplicateTransactions([]*externalapi.DomainTransaction{work, other}) {
		t.Fatalf("TestHasDuplicateCleanIDs: distinct transactions reported as duplicates")
	}
}

func TestBuilderVerifySignature(t *testing.T) {
	key := newTestKey(t)
	builder := newTestBuilder(key, 0, 10)
	if builder.VerifySignature(0) {
		t.Fatalf("TestBuilderVerifySignature: an unsigned block must not verify")
	}
	err := builder.Sign(key)
	if err != nil {
		t.Fatalf("TestBuilderVerifySignature: Sign: %+v", err)
	}
	if !builder.VerifySignature(0) {
		t.Fatalf("TestBuilderVerifySignature: a signed block must verify")
	}
	if builder.VerifySignature(key.AccountID()) {
		t.Fatalf("TestBuilderVerifySignature: blocks of the redeem account must not verify")
	}

	other := newTestBuilder(key, 0, 11)
	err = other.Sign(newTestKey(t))
	if err != nil {
		t.Fatalf("TestBuilderVerifySignature: Sign: %+v", err)
	}
	if other.VerifySignature(0) {
		t.Fatalf("TestBuilderVerifySignature: a block signed by another key must not verify")
	}
}

func TestPowCounts(t *testing.T) {
	transactions := []*externalapi.DomainTransaction{
		{Kind: externalapi.KindProofOfWork, WorkID: 1},
		{Kind: externalapi.KindProofOfWork, WorkID: 1},
		{Kind: externalapi.KindProofOfWork, WorkID: 2},
		{Kind: externalapi.KindBounty, WorkID: 1},
		{Kind: externalapi.KindOrdinaryPayment},
	}
	counts := PowCounts(transactions)
	if len(counts) != 2 || counts[1] != 2 || counts[2] != 1 {
		t.Fatalf("TestPowCounts: unexpected counts %v", counts)
	}
}

package mempool

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/testutils"
)

type transactionFactory struct {
	t      *testing.T
	params *chainconfig.Params
	key    *signing.PrivateKey
}

func (f *transactionFactory) new(kind externalapi.TransactionKind, timestamp int32, feeNQT int64,
	supernodeSignature byte) *externalapi.DomainTransaction {

	tx := &externalapi.DomainTransaction{
		Kind:            kind,
		Version:         f.params.TransactionVersion,
		Timestamp:       timestamp,
		Deadline:        60,
		SenderPublicKey: f.key.PublicKey(),
		RecipientID:     f.params.RedeemAccountID(),
		AmountNQT:       f.params.OneNXT,
		FeeNQT:          feeNQT,
	}
	if kind.HasWorkReference() {
		tx.WorkID = 7
	}
	if kind.MustHaveSupernodeSignature() {
		tx.SupernodeSignature[0] = supernodeSignature
	}
	err := signing.SignTransaction(tx, f.key)
	if err != nil {
		f.t.Fatalf("SignTransaction: %+v", err)
	}
	return tx
}

func newTestMempool(t *testing.T, params *chainconfig.Params) (*Mempool, *transactionFactory) {
	return New(DefaultConfig(params, chainconfig.FakeForging{})),
		&transactionFactory{t: t, params: params, key: testutils.NewTestKey(t)}
}

func ids(transactions []*externalapi.DomainTransaction) []externalapi.TransactionID {
	result := make([]externalapi.TransactionID, len(transactions))
	for i, tx := range transactions {
		result[i] = consensushashing.TransactionID(tx)
	}
	return result
}

func TestAdd(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)

	tx := factory.new(externalapi.KindOrdinaryPayment, 1000, params.OneNXT, 0)
	err := mempool.Add(tx)
	if err != nil {
		t.Fatalf("Add: %+v", err)
	}
	err = mempool.Add(tx)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("Add: expected ErrDuplicateTransaction, got: %v", err)
	}

	forged := tx.Clone()
	forged.AmountNQT++
	err = mempool.Add(forged)
	if !errors.Is(err, ruleerrors.ErrTransactionSignature) {
		t.Fatalf("Add: expected ErrTransactionSignature, got: %v", err)
	}

	if mempool.Count() != 1 || !mempool.Has(consensushashing.TransactionID(tx)) {
		t.Fatalf("unexpected mempool content")
	}
	mempool.Remove(consensushashing.TransactionID(tx))
	if mempool.Count() != 0 {
		t.Fatalf("Remove didn't remove the transaction")
	}
}

func TestAddRejectsAmountsOutOfRange(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)

	tests := []struct {
		name      string
		amountNQT int64
		feeNQT    int64
	}{
		{name: "negative amount", amountNQT: -1000 * params.OneNXT, feeNQT: params.OneNXT},
		{name: "negative fee", amountNQT: params.OneNXT, feeNQT: -params.OneNXT},
		{name: "amount above the supply", amountNQT: params.MaxBalanceNQT + 1, feeNQT: params.OneNXT},
		{name: "fee above the supply", amountNQT: params.OneNXT, feeNQT: params.MaxBalanceNQT + 1},
	}
	for _, test := range tests {
		tx := factory.new(externalapi.KindOrdinaryPayment, 1000, test.feeNQT, 0)
		tx.AmountNQT = test.amountNQT
		err := signing.SignTransaction(tx, factory.key)
		if err != nil {
			t.Fatalf("SignTransaction: %+v", err)
		}
		err = mempool.Add(tx)
		if !errors.Is(err, ruleerrors.ErrTransactionAmount) {
			t.Fatalf("%s: expected ErrTransactionAmount, got: %v", test.name, err)
		}
		if _, ok := ruleerrors.AsTransactionNotAccepted(err); !ok {
			t.Fatalf("%s: expected a TransactionNotAcceptedError, got: %v", test.name, err)
		}
	}
	if mempool.Count() != 0 {
		t.Fatalf("rejected transactions entered the mempool")
	}
}

func TestSelectForBlockOrdersByFeeRate(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)
	previous := params.GenesisBlock()

	low := factory.new(externalapi.KindOrdinaryPayment, 1000, params.OneNXT, 0)
	high := factory.new(externalapi.KindOrdinaryPayment, 1001, 3*params.OneNXT, 0)
	middle := factory.new(externalapi.KindOrdinaryPayment, 1002, 2*params.OneNXT, 0)
	for _, tx := range []*externalapi.DomainTransaction{low, high, middle} {
		err := mempool.Add(tx)
		if err != nil {
			t.Fatalf("Add: %+v", err)
		}
	}

	selected := ids(mempool.SelectForBlock(previous, 1100))
	expected := ids([]*externalapi.DomainTransaction{high, middle, low})
	if len(selected) != len(expected) {
		t.Fatalf("expected %d transactions, got %d", len(expected), len(selected))
	}
	for i := range expected {
		if selected[i] != expected[i] {
			t.Fatalf("transaction %d: expected %s, got %s", i, expected[i], selected[i])
		}
	}
}

func TestSelectForBlockFilters(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)
	mempool.config.MaxPowsPerBlock = 4
	previous := params.GenesisBlock()
	const blockTimestamp = 10000

	expired := factory.new(externalapi.KindOrdinaryPayment, blockTimestamp-3700, params.OneNXT, 0)
	future := factory.new(externalapi.KindOrdinaryPayment, blockTimestamp+params.MaxTimeDrift+1, params.OneNXT, 0)
	oldRedeem := &externalapi.DomainTransaction{
		Kind:            externalapi.KindRedeem,
		Version:         params.TransactionVersion,
		Timestamp:       blockTimestamp - 3700,
		Deadline:        60,
		SenderPublicKey: params.RedeemPublicKey,
		RecipientID:     factory.key.AccountID(),
		AmountNQT:       params.OneNXT,
	}
	wrongVersion := factory.new(externalapi.KindOrdinaryPayment, blockTimestamp, params.OneNXT, 0)
	wrongVersion.Version++
	err := signing.SignTransaction(wrongVersion, factory.key)
	if err != nil {
		t.Fatalf("SignTransaction: %+v", err)
	}
	pows := []*externalapi.DomainTransaction{
		factory.new(externalapi.KindProofOfWork, blockTimestamp, params.OneNXT, 1),
		factory.new(externalapi.KindProofOfWork, blockTimestamp+1, params.OneNXT, 1),
		factory.new(externalapi.KindProofOfWork, blockTimestamp+2, params.OneNXT, 1),
	}
	relayedTwice := pows[0].Clone()
	relayedTwice.SupernodeSignature[0] = 2

	for _, tx := range append([]*externalapi.DomainTransaction{expired, future, oldRedeem, wrongVersion, relayedTwice}, pows...) {
		err := mempool.Add(tx)
		if err != nil {
			t.Fatalf("Add: %+v", err)
		}
	}

	selected := mempool.SelectForBlock(previous, blockTimestamp)
	powCount := 0
	foundRedeem := false
	for _, tx := range selected {
		id := consensushashing.TransactionID(tx)
		switch id {
		case consensushashing.TransactionID(expired), consensushashing.TransactionID(future),
			consensushashing.TransactionID(wrongVersion):
			t.Fatalf("transaction %s should have been filtered", id)
		case consensushashing.TransactionID(oldRedeem):
			foundRedeem = true
		}
		if tx.Kind.IsProofOfWork() {
			powCount++
		}
	}
	if !foundRedeem {
		t.Fatalf("an expired redeem transaction was filtered")
	}
	if consensushashing.CleanID(relayedTwice) != consensushashing.CleanID(pows[0]) {
		t.Fatalf("a transaction relayed by two supernodes has two clean ids")
	}
	if powCount != 3 {
		t.Fatalf("expected 3 proofs of work, got %d", powCount)
	}
	if len(selected) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(selected))
	}
}

func TestSelectForBlockLimits(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)
	previous := params.GenesisBlock()

	for i := 0; i < params.MaxNumberOfTransactions+10; i++ {
		err := mempool.Add(factory.new(externalapi.KindOrdinaryPayment, 1000+int32(i), params.OneNXT, 0))
		if err != nil {
			t.Fatalf("Add: %+v", err)
		}
	}
	selected := mempool.SelectForBlock(previous, 1100)
	if len(selected) > params.MaxNumberOfTransactions {
		t.Fatalf("selected %d transactions, the limit is %d", len(selected), params.MaxNumberOfTransactions)
	}
	if consensushashing.PayloadLength(selected) > int(params.MaxPayloadLength) {
		t.Fatalf("selected payload of %d bytes, the limit is %d",
			consensushashing.PayloadLength(selected), params.MaxPayloadLength)
	}
}

func TestRequeueAndRemoveConfirmed(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)

	first := factory.new(externalapi.KindOrdinaryPayment, 1000, params.OneNXT, 0)
	second := factory.new(externalapi.KindOrdinaryPayment, 1001, params.OneNXT, 0)
	confirmed := []*externalapi.DomainTransaction{first.Clone(), second.Clone()}
	for i, tx := range confirmed {
		tx.BlockID = 99
		tx.Height = 5
		tx.IndexInBlock = int16(i)
	}

	mempool.Requeue(confirmed)
	if mempool.Count() != 2 {
		t.Fatalf("Requeue: expected 2 transactions, got %d", mempool.Count())
	}
	for _, tx := range mempool.SelectForBlock(params.GenesisBlock(), 1100) {
		if tx.BlockID != 0 || tx.Height != 0 {
			t.Fatalf("a requeued transaction kept its block position")
		}
	}

	mempool.Requeue(confirmed)
	if mempool.Count() != 2 {
		t.Fatalf("Requeue duplicated transactions")
	}

	mempool.RemoveConfirmed(confirmed[:1])
	if mempool.Has(consensushashing.TransactionID(first)) || !mempool.Has(consensushashing.TransactionID(second)) {
		t.Fatalf("RemoveConfirmed removed the wrong transactions")
	}
}

func TestSelectForBlockCapsProofsOfWork(t *testing.T) {
	params := &chainconfig.TestnetParams
	mempool, factory := newTestMempool(t, params)

	for i := 0; i < params.MaxPowsPerBlock+5; i++ {
		err := mempool.Add(factory.new(externalapi.KindProofOfWork, 1000+int32(i), params.OneNXT, 1))
		if err != nil {
			t.Fatalf("Add: %+v", err)
		}
	}
	selected := mempool.SelectForBlock(params.GenesisBlock(), 1100)
	if len(selected) != params.MaxPowsPerBlock {
		t.Fatalf("expected %d proofs of work, got %d", params.MaxPowsPerBlock, len(selected))
	}
}

package consensushashing

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

func testHeader() *externalapi.BlockHeader {
	header := &externalapi.BlockHeader{
		Version:         1,
		Timestamp:       1000,
		PreviousBlockID: 0x0102030405060708,
		TotalAmountNQT:  500,
		TotalFeeNQT:     7,
		PayloadLength:   141,
	}
	header.PayloadHash[0] = 0xaa
	header.GeneratorPublicKey[1] = 0xbb
	header.GenerationSignature[2] = 0xcc
	header.PreviousBlockHash[31] = 0xdd
	return header
}

func TestBlockBytesLayout(t *testing.T) {
	header := testHeader()
	unsigned := BlockBytes(header, 3, nil)
	if len(unsigned) != UnsignedBlockSize {
		t.Fatalf("TestBlockBytesLayout: unexpected unsigned length. Want: %d, got: %d",
			UnsignedBlockSize, len(unsigned))
	}
	if got := int32(binary.LittleEndian.Uint32(unsigned[0:4])); got != header.Version {
		t.Fatalf("TestBlockBytesLayout: unexpected version %d", got)
	}
	if got := binary.LittleEndian.Uint64(unsigned[8:16]); got != uint64(header.PreviousBlockID) {
		t.Fatalf("TestBlockBytesLayout: unexpected previous block id %d", got)
	}
	if got := binary.LittleEndian.Uint32(unsigned[16:20]); got != 3 {
		t.Fatalf("TestBlockBytesLayout: unexpected transaction count %d", got)
	}
	if unsigned[UnsignedBlockSize-1] != 0xdd {
		t.Fatalf("TestBlockBytesLayout: previous block hash is not the last unsigned field")
	}

	signature := externalapi.Signature{}
	signature[63] = 0xee
	signed := BlockBytes(header, 3, &signature)
	if !bytes.Equal(signed[:UnsignedBlockSize], unsigned) {
		t.Fatalf("TestBlockBytesLayout: signed bytes don't start with the unsigned bytes")
	}
	if len(signed) != SignedBlockSize || signed[SignedBlockSize-1] != 0xee {
		t.Fatalf("TestBlockBytesLayout: signature is not appended")
	}

	if BlockID(signed) != BlockID(signed) {
		t.Fatalf("TestBlockBytesLayout: BlockID is not deterministic")
	}
	if BlockID(signed) == BlockID(unsigned) {
		t.Fatalf("TestBlockBytesLayout: BlockID doesn't cover the signature")
	}
}

func TestParseBlockBytes(t *testing.T) {
	header := testHeader()
	signature := externalapi.Signature{1, 2, 3}

	parsedHeader, count, parsedSignature, err := ParseBlockBytes(BlockBytes(header, 5, &signature))
	if err != nil {
		t.Fatalf("TestParseBlockBytes: %+v", err)
	}
	if !reflect.DeepEqual(parsedHeader, header) || count != 5 || *parsedSignature != signature {
		t.Fatalf("TestParseBlockBytes: parsed block doesn't match the serialized one")
	}

	_, _, parsedSignature, err = ParseBlockBytes(BlockBytes(header, 5, nil))
	if err != nil {
		t.Fatalf("TestParseBlockBytes: %+v", err)
	}
	if parsedSignature != nil {
		t.Fatalf("TestParseBlockBytes: unexpected signature in unsigned bytes")
	}

	_, _, _, err = ParseBlockBytes([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("TestParseBlockBytes: expected an error for truncated bytes")
	}
}

func testTransaction(kind externalapi.TransactionKind) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Kind:               kind,
		Version:            1,
		Timestamp:          900,
		Deadline:           60,
		SenderPublicKey:    externalapi.PublicKey{9},
		RecipientID:        42,
		AmountNQT:          100,
		FeeNQT:             10,
		WorkID:             7,
		Attachment:         []byte("attachment"),
		Signature:          externalapi.Signature{5},
		SupernodeSignature: externalapi.Signature{6},
	}
}

func TestTransactionIdentity(t *testing.T) {
	tx := testTransaction(externalapi.KindProofOfWork)
	if FullSize(tx) != len(TransactionBytes(tx)) {
		t.Fatalf("TestTransactionIdentity: FullSize %d doesn't match serialized length %d",
			FullSize(tx), len(TransactionBytes(tx)))
	}

	relayed := tx.Clone()
	relayed.SupernodeSignature = externalapi.Signature{7}
	if TransactionID(tx) == TransactionID(relayed) {
		t.Fatalf("TestTransactionIdentity: id ignores the supernode signature")
	}
	if CleanID(tx) != CleanID(relayed) {
		t.Fatalf("TestTransactionIdentity: clean id depends on the supernode signature")
	}
	if SignatureHash(tx) != SignatureHash(relayed) {
		t.Fatalf("TestTransactionIdentity: signature hash depends on the signatures")
	}

	resigned := tx.Clone()
	resigned.Signature = externalapi.Signature{8}
	if CleanID(tx) == CleanID(resigned) {
		t.Fatalf("TestTransactionIdentity: clean id ignores the sender signature")
	}

	payment := testTransaction(externalapi.KindOrdinaryPayment)
	if FullSize(payment) != FullSize(tx)-externalapi.SignatureSize {
		t.Fatalf("TestTransactionIdentity: payment carries a supernode signature")
	}
}

func TestParseTransaction(t *testing.T) {
	for _, kind := range []externalapi.TransactionKind{externalapi.KindOrdinaryPayment, externalapi.KindBounty} {
		tx := testTransaction(kind)
		if !kind.MustHaveSupernodeSignature() {
			tx.SupernodeSignature = externalapi.Signature{}
		}
		parsed, err := ParseTransaction(TransactionBytes(tx))
		if err != nil {
			t.Fatalf("TestParseTransaction: %s: %+v", kind, err)
		}
		if !reflect.DeepEqual(parsed, tx) {
			t.Fatalf("TestParseTransaction: %s: parsed transaction doesn't match the serialized one", kind)
		}
	}

	withTrailer := append(TransactionBytes(testTransaction(externalapi.KindOrdinaryPayment)), 0)
	if _, err := ParseTransaction(withTrailer); err == nil {
		t.Fatalf("TestParseTransaction: expected an error for trailing bytes")
	}
}

func TestAccountID(t *testing.T) {
	first := AccountID(externalapi.PublicKey{1})
	if first != AccountID(externalapi.PublicKey{1}) {
		t.Fatalf("TestAccountID: AccountID is not deterministic")
	}
	if first == AccountID(externalapi.PublicKey{2}) {
		t.Fatalf("TestAccountID: different keys produced the same account id")
	}
}

package consensushashing

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
	"github.com/xelnet/xeld/domain/consensus/utils/serialization"
)

// transactionFixedSize is the size of a serialized transaction without its
// attachment and supernode signature.
const transactionFixedSize = 1 + 1 + 1 + 4 + 2 + externalapi.PublicKeySize + 8 + 8 + 8 + 8 + 4 +
	externalapi.SignatureSize

// MaxAttachmentSize bounds the attachment of a single transaction.
const MaxAttachmentSize = 1 << 16

// TransactionBytes returns the full serialization of the transaction,
// signatures included.
func TransactionBytes(tx *externalapi.DomainTransaction) []byte {
	return transactionBytes(tx, false)
}

// SigningBytes returns the serialization of the transaction with both of
// its signatures zeroed. The sender signs its SHA-256 digest.
func SigningBytes(tx *externalapi.DomainTransaction) []byte {
	return transactionBytes(tx, true)
}

// SignatureHash returns the digest the sender signs.
func SignatureHash(tx *externalapi.DomainTransaction) externalapi.DomainHash {
	return hashes.Sum256(SigningBytes(tx))
}

// TransactionID returns the id of the transaction.
func TransactionID(tx *externalapi.DomainTransaction) externalapi.TransactionID {
	return externalapi.TransactionID(hashes.FirstEightBytesLE(hashes.Sum256(TransactionBytes(tx))))
}

// CleanID returns an id that ignores the supernode signature, so the same
// transaction relayed through two supernodes is recognized as a duplicate.
func CleanID(tx *externalapi.DomainTransaction) externalapi.TransactionID {
	signatureHash := hashes.Sum256(tx.Signature[:])
	digest := hashes.Sum256(SigningBytes(tx), signatureHash[:])
	return externalapi.TransactionID(hashes.FirstEightBytesLE(digest))
}

// FullSize returns the serialized size of the transaction.
func FullSize(tx *externalapi.DomainTransaction) int {
	size := transactionFixedSize + len(tx.Attachment)
	if tx.Kind.MustHaveSupernodeSignature() {
		size += externalapi.SignatureSize
	}
	return size
}

// PayloadHash returns the digest over the serialized transactions of a
// block, in block order.
func PayloadHash(transactions []*externalapi.DomainTransaction) externalapi.DomainHash {
	writer := hashes.NewHashWriter()
	for _, tx := range transactions {
		writer.InfallibleWrite(TransactionBytes(tx))
	}
	return writer.Finalize()
}

// PayloadLength returns the sum of the full sizes of the transactions.
func PayloadLength(transactions []*externalapi.DomainTransaction) int {
	length := 0
	for _, tx := range transactions {
		length += FullSize(tx)
	}
	return length
}

func transactionBytes(tx *externalapi.DomainTransaction, zeroSignatures bool) []byte {
	buffer := bytes.NewBuffer(make([]byte, 0, FullSize(tx)))
	err := serializeTransaction(buffer, tx, zeroSignatures)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Transaction serialization should never return an error"))
	}
	return buffer.Bytes()
}

func serializeTransaction(w io.Writer, tx *externalapi.DomainTransaction, zeroSignatures bool) error {
	typ, subtype := tx.Kind.Code()
	err := serialization.WriteElements(w,
		typ, subtype, tx.Version,
		tx.Timestamp,
		tx.Deadline,
		tx.SenderPublicKey,
		tx.RecipientID,
		tx.AmountNQT,
		tx.FeeNQT,
		tx.WorkID,
		uint32(len(tx.Attachment)))
	if err != nil {
		return err
	}
	_, err = w.Write(tx.Attachment)
	if err != nil {
		return errors.WithStack(err)
	}

	signature := tx.Signature
	supernodeSignature := tx.SupernodeSignature
	if zeroSignatures {
		signature = externalapi.Signature{}
		supernodeSignature = externalapi.Signature{}
	}
	err = serialization.WriteElement(w, signature)
	if err != nil {
		return err
	}
	if tx.Kind.MustHaveSupernodeSignature() {
		return serialization.WriteElement(w, supernodeSignature)
	}
	return nil
}

// ParseTransaction parses the output of TransactionBytes.
func ParseTransaction(transactionBytes []byte) (*externalapi.DomainTransaction, error) {
	reader := bytes.NewReader(transactionBytes)
	tx, err := readTransaction(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after transaction", reader.Len())
	}
	return tx, nil
}

func readTransaction(r *bytes.Reader) (*externalapi.DomainTransaction, error) {
	var typ, subtype byte
	tx := &externalapi.DomainTransaction{}
	err := serialization.ReadElements(r, &typ, &subtype, &tx.Version)
	if err != nil {
		return nil, err
	}
	tx.Kind, err = externalapi.TransactionKindFromCode(typ, subtype)
	if err != nil {
		return nil, err
	}

	var attachmentLength uint32
	err = serialization.ReadElements(r,
		&tx.Timestamp,
		&tx.Deadline,
		&tx.SenderPublicKey,
		&tx.RecipientID,
		&tx.AmountNQT,
		&tx.FeeNQT,
		&tx.WorkID,
		&attachmentLength)
	if err != nil {
		return nil, err
	}
	if attachmentLength > MaxAttachmentSize || int64(attachmentLength) > int64(r.Len()) {
		return nil, errors.Errorf("invalid attachment length %d", attachmentLength)
	}
	if attachmentLength > 0 {
		tx.Attachment = make([]byte, attachmentLength)
		_, err = io.ReadFull(r, tx.Attachment)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	err = serialization.ReadElement(r, &tx.Signature)
	if err != nil {
		return nil, err
	}
	if tx.Kind.MustHaveSupernodeSignature() {
		err = serialization.ReadElement(r, &tx.SupernodeSignature)
		if err != nil {
			return nil, err
		}
	}
	return tx, nil
}

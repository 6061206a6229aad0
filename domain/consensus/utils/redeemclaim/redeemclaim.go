// Package redeemclaim encodes the claim a redeem transaction carries in its
// attachment and checks it against a genesis entry.
package redeemclaim

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
	"github.com/xelnet/xeld/domain/consensus/utils/serialization"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

// MaxAddressLength bounds the genesis entry address of a claim.
const MaxAddressLength = 256

// MaxSignatures bounds the number of claim signatures.
const MaxSignatures = 16

// Attachment is the attachment of a redeem transaction: the genesis entry
// it redeems and the signatures of the entry keys over the claim message.
type Attachment struct {
	Address    string
	Signatures []externalapi.Signature
}

// Serialize returns the attachment bytes of a redeem transaction.
func (a *Attachment) Serialize() []byte {
	buffer := &bytes.Buffer{}
	err := serialization.WriteElement(buffer, uint32(len(a.Address)))
	if err == nil {
		_, err = buffer.WriteString(a.Address)
	}
	if err == nil {
		err = serialization.WriteElement(buffer, uint8(len(a.Signatures)))
	}
	for _, signature := range a.Signatures {
		if err != nil {
			break
		}
		err = serialization.WriteElement(buffer, signature)
	}
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Writing to a bytes.Buffer never fails"))
	}
	return buffer.Bytes()
}

// ParseAttachment parses the attachment of a redeem transaction.
func ParseAttachment(attachmentBytes []byte) (*Attachment, error) {
	reader := bytes.NewReader(attachmentBytes)
	var addressLength uint32
	err := serialization.ReadElement(reader, &addressLength)
	if err != nil {
		return nil, err
	}
	if addressLength == 0 || addressLength > MaxAddressLength {
		return nil, errors.Errorf("claim address length %d is out of range", addressLength)
	}
	address := make([]byte, addressLength)
	_, err = io.ReadFull(reader, address)
	if err != nil {
		return nil, errors.Wrap(err, "claim is truncated")
	}
	if !isValidAddress(string(address)) {
		return nil, errors.Errorf("claim address %q has invalid characters", address)
	}

	var signatureCount uint8
	err = serialization.ReadElement(reader, &signatureCount)
	if err != nil {
		return nil, err
	}
	if signatureCount == 0 || signatureCount > MaxSignatures {
		return nil, errors.Errorf("claim carries %d signatures", signatureCount)
	}
	signatures := make([]externalapi.Signature, signatureCount)
	for i := range signatures {
		err = serialization.ReadElement(reader, &signatures[i])
		if err != nil {
			return nil, err
		}
	}
	if reader.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after claim", reader.Len())
	}
	return &Attachment{Address: string(address), Signatures: signatures}, nil
}

func isValidAddress(address string) bool {
	for _, r := range address {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == ';':
		default:
			return false
		}
	}
	return true
}

// MessageHash returns the digest the keys of a genesis entry sign to redeem
// amountNQT from it to recipientID.
func MessageHash(address string, amountNQT int64, recipientID externalapi.AccountID) externalapi.DomainHash {
	message := fmt.Sprintf("I hereby confirm to redeem %d NQT-XEL from genesis entry %s to account %s",
		amountNQT, address, recipientID)
	return hashes.Sum256([]byte(message))
}

// Sign sets the attachment of the redeem transaction tx to a claim on the
// entry at address signed by keys. tx must carry its final amount and
// recipient.
func Sign(tx *externalapi.DomainTransaction, address string, keys ...*signing.PrivateKey) error {
	messageHash := MessageHash(address, tx.AmountNQT, tx.RecipientID)
	attachment := &Attachment{Address: address, Signatures: make([]externalapi.Signature, len(keys))}
	for i, key := range keys {
		signature, err := key.Sign(messageHash)
		if err != nil {
			return err
		}
		attachment.Signatures[i] = signature
	}
	tx.Attachment = attachment.Serialize()
	return nil
}

// VerifySignatures returns whether signatures holds exactly the number of
// signatures claim requires, each by a distinct key of claim, over
// messageHash.
func VerifySignatures(claim *externalapi.RedeemClaim, messageHash externalapi.DomainHash,
	signatures []externalapi.Signature) bool {

	if claim.RequiredSignatures <= 0 || len(signatures) != claim.RequiredSignatures {
		return false
	}
	used := make([]bool, len(claim.PublicKeys))
	for _, signature := range signatures {
		signed := false
		for i, publicKey := range claim.PublicKeys {
			if used[i] || !signing.Verify(publicKey, messageHash, signature) {
				continue
			}
			used[i] = true
			signed = true
			break
		}
		if !signed {
			return false
		}
	}
	return true
}

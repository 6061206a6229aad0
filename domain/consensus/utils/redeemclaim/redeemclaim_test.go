package redeemclaim

import (
	"testing"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

func newKey(t *testing.T) *signing.PrivateKey {
	key, err := signing.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %+v", err)
	}
	return key
}

func TestSignAndParse(t *testing.T) {
	key := newKey(t)
	tx := &externalapi.DomainTransaction{
		Kind:        externalapi.KindRedeem,
		RecipientID: 42,
		AmountNQT:   1000,
	}
	err := Sign(tx, "1AktLQnreNm585z1r1QbAjgrrJCuYuXtZm", key)
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}

	attachment, err := ParseAttachment(tx.Attachment)
	if err != nil {
		t.Fatalf("ParseAttachment: %+v", err)
	}
	if attachment.Address != "1AktLQnreNm585z1r1QbAjgrrJCuYuXtZm" {
		t.Fatalf("Address: got %q", attachment.Address)
	}
	if len(attachment.Signatures) != 1 {
		t.Fatalf("Signatures: expected 1, got %d", len(attachment.Signatures))
	}

	claim := &externalapi.RedeemClaim{
		Address:            attachment.Address,
		AmountNQT:          1000,
		RequiredSignatures: 1,
		PublicKeys:         []externalapi.PublicKey{key.PublicKey()},
	}
	if !VerifySignatures(claim, MessageHash(claim.Address, 1000, 42), attachment.Signatures) {
		t.Fatalf("VerifySignatures: the claim signature does not verify")
	}
	if VerifySignatures(claim, MessageHash(claim.Address, 1000, 43), attachment.Signatures) {
		t.Fatalf("VerifySignatures: a claim for another recipient verifies")
	}
	if VerifySignatures(claim, MessageHash(claim.Address, 1001, 42), attachment.Signatures) {
		t.Fatalf("VerifySignatures: a claim for another amount verifies")
	}
}

func TestParseAttachmentErrors(t *testing.T) {
	valid := (&Attachment{Address: "entry", Signatures: make([]externalapi.Signature, 1)}).Serialize()

	tests := []struct {
		name       string
		attachment []byte
	}{
		{name: "empty", attachment: nil},
		{name: "truncated address", attachment: valid[:6]},
		{name: "no signatures", attachment: (&Attachment{Address: "entry"}).Serialize()},
		{name: "truncated signature", attachment: valid[:len(valid)-1]},
		{name: "trailing bytes", attachment: append(append([]byte{}, valid...), 0)},
		{name: "empty address", attachment: (&Attachment{Signatures: make([]externalapi.Signature, 1)}).Serialize()},
		{name: "invalid characters", attachment: (&Attachment{Address: "entry name",
			Signatures: make([]externalapi.Signature, 1)}).Serialize()},
	}
	for _, test := range tests {
		_, err := ParseAttachment(test.attachment)
		if err == nil {
			t.Errorf("%s: ParseAttachment unexpectedly succeeded", test.name)
		}
	}
}

func TestVerifyMultipleSignatures(t *testing.T) {
	keys := []*signing.PrivateKey{newKey(t), newKey(t), newKey(t)}
	claim := &externalapi.RedeemClaim{
		Address:            "2-a-b-c",
		AmountNQT:          500,
		RequiredSignatures: 2,
		PublicKeys:         []externalapi.PublicKey{keys[0].PublicKey(), keys[1].PublicKey(), keys[2].PublicKey()},
	}
	messageHash := MessageHash(claim.Address, claim.AmountNQT, 7)
	sign := func(key *signing.PrivateKey) externalapi.Signature {
		signature, err := key.Sign(messageHash)
		if err != nil {
			t.Fatalf("Sign: %+v", err)
		}
		return signature
	}

	if !VerifySignatures(claim, messageHash, []externalapi.Signature{sign(keys[2]), sign(keys[0])}) {
		t.Fatalf("two distinct entry keys do not verify")
	}
	if VerifySignatures(claim, messageHash, []externalapi.Signature{sign(keys[1]), sign(keys[1])}) {
		t.Fatalf("the same key counted twice")
	}
	if VerifySignatures(claim, messageHash, []externalapi.Signature{sign(keys[1])}) {
		t.Fatalf("one signature satisfied a claim requiring two")
	}
	if VerifySignatures(claim, messageHash, []externalapi.Signature{sign(keys[0]), sign(newKey(t))}) {
		t.Fatalf("a foreign key signed the claim")
	}
}

// Package signing wraps Schnorr signatures over secp256k1 for blocks and
// transactions.
package signing

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
)

// PrivateKeySize is the size of a serialized private key.
const PrivateKeySize = 32

// PrivateKey is a forging or transaction signing key.
type PrivateKey struct {
	keyPair   *secp256k1.SchnorrKeyPair
	publicKey externalapi.PublicKey
}

// GenerateKey creates a new random private key.
func GenerateKey() (*PrivateKey, error) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}
	return newPrivateKey(keyPair)
}

// ParsePrivateKey parses a serialized private key.
func ParsePrivateKey(serialized []byte) (*PrivateKey, error) {
	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(serialized)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return newPrivateKey(keyPair)
}

func newPrivateKey(keyPair *secp256k1.SchnorrKeyPair) (*PrivateKey, error) {
	schnorrPublicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serializedPublicKey, err := schnorrPublicKey.Serialize()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	key := &PrivateKey{keyPair: keyPair}
	copy(key.publicKey[:], serializedPublicKey[:])
	return key, nil
}

// PublicKey returns the x-only public key of the key.
func (k *PrivateKey) PublicKey() externalapi.PublicKey {
	return k.publicKey
}

// AccountID returns the id of the account owned by the key.
func (k *PrivateKey) AccountID() externalapi.AccountID {
	return consensushashing.AccountID(k.publicKey)
}

// Serialize returns the raw private key bytes.
func (k *PrivateKey) Serialize() []byte {
	serialized := k.keyPair.SerializePrivateKey()
	return serialized[:]
}

// Sign signs the given digest.
func (k *PrivateKey) Sign(digest externalapi.DomainHash) (externalapi.Signature, error) {
	secpHash := secp256k1.Hash(digest)
	schnorrSignature, err := k.keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return externalapi.Signature{}, errors.Wrap(err, "failed to sign")
	}
	return externalapi.Signature(*schnorrSignature.Serialize()), nil
}

// Verify returns whether signature is a valid signature of digest by the
// owner of publicKey. Malformed keys or signatures do not verify.
func Verify(publicKey externalapi.PublicKey, digest externalapi.DomainHash, signature externalapi.Signature) bool {
	schnorrPublicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKey[:])
	if err != nil {
		return false
	}
	schnorrSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signature[:])
	if err != nil {
		return false
	}
	secpHash := secp256k1.Hash(digest)
	return schnorrPublicKey.SchnorrVerify(&secpHash, schnorrSignature)
}

// SignTransaction sets the sender signature of the transaction.
func SignTransaction(tx *externalapi.DomainTransaction, key *PrivateKey) error {
	signature, err := key.Sign(consensushashing.SignatureHash(tx))
	if err != nil {
		return err
	}
	tx.Signature = signature
	return nil
}

// VerifyTransaction checks the sender signature of the transaction. Redeem
// transactions are authorized by the redeem claim rather than by a signature
// and always pass.
func VerifyTransaction(tx *externalapi.DomainTransaction) bool {
	if tx.Kind.IsRedeem() {
		return true
	}
	if tx.Kind.MustHaveSupernodeSignature() && tx.SupernodeSignature.IsZero() {
		return false
	}
	return Verify(tx.SenderPublicKey, consensushashing.SignatureHash(tx), tx.Signature)
}

package externalapi

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize is the size of a DomainHash in bytes.
const DomainHashSize = 32

// DomainHash is a SHA-256 digest.
type DomainHash [DomainHashSize]byte

// NewDomainHashFromByteSlice copies hashBytes into a DomainHash.
func NewDomainHashFromByteSlice(hashBytes []byte) (DomainHash, error) {
	var hash DomainHash
	if len(hashBytes) != DomainHashSize {
		return hash, errors.Errorf("invalid hash size. Want: %d, got: %d", DomainHashSize, len(hashBytes))
	}
	copy(hash[:], hashBytes)
	return hash, nil
}

// NewDomainHashFromString parses a hex encoded hash.
func NewDomainHashFromString(hashString string) (DomainHash, error) {
	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return DomainHash{}, errors.WithStack(err)
	}
	return NewDomainHashFromByteSlice(hashBytes)
}

// String returns the hash as a hex string.
func (hash DomainHash) String() string {
	return hex.EncodeToString(hash[:])
}

// IsZero returns whether all bytes of the hash are zero.
func (hash DomainHash) IsZero() bool {
	return hash == DomainHash{}
}

// PublicKeySize is the size of a serialized x-only Schnorr public key.
const PublicKeySize = 32

// PublicKey is a serialized x-only Schnorr public key.
type PublicKey [PublicKeySize]byte

// NewPublicKeyFromString parses a hex encoded public key.
func NewPublicKeyFromString(keyString string) (PublicKey, error) {
	var publicKey PublicKey
	keyBytes, err := hex.DecodeString(keyString)
	if err != nil {
		return publicKey, errors.WithStack(err)
	}
	if len(keyBytes) != PublicKeySize {
		return publicKey, errors.Errorf("invalid public key size. Want: %d, got: %d", PublicKeySize, len(keyBytes))
	}
	copy(publicKey[:], keyBytes)
	return publicKey, nil
}

// String returns the public key as a hex string.
func (key PublicKey) String() string {
	return hex.EncodeToString(key[:])
}

// IsZero returns whether all bytes of the key are zero.
func (key PublicKey) IsZero() bool {
	return key == PublicKey{}
}

// SignatureSize is the size of a serialized Schnorr signature.
const SignatureSize = 64

// Signature is a serialized Schnorr signature.
type Signature [SignatureSize]byte

// IsZero returns whether all bytes of the signature are zero.
func (signature Signature) IsZero() bool {
	return signature == Signature{}
}

// String returns the signature as a hex string.
func (signature Signature) String() string {
	return hex.EncodeToString(signature[:])
}

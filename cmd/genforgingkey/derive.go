package main

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"golang.org/x/crypto/hkdf"
)

const (
	mnemonicEntropyBits = 256
	derivationInfo      = "xeld forging key"
	maxDerivationTries  = 16
)

func createMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// deriveForgingKey deterministically derives the private key with the given
// index from mnemonic. Candidates that are not valid scalars are skipped.
func deriveForgingKey(mnemonic string, index uint32) (*signing.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	salt := make([]byte, 4)
	binary.BigEndian.PutUint32(salt, index)
	reader := hkdf.New(sha256.New, seed, salt, []byte(derivationInfo))

	candidate := make([]byte, 32)
	for i := 0; i < maxDerivationTries; i++ {
		_, err := io.ReadFull(reader, candidate)
		if err != nil {
			return nil, err
		}
		key, err := signing.ParsePrivateKey(candidate)
		if err == nil {
			return key, nil
		}
	}
	return nil, errors.Errorf("could not derive a valid key in %d tries", maxDerivationTries)
}

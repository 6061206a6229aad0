package externalapi

import (
	"strconv"

	"github.com/pkg/errors"
)

// BlockID identifies a block. It is the first eight bytes of the SHA-256
// digest of the signed block bytes, read as a little-endian uint64.
type BlockID uint64

// String returns the unsigned decimal form of the id.
func (id BlockID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseBlockID parses the unsigned decimal form of a block id.
func ParseBlockID(s string) (BlockID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid block id %q", s)
	}
	return BlockID(id), nil
}

// TransactionID identifies a transaction, derived like BlockID from the
// signed transaction bytes.
type TransactionID uint64

// String returns the unsigned decimal form of the id.
func (id TransactionID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// AccountID identifies an account. It is derived from the account's
// public key like BlockID is derived from block bytes.
type AccountID uint64

// String returns the unsigned decimal form of the id.
func (id AccountID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseAccountID parses the unsigned decimal form of an account id.
func ParseAccountID(s string) (AccountID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid account id %q", s)
	}
	return AccountID(id), nil
}

// WorkID identifies a work (computation task) of the work subsystem.
type WorkID uint64

// String returns the unsigned decimal form of the id.
func (id WorkID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

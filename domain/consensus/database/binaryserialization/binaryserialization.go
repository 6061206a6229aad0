package binaryserialization

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// Keys are big endian so that the database orders them numerically.
var byteOrder = binary.BigEndian

// SerializeBlockID serializes a block id into a database key suffix
func SerializeBlockID(blockID externalapi.BlockID) []byte {
	var keyBytes [8]byte
	byteOrder.PutUint64(keyBytes[:], uint64(blockID))
	return keyBytes[:]
}

// DeserializeBlockID deserializes a database key suffix into a block id
func DeserializeBlockID(blockIDBytes []byte) (externalapi.BlockID, error) {
	if len(blockIDBytes) != 8 {
		return 0, errors.Errorf("invalid block id length %d", len(blockIDBytes))
	}
	return externalapi.BlockID(byteOrder.Uint64(blockIDBytes)), nil
}

// SerializeTransactionID serializes a transaction id into a database key suffix
func SerializeTransactionID(transactionID externalapi.TransactionID) []byte {
	var keyBytes [8]byte
	byteOrder.PutUint64(keyBytes[:], uint64(transactionID))
	return keyBytes[:]
}

// SerializeHeight serializes a chain height into a database key suffix
// that sorts in ascending height order.
func SerializeHeight(height int32) []byte {
	if height < 0 {
		panic(errors.Errorf("cannot serialize negative height %d", height))
	}
	var keyBytes [4]byte
	byteOrder.PutUint32(keyBytes[:], uint32(height))
	return keyBytes[:]
}

// DeserializeHeight deserializes a key suffix created by SerializeHeight
func DeserializeHeight(heightBytes []byte) (int32, error) {
	if len(heightBytes) != 4 {
		return 0, errors.Errorf("invalid height length %d", len(heightBytes))
	}
	return int32(byteOrder.Uint32(heightBytes)), nil
}

// SerializeDescendingHeight serializes a chain height into a database key
// suffix that sorts in descending height order, so that seeking to a
// height lands on the closest entry at or below it.
func SerializeDescendingHeight(height int32) []byte {
	if height < 0 {
		panic(errors.Errorf("cannot serialize negative height %d", height))
	}
	var keyBytes [4]byte
	byteOrder.PutUint32(keyBytes[:], math.MaxUint32-uint32(height))
	return keyBytes[:]
}

// DeserializeDescendingHeight deserializes a key suffix created by
// SerializeDescendingHeight
func DeserializeDescendingHeight(heightBytes []byte) (int32, error) {
	if len(heightBytes) != 4 {
		return 0, errors.Errorf("invalid height length %d", len(heightBytes))
	}
	return int32(math.MaxUint32 - byteOrder.Uint32(heightBytes)), nil
}

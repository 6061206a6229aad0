// Package chaincommitment maintains a commitment to the set of blocks in
// the canonical chain. The commitment is a MuHash, so adding and removing
// blocks in any order yields the same value for the same set.
package chaincommitment

import (
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/database/binaryserialization"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// Commitment is a commitment to a set of block ids
type Commitment struct {
	ms *muhash.MuHash
}

// New returns the commitment to the empty set
func New() *Commitment {
	return &Commitment{ms: muhash.NewMuHash()}
}

// FromBytes deserializes a commitment serialized with Serialize
func FromBytes(commitmentBytes []byte) (*Commitment, error) {
	serialized := &muhash.SerializedMuHash{}
	if len(serialized) != len(commitmentBytes) {
		return nil, errors.Errorf("commitment bytes expected to be in length of %d but got %d",
			len(serialized), len(commitmentBytes))
	}
	copy(serialized[:], commitmentBytes)
	ms, err := muhash.DeserializeMuHash(serialized)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Commitment{ms: ms}, nil
}

// AddBlock adds a block to the committed set
func (c *Commitment) AddBlock(blockID externalapi.BlockID) {
	c.ms.Add(binaryserialization.SerializeBlockID(blockID))
}

// RemoveBlock removes a block from the committed set
func (c *Commitment) RemoveBlock(blockID externalapi.BlockID) {
	c.ms.Remove(binaryserialization.SerializeBlockID(blockID))
}

// Hash returns the finalized commitment
func (c *Commitment) Hash() externalapi.DomainHash {
	return externalapi.DomainHash(c.ms.Finalize())
}

// Serialize returns the full state of the commitment
func (c *Commitment) Serialize() []byte {
	serialized := c.ms.Serialize()
	return serialized[:]
}

// Clone returns an independent copy of the commitment
func (c *Commitment) Clone() *Commitment {
	return &Commitment{ms: c.ms.Clone()}
}

package hashes

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// HashWriter incrementally hashes data with SHA-256. It exposes an
// io.Writer API and Finalize to get the resulting digest.
type HashWriter struct {
	hash.Hash
}

// NewHashWriter returns a new SHA-256 HashWriter.
func NewHashWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// InfallibleWrite is like Write but panics instead of returning an error.
// hash.Hash never returns write errors.
func (h HashWriter) InfallibleWrite(p []byte) {
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting digest.
func (h HashWriter) Finalize() externalapi.DomainHash {
	var sum externalapi.DomainHash
	copy(sum[:], h.Sum(sum[:0]))
	return sum
}

// Sum256 returns the SHA-256 digest of the concatenation of data.
func Sum256(data ...[]byte) externalapi.DomainHash {
	writer := NewHashWriter()
	for _, d := range data {
		writer.InfallibleWrite(d)
	}
	return writer.Finalize()
}

// FirstEightBytesLE reads the first eight bytes of the digest as a
// little-endian unsigned integer. Block, transaction and account ids are
// derived this way.
func FirstEightBytesLE(digest externalapi.DomainHash) uint64 {
	return binary.LittleEndian.Uint64(digest[:8])
}

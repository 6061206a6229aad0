package hashes

import (
	"encoding/hex"
	"testing"
)

func TestSum256MatchesIncrementalWrites(t *testing.T) {
	writer := NewHashWriter()
	writer.InfallibleWrite([]byte("ab"))
	writer.InfallibleWrite([]byte("c"))
	incremental := writer.Finalize()

	if incremental != Sum256([]byte("a"), []byte("bc")) {
		t.Fatalf("Sum256 and HashWriter disagree")
	}

	const expected = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if hex.EncodeToString(incremental[:]) != expected {
		t.Fatalf("unexpected digest of \"abc\": %s", incremental)
	}
}

func TestFirstEightBytesLE(t *testing.T) {
	digest := Sum256([]byte("abc"))
	// ba 78 16 bf 8f 01 cf ea read little-endian
	const expected = uint64(0xeacf018fbf1678ba)
	if got := FirstEightBytesLE(digest); got != expected {
		t.Fatalf("FirstEightBytesLE: got %x, want %x", got, expected)
	}
}

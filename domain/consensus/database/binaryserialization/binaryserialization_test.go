package binaryserialization

import (
	"bytes"
	"testing"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

func TestHeightKeysSort(t *testing.T) {
	heights := []int32{0, 1, 255, 256, 1 << 20, 1<<31 - 1}
	for i := 1; i < len(heights); i++ {
		lower, higher := heights[i-1], heights[i]
		if bytes.Compare(SerializeHeight(lower), SerializeHeight(higher)) >= 0 {
			t.Fatalf("TestHeightKeysSort: height %d does not sort before %d", lower, higher)
		}
		if bytes.Compare(SerializeDescendingHeight(lower), SerializeDescendingHeight(higher)) <= 0 {
			t.Fatalf("TestHeightKeysSort: descending height %d does not sort after %d", lower, higher)
		}
	}

	for _, height := range heights {
		deserialized, err := DeserializeHeight(SerializeHeight(height))
		if err != nil {
			t.Fatalf("TestHeightKeysSort: DeserializeHeight: %+v", err)
		}
		if deserialized != height {
			t.Fatalf("TestHeightKeysSort: expected %d, got %d", height, deserialized)
		}
		deserialized, err = DeserializeDescendingHeight(SerializeDescendingHeight(height))
		if err != nil {
			t.Fatalf("TestHeightKeysSort: DeserializeDescendingHeight: %+v", err)
		}
		if deserialized != height {
			t.Fatalf("TestHeightKeysSort: expected %d, got %d", height, deserialized)
		}
	}
}

func TestBlockIDKey(t *testing.T) {
	blockID := externalapi.BlockID(0xfedcba9876543210)
	deserialized, err := DeserializeBlockID(SerializeBlockID(blockID))
	if err != nil {
		t.Fatalf("TestBlockIDKey: %+v", err)
	}
	if deserialized != blockID {
		t.Fatalf("TestBlockIDKey: expected %s, got %s", blockID, deserialized)
	}
	_, err = DeserializeBlockID([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("TestBlockIDKey: expected an error for a short key")
	}
}

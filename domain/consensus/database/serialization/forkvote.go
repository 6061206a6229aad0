package serialization

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const dbForkVoteCountField protowire.Number = 1

// ForkVoteCountToDBForkVoteBytes serializes a sliding vote count.
func ForkVoteCountToDBForkVoteBytes(count int32) []byte {
	return appendVarintField(nil, dbForkVoteCountField, uint64(count))
}

// DBForkVoteBytesToForkVoteCount restores a sliding vote count.
func DBForkVoteBytesToForkVoteCount(dbForkVoteBytes []byte) (int32, error) {
	var count uint64
	reader := &recordReader{data: dbForkVoteBytes}
	for {
		number, typ, ok, err := reader.next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if number == dbForkVoteCountField {
			count, err = reader.varint(typ)
		} else {
			err = reader.skip(number, typ)
		}
		if err != nil {
			return 0, err
		}
	}
	if count > uint64(1<<31-1) {
		return 0, errors.Errorf("fork vote count %d out of range", count)
	}
	return int32(count), nil
}

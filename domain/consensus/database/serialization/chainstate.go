package serialization

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	dbChainStateLastBlockIDField protowire.Number = 1
	dbChainStateCommitmentField  protowire.Number = 2
)

// ChainStateToDBChainStateBytes serializes the canonical chain pointer and
// the chain commitment.
func ChainStateToDBChainStateBytes(lastBlockID externalapi.BlockID, commitment []byte) []byte {
	b := appendFixed64Field(nil, dbChainStateLastBlockIDField, uint64(lastBlockID))
	return appendBytesField(b, dbChainStateCommitmentField, commitment)
}

// DBChainStateBytesToChainState restores a chain state serialized by
// ChainStateToDBChainStateBytes.
func DBChainStateBytesToChainState(dbChainStateBytes []byte) (
	lastBlockID externalapi.BlockID, commitment []byte, err error) {

	reader := &recordReader{data: dbChainStateBytes}
	for {
		number, typ, ok, err := reader.next()
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			return lastBlockID, commitment, nil
		}
		switch number {
		case dbChainStateLastBlockIDField:
			var value uint64
			value, err = reader.fixed64(typ)
			lastBlockID = externalapi.BlockID(value)
		case dbChainStateCommitmentField:
			commitment, err = reader.bytes(typ)
		default:
			err = reader.skip(number, typ)
		}
		if err != nil {
			return 0, nil, err
		}
	}
}

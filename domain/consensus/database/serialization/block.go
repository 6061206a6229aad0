package serialization

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of a stored block
const (
	dbBlockBytesField                protowire.Number = 1
	dbBlockTransactionField          protowire.Number = 2
	dbBlockHeightField               protowire.Number = 3
	dbBlockBaseTargetField           protowire.Number = 4
	dbBlockCumulativeDifficultyField protowire.Number = 5
	dbBlockNextBlockIDField          protowire.Number = 6
	dbBlockMinPowTargetField         protowire.Number = 7
	dbBlockSoftforkVotesField        protowire.Number = 8
)

// DomainBlockToDBBlockBytes serializes a linked block together with its
// linkage so it can be restored without its parent.
func DomainBlockToDBBlockBytes(block externalapi.DomainBlock) []byte {
	transactions := block.Transactions()
	b := appendBytesField(nil, dbBlockBytesField, block.Bytes())
	for _, tx := range transactions {
		b = appendBytesField(b, dbBlockTransactionField, consensushashing.TransactionBytes(tx))
	}
	b = appendVarintField(b, dbBlockHeightField, uint64(block.Height()))
	b = appendVarintField(b, dbBlockBaseTargetField, uint64(block.BaseTarget()))
	b = appendBytesField(b, dbBlockCumulativeDifficultyField, block.CumulativeDifficulty().Bytes())
	b = appendFixed64Field(b, dbBlockNextBlockIDField, uint64(block.NextBlockID()))
	b = appendBytesField(b, dbBlockMinPowTargetField, block.MinPowTarget().Bytes())
	b = appendFixed64Field(b, dbBlockSoftforkVotesField, block.SoftforkVotes())
	return b
}

// DBBlockBytesToDomainBlock restores a block serialized by
// DomainBlockToDBBlockBytes.
func DBBlockBytesToDomainBlock(dbBlockBytes []byte) (externalapi.DomainBlock, error) {
	var (
		blockBytes           []byte
		transactions         []*externalapi.DomainTransaction
		height               uint64
		baseTarget           uint64
		cumulativeDifficulty = new(big.Int)
		nextBlockID          uint64
		minPowTarget         = new(big.Int)
		softforkVotes        uint64
	)

	reader := &recordReader{data: dbBlockBytes}
	for {
		number, typ, ok, err := reader.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch number {
		case dbBlockBytesField:
			blockBytes, err = reader.bytes(typ)
		case dbBlockTransactionField:
			var transactionBytes []byte
			transactionBytes, err = reader.bytes(typ)
			if err == nil {
				var tx *externalapi.DomainTransaction
				tx, err = consensushashing.ParseTransaction(transactionBytes)
				transactions = append(transactions, tx)
			}
		case dbBlockHeightField:
			height, err = reader.varint(typ)
		case dbBlockBaseTargetField:
			baseTarget, err = reader.varint(typ)
		case dbBlockCumulativeDifficultyField:
			var value []byte
			value, err = reader.bytes(typ)
			cumulativeDifficulty.SetBytes(value)
		case dbBlockNextBlockIDField:
			nextBlockID, err = reader.fixed64(typ)
		case dbBlockMinPowTargetField:
			var value []byte
			value, err = reader.bytes(typ)
			minPowTarget.SetBytes(value)
		case dbBlockSoftforkVotesField:
			softforkVotes, err = reader.fixed64(typ)
		default:
			err = reader.skip(number, typ)
		}
		if err != nil {
			return nil, err
		}
	}

	header, transactionCount, signature, err := consensushashing.ParseBlockBytes(blockBytes)
	if err != nil {
		return nil, err
	}
	if transactionCount != len(transactions) {
		return nil, errors.Errorf("stored block declares %d transactions but carries %d",
			transactionCount, len(transactions))
	}

	builder := blocks.NewBuilder(*header, transactions, minPowTarget, softforkVotes)
	if signature != nil {
		err = builder.SetSignature(*signature)
		if err != nil {
			return nil, err
		}
	}
	return builder.Restore(int32(height), int64(baseTarget), cumulativeDifficulty,
		externalapi.BlockID(nextBlockID))
}

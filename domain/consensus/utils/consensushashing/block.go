package consensushashing

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
	"github.com/xelnet/xeld/domain/consensus/utils/serialization"
)

// UnsignedBlockSize is the size of a serialized block without its signature.
const UnsignedBlockSize = 4 + 4 + 8 + 4 + 8 + 8 + 4 + 4*externalapi.DomainHashSize

// SignedBlockSize is the size of a serialized signed block.
const SignedBlockSize = UnsignedBlockSize + externalapi.SignatureSize

// BlockBytes serializes the given header. The signature is appended when it
// is not nil.
func BlockBytes(header *externalapi.BlockHeader, transactionCount int, signature *externalapi.Signature) []byte {
	size := UnsignedBlockSize
	if signature != nil {
		size = SignedBlockSize
	}
	buffer := bytes.NewBuffer(make([]byte, 0, size))
	err := serializeHeader(buffer, header, transactionCount)
	if err == nil && signature != nil {
		err = serialization.WriteElement(buffer, *signature)
	}
	if err != nil {
		// Writing fixed-size elements into a bytes.Buffer never fails
		panic(errors.Wrap(err, "this should never happen. Block serialization should never return an error"))
	}
	return buffer.Bytes()
}

// BlockID returns the id of a block from its signed bytes.
func BlockID(signedBlockBytes []byte) externalapi.BlockID {
	return externalapi.BlockID(hashes.FirstEightBytesLE(hashes.Sum256(signedBlockBytes)))
}

// BlockHash returns the SHA-256 digest of the signed block bytes. A child
// block commits to it as its PreviousBlockHash.
func BlockHash(signedBlockBytes []byte) externalapi.DomainHash {
	return hashes.Sum256(signedBlockBytes)
}

func serializeHeader(w io.Writer, header *externalapi.BlockHeader, transactionCount int) error {
	return serialization.WriteElements(w,
		header.Version,
		header.Timestamp,
		header.PreviousBlockID,
		int32(transactionCount),
		header.TotalAmountNQT,
		header.TotalFeeNQT,
		header.PayloadLength,
		header.PayloadHash,
		header.GeneratorPublicKey,
		header.GenerationSignature,
		header.PreviousBlockHash)
}

// ParseBlockBytes parses bytes produced by BlockBytes. The signature is
// returned only when the bytes carry one.
func ParseBlockBytes(blockBytes []byte) (header *externalapi.BlockHeader, transactionCount int,
	signature *externalapi.Signature, err error) {

	switch len(blockBytes) {
	case UnsignedBlockSize, SignedBlockSize:
	default:
		return nil, 0, nil, errors.Errorf("invalid block bytes length %d", len(blockBytes))
	}

	reader := bytes.NewReader(blockBytes)
	header = &externalapi.BlockHeader{}
	var count int32
	err = serialization.ReadElements(reader,
		&header.Version,
		&header.Timestamp,
		&header.PreviousBlockID,
		&count,
		&header.TotalAmountNQT,
		&header.TotalFeeNQT,
		&header.PayloadLength,
		&header.PayloadHash,
		&header.GeneratorPublicKey,
		&header.GenerationSignature,
		&header.PreviousBlockHash)
	if err != nil {
		return nil, 0, nil, err
	}
	if count < 0 {
		return nil, 0, nil, errors.Errorf("invalid transaction count %d", count)
	}
	if len(blockBytes) == SignedBlockSize {
		signature = &externalapi.Signature{}
		err = serialization.ReadElement(reader, signature)
		if err != nil {
			return nil, 0, nil, err
		}
	}
	return header, int(count), signature, nil
}

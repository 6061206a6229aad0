package model

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

// BlockGenerator assembles, signs and pushes new blocks
type BlockGenerator interface {
	GenerateBlock(key *signing.PrivateKey, timestamp int32) (externalapi.DomainBlock, error)
}

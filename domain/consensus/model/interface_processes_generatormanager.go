package model

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

// ForgingChain is the view of the chain the forging scheduler acts on. It
// is used while the update tier of the chain lock is held.
type ForgingChain interface {
	LastBlock() externalapi.DomainBlock
	Block(blockID externalapi.BlockID) (externalapi.DomainBlock, error)
	PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error)
	GenerateBlock(key *signing.PrivateKey, timestamp int32) (externalapi.DomainBlock, error)
}

// ForgingSchedule is the part of the local forging state that block
// processing consults
type ForgingSchedule interface {
	// NextHitTime returns the earliest hit time among local generators that
	// may still forge on lastBlockID, or 0 when unknown.
	NextHitTime(lastBlockID externalapi.BlockID, now int32) int64
	SetDelay(delay int32)
}

// GeneratorManager keeps the accounts this node forges with
type GeneratorManager interface {
	ForgingSchedule

	StartForging(key *signing.PrivateKey, lastBlock externalapi.DomainBlock) (*externalapi.GeneratorInfo, error)
	StopForging(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool)
	StopAll() int
	Generator(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool)
	Generators() []*externalapi.GeneratorInfo
	AllowsFakeForging(publicKey externalapi.PublicKey) bool

	// Tick runs one round of the forging scheduler.
	Tick(chain ForgingChain, now int32) error
}

// ActiveGeneratorManager tracks every account that forged recently
type ActiveGeneratorManager interface {
	Init(stagingArea *StagingArea, lastBlock externalapi.DomainBlock) error
	AddBlock(block externalapi.DomainBlock)
	NextGenerators(lastBlock externalapi.DomainBlock) ([]*externalapi.ActiveGeneratorInfo, error)
}

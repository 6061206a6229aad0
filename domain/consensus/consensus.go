package consensus

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/util/epochtime"
	"github.com/xelnet/xeld/util/locks"
)

// Consensus maintains the canonical chain of the node and the accounts it
// forges with
type Consensus interface {
	LastBlock() externalapi.DomainBlock
	Height() int32
	ChainCommitment() externalapi.DomainHash
	BlockByID(blockID externalapi.BlockID) (externalapi.DomainBlock, error)
	BlockAtHeight(height int32) (externalapi.DomainBlock, error)
	HasBlock(blockID externalapi.BlockID) (bool, error)
	BlockIDsAfter(height int32, limit int) ([]externalapi.BlockID, error)
	HasTransaction(transactionID externalapi.TransactionID) (bool, error)
	SoftForks() (*SoftForkStatus, error)
	Account(accountID externalapi.AccountID) (*externalapi.AccountInfo, bool, error)

	ProcessPeerBlock(block *blocks.Builder) error
	PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error)
	PopOffToHeight(height int32) ([]externalapi.DomainBlock, error)
	Scan(height int32, validate bool) error
	FullReset() error

	StartForging(key *signing.PrivateKey) (*externalapi.GeneratorInfo, error)
	StopForging(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool)
	StopAllForging() int
	Generator(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool)
	Generators() []*externalapi.GeneratorInfo
	NextGenerators() ([]*externalapi.ActiveGeneratorInfo, error)

	BlockListeners() *model.BlockListeners
	GeneratorListeners() *model.GeneratorListeners

	// Tick runs one round of forging.
	Tick()
}

// SoftForkStatus is the soft-fork voting state at the last block
type SoftForkStatus struct {
	Height    int32
	Live      uint64
	Potential uint64
	// Voted are the features this node votes for
	Voted uint64
}

type consensus struct {
	params          *chainconfig.Params
	chainLock       *locks.ReadWriteUpdateLock
	timeSource      *epochtime.Source
	databaseContext model.DBManager

	blockProcessor   model.BlockProcessor
	blockGenerator   model.BlockGenerator
	softForkManager  model.SoftForkManager
	generatorManager model.GeneratorManager
	activeGenerators model.ActiveGeneratorManager

	ledger     model.Ledger
	blockStore model.BlockStore

	blockListeners     *model.BlockListeners
	generatorListeners *model.GeneratorListeners
}

// LastBlock returns the last block of the canonical chain
func (s *consensus) LastBlock() externalapi.DomainBlock {
	return s.blockProcessor.LastBlock()
}

// Height returns the height of the last block
func (s *consensus) Height() int32 {
	return s.blockProcessor.LastBlock().Height()
}

// ChainCommitment returns the commitment over the ids of the canonical
// chain
func (s *consensus) ChainCommitment() externalapi.DomainHash {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	return s.blockProcessor.Commitment()
}

func (s *consensus) BlockByID(blockID externalapi.BlockID) (externalapi.DomainBlock, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	return s.blockStore.Block(s.databaseContext, model.NewStagingArea(), blockID)
}

func (s *consensus) BlockAtHeight(height int32) (externalapi.DomainBlock, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	if height < 0 || height > s.blockProcessor.LastBlock().Height() {
		return nil, errors.Errorf("height %d is not in the chain", height)
	}
	return s.blockStore.BlockAtHeight(s.databaseContext, model.NewStagingArea(), height)
}

func (s *consensus) HasBlock(blockID externalapi.BlockID) (bool, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	return s.blockStore.HasBlock(s.databaseContext, model.NewStagingArea(), blockID)
}

// BlockIDsAfter returns up to limit ids of the blocks above height
func (s *consensus) BlockIDsAfter(height int32, limit int) ([]externalapi.BlockID, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	if limit <= 0 {
		return nil, nil
	}
	return s.blockStore.BlockIDsFromHeight(s.databaseContext, height+1, limit)
}

func (s *consensus) HasTransaction(transactionID externalapi.TransactionID) (bool, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	return s.blockStore.HasTransaction(s.databaseContext, model.NewStagingArea(), transactionID)
}

func (s *consensus) SoftForks() (*SoftForkStatus, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	stagingArea := model.NewStagingArea()
	height := s.blockProcessor.LastBlock().Height()
	live, err := s.softForkManager.LiveBitmask(stagingArea, height)
	if err != nil {
		return nil, err
	}
	potential, err := s.softForkManager.PotentialBitmask(stagingArea, height)
	if err != nil {
		return nil, err
	}
	voted, err := s.softForkManager.FeatureBitmask(stagingArea, height)
	if err != nil {
		return nil, err
	}
	return &SoftForkStatus{Height: height, Live: live, Potential: potential, Voted: voted}, nil
}

// Account returns accountID as of the last block. The boolean result is
// false when the account does not exist.
func (s *consensus) Account(accountID externalapi.AccountID) (*externalapi.AccountInfo, bool, error) {
	s.chainLock.RLock()
	defer s.chainLock.RUnlock()

	balance, unconfirmed, forged, exists := s.ledger.Balance(accountID)
	if !exists {
		return nil, false, nil
	}
	height := s.blockProcessor.LastBlock().Height()
	effectiveBalance, _, err := s.ledger.EffectiveBalanceNXT(accountID, height, false)
	if err != nil {
		return nil, false, err
	}
	_, hasPublicKey := s.ledger.PublicKey(accountID)
	return &externalapi.AccountInfo{
		AccountID:             accountID,
		Height:                height,
		BalanceNQT:            balance,
		UnconfirmedBalanceNQT: unconfirmed,
		ForgedBalanceNQT:      forged,
		EffectiveBalanceNXT:   effectiveBalance,
		HasPublicKey:          hasPublicKey,
	}, true, nil
}

// ProcessPeerBlock pushes a block received from a peer
func (s *consensus) ProcessPeerBlock(block *blocks.Builder) error {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	return s.blockProcessor.ProcessPeerBlock(block)
}

func (s *consensus) PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error) {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	return s.blockProcessor.PopOffTo(target)
}

func (s *consensus) PopOffToHeight(height int32) ([]externalapi.DomainBlock, error) {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	return s.blockProcessor.PopOffToHeight(height)
}

func (s *consensus) Scan(height int32, validate bool) error {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	return s.blockProcessor.Scan(height, validate)
}

func (s *consensus) FullReset() error {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	return s.blockProcessor.FullReset()
}

func (s *consensus) StartForging(key *signing.PrivateKey) (*externalapi.GeneratorInfo, error) {
	return s.generatorManager.StartForging(key, s.blockProcessor.LastBlock())
}

func (s *consensus) StopForging(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool) {
	return s.generatorManager.StopForging(accountID)
}

func (s *consensus) StopAllForging() int {
	return s.generatorManager.StopAll()
}

func (s *consensus) Generator(accountID externalapi.AccountID) (*externalapi.GeneratorInfo, bool) {
	return s.generatorManager.Generator(accountID)
}

func (s *consensus) Generators() []*externalapi.GeneratorInfo {
	return s.generatorManager.Generators()
}

// NextGenerators returns the recent generators of the chain by the time
// they may forge on top of the last block
func (s *consensus) NextGenerators() ([]*externalapi.ActiveGeneratorInfo, error) {
	return s.activeGenerators.NextGenerators(s.blockProcessor.LastBlock())
}

func (s *consensus) BlockListeners() *model.BlockListeners {
	return s.blockListeners
}

func (s *consensus) GeneratorListeners() *model.GeneratorListeners {
	return s.generatorListeners
}

// forgingChain is the chain as seen by the forging scheduler. Its methods
// are called while the update tier of the chain lock is held.
type forgingChain struct {
	*consensus
}

func (c forgingChain) Block(blockID externalapi.BlockID) (externalapi.DomainBlock, error) {
	return c.blockStore.Block(c.databaseContext, model.NewStagingArea(), blockID)
}

func (c forgingChain) PopOffTo(target externalapi.DomainBlock) ([]externalapi.DomainBlock, error) {
	return c.blockProcessor.PopOffTo(target)
}

func (c forgingChain) GenerateBlock(key *signing.PrivateKey, timestamp int32) (externalapi.DomainBlock, error) {
	return c.blockGenerator.GenerateBlock(key, timestamp)
}

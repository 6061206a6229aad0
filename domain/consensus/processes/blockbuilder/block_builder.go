package blockbuilder

import (
	"math/big"

	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/blocks"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
	"github.com/xelnet/xeld/infrastructure/logger"
)

type blockBuilder struct {
	params *chainconfig.Params

	blockProcessor   model.BlockProcessor
	softForkManager  model.SoftForkManager
	powTargetManager model.PowTargetManager

	mempool        model.Mempool
	blockListeners *model.BlockListeners
}

// New instantiates a new BlockGenerator
func New(
	params *chainconfig.Params,

	blockProcessor model.BlockProcessor,
	softForkManager model.SoftForkManager,
	powTargetManager model.PowTargetManager,

	mempool model.Mempool,
	blockListeners *model.BlockListeners,
) model.BlockGenerator {

	return &blockBuilder{
		params:           params,
		blockProcessor:   blockProcessor,
		softForkManager:  softForkManager,
		powTargetManager: powTargetManager,
		mempool:          mempool,
		blockListeners:   blockListeners,
	}
}

// GenerateBlock builds a block on top of the last block out of the
// mempool, signs it with key and pushes it. When the push fails because of
// one of its transactions, that transaction is dropped from the mempool.
func (bb *blockBuilder) GenerateBlock(key *signing.PrivateKey, timestamp int32) (externalapi.DomainBlock, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "GenerateBlock")
	defer onEnd()

	builder, err := bb.buildBlock(key, timestamp)
	if err != nil {
		return nil, err
	}

	block, err := bb.blockProcessor.PushBlock(builder)
	if err != nil {
		if notAccepted, ok := ruleerrors.AsTransactionNotAccepted(err); ok {
			transactionID := consensushashing.TransactionID(notAccepted.Transaction)
			log.Debugf("Removing transaction %s from the mempool: %s", transactionID, notAccepted.Reason)
			bb.mempool.Remove(transactionID)
		}
		log.Debugf("Generated block was not accepted: %s", err)
		return nil, err
	}

	bb.blockListeners.Notify(model.BlockEventBlockGenerated, block)
	log.Debugf("Account %s generated block %s at height %d timestamp %d fee %d NQT",
		block.GeneratorID(), block.ID(), block.Height(), block.Timestamp(), block.TotalFeeNQT())
	return block, nil
}

func (bb *blockBuilder) buildBlock(key *signing.PrivateKey, timestamp int32) (*blocks.Builder, error) {
	previous := bb.blockProcessor.LastBlock()
	if timestamp <= previous.Timestamp() {
		timestamp = previous.Timestamp() + 1
	}

	transactions := bb.mempool.SelectForBlock(previous, timestamp)
	header := bb.buildHeader(key, timestamp, previous, transactions)

	softforkVotes, err := bb.softForkManager.FeatureBitmask(model.NewStagingArea(), previous.Height())
	if err != nil {
		return nil, err
	}

	minPowTarget, err := bb.powTargetManager.MinPowTarget(previous.ID())
	if err != nil {
		log.Warnf("Could not compute the minimum PoW target, using the least possible target: %s", err)
		minPowTarget = new(big.Int).Set(bb.params.LeastPossibleTarget)
	}

	builder := blocks.NewBuilder(header, transactions, minPowTarget, softforkVotes)
	err = builder.Sign(key)
	if err != nil {
		return nil, err
	}
	return builder, nil
}

func (bb *blockBuilder) buildHeader(key *signing.PrivateKey, timestamp int32, previous externalapi.DomainBlock,
	transactions []*externalapi.DomainTransaction) externalapi.BlockHeader {

	header := externalapi.BlockHeader{
		Version:             bb.params.BlockVersion,
		Timestamp:           timestamp,
		PreviousBlockID:     previous.ID(),
		PayloadLength:       int32(consensushashing.PayloadLength(transactions)),
		PayloadHash:         consensushashing.PayloadHash(transactions),
		GeneratorPublicKey:  key.PublicKey(),
		GenerationSignature: targetmath.GenerationSignature(previous.GenerationSignature(), key.PublicKey()),
		PreviousBlockHash:   consensushashing.BlockHash(previous.Bytes()),
	}
	for _, tx := range transactions {
		header.TotalAmountNQT += tx.AmountNQT
		header.TotalFeeNQT += tx.FeeNQT
	}
	return header
}

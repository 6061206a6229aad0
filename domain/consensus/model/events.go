package model

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/listeners"
)

// BlockEvent is a step of the block lifecycle that listeners can observe
type BlockEvent uint8

// Block lifecycle events
const (
	BlockEventBlockPushed BlockEvent = iota
	BlockEventBlockPopped
	BlockEventBlockGenerated
	BlockEventBlockScanned
	BlockEventBeforeBlockAccept
	BlockEventAfterBlockAccept
	BlockEventBeforeBlockApply
	BlockEventAfterBlockApply
	BlockEventRescanBegin
	BlockEventRescanEnd
)

var blockEventNames = map[BlockEvent]string{
	BlockEventBlockPushed:       "BLOCK_PUSHED",
	BlockEventBlockPopped:       "BLOCK_POPPED",
	BlockEventBlockGenerated:    "BLOCK_GENERATED",
	BlockEventBlockScanned:      "BLOCK_SCANNED",
	BlockEventBeforeBlockAccept: "BEFORE_BLOCK_ACCEPT",
	BlockEventAfterBlockAccept:  "AFTER_BLOCK_ACCEPT",
	BlockEventBeforeBlockApply:  "BEFORE_BLOCK_APPLY",
	BlockEventAfterBlockApply:   "AFTER_BLOCK_APPLY",
	BlockEventRescanBegin:       "RESCAN_BEGIN",
	BlockEventRescanEnd:         "RESCAN_END",
}

func (event BlockEvent) String() string {
	if name, ok := blockEventNames[event]; ok {
		return name
	}
	return "UNKNOWN"
}

// BlockListeners dispatches block lifecycle events
type BlockListeners = listeners.Manager[BlockEvent, externalapi.DomainBlock]

// NewBlockListeners returns an empty BlockListeners
func NewBlockListeners() *BlockListeners {
	return listeners.New[BlockEvent, externalapi.DomainBlock]()
}

// GeneratorEvent is a change of the local forging set
type GeneratorEvent uint8

// Generator events
const (
	GeneratorEventGenerationDeadline GeneratorEvent = iota
	GeneratorEventStartForging
	GeneratorEventStopForging
)

func (event GeneratorEvent) String() string {
	switch event {
	case GeneratorEventGenerationDeadline:
		return "GENERATION_DEADLINE"
	case GeneratorEventStartForging:
		return "START_FORGING"
	case GeneratorEventStopForging:
		return "STOP_FORGING"
	}
	return "UNKNOWN"
}

// GeneratorListeners dispatches generator events
type GeneratorListeners = listeners.Manager[GeneratorEvent, *externalapi.GeneratorInfo]

// NewGeneratorListeners returns an empty GeneratorListeners
func NewGeneratorListeners() *GeneratorListeners {
	return listeners.New[GeneratorEvent, *externalapi.GeneratorInfo]()
}

package model

import "github.com/xelnet/xeld/domain/consensus/utils/blocks"

// RetargetManager computes base targets and cumulative difficulties
type RetargetManager interface {
	// Retargeter returns a blocks.Retargeter that reads previous blocks
	// through stagingArea.
	Retargeter(stagingArea *StagingArea) blocks.Retargeter
}

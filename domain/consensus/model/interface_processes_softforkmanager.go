package model

import "github.com/xelnet/xeld/domain/consensus/model/externalapi"

// SoftForkManager counts soft-fork votes over a sliding window of blocks
// and tells which features are live
type SoftForkManager interface {
	// CheckSafety refuses to run when a feature live or armed at height is
	// not implemented, and warns about potential ones.
	CheckSafety(stagingArea *StagingArea, height int32) error

	// RecordVotes updates the counters with the votes of block. The block
	// must already be staged.
	RecordVotes(stagingArea *StagingArea, block externalapi.DomainBlock) error

	// RollbackTo drops every counter change above height.
	RollbackTo(stagingArea *StagingArea, height int32)

	SlidingCount(stagingArea *StagingArea, feature int, height int32) (int32, error)
	IsLive(stagingArea *StagingArea, feature int, height int32) (bool, error)
	IsArmedByConfig(stagingArea *StagingArea, feature int, height int32) (bool, error)
	LiveBitmask(stagingArea *StagingArea, height int32) (uint64, error)
	PotentialBitmask(stagingArea *StagingArea, height int32) (uint64, error)
	FeatureBitmask(stagingArea *StagingArea, height int32) (uint64, error)
	IncompatibleToLiveMap(stagingArea *StagingArea, height int32, mask uint64) (bool, error)
	NeedsUrgentUpdate(stagingArea *StagingArea, height int32, checkLive bool) (bool, error)
	NeedsPotentialUpdate(stagingArea *StagingArea, height int32) (bool, error)
}

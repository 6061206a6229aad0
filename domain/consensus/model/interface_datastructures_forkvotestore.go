package model

// ForkVoteStore is an append-only log of soft-fork vote counts keyed by
// (feature, height). A count applies from its height until the next entry
// of the same feature.
type ForkVoteStore interface {
	StageCount(stagingArea *StagingArea, feature int, height int32, count int32)
	IsStaged(stagingArea *StagingArea) bool
	// Count returns the latest count of feature at or below height, or 0
	// when there is none.
	Count(dbContext DBReader, stagingArea *StagingArea, feature int, height int32) (int32, error)
	// DeleteAbove removes every entry whose height is greater than height.
	// A negative height removes everything.
	DeleteAbove(stagingArea *StagingArea, height int32)
}

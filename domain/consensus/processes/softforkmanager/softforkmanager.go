package softforkmanager

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/datastructures/forkvotestore"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// ErrNeedsUrgentUpdate is returned when a soft fork this node does not
// implement is live.
var ErrNeedsUrgentUpdate = errors.New("there has been a soft fork, but this version does not " +
	"implement the new feature. Update immediately")

// ErrUnimplementedFeatureVote is returned when the node is configured to
// vote for a feature it does not implement.
var ErrUnimplementedFeatureVote = errors.New("cannot vote for features that this version does " +
	"not implement. Update the software first")

type softForkManager struct {
	databaseContext model.DBReader
	blockStore      model.BlockStore
	forkVoteStore   model.ForkVoteStore

	window             int32
	potentialThreshold int32
	implemented        uint64
	votedByConfig      uint64
}

// New instantiates a new SoftForkManager. votedByConfig is the bitmask of
// features the operator asked to vote for.
func New(databaseContext model.DBReader, blockStore model.BlockStore, forkVoteStore model.ForkVoteStore,
	params *chainconfig.Params, votedByConfig uint64) model.SoftForkManager {

	return &softForkManager{
		databaseContext:    databaseContext,
		blockStore:         blockStore,
		forkVoteStore:      forkVoteStore,
		window:             params.BlocksToLockInSoftFork,
		potentialThreshold: params.PotentialSoftForkThreshold,
		implemented:        params.ImplementedFeatures,
		votedByConfig:      votedByConfig,
	}
}

func (sfm *softForkManager) CheckSafety(stagingArea *model.StagingArea, height int32) error {
	needsUrgentUpdate, err := sfm.NeedsUrgentUpdate(stagingArea, height, true)
	if err != nil {
		return err
	}
	if needsUrgentUpdate {
		return errors.WithStack(ErrNeedsUrgentUpdate)
	}

	needsPotentialUpdate, err := sfm.NeedsPotentialUpdate(stagingArea, height)
	if err != nil {
		return err
	}
	if needsPotentialUpdate {
		log.Warnf("At least one soft fork which is not implemented in this version has reached " +
			"a critical vote level. Update the software immediately")
	}

	votesForUnimplemented, err := sfm.NeedsUrgentUpdate(stagingArea, height, false)
	if err != nil {
		return err
	}
	if votesForUnimplemented {
		return errors.WithStack(ErrUnimplementedFeatureVote)
	}
	return nil
}

// RecordVotes updates the sliding counts with the votes of block. A vote
// counts when the block falling out of the window did not cast it; a
// missing vote counts down when the falling block did. Live features are
// not counted anymore.
func (sfm *softForkManager) RecordVotes(stagingArea *model.StagingArea, block externalapi.DomainBlock) error {
	height := block.Height()
	liveBefore, err := sfm.LiveBitmask(stagingArea, height-1)
	if err != nil {
		return err
	}

	var fallingOutVotes uint64
	fallingOutHeight := height - sfm.window
	if fallingOutHeight >= 1 {
		fallingOutBlock, err := sfm.blockStore.BlockAtHeight(sfm.databaseContext, stagingArea, fallingOutHeight)
		if err != nil {
			return err
		}
		fallingOutVotes = fallingOutBlock.SoftforkVotes()
	}
	votes := block.SoftforkVotes()

	log.Debugf("Recording votes %d of block %s at height %d, falling out %d at height %d, live %d",
		votes, block.ID(), height, fallingOutVotes, fallingOutHeight, liveBefore)

	for feature := 0; feature < forkvotestore.NumberOfFeatures; feature++ {
		bit := uint64(1) << feature
		if liveBefore&bit != 0 {
			continue
		}
		voted := votes&bit != 0
		fallingOut := fallingOutVotes&bit != 0
		if voted == fallingOut {
			continue
		}

		count, err := sfm.SlidingCount(stagingArea, feature, height-1)
		if err != nil {
			return err
		}
		if voted {
			count = min(count+1, sfm.window)
		} else {
			count = max(count-1, 0)
		}
		log.Tracef("Feature %d count at height %d is %d", feature, height, count)
		sfm.forkVoteStore.StageCount(stagingArea, feature, height, count)
	}

	needsUrgentUpdate, err := sfm.NeedsUrgentUpdate(stagingArea, height, true)
	if err != nil {
		return err
	}
	if needsUrgentUpdate {
		log.Criticalf("There has been a soft fork at height %d, but this version does not implement "+
			"the new feature. Update immediately", height)
		return nil
	}
	needsPotentialUpdate, err := sfm.NeedsPotentialUpdate(stagingArea, height)
	if err != nil {
		return err
	}
	if needsPotentialUpdate {
		log.Warnf("At least one soft fork which is not implemented in this version has reached "+
			"a critical vote level at height %d", height)
	}
	return nil
}

func (sfm *softForkManager) RollbackTo(stagingArea *model.StagingArea, height int32) {
	sfm.forkVoteStore.DeleteAbove(stagingArea, height)
}

func (sfm *softForkManager) SlidingCount(stagingArea *model.StagingArea, feature int, height int32) (int32, error) {
	if feature < 0 || feature >= forkvotestore.NumberOfFeatures {
		return 0, errors.Errorf("feature %d is out of range", feature)
	}
	return sfm.forkVoteStore.Count(sfm.databaseContext, stagingArea, feature, height)
}

func (sfm *softForkManager) IsLive(stagingArea *model.StagingArea, feature int, height int32) (bool, error) {
	count, err := sfm.SlidingCount(stagingArea, feature, height)
	if err != nil {
		return false, err
	}
	return count == sfm.window, nil
}

// IsArmedByConfig returns whether the node votes for feature: either the
// feature is live or the operator asked to vote for it.
func (sfm *softForkManager) IsArmedByConfig(stagingArea *model.StagingArea, feature int, height int32) (bool, error) {
	isLive, err := sfm.IsLive(stagingArea, feature, height)
	if err != nil {
		return false, err
	}
	return isLive || sfm.votedByConfig&(uint64(1)<<feature) != 0, nil
}

func (sfm *softForkManager) LiveBitmask(stagingArea *model.StagingArea, height int32) (uint64, error) {
	return sfm.bitmask(stagingArea, height, func(count int32) bool {
		return count == sfm.window
	})
}

func (sfm *softForkManager) PotentialBitmask(stagingArea *model.StagingArea, height int32) (uint64, error) {
	return sfm.bitmask(stagingArea, height, func(count int32) bool {
		return count >= sfm.potentialThreshold
	})
}

// FeatureBitmask returns the votes the node casts in a block on top of
// height.
func (sfm *softForkManager) FeatureBitmask(stagingArea *model.StagingArea, height int32) (uint64, error) {
	live, err := sfm.LiveBitmask(stagingArea, height)
	if err != nil {
		return 0, err
	}
	return live | sfm.votedByConfig, nil
}

// IncompatibleToLiveMap returns whether a feature live at height is
// missing from mask.
func (sfm *softForkManager) IncompatibleToLiveMap(stagingArea *model.StagingArea, height int32, mask uint64) (bool, error) {
	live, err := sfm.LiveBitmask(stagingArea, height)
	if err != nil {
		return false, err
	}
	return live&^mask != 0, nil
}

// NeedsUrgentUpdate returns whether a live feature (with checkLive) or a
// voted feature (without) is not implemented.
func (sfm *softForkManager) NeedsUrgentUpdate(stagingArea *model.StagingArea, height int32, checkLive bool) (bool, error) {
	var mask uint64
	var err error
	if checkLive {
		mask, err = sfm.LiveBitmask(stagingArea, height)
	} else {
		mask, err = sfm.FeatureBitmask(stagingArea, height)
	}
	if err != nil {
		return false, err
	}
	return mask&^sfm.implemented != 0, nil
}

func (sfm *softForkManager) NeedsPotentialUpdate(stagingArea *model.StagingArea, height int32) (bool, error) {
	potential, err := sfm.PotentialBitmask(stagingArea, height)
	if err != nil {
		return false, err
	}
	return potential&^sfm.implemented != 0, nil
}

func (sfm *softForkManager) bitmask(stagingArea *model.StagingArea, height int32,
	predicate func(count int32) bool) (uint64, error) {

	var mask uint64
	for feature := 0; feature < forkvotestore.NumberOfFeatures; feature++ {
		count, err := sfm.SlidingCount(stagingArea, feature, height)
		if err != nil {
			return 0, err
		}
		if predicate(count) {
			mask |= uint64(1) << feature
		}
	}
	return mask, nil
}

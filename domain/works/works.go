// Package works keeps the closed works of the work subsystem that forging
// derives minimum proof-of-work targets from.
package works

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

type closedWork struct {
	workID       externalapi.WorkID
	height       int32
	minPowTarget *big.Int
}

// Registry is an in-memory model.WorkRegistry
type Registry struct {
	lock   sync.RWMutex
	closed []closedWork
}

// New returns an empty Registry
func New() *Registry {
	return &Registry{}
}

var _ model.WorkRegistry = (*Registry)(nil)

// Close records that workID was closed at height with the given minimum
// proof-of-work target. Works must be closed in height order.
func (r *Registry) Close(workID externalapi.WorkID, height int32, minPowTarget *big.Int) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(r.closed) > 0 && r.closed[len(r.closed)-1].height > height {
		return errors.Errorf("work %d closed at height %d, below the last closed work at %d",
			workID, height, r.closed[len(r.closed)-1].height)
	}
	r.closed = append(r.closed, closedWork{
		workID:       workID,
		height:       height,
		minPowTarget: new(big.Int).Set(minPowTarget),
	})
	return nil
}

// LastClosedMinPowTargets returns the minimum targets of the last count
// closed works, the most recent first
func (r *Registry) LastClosedMinPowTargets(count int) ([]*big.Int, error) {
	if count < 0 {
		return nil, errors.Errorf("negative count %d", count)
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	targets := make([]*big.Int, 0, min(count, len(r.closed)))
	for i := len(r.closed) - 1; i >= 0 && len(targets) < count; i-- {
		targets = append(targets, new(big.Int).Set(r.closed[i].minPowTarget))
	}
	return targets, nil
}

// RollbackTo forgets the works closed above height
func (r *Registry) RollbackTo(height int32) {
	r.lock.Lock()
	defer r.lock.Unlock()

	end := len(r.closed)
	for end > 0 && r.closed[end-1].height > height {
		end--
	}
	r.closed = r.closed[:end]
}

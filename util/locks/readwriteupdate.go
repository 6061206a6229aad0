package locks

import (
	"sync"
)

// ReadWriteUpdateLock is a lock with three tiers:
//   - Read lock: shared, held concurrently by any number of readers and by
//     at most one updater.
//   - Update lock: exclusive among updaters, but concurrent with readers.
//     An update lock holder may upgrade to the write tier.
//   - Write lock: the update lock plus exclusive access to the data.
//
// The lock is not reentrant. A goroutine holding the read lock must not
// request the update or write lock; doing so may deadlock.
type ReadWriteUpdateLock struct {
	updateLock sync.Mutex
	dataLock   sync.RWMutex
}

// NewReadWriteUpdateLock returns a new unlocked ReadWriteUpdateLock.
func NewReadWriteUpdateLock() *ReadWriteUpdateLock {
	return &ReadWriteUpdateLock{}
}

// RLock acquires the read lock.
func (l *ReadWriteUpdateLock) RLock() {
	l.dataLock.RLock()
}

// RUnlock releases the read lock.
func (l *ReadWriteUpdateLock) RUnlock() {
	l.dataLock.RUnlock()
}

// UpdateLock acquires the update lock.
func (l *ReadWriteUpdateLock) UpdateLock() {
	l.updateLock.Lock()
}

// UpdateUnlock releases the update lock.
func (l *ReadWriteUpdateLock) UpdateUnlock() {
	l.updateLock.Unlock()
}

// WriteLock acquires the update lock and then exclusive data access.
func (l *ReadWriteUpdateLock) WriteLock() {
	l.updateLock.Lock()
	l.dataLock.Lock()
}

// WriteUnlock releases a lock acquired with WriteLock.
func (l *ReadWriteUpdateLock) WriteUnlock() {
	l.dataLock.Unlock()
	l.updateLock.Unlock()
}

// Upgrade turns a held update lock into a write lock. It waits for all
// readers to leave.
func (l *ReadWriteUpdateLock) Upgrade() {
	l.dataLock.Lock()
}

// Downgrade turns an upgraded write lock back into an update lock.
func (l *ReadWriteUpdateLock) Downgrade() {
	l.dataLock.Unlock()
}

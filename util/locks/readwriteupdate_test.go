package locks

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadersRunWhileUpdating(t *testing.T) {
	lock := NewReadWriteUpdateLock()
	lock.UpdateLock()
	defer lock.UpdateUnlock()

	readDone := make(chan struct{})
	go func() {
		lock.RLock()
		lock.RUnlock()
		close(readDone)
	}()

	select {
	case <-readDone:
	case <-time.After(time.Second):
		t.Fatalf("reader was blocked by the update lock")
	}
}

func TestUpdatersAreSerialized(t *testing.T) {
	lock := NewReadWriteUpdateLock()
	lock.UpdateLock()

	var acquired int32
	secondDone := make(chan struct{})
	go func() {
		lock.UpdateLock()
		atomic.StoreInt32(&acquired, 1)
		lock.UpdateUnlock()
		close(secondDone)
	}()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&acquired))
	lock.UpdateUnlock()
	<-secondDone
	require.Equal(t, int32(1), atomic.LoadInt32(&acquired))
}

func TestWriteLockExcludesReaders(t *testing.T) {
	lock := NewReadWriteUpdateLock()
	lock.WriteLock()

	var read int32
	readDone := make(chan struct{})
	go func() {
		lock.RLock()
		atomic.StoreInt32(&read, 1)
		lock.RUnlock()
		close(readDone)
	}()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&read))
	lock.WriteUnlock()
	<-readDone
	require.Equal(t, int32(1), atomic.LoadInt32(&read))
}

func TestUpgradeWaitsForReaders(t *testing.T) {
	lock := NewReadWriteUpdateLock()
	lock.RLock()

	var upgraded int32
	upgradeDone := make(chan struct{})
	go func() {
		lock.UpdateLock()
		lock.Upgrade()
		atomic.StoreInt32(&upgraded, 1)
		lock.Downgrade()
		lock.UpdateUnlock()
		close(upgradeDone)
	}()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&upgraded))
	lock.RUnlock()
	<-upgradeDone
	require.Equal(t, int32(1), atomic.LoadInt32(&upgraded))
}

// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocklogger

import (
	"sync"
	"time"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/util/epochtime"
	"golang.org/x/time/rate"
)

const logInterval = 10 * time.Second

// BlockLogger logs the progress of block processing. In order to prevent
// spam, it limits logging to one message every 10 seconds with duration and
// totals included.
type BlockLogger struct {
	mtx     sync.Mutex
	limiter *rate.Limiter

	receivedLogBlocks int64
	receivedLogTx     int64
	lastBlockLogTime  time.Time
}

// New returns a BlockLogger
func New() *BlockLogger {
	return &BlockLogger{
		limiter:          rate.NewLimiter(rate.Every(logInterval), 1),
		lastBlockLogTime: time.Now(),
	}
}

// LogBlock counts a pushed block and logs the totals when the log interval
// elapsed
func (bl *BlockLogger) LogBlock(block externalapi.DomainBlock) {
	bl.mtx.Lock()
	defer bl.mtx.Unlock()

	bl.receivedLogBlocks++
	bl.receivedLogTx += int64(block.TransactionCount())

	if !bl.limiter.Allow() {
		return
	}

	now := time.Now()
	// Truncate the duration to 10s of milliseconds.
	duration := now.Sub(bl.lastBlockLogTime).Round(10 * time.Millisecond)

	blockStr := "blocks"
	if bl.receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if bl.receivedLogTx == 1 {
		txStr = "transaction"
	}

	log.Infof("Processed %d %s in the last %s (%d %s, height %d, %s)",
		bl.receivedLogBlocks, blockStr, duration, bl.receivedLogTx, txStr, block.Height(),
		epochtime.ToTime(block.Timestamp()).UTC())

	bl.receivedLogBlocks = 0
	bl.receivedLogTx = 0
	bl.lastBlockLogTime = now
}

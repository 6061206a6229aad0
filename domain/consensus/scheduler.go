package consensus

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
)

// ForgingTickInterval is how often the forging scheduler runs
const ForgingTickInterval = 500 * time.Millisecond

// NewForgingTicker returns the ticker that drives RunForging
func NewForgingTicker() ticker.Ticker {
	return ticker.New(ForgingTickInterval)
}

// Tick runs one round of forging under the update tier of the chain lock.
// A failed round is logged and skipped.
func (s *consensus) Tick() {
	s.chainLock.UpdateLock()
	defer s.chainLock.UpdateUnlock()

	err := s.generatorManager.Tick(forgingChain{s}, s.timeSource.Now())
	if err != nil {
		log.Warnf("Forging round skipped: %+v", err)
	}
}

// RunForging runs the forging scheduler on every tick of forgingTicker
// until ctx is done
func RunForging(ctx context.Context, c Consensus, forgingTicker ticker.Ticker) error {
	forgingTicker.Resume()
	defer forgingTicker.Stop()

	log.Infof("Forging scheduler started")
	defer log.Infof("Forging scheduler stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-forgingTicker.Ticks():
			c.Tick()
		}
	}
}

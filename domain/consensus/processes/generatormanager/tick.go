package generatormanager

import (
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
)

const (
	// recentBlockAge is the age in seconds below which the last block may
	// be replaced by a local forger that should have forged before it
	recentBlockAge = 600

	// forgeRetrySeconds bounds how long forging is retried while blocks are
	// rejected because of one of their transactions
	forgeRetrySeconds = 10

	// deadlineLogWindow is how far ahead of the generation limit forgers
	// are logged
	deadlineLogWindow = 60
)

// Tick runs one round of forging on top of chain. The caller holds the
// update tier of the chain lock.
func (m *manager) Tick(chain model.ForgingChain, now int32) error {
	lastBlock := chain.LastBlock()
	if lastBlock == nil || lastBlock.Height() < m.params.LastKnownBlock {
		return nil
	}
	generationLimit := now - m.delay.Load()

	sortedForgers, err := m.refreshForgers(chain, lastBlock, now, generationLimit)
	if err != nil {
		return err
	}
	lastBlock = chain.LastBlock()

	for _, g := range sortedForgers {
		if g.hitTime > int64(generationLimit) {
			return nil
		}
		forged, err := m.forge(chain, g, lastBlock, generationLimit)
		if err != nil {
			return err
		}
		if forged {
			return nil
		}
	}
	return nil
}

// refreshForgers recomputes the forging order when the last block changed.
// If a local forger should have forged before a recent last block, that
// block is popped off first.
func (m *manager) refreshForgers(chain model.ForgingChain, lastBlock externalapi.DomainBlock, now int32,
	generationLimit int32) ([]*generator, error) {

	var deadlines []*externalapi.GeneratorInfo
	defer func() {
		for _, info := range deadlines {
			m.generatorListeners.Notify(model.GeneratorEventGenerationDeadline, info)
		}
	}()

	m.lock.Lock()
	defer m.lock.Unlock()

	if lastBlock.ID() != m.lastBlockID || m.sortedForgers == nil {
		m.lastBlockID = lastBlock.ID()

		if lastBlock.Timestamp() > now-recentBlockAge && lastBlock.Height() > 0 {
			previous, err := chain.Block(lastBlock.PreviousBlockID())
			if err != nil {
				return nil, err
			}
			for _, g := range m.generators {
				m.setLastBlock(g, previous)
				if g.hitTime != externalapi.InfiniteHitTime && g.timestamp(generationLimit) < lastBlock.Timestamp() {
					log.Debugf("Pop off: %s will pop off last block %s", g, lastBlock.ID())
					_, err := chain.PopOffTo(previous)
					if err != nil {
						return nil, err
					}
					lastBlock = previous
					m.lastBlockID = previous.ID()
					break
				}
			}
		}

		forgers := make([]*generator, 0, len(m.generators))
		for _, g := range m.generators {
			m.setLastBlock(g, lastBlock)
			deadlines = append(deadlines, g.info())
			if g.effectiveBalanceNXT > 0 || m.fakeForging.Allows(g.publicKey) {
				forgers = append(forgers, g)
			}
		}
		sortGenerators(forgers)
		m.sortedForgers = forgers
		m.logged = false
	}

	if !m.logged {
		for _, g := range m.sortedForgers {
			if g.hitTime-int64(generationLimit) > deadlineLogWindow {
				break
			}
			log.Debugf("%s", g)
			m.logged = true
		}
	}

	sortedForgers := make([]*generator, len(m.sortedForgers))
	copy(sortedForgers, m.sortedForgers)
	return sortedForgers, nil
}

// forge generates a block with g on top of lastBlock. It returns false
// when the hit of g does not allow it to forge yet.
func (m *manager) forge(chain model.ForgingChain, g *generator, lastBlock externalapi.DomainBlock,
	generationLimit int32) (bool, error) {

	timestamp := g.timestamp(generationLimit)
	if !m.fakeForging.Allows(g.publicKey) {
		factor, err := targetmath.SpeedFactor(m.ledger.RedeemedNQT(), m.params.MaxBalanceNQT)
		if err != nil {
			log.Debugf("%s cannot forge: %s", g, err)
			return false, nil
		}
		verified := targetmath.VerifyHit(g.hit, g.effectiveBalanceNXT, timestamp, targetmath.HitVerification{
			PreviousTimestamp:  lastBlock.Timestamp(),
			PreviousBaseTarget: lastBlock.BaseTarget(),
			Factor:             factor,
			StallGracePeriod:   m.params.StallGracePeriod,
			Offline:            m.offline,
		})
		if !verified {
			log.Errorf("%s failed to forge at %d height %d last timestamp %d",
				g, timestamp, lastBlock.Height(), lastBlock.Timestamp())
			return false, nil
		}
	}

	start := m.timeSource.Now()
	for {
		_, err := chain.GenerateBlock(g.key, timestamp)
		if err == nil {
			m.SetDelay(m.forgingDelay)
			return true, nil
		}
		if _, ok := ruleerrors.AsTransactionNotAccepted(err); !ok || m.timeSource.Now()-start > forgeRetrySeconds {
			return false, err
		}
		log.Debugf("Retrying to forge after a rejected transaction: %s", err)
	}
}

package generatormanager

import (
	"fmt"
	"math/big"

	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/domain/consensus/utils/targetmath"
)

// stallTimestampLimit is the number of seconds a hit may lie behind the
// generation limit before the generator forges at the generation limit
// instead of right after its hit
const stallTimestampLimit = 3600

// generator is an account this node forges with
type generator struct {
	key       *signing.PrivateKey
	accountID externalapi.AccountID
	publicKey externalapi.PublicKey

	effectiveBalanceNXT int64
	hit                 *big.Int
	hitTime             int64
	deadline            int64
}

func newGenerator(key *signing.PrivateKey) *generator {
	return &generator{
		key:       key,
		accountID: key.AccountID(),
		publicKey: key.PublicKey(),
		hit:       new(big.Int),
		hitTime:   externalapi.InfiniteHitTime,
	}
}

// setLastBlock recomputes the hit of the generator on top of lastBlock
func (m *manager) setLastBlock(g *generator, lastBlock externalapi.DomainBlock) {
	g.effectiveBalanceNXT = m.effectiveBalanceNXT(g.accountID, lastBlock.Height())

	if m.fakeForging.Allows(g.publicKey) {
		g.hit = new(big.Int)
		g.hitTime = int64(lastBlock.Timestamp())
		g.deadline = 0
		return
	}

	if g.effectiveBalanceNXT == 0 {
		g.hit = new(big.Int)
		g.hitTime = externalapi.InfiniteHitTime
		g.deadline = 0
		return
	}

	g.hit = targetmath.Hit(lastBlock.GenerationSignature(), g.publicKey)
	factor, err := targetmath.SpeedFactor(m.ledger.RedeemedNQT(), m.params.MaxBalanceNQT)
	if err != nil {
		log.Debugf("Forging is disabled: %s", err)
		g.hitTime = externalapi.InfiniteHitTime
		g.deadline = 0
		return
	}
	g.hitTime = targetmath.HitTime(lastBlock.Timestamp(), g.hit, lastBlock.BaseTarget(), g.effectiveBalanceNXT, factor)
	g.deadline = max(g.hitTime-int64(lastBlock.Timestamp()), 0)
}

// timestamp returns the timestamp the generator forges its block with
func (g *generator) timestamp(generationLimit int32) int32 {
	if int64(generationLimit)-g.hitTime > stallTimestampLimit {
		return generationLimit
	}
	return int32(g.hitTime + 1)
}

// less orders generators by hit over effective balance, which is the
// order of their hit times, and then by account id
func (g *generator) less(other *generator) bool {
	left := new(big.Int).Mul(g.hit, big.NewInt(other.effectiveBalanceNXT))
	right := new(big.Int).Mul(other.hit, big.NewInt(g.effectiveBalanceNXT))
	if cmp := left.Cmp(right); cmp != 0 {
		return cmp < 0
	}
	return g.accountID < other.accountID
}

func (g *generator) info() *externalapi.GeneratorInfo {
	return &externalapi.GeneratorInfo{
		AccountID:           g.accountID,
		PublicKey:           g.publicKey,
		EffectiveBalanceNXT: g.effectiveBalanceNXT,
		Hit:                 new(big.Int).Set(g.hit),
		HitTime:             g.hitTime,
		Deadline:            g.deadline,
	}
}

func (g *generator) String() string {
	return fmt.Sprintf("Forger %s deadline %d hit %d", g.accountID, g.deadline, g.hitTime)
}

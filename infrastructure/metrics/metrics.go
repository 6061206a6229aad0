package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xelnet/xeld/domain/consensus/model"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/version"
)

const namespace = "xeld"

// Chain is the part of consensus the collector observes
type Chain interface {
	Height() int32
	Generators() []*externalapi.GeneratorInfo
	BlockListeners() *model.BlockListeners
	GeneratorListeners() *model.GeneratorListeners
}

// Collector exports chain and forging statistics to prometheus
type Collector struct {
	registry *prometheus.Registry

	blocksPushed    prometheus.Counter
	blocksPopped    prometheus.Counter
	blocksGenerated prometheus.Counter
	blocksScanned   prometheus.Counter
	rescans         prometheus.Counter
	forgingEvents   *prometheus.CounterVec
	blockTxCount    prometheus.Histogram
	blockFees       prometheus.Counter
}

// New creates a Collector registered on its own registry and subscribed to
// the listeners of chain
func New(chain Chain) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		blocksPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_pushed_total",
			Help:      "Blocks appended to the chain.",
		}),
		blocksPopped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_popped_total",
			Help:      "Blocks removed from the chain by pop-off.",
		}),
		blocksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_generated_total",
			Help:      "Blocks forged by accounts of this node.",
		}),
		blocksScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_scanned_total",
			Help:      "Blocks replayed by rescans.",
		}),
		rescans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rescans_total",
			Help:      "Completed rescans of the chain.",
		}),
		forgingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forging_events_total",
			Help:      "Changes of the local forging set.",
		}, []string{"event"}),
		blockTxCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_transactions",
			Help:      "Transactions per pushed block.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		blockFees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_fees_nqt_total",
			Help:      "Fees collected by pushed blocks, in NQT.",
		}),
	}

	versionGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "version",
		Help:      "Version of xeld running.",
	}, []string{"version"})
	versionGauge.WithLabelValues(version.Version()).Set(1)

	c.registry.MustRegister(
		c.blocksPushed,
		c.blocksPopped,
		c.blocksGenerated,
		c.blocksScanned,
		c.rescans,
		c.forgingEvents,
		c.blockTxCount,
		c.blockFees,
		versionGauge,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Height of the last block.",
		}, func() float64 {
			return float64(chain.Height())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forgers",
			Help:      "Accounts forging on this node.",
		}, func() float64 {
			return float64(len(chain.Generators()))
		}),
	)

	c.subscribe(chain)
	log.Debugf("Metrics collector subscribed to chain events")
	return c
}

func (c *Collector) subscribe(chain Chain) {
	blockListeners := chain.BlockListeners()
	blockListeners.AddListener(model.BlockEventBlockPushed, func(block externalapi.DomainBlock) {
		c.blocksPushed.Inc()
		c.blockTxCount.Observe(float64(len(block.Transactions())))
		c.blockFees.Add(float64(block.TotalFeeNQT()))
	})
	blockListeners.AddListener(model.BlockEventBlockPopped, func(externalapi.DomainBlock) {
		c.blocksPopped.Inc()
	})
	blockListeners.AddListener(model.BlockEventBlockGenerated, func(externalapi.DomainBlock) {
		c.blocksGenerated.Inc()
	})
	blockListeners.AddListener(model.BlockEventBlockScanned, func(externalapi.DomainBlock) {
		c.blocksScanned.Inc()
	})
	blockListeners.AddListener(model.BlockEventRescanEnd, func(externalapi.DomainBlock) {
		c.rescans.Inc()
	})

	generatorListeners := chain.GeneratorListeners()
	for _, event := range []model.GeneratorEvent{
		model.GeneratorEventStartForging,
		model.GeneratorEventStopForging,
		model.GeneratorEventGenerationDeadline,
	} {
		counter := c.forgingEvents.WithLabelValues(event.String())
		generatorListeners.AddListener(event, func(*externalapi.GeneratorInfo) {
			counter.Inc()
		})
	}
}

// Registry returns the registry the collector's metrics are registered on
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics in the prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

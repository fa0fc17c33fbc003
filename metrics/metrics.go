// Package metrics exposes an allocator's statistics tracker as a
// prometheus.Collector, in the same NewDesc/MustNewConstMetric style the
// rest of this project's ambient stack uses.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/log"

	"github.com/povilasv/slaballoc/sizeclass"
	"github.com/povilasv/slaballoc/slab"
)

const namespace = "slaballoc"

// Collector exposes one *slab.Allocator's statistics under a given label.
// Collect reads a snapshot of a.Stats() on every scrape; it never mutates
// the allocator and takes no lock of its own. lbl must uniquely identify a
// within a process that runs more than one Allocator.
type Collector struct {
	logger log.Logger
	a      *slab.Allocator

	processCurrentBytes *prometheus.Desc
	processPeakBytes    *prometheus.Desc

	bucketLiveBlocks  *prometheus.Desc
	bucketLiveSlabs   *prometheus.Desc
	bucketRejects     *prometheus.Desc
	bucketLargestSeen *prometheus.Desc

	largeCurrentBytes *prometheus.Desc
	largePeakBytes    *prometheus.Desc
	largeCurrentCount *prometheus.Desc
}

// NewCollector returns a Collector reading from a under the given label.
func NewCollector(logger log.Logger, a *slab.Allocator, lbl string) (*Collector, error) {
	constLabels := prometheus.Labels{"allocator": lbl}

	return &Collector{
		logger: logger,
		a:      a,

		processCurrentBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "process_current_bytes"),
			"Bytes currently live across all buckets.", nil, constLabels,
		),
		processPeakBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "process_peak_bytes"),
			"Highest bytes-live watermark across all buckets.", nil, constLabels,
		),
		bucketLiveBlocks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bucket_live_blocks"),
			"Blocks currently live in a bucket.", []string{"bucket"}, constLabels,
		),
		bucketLiveSlabs: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bucket_live_slabs"),
			"Slabs currently mapped for a bucket.", []string{"bucket"}, constLabels,
		),
		bucketRejects: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bucket_rejected_resizes_total"),
			"Resize/remap attempts rejected for demanding a larger bucket.", []string{"bucket"}, constLabels,
		),
		bucketLargestSeen: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bucket_largest_request_bytes"),
			"Largest request ever served from a bucket.", []string{"bucket"}, constLabels,
		),
		largeCurrentBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "large_current_bytes"),
			"Bytes currently live in page-mapper-delegated allocations.", nil, constLabels,
		),
		largePeakBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "large_peak_bytes"),
			"Highest bytes-live watermark for page-mapper-delegated allocations.", nil, constLabels,
		),
		largeCurrentCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "large_current_count"),
			"Page-mapper-delegated allocations currently live.", nil, constLabels,
		),
	}, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.processCurrentBytes
	ch <- c.processPeakBytes
	ch <- c.bucketLiveBlocks
	ch <- c.bucketLiveSlabs
	ch <- c.bucketRejects
	ch <- c.bucketLargestSeen
	ch <- c.largeCurrentBytes
	ch <- c.largePeakBytes
	ch <- c.largeCurrentCount
}

// Collect implements prometheus.Collector. It is a no-op, rather than an
// error, when the allocator's statistics tracker was never enabled.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if !c.a.TrackingStatistics() {
		if c.logger != nil {
			c.logger.Debugf("slaballoc: skipping scrape, statistics tracking disabled")
		}
		return
	}
	st := c.a.Stats()
	tables := c.a.Tables()

	ch <- prometheus.MustNewConstMetric(c.processCurrentBytes, prometheus.GaugeValue, float64(st.Process.CurrentBytes))
	ch <- prometheus.MustNewConstMetric(c.processPeakBytes, prometheus.GaugeValue, float64(st.Process.PeakBytes))

	for i := 0; i < tables.BucketCount(); i++ {
		name := sizeclass.Name(tables.BlockLog2[i])
		bk := st.Buckets[i]
		ch <- prometheus.MustNewConstMetric(c.bucketLiveBlocks, prometheus.GaugeValue, float64(bk.CurrentLiveBlocks), name)
		ch <- prometheus.MustNewConstMetric(c.bucketLiveSlabs, prometheus.GaugeValue, float64(bk.CurrentLiveSlabs), name)
		ch <- prometheus.MustNewConstMetric(c.bucketRejects, prometheus.CounterValue, float64(bk.RejectedResizes), name)
		ch <- prometheus.MustNewConstMetric(c.bucketLargestSeen, prometheus.GaugeValue, float64(bk.LargestEver), name)
	}

	ch <- prometheus.MustNewConstMetric(c.largeCurrentBytes, prometheus.GaugeValue, float64(st.Large.CurrentBytes))
	ch <- prometheus.MustNewConstMetric(c.largePeakBytes, prometheus.GaugeValue, float64(st.Large.PeakBytes))
	ch <- prometheus.MustNewConstMetric(c.largeCurrentCount, prometheus.GaugeValue, float64(st.Large.CurrentCount))
}

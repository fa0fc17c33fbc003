// Command slabdemo configures an allocator from flags, runs a small
// allocation workload against it, and prints a report - a runnable,
// inspectable stand-in for wiring the allocator into a real process.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/log"
	"github.com/prometheus/procfs"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/povilasv/slaballoc/bucket"
	"github.com/povilasv/slaballoc/metrics"
	"github.com/povilasv/slaballoc/report"
	"github.com/povilasv/slaballoc/slab"
)

var (
	smallestBlock  = kingpin.Flag("bucket.smallest-block", "Smallest bucket block size, in bytes.").Default("128").Uint64()
	bucketCount    = kingpin.Flag("bucket.count", "Number of power-of-two buckets to generate, starting at the smallest block size.").Default("10").Int()
	slabSize       = kingpin.Flag("bucket.slab-size", "Slab size shared by every generated bucket, in bytes.").Default("65536").Uint64()
	largeBehavior  = kingpin.Flag("large.behavior", "How to handle requests larger than the largest bucket: page, panic, or unreachable.").Default("page").Enum("page", "panic", "unreachable")
	trackStats     = kingpin.Flag("track-statistics", "Enable the statistics tracker.").Default("true").Bool()
	allocatorLabel = kingpin.Flag("label", "Label this allocator instance is reported and exported under.").Default("demo").String()
	listenAddress  = kingpin.Flag("web.listen-address", "Address to serve /metrics on; leave empty to skip serving.").Default("").String()
)

type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }

func behaviorFromFlag(s string) slab.LargeBehavior {
	switch s {
	case "panic":
		return slab.Panic
	case "unreachable":
		return slab.Unreachable
	default:
		return slab.UsePageAllocator
	}
}

func main() {
	kingpin.Version("slabdemo")
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	buckets := bucket.PowersOfTwo(*smallestBlock, *bucketCount, *slabSize)
	a, err := slab.New(slab.Config{
		Buckets:         buckets,
		LargeBehavior:   behaviorFromFlag(*largeBehavior),
		TrackStatistics: *trackStats,
		Logger:          stdLogger{},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid allocator configuration: %s\n", err)
		os.Exit(1)
	}

	if *listenAddress != "" {
		collector, err := metrics.NewCollector(log.Base(), a, *allocatorLabel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not build collector: %s\n", err)
			os.Exit(1)
		}
		prometheus.MustRegister(collector)
		http.Handle("/metrics", promhttp.Handler())
		log.Debugf("serving /metrics on %s", *listenAddress)
		go func() {
			if err := http.ListenAndServe(*listenAddress, nil); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server exited: %s\n", err)
			}
		}()
	}

	runWorkload(a)

	if err := report.Write(os.Stdout, *allocatorLabel, a); err != nil {
		fmt.Fprintf(os.Stderr, "could not write report: %s\n", err)
		os.Exit(1)
	}

	crossCheckRSS(a)
}

// runWorkload exercises Alloc, Free and Resize once per bucket: alloc,
// free half of them, alloc again to drive recycled-list reuse, then
// attempt an in-place resize within the same bucket.
func runWorkload(a *slab.Allocator) {
	tables := a.Tables()
	for b := 0; b < tables.BucketCount(); b++ {
		length := tables.BlockBytes[b]
		ptrs := make([]uintptr, 0, 8)
		for i := 0; i < 8; i++ {
			p := a.Alloc(length, 1)
			if p == 0 {
				break
			}
			ptrs = append(ptrs, p)
		}
		for i := 0; i < len(ptrs)/2; i++ {
			a.Free(ptrs[i], length, 1)
		}
		for i := 0; i < len(ptrs)/2; i++ {
			a.Alloc(length, 1)
		}
		if len(ptrs) > 0 {
			a.Resize(ptrs[len(ptrs)-1], length, 1, length)
		}
	}
}

// crossCheckRSS compares the allocator's own process-wide byte counter
// against the kernel's view of this process's resident set size, when
// statistics tracking is enabled and /proc is available.
func crossCheckRSS(a *slab.Allocator) {
	if !a.TrackingStatistics() {
		return
	}
	fs, err := procfs.NewFS(procfs.DefaultMountPoint)
	if err != nil {
		log.Debugf("procfs unavailable, skipping RSS cross-check: %s", err)
		return
	}
	proc, err := fs.NewProc(os.Getpid())
	if err != nil {
		log.Debugf("could not read self proc entry: %s", err)
		return
	}
	stat, err := proc.NewStat()
	if err != nil {
		log.Debugf("could not read process stat: %s", err)
		return
	}
	fmt.Fprintf(os.Stdout, "\nkernel RSS: %d bytes, allocator current bytes: %d\n",
		stat.ResidentMemory(), a.Stats().Process.CurrentBytes)
}

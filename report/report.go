// Package report formats an allocator's free-list and statistics state
// into a caller-supplied sink. The allocator never performs its own I/O -
// this package is the one place that does.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/povilasv/slaballoc/bucket"
	"github.com/povilasv/slaballoc/sizeclass"
	"github.com/povilasv/slaballoc/slab"
	"github.com/povilasv/slaballoc/stats"
)

// Write renders a's per-bucket free-block table, plus - when its
// statistics tracker is enabled - a statistics section, to w under the
// given label.
//
// Free slab count is an estimate: (recycled+brand-new)/blocks-per-slab,
// because recycled blocks from different slabs intermix on one list.
func Write(w io.Writer, label string, a *slab.Allocator) error {
	tables := a.Tables()
	free := a.FreeLists()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "%s\n", label); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, "bucket\tfree slabs (est)\tfree blocks\tfree bytes"); err != nil {
		return err
	}

	for b := 0; b < tables.BucketCount(); b++ {
		freeBlocks := free[b].RecycledCount + free[b].BrandNewCount
		freeSlabs := freeBlocks / tables.BlocksPerSlab[b]
		freeBytes := freeBlocks * tables.BlockBytes[b]

		if _, err := fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n",
			sizeclass.Name(tables.BlockLog2[b]), freeSlabs, freeBlocks, humanize.IBytes(freeBytes)); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	if !a.TrackingStatistics() {
		return nil
	}
	st := a.Stats()
	return writeStats(w, tables, &st)
}

func writeStats(w io.Writer, tables *bucket.Tables, st *stats.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "\nstatistics")
	fmt.Fprintf(tw, "process\tcurrent bytes\t%s\n", humanize.IBytes(st.Process.CurrentBytes))
	fmt.Fprintf(tw, "process\tpeak bytes\t%s\n", humanize.IBytes(st.Process.PeakBytes))
	fmt.Fprintf(tw, "process\tsmallest request\t%s\n", humanize.IBytes(st.Process.SmallestEver))
	fmt.Fprintf(tw, "process\tlargest request\t%s\n", humanize.IBytes(st.Process.LargestEver))

	for b := 0; b < tables.BucketCount(); b++ {
		bk := st.Buckets[b]
		name := sizeclass.Name(tables.BlockLog2[b])
		fmt.Fprintf(tw, "%s\tsmallest/largest request\t%s / %s\n", name, humanize.IBytes(bk.SmallestEver), humanize.IBytes(bk.LargestEver))
		fmt.Fprintf(tw, "%s\tlive blocks (current/peak)\t%d / %d\n", name, bk.CurrentLiveBlocks, bk.PeakLiveBlocks)
		fmt.Fprintf(tw, "%s\tlive slabs (current/peak)\t%d / %d\n", name, bk.CurrentLiveSlabs, bk.PeakLiveSlabs)
		fmt.Fprintf(tw, "%s\trejected resizes\t%d\n", name, bk.RejectedResizes)
	}

	if st.Large.LargestEver > 0 || st.Large.PeakCount > 0 {
		fmt.Fprintf(tw, "large\tsmallest/largest request\t%s / %s\n", humanize.IBytes(st.Large.SmallestEver), humanize.IBytes(st.Large.LargestEver))
		fmt.Fprintf(tw, "large\tbytes (current/peak)\t%s / %s\n", humanize.IBytes(st.Large.CurrentBytes), humanize.IBytes(st.Large.PeakBytes))
		fmt.Fprintf(tw, "large\tcount (current/peak)\t%d / %d\n", st.Large.CurrentCount, st.Large.PeakCount)
		fmt.Fprintf(tw, "large\tlargest grow/shrink\t%s / %s\n", humanize.IBytes(st.Large.LargestGrow), humanize.IBytes(st.Large.LargestShrink))
	}

	return tw.Flush()
}

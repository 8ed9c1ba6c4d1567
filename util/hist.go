package util

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type HistOpts struct {
	Name      string
	Scale     string // unit label, e.g. "us"
	N         int64  // samples per report
	Min       int64
	Max       int64
	Precision int
	Writer    io.Writer
}

// Hist accumulates samples into an HDR histogram and writes a one-line
// percentile report to Writer every N samples, then resets. Useful for
// watching loop wake latency or timer jitter on a terminal.
type Hist struct {
	opts HistOpts
	hdr  *hdrhistogram.Histogram
	tabw *tabwriter.Writer
	n    int
}

func NewHist(opts HistOpts) *Hist {
	h := &Hist{
		opts: opts,
		hdr:  hdrhistogram.New(opts.Min, opts.Max, opts.Precision),
	}
	if opts.Writer != nil {
		h.tabw = tabwriter.NewWriter(opts.Writer, 2, 2, 2, ' ', 0)
	}
	return h
}

func (h *Hist) Add(xs ...int64) {
	for _, x := range xs {
		if x < h.opts.Min {
			x = h.opts.Min
		}
		if x > h.opts.Max {
			x = h.opts.Max
		}
		_ = h.hdr.RecordValue(x)
	}
	if h.hdr.TotalCount() >= h.opts.N {
		h.n++
		h.report()
		h.hdr.Reset()
	}
}

// Reported returns how many reports have been written so far.
func (h *Hist) Reported() int {
	return h.n
}

func (h *Hist) report() {
	if h.tabw == nil {
		return
	}
	u := h.opts.Scale
	fmt.Fprintf(
		h.tabw,
		"%s\tn=%d\tmin=%d%s\tavg=%.1f%s\tp50=%d%s\tp95=%d%s\tp99=%d%s\tmax=%d%s\n",
		h.opts.Name, h.hdr.TotalCount(),
		h.hdr.Min(), u,
		h.hdr.Mean(), u,
		h.hdr.ValueAtQuantile(50), u,
		h.hdr.ValueAtQuantile(95), u,
		h.hdr.ValueAtQuantile(99), u,
		h.hdr.Max(), u,
	)
	h.tabw.Flush()
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/xbpar/pkg/io"
)

// Verify re-applies a saved report to the netlist and device named by opts
// and scores it again. Nothing is cached or archived. The returned report
// is rebuilt from the replayed placement but keeps the search statistics of
// the original.
func (r *Runner) Verify(ctx context.Context, opts Options, report *io.Report) (*Result, error) {
	r.applyLogger(&opts)
	start := time.Now()
	d, err := Load(ctx, &opts)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(start)

	pr, err := d.Apply(&opts, report)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	replayed := io.NewReport(d.Netlist, d.Device, pr)
	replayed.Stats = report.Stats

	opts.Logger.Info("verified placement", "state", pr.State, "cost", pr.Cost, "unsatisfied", len(pr.Unsatisfied))
	return &Result{
		Design:    d,
		Placement: pr,
		Report:    replayed,
		Stats: Stats{
			NodeCount: d.Netlist.NodeCount(),
			EdgeCount: d.Netlist.EdgeCount(),
			SiteCount: d.Device.NodeCount(),
			LoadTime:  loadTime,
			PlaceTime: time.Since(start) - loadTime,
		},
	}, nil
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xbpar/pkg/cache"
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/observability"
	"github.com/matzehuels/xbpar/pkg/par"
	"github.com/matzehuels/xbpar/pkg/store"
)

// cacheKeyType labels placement entries in cache hooks.
const cacheKeyType = "placement"

// writeReport encodes reports for the cache. Tests replace it.
var writeReport = io.WriteReport

// Runner executes the pipeline with caching and optional archiving.
//
// A Runner holds no per-run state. Multiple goroutines can share one as
// long as the cache and store are safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store // nil disables archiving
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Result is the outcome of a pipeline run.
type Result struct {
	Design    *Design
	Placement *par.Result
	Report    *io.Report

	// RunID is the archive ID, empty without a store.
	RunID    string
	CacheKey string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds sizes and timings.
type Stats struct {
	NodeCount int // logical nodes
	EdgeCount int // logical edges
	SiteCount int // physical nodes
	LoadTime  time.Duration
	PlaceTime time.Duration
}

// CacheInfo records whether the placement was replayed from the cache.
type CacheInfo struct {
	PlaceHit bool
}

// Execute loads the inputs named by opts and places them.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	netDoc, devDoc, err := LoadDocuments(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return r.executeDocuments(ctx, netDoc, devDoc, opts, start)
}

// ExecuteDocuments places already decoded documents. The Netlist and Device
// fields of opts are ignored.
func (r *Runner) ExecuteDocuments(ctx context.Context, netDoc, devDoc *io.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.validateEngine(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return r.executeDocuments(ctx, netDoc, devDoc, opts, time.Now())
}

func (r *Runner) executeDocuments(ctx context.Context, netDoc, devDoc *io.Document, opts Options, start time.Time) (*Result, error) {
	d, err := NewDesign(netDoc, devDoc, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(start)
	opts.Logger.Info("loaded design",
		"nodes", d.Netlist.NodeCount(),
		"edges", d.Netlist.EdgeCount(),
		"sites", d.Device.NodeCount(),
		"fabric", d.FabricName,
		"duration", loadTime)

	res, err := r.Place(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = loadTime
	return res, nil
}

// Place runs the engine on a loaded design, replaying the cached result
// when there is one. Successful runs are cached and, with a store,
// archived. Both graphs of d carry the final mating on return.
func (r *Runner) Place(ctx context.Context, d *Design, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	res := &Result{
		Design:   d,
		CacheKey: r.Keyer.PlacementKey(d.NetlistHash, d.DeviceHash, opts.PlacementKeyOpts(d.FabricName)),
		Stats: Stats{
			NodeCount: d.Netlist.NodeCount(),
			EdgeCount: d.Netlist.EdgeCount(),
			SiteCount: d.Device.NodeCount(),
		},
	}

	start := time.Now()
	if !opts.Refresh {
		if pr, report, ok := r.replay(ctx, d, &opts, res.CacheKey); ok {
			res.Placement, res.Report = pr, report
			res.CacheInfo.PlaceHit = true
			res.Stats.PlaceTime = time.Since(start)
			opts.Logger.Info("replayed cached placement", "state", pr.State, "cost", pr.Cost)
			return r.archive(ctx, res)
		}
	}

	hooks := observability.Placement()
	hooks.OnPlaceStart(ctx, graphName(d.Netlist), graphName(d.Device), d.Netlist.NodeCount())
	pr, err := r.search(ctx, d, &opts)
	res.Stats.PlaceTime = time.Since(start)
	if err != nil {
		hooks.OnPlaceComplete(ctx, par.Failed.String(), 0, 0, res.Stats.PlaceTime, err)
		return nil, fmt.Errorf("place: %w", err)
	}
	hooks.OnPlaceComplete(ctx, pr.State.String(), pr.Cost, pr.Iterations, res.Stats.PlaceTime, nil)

	res.Placement = pr
	res.Report = io.NewReport(d.Netlist, d.Device, pr)
	opts.Logger.Info("placed design",
		"state", pr.State,
		"cost", pr.Cost,
		"iterations", pr.Iterations,
		"seed", pr.Seed,
		"duration", res.Stats.PlaceTime)

	var buf bytes.Buffer
	if err := writeReport(&buf, res.Report); err != nil {
		opts.Logger.Warn("encode report for cache failed", "error", err)
	} else if err := r.Cache.Set(ctx, res.CacheKey, buf.Bytes(), cache.TTLPlacement); err != nil {
		opts.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, cacheKeyType, buf.Len())
	}
	return r.archive(ctx, res)
}

func (r *Runner) search(ctx context.Context, d *Design, opts *Options) (*par.Result, error) {
	if len(opts.Seeds) == 1 {
		return par.RunContext(ctx, d.Netlist, d.Device, d.Config(opts, opts.Seeds[0]))
	}
	opts.Logger.Debug("running seeds in parallel", "seeds", opts.Seeds)
	return par.RunParallel(ctx, d.Netlist, d.Device, d.Config(opts, 0), opts.Seeds)
}

// replay looks up key and re-applies the cached assignment. Entries that no
// longer fit the design are treated as misses.
func (r *Runner) replay(ctx context.Context, d *Design, opts *Options, key string) (*par.Result, *io.Report, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, nil, false
	}
	report, err := io.ReadReport(bytes.NewReader(data))
	if err == nil {
		var pr *par.Result
		if pr, err = d.Apply(opts, report); err == nil {
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			return pr, report, true
		}
	}
	opts.Logger.Debug("discarding stale cache entry", "key", key, "error", err)
	_ = r.Cache.Delete(ctx, key)
	observability.Cache().OnCacheMiss(ctx, cacheKeyType)
	return nil, nil, false
}

func (r *Runner) archive(ctx context.Context, res *Result) (*Result, error) {
	if r.Store == nil {
		return res, nil
	}
	rec := store.NewRecord(res.Report)
	rec.NetlistHash = res.Design.NetlistHash
	rec.DeviceHash = res.Design.DeviceHash
	rec.CacheKey = res.CacheKey
	rec.CacheHit = res.CacheInfo.PlaceHit
	if err := r.Store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	res.RunID = rec.ID
	return res, nil
}

func graphName(g *graph.Graph) string {
	for _, key := range []string{"name", "part"} {
		if s, ok := g.Meta()[key].(string); ok {
			return s
		}
	}
	return ""
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

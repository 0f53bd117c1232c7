// Package cache stores placement results keyed by their inputs.
//
// A placement is a pure function of the netlist, the device, the engine
// options and the seed, so a finished run can be replayed instead of
// searched again. Backends:
//
//   - [FileCache]: JSON entries on disk, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [MemoryCache]: in-process, for tests and single-shot servers
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. Wrap one in [NewScopedKeyer] to isolate
// namespaces, for example per engine build.
package cache

import (
	"context"
	"time"
)

// TTLPlacement is how long a placement result stays cached.
const TTLPlacement = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with expiry.
//
// Get reports a miss as (nil, false, nil). A ttl of zero stores the value
// without expiry. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// PlacementKey identifies a placement by the content hashes of its
	// netlist and device plus the options that influence the search.
	PlacementKey(netlistHash, deviceHash string, opts PlacementKeyOpts) string
}

// PlacementKeyOpts lists every option that changes a placement result.
type PlacementKeyOpts struct {
	Seeds              []uint64          `json:"seeds"`
	MaxIterations      int               `json:"max_iterations"`
	MaxTime            time.Duration     `json:"max_time"`
	InitialTemperature float64           `json:"initial_temperature"`
	Decay              float64           `json:"decay"`
	StallLimit         int               `json:"stall_limit"`
	FocusBias          float64           `json:"focus_bias"`
	UnroutableWeight   int               `json:"unroutable_weight"`
	CongestionWeight   int               `json:"congestion_weight"`
	Fabric             string            `json:"fabric"`
	Constraints        map[string]string `json:"constraints,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlacementKey returns "placement:<sha256>".
func (DefaultKeyer) PlacementKey(netlistHash, deviceHash string, opts PlacementKeyOpts) string {
	return hashKey("placement", netlistHash, deviceHash, opts)
}

package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/xbpar/pkg/fabric"
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/par"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Fabric kinds.
const (
	FabricDirect = "direct"
	FabricHops   = "hops"
	FabricMatrix = "matrix"
)

// DefaultMaxHops is used for "hops" without a count.
const DefaultMaxHops = 2

// ParseFabric parses a fabric flag such as "direct", "hops:3" or
// "matrix:4". The empty string yields nil, meaning the device decides.
func ParseFabric(s string) (*io.FabricSpec, error) {
	if s == "" {
		return nil, nil
	}
	kind, param, hasParam := strings.Cut(strings.ToLower(s), ":")
	spec := &io.FabricSpec{Kind: kind}

	var n int
	if hasParam {
		v, err := strconv.Atoi(param)
		if err != nil || v < 0 {
			return nil, perrors.New(perrors.ErrCodeInvalidConfig, "fabric %q: parameter must be a non-negative integer", s)
		}
		n = v
	}
	switch kind {
	case FabricDirect:
		if hasParam {
			return nil, perrors.New(perrors.ErrCodeInvalidConfig, "fabric %q: direct takes no parameter", s)
		}
	case FabricHops:
		spec.MaxHops = n
	case FabricMatrix:
		spec.CrossCapacity = n
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown fabric %q (must be one of: direct, hops[:N], matrix[:capacity])", s)
	}
	return spec, nil
}

// BuildFabric resolves the fabric for device and returns it with a canonical
// name for cache keys.
//
// A nil spec picks the matrix fabric for devices carrying matrix metadata
// (the built-in parts) and [par.Direct] otherwise. A matrix spec without a
// capacity takes the device's.
func BuildFabric(spec *io.FabricSpec, device *graph.Graph) (par.Fabric, string, error) {
	devMatrix, hasMatrix := fabric.MatrixFor(device)
	if spec == nil {
		if hasMatrix {
			return devMatrix, matrixName(devMatrix), nil
		}
		return par.Direct{}, FabricDirect, nil
	}

	switch strings.ToLower(spec.Kind) {
	case FabricDirect, "":
		return par.Direct{}, FabricDirect, nil
	case FabricHops:
		h := fabric.Hops{Max: spec.MaxHops}
		if h.Max == 0 {
			h.Max = DefaultMaxHops
		}
		return h, fmt.Sprintf("%s:%d", FabricHops, h.Max), nil
	case FabricMatrix:
		m := fabric.Matrix{Key: spec.Key, CrossCapacity: spec.CrossCapacity}
		if m.CrossCapacity == 0 && hasMatrix {
			m.CrossCapacity = devMatrix.CrossCapacity
		}
		return m, matrixName(m), nil
	default:
		return nil, "", perrors.New(perrors.ErrCodeInvalidConfig, "unknown fabric kind %q", spec.Kind)
	}
}

func matrixName(m fabric.Matrix) string {
	key := m.Key
	if key == "" {
		key = fabric.DefaultMatrixKey
	}
	return fmt.Sprintf("%s:%s:%d", FabricMatrix, key, m.CrossCapacity)
}

package par

import (
	"fmt"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// CapacityError reports a label with more logical nodes than compatible
// physical nodes. It is raised by [Engine.Check] before any search.
type CapacityError struct {
	Label     graph.Label
	LabelName string
	Need      int // logical nodes with this label
	Have      int // physical nodes able to host it
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: label %s needs %d nodes, device offers %d compatible",
		perrors.ErrCodeInfeasibleCapacity, e.LabelName, e.Need, e.Have)
}

// Code implements [perrors.Coder].
func (e *CapacityError) Code() perrors.Code { return perrors.ErrCodeInfeasibleCapacity }

// SeedError reports a logical node for which no legal initial site exists,
// even after trying to relocate already seeded nodes.
type SeedError struct {
	Node      graph.NodeID
	NodeName  string
	Label     graph.Label
	LabelName string
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("%s: no compatible free %s site for node %s",
		perrors.ErrCodeNoLegalSeed, e.LabelName, e.NodeName)
}

// Code implements [perrors.Coder].
func (e *SeedError) Code() perrors.Code { return perrors.ErrCodeNoLegalSeed }

// ExhaustedError is returned by [Result.Err] for a run that ended without
// converging: edges left unrouted or nodes left unplaced.
type ExhaustedError struct {
	Cost        int
	Unsatisfied int
	Unplaced    int
	Iterations  int
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("%s: %d unsatisfied edges (cost %d)", perrors.ErrCodeExhausted, e.Unsatisfied, e.Cost)
	if e.Unplaced > 0 {
		msg += fmt.Sprintf(", %d unplaced nodes", e.Unplaced)
	}
	return fmt.Sprintf("%s after %d iterations", msg, e.Iterations)
}

// Code implements [perrors.Coder].
func (e *ExhaustedError) Code() perrors.Code { return perrors.ErrCodeExhausted }

// Package back contains the passes that run downstream of lowering:
// control flow flattening, copy propagation, dependency depth,
// scheduling and register layout. The lowering keeps register numbers
// pre-packed, so the layout pass checks rather than assigns.
package back

import (
	"tlog.app/go/errors"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// ErrAllocation reports a program that does not fit the register file.
var ErrAllocation = errors.New("register allocation")

// Pipeline is the pass sequence the orchestrator drives after lowering.
type Pipeline interface {
	// Flatten predicates nested conditional blocks into the parent
	// block, turning phi merges into selects. Returns the number of
	// blocks flattened.
	Flatten(b *ir.Block) (int, error)

	// PropagateCopies short-circuits plain moves out of use edges.
	PropagateCopies(b *ir.Block)

	// ComputeDepth computes the dependency depth of every reachable
	// instruction.
	ComputeDepth(b *ir.Block)

	// Schedule linearizes the graph into execution order, dropping
	// unreachable instructions.
	Schedule(b *ir.Block) error

	// Layout validates the final register assignment.
	Layout(b *ir.Block, kind tokens.Kind) error
}

type pipeline struct{}

// Default returns the standard pass implementation.
func Default() Pipeline {
	return pipeline{}
}

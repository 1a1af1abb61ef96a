package front

import (
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

type (
	// Program is the result of lowering one shader: the instruction
	// graph plus the declared input/output descriptor tables the driver
	// consumes.
	Program struct {
		Kind tokens.Kind
		Half bool

		Inputs  []InOut
		Outputs []InOut

		// TotalIn is the number of scalar input components fetched.
		TotalIn int

		Samplers int

		// WritesPos is set when a position-semantic output is written.
		WritesPos bool

		// Immediates is the compile-time constant pool, placed after
		// the shader constants starting at register FirstImmediate.
		Immediates     [][4]uint32
		FirstImmediate int

		Graph *ir.Graph

		// Top is the outermost block of the graph.
		Top *ir.Block

		// full input slot view, kept for the descriptor readback
		// after the fragment position trim
		inSlots []*ir.Instruction
	}

	// InOut describes one declared input or output register.
	InOut struct {
		Semantic tokens.Semantic
		SemIndex int

		// RegID is the packed physical register id, filled by the
		// descriptor readback after the downstream pipeline ran.
		RegID int

		// Compmask is the set of components actually used.
		Compmask uint8

		// Inloc is the varying fetch location (fragment inputs).
		Inloc int
	}
)

package back

import (
	"github.com/slowgfx/shade/compiler/ir"
)

// PropagateCopies rewrites every SSA use edge to point past plain
// moves and past the routing nodes inserted at scope boundaries. The
// bypassed instructions are left in place; scheduling drops the ones
// nothing references anymore.
func (p pipeline) PropagateCopies(b *ir.Block) {
	for _, in := range b.Instrs {
		in.SSASrcs(func(reg *ir.Register) {
			reg.Instr = cpSrc(reg.Instr)
		})
	}

	for _, nested := range b.Instrs {
		if nested.Flow.IfBlock != nil {
			p.PropagateCopies(nested.Flow.IfBlock)
		}
		if nested.Flow.ElseBlock != nil {
			p.PropagateCopies(nested.Flow.ElseBlock)
		}
	}
}

func cpSrc(in *ir.Instruction) *ir.Instruction {
	for {
		next := copyOf(in)
		if next == nil {
			return in
		}

		in = next
	}
}

// copyOf returns the instruction in forwards, or nil when in produces a
// value of its own.
func copyOf(in *ir.Instruction) *ir.Instruction {
	switch {
	case in.Category == ir.CatMeta:
		switch in.Op {
		case ir.OpMetaOutput, ir.OpMetaInput:
			// scope boundary routing; a true shader input has no
			// source edge
			if len(in.Regs) > 1 && in.Regs[1].Instr != nil {
				return in.Regs[1].Instr
			}
		}
	case in.Category == ir.Cat1 && in.Cat1.SrcType == in.Cat1.DstType:
		src := in.Regs[1]

		// a conversion, an immediate load or a modifier is not a
		// plain copy
		if src.Flags == ir.FlagSSA && src.Instr != nil {
			return src.Instr
		}
	}

	return nil
}

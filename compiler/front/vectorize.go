package front

import (
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

type (
	// operand is one vectorize source: either a register reference or,
	// with ir.FlagImmed set, an embedded immediate.
	operand struct {
		src   *tokens.Src
		flags ir.RegFlag
		imm   int32
	}
)

func opReg(src *tokens.Src) operand {
	return operand{src: src}
}

func opRegFlags(src *tokens.Src, flags ir.RegFlag) operand {
	return operand{src: src, flags: flags}
}

func opImm(v int32) operand {
	return operand{imm: v, flags: ir.FlagImmed}
}

// vectorize expands the scalar template instr across the components
// enabled by dst's write-mask: the first enabled component reuses the
// template, the rest are clones, each with destination and source
// selectors rewritten through the operand swizzles and re-resolved
// per component.
//
// The whole expansion runs as one atomic group, so every generated
// instruction reads pre-group register values and the writes land
// together at the end.
func (ctx *compileContext) vectorize(instr *ir.Instruction, dst *tokens.Dst, srcs ...operand) {
	ctx.atomicStart()

	ctx.addDstReg(instr, dst, int(tokens.SwizX))

	for _, op := range srcs {
		var reg *ir.Register

		if op.flags&ir.FlagImmed != 0 {
			reg = instr.Reg(0, ir.FlagImmed)
			reg.Iim = op.imm
		} else {
			reg = ctx.addSrcReg(instr, op.src, int(tokens.SwizX))
		}

		// the negate in flags toggles any negate the operand carries
		reg.Flags |= op.flags &^ ir.FlagNegate
		if op.flags&ir.FlagNegate != 0 {
			reg.Flags ^= ir.FlagNegate
		}
	}

	n := 0

	for i := 0; i < 4; i++ {
		if dst.Mask&(1<<i) == 0 {
			continue
		}

		cur := instr
		if n > 0 {
			cur = ctx.instrClone(instr)
		}
		n++

		ctx.ssaDst(cur, dst, i)

		// rewrite dst register component
		cur.Regs[0].Num = ir.RegID(ir.RegNum(cur.Regs[0].Num), i)

		// rewrite src register components
		for j, op := range srcs {
			reg := cur.Regs[j+1]

			switch {
			case reg.Flags&ir.FlagSSA != 0:
				ctx.ssaSrc(reg, op.src, int(op.src.Swiz(i)))
			case op.flags&ir.FlagImmed == 0:
				reg.Num = ir.RegID(ir.RegNum(reg.Num), int(op.src.Swiz(i)))
			}
		}
	}

	tlog.V("vectorize").Printw("vectorized", "mask", dst.Mask, "n", n, "srcs", len(srcs))

	ctx.atomicEnd()
}

package front

import (
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// addDstRegWrmask wires a destination operand record for dst+chan.
//
// If the instruction writes several components at once, a fan-out node
// is created per written component, so each later per-component read can
// reference an individual component of the one multi-writing
// instruction (the SSA graph is single producer per scalar value).
func (ctx *compileContext) addDstRegWrmask(instr *ir.Instruction, dst *tokens.Dst, chan_ int, wrmask tokens.WriteMask) *ir.Register {
	var flags ir.RegFlag
	num := 0

	switch dst.File {
	case tokens.FileOutput, tokens.FileTemporary:
		num = dst.Index + ctx.baseReg[dst.File]
	case tokens.FileAddress:
		num = ir.RegNum(ir.RegA0)
	default:
		ctx.errorf(ErrUnsupported, "unsupported dst register file: %v", dst.File)
	}

	if dst.Indirect {
		flags |= ir.FlagRelative
	}
	if ctx.prog.Half {
		flags |= ir.FlagHalf
	}

	reg := instr.Reg(ir.RegID(num, chan_), flags)
	reg.Wrmask = uint8(wrmask)

	// while atomic the vectorizer queues the dst itself, filtering out
	// the initial template .x component which may never be written
	if wrmask == 0x1 {
		if !ctx.atomic {
			ctx.ssaDst(instr, dst, chan_)
		}
	} else if dst.File == tokens.FileTemporary || dst.File == tokens.FileOutput {
		for i := 0; i < 4; i++ {
			if wrmask&(1<<i) == 0 {
				continue
			}

			fo := ctx.block.Instr(ir.CatMeta, ir.OpMetaFanOut)
			fo.FanOff = i
			fo.Reg(0, 0) // unused dst
			fo.Reg(0, ir.FlagSSA).Instr = instr

			if !ctx.atomic {
				ctx.ssaDst(fo, dst, chan_+i)
			}
		}
	}

	return reg
}

func (ctx *compileContext) addDstReg(instr *ir.Instruction, dst *tokens.Dst, chan_ int) *ir.Register {
	return ctx.addDstRegWrmask(instr, dst, chan_, 0x1)
}

// addSrcRegWrmask wires a source operand record for src+chan.
//
// A multi-component read is routed through a fan-in node gathering the
// per-component producers, with placeholder records standing in for
// every unselected position below the highest selected one.
func (ctx *compileContext) addSrcRegWrmask(instr *ir.Instruction, src *tokens.Src, chan_ int, wrmask tokens.WriteMask) *ir.Register {
	var flags ir.RegFlag
	num := 0

	// constants beyond the directly addressable range would need a mov
	ctx.assert(src.Index < 64, "src register index < 64")

	switch src.File {
	case tokens.FileImmediate, tokens.FileConstant:
		flags |= ir.FlagConst
		num = src.Index + ctx.baseReg[src.File]
	case tokens.FileOutput, tokens.FileInput, tokens.FileTemporary:
		// OUTPUT only legally shows up here for saturate clamps
		num = src.Index + ctx.baseReg[src.File]
	default:
		ctx.errorf(ErrUnsupported, "unsupported src register file: %v", src.File)
	}

	if src.Absolute {
		flags |= ir.FlagAbs
	}
	if src.Negate {
		flags |= ir.FlagNegate
	}
	if src.Indirect {
		flags |= ir.FlagRelative
	}
	if ctx.prog.Half {
		flags |= ir.FlagHalf
	}

	reg := instr.Reg(ir.RegID(num, chan_), flags)
	reg.Wrmask = uint8(wrmask)

	if wrmask == 0x1 {
		ctx.ssaSrc(reg, src, chan_)
	} else if src.File == tokens.FileTemporary ||
		src.File == tokens.FileOutput ||
		src.File == tokens.FileInput {
		fi := ctx.block.Instr(ir.CatMeta, ir.OpMetaFanIn)
		fi.Reg(0, 0) // unused dst

		for i := 0; i < 4; i++ {
			if wrmask&(1<<i) != 0 {
				ctx.ssaSrc(fi.Reg(0, ir.FlagSSA), src, chan_+i)
			} else if wrmask>>(i+1) != 0 {
				// placeholder to keep later components in position
				fi.Reg(0, 0)
			}
		}

		reg.Flags |= ir.FlagSSA
		reg.Instr = fi
	}

	return reg
}

func (ctx *compileContext) addSrcReg(instr *ir.Instruction, src *tokens.Src, chan_ int) *ir.Register {
	return ctx.addSrcRegWrmask(instr, src, chan_, 0x1)
}

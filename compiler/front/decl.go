package front

import (
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// declIn registers a range of input slots. Vertex inputs become plain
// input nodes on the top block; fragment varyings become per-component
// interpolation fetches driven off the position fan-in.
func (ctx *compileContext) declIn(decl *tokens.Decl) {
	base := ctx.baseReg[tokens.FileInput]
	frag := ctx.prog.Kind == tokens.KindFragment

	// without semantic info fragment inputs cannot be linked to
	// vertex outputs
	ctx.assert(!frag || decl.Semantic != tokens.SemNone, "fragment input without semantic")

	var flags ir.RegFlag
	if ctx.prog.Half {
		flags |= ir.FlagHalf
	}

	for i := decl.First; i <= decl.Last; i++ {
		r := ir.RegID(i+base, 0)
		ncomp := 4

		io := InOut{
			Semantic: decl.Semantic,
			SemIndex: decl.SemIndex + (i - decl.First),
			RegID:    r,
			Compmask: uint8(1<<ncomp - 1),
			Inloc:    ctx.nextInloc,
		}

		ctx.nextInloc += ncomp
		ctx.prog.TotalIn += ncomp

		for j := 0; j < ncomp; j++ {
			var instr *ir.Instruction

			if frag {
				// bary.f (varying fetch off the position base)
				instr = ctx.instrCreate(ir.Cat2, ir.OpBaryF)

				instr.Reg(r+j, flags)

				instr.Reg(0, ir.FlagImmed).Iim = int32(io.Inloc + j - 8)

				src := instr.Reg(ir.RegID(0, 0), ir.FlagSSA)
				src.Wrmask = 0x3
				src.Instr = ctx.fragPos
			} else {
				instr = createInput(ctx.block, nil, i*4+j)
			}

			ctx.block.Inputs[i*4+j] = instr
		}

		ctx.prog.Inputs = append(ctx.prog.Inputs, io)
	}

	tlog.V("decl").Printw("input", "first", decl.First, "last", decl.Last, "reg", decl.First+base, "sem", decl.Semantic, "semidx", decl.SemIndex)
}

// declOut registers a range of output slots. Each component is
// pre-seeded with a zero mov so unwritten outputs still carry a defined
// value; real assignments overwrite the slot.
func (ctx *compileContext) declOut(decl *tokens.Decl) {
	base := ctx.baseReg[tokens.FileOutput]
	comp := 0

	ctx.assert(decl.Semantic != tokens.SemNone, "output without semantic")

	if ctx.prog.Kind == tokens.KindVertex {
		switch decl.Semantic {
		case tokens.SemPosition:
			ctx.prog.WritesPos = true
		case tokens.SemPointSize, tokens.SemColor,
			tokens.SemGeneric, tokens.SemFog, tokens.SemTexcoord:
		default:
			ctx.errorf(ErrUnsupported, "unknown vertex output semantic: %v", decl.Semantic)
		}
	} else {
		switch decl.Semantic {
		case tokens.SemPosition:
			// depth is written to the .z component
			comp = 2
			ctx.prog.WritesPos = true
		case tokens.SemColor:
		default:
			ctx.errorf(ErrUnsupported, "unknown fragment output semantic: %v", decl.Semantic)
		}
	}

	for i := decl.First; i <= decl.Last; i++ {
		io := InOut{
			Semantic: decl.Semantic,
			SemIndex: decl.SemIndex + (i - decl.First),
			RegID:    ir.RegID(i+base, comp),
		}

		for j := 0; j < 4; j++ {
			ctx.block.Outputs[i*4+j] = ctx.createImmed(0)
		}

		ctx.prog.Outputs = append(ctx.prog.Outputs, io)
	}

	tlog.V("decl").Printw("output", "first", decl.First, "last", decl.Last, "reg", decl.First+base, "sem", decl.Semantic, "semidx", decl.SemIndex)
}

func (ctx *compileContext) declSamp(decl *tokens.Decl) {
	ctx.prog.Samplers += decl.Last - decl.First + 1
}

package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// Compile lowers a scanned shader into a block-structured instruction
// graph and fills in the program descriptor. The returned graph still
// has nested flow blocks and unscheduled instructions; the back passes
// take it from there.
func Compile(ctx context.Context, sh *tokens.Shader, info tokens.Info, half bool) (prog *Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "compile_front", "kind", sh.Kind, "half", half)
	defer tr.Finish("err", &err)

	c, err := newContext(sh, info, half)
	if err != nil {
		return nil, errors.Wrap(err, "init")
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}

		ce, ok := p.(compileError)
		if !ok {
			panic(p)
		}

		tr.Printw("compile failed", "source", string(tokens.Dump(sh)))

		prog, err = nil, ce.err
	}()

	c.compileInstructions()

	prog = c.prog
	prog.Graph = c.graph
	prog.Top = c.graph.Top

	return prog, nil
}

func (ctx *compileContext) compileInstructions() {
	ctx.pushBlock()

	// fragment shaders get a single position input (r0.xy) that the
	// varying fetches hang off; the real input nodes are wired in
	// after the token walk
	if ctx.prog.Kind == tokens.KindFragment {
		instr := ctx.block.Instr(ir.CatMeta, ir.OpMetaFanIn)
		instr.Reg(0, 0)
		instr.Reg(0, ir.FlagSSA)
		instr.Reg(0, ir.FlagSSA)
		ctx.fragPos = instr
	}

	for _, tok := range ctx.sh.Toks {
		switch tok := tok.(type) {
		case tokens.Decl:
			switch tok.File {
			case tokens.FileInput:
				ctx.declIn(&tok)
			case tokens.FileOutput:
				ctx.declOut(&tok)
			case tokens.FileSampler:
				ctx.declSamp(&tok)
			}
		case tokens.Imm:
			for len(ctx.prog.Immediates) <= ctx.nimm {
				ctx.prog.Immediates = append(ctx.prog.Immediates, [4]uint32{})
			}

			ctx.prog.Immediates[ctx.nimm] = tok.Val
			ctx.nimm++
		case tokens.Instr:
			t := &translaters[tok.Op]
			if t.fn == nil {
				ctx.errorf(ErrUnsupported, "unknown opcode: %v", tok.Op)
			}

			t.fn(t, ctx, &tok)
			ctx.ninternalTemps = 0

			switch tok.Sat {
			case tokens.SatZeroOne:
				ctx.createClampImm(&tok.Dst, fui(0), fui(1))
			case tokens.SatSignedOne:
				ctx.createClampImm(&tok.Dst, fui(-1), fui(1))
			}

			ctx.instrFinish()
		}
	}

	// the fixup pass reads input assignments from the full slot view,
	// even after the fragment position trim below
	ctx.prog.inSlots = ctx.block.Inputs

	if ctx.prog.Kind == tokens.KindFragment {
		// wire the actual position inputs (r0.x, r0.y)
		ctx.block.Inputs = ctx.block.Inputs[:2]

		in := createInput(ctx.block, nil, 0)
		ctx.block.Inputs[0] = in
		ctx.fragPos.Regs[1].Instr = in

		in = createInput(ctx.block, nil, 1)
		ctx.block.Inputs[1] = in
		ctx.fragPos.Regs[2].Instr = in
	}
}

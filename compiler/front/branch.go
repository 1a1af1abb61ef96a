package front

import (
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// pushBlock opens a nested lowering scope.
//
// For the outermost block the input slots are the actual shader inputs;
// for nested blocks they track enclosing-scope temporaries imported into
// this scope.
func (ctx *compileContext) pushBlock() *ir.Block {
	scalar := func(f tokens.File) int {
		return 4 * (ctx.info.FileMax[f] + 1)
	}

	// room for the internal vec4 temporaries on top of declared ones
	ntmp := scalar(tokens.FileTemporary)
	ntmp += 4 * (maxInternalTemps + 1)

	var nin int
	if ctx.block == nil {
		nin = scalar(tokens.FileInput)
		if ctx.sh.Kind == tokens.KindFragment && nin < 2 {
			// fragment shaders always have the two position components
			nin = 2
		}
	} else {
		nin = ntmp
	}

	nout := scalar(tokens.FileOutput)

	block := ctx.graph.NewBlock(ctx.block, ntmp, nin, nout)
	ctx.block = block

	tlog.V("scope").Printw("push block", "ntmp", ntmp, "nin", nin, "nout", nout)

	return block
}

func (ctx *compileContext) popBlock() {
	ctx.block = ctx.block.Parent
	ctx.assert(ctx.block != nil, "block stack underflow")
}

func (ctx *compileContext) pushBranch(instr *ir.Instruction) {
	if ctx.nbranch >= maxBranchDepth {
		ctx.errorf(ErrExhausted, "branch nesting depth")
	}

	ctx.branch[ctx.nbranch] = instr
	ctx.nbranch++
}

func (ctx *compileContext) popBranch() *ir.Instruction {
	ctx.assert(ctx.nbranch > 0, "branch stack underflow")

	ctx.nbranch--

	return ctx.branch[ctx.nbranch]
}

// transIf lowers a branch open. The condition is compared against zero
// and arithmetically negated so a nonzero result means "branch", then a
// flow marker carrying it is pushed along with the "then" scope.
func transIf(t *translater, ctx *compileContext, inst *tokens.Instr) {
	src := &inst.Src[0]

	var constval, tmpDst = tokens.Src{}, tokens.Dst{}

	ctx.getImmediate(&constval, fui(0))
	tmpSrc := ctx.getInternalTemp(&tmpDst)

	if isConst(src) {
		src = ctx.getUnconst(src)
	}

	// cmps.f.eq tmp.x, src, {0.0}
	instr := ctx.instrCreate(ir.Cat2, ir.OpCmpsF)
	instr.Cat2.Cond = ir.CondEQ
	ctx.addDstReg(instr, &tmpDst, 0)
	ctx.addSrcReg(instr, src, int(src.Swiz(0)))
	ctx.addSrcReg(instr, &constval, int(constval.Swiz(0)))

	// add.s tmp.x, tmp.x, -1
	instr = ctx.instrCreate(ir.Cat2, ir.OpAddS)
	ctx.addDstReg(instr, &tmpDst, int(tokens.SwizX))
	ctx.addSrcReg(instr, tmpSrc, int(tokens.SwizX))
	instr.Reg(0, ir.FlagImmed).Iim = -1

	// meta:flow tmp.x
	instr = ctx.instrCreate(ir.CatMeta, ir.OpMetaFlow)
	instr.Reg(0, 0) // dummy dst
	ctx.addSrcReg(instr, tmpSrc, int(tokens.SwizX))

	ctx.pushBranch(instr)
	instr.Flow.IfBlock = ctx.pushBlock()
}

func transElse(t *translater, ctx *compileContext, inst *tokens.Instr) {
	ctx.popBlock()

	instr := ctx.popBranch()

	ctx.assert(instr.Category == ir.CatMeta && instr.Op == ir.OpMetaFlow,
		"else matches a flow marker")

	ctx.pushBranch(instr)
	instr.Flow.ElseBlock = ctx.pushBlock()
}

// createPhi merges two branch-side values under the marker's condition.
//
// A side may be nil for a value written on only one side and never used
// beyond it; substituting immediate zero keeps the undefinedness defined.
// Such phis are dead and vanish downstream.
func (ctx *compileContext) createPhi(cond, a, b *ir.Instruction) *ir.Instruction {
	ctx.assert(cond != nil, "phi needs a condition")

	if a == nil {
		a = ctx.createImmed(0)
	}
	if b == nil {
		b = ctx.createImmed(0)
	}

	phi := ctx.instrCreate(ir.CatMeta, ir.OpMetaPhi)
	phi.Reg(0, 0) // dummy dst
	phi.Reg(0, ir.FlagSSA).Instr = cond
	phi.Reg(0, ir.FlagSSA).Instr = a
	phi.Reg(0, ir.FlagSSA).Instr = b

	return phi
}

// transEndif closes a conditional: for every temporary or output slot
// written in either branch scope a phi node is synthesized, with each
// side routed through a boundary output node (or resolved from the
// nearest enclosing scope when unwritten on that side). Branch block
// output lists are rewritten to exactly the merged slots.
func transEndif(t *translater, ctx *compileContext, inst *tokens.Instr) {
	ctx.popBlock()

	instr := ctx.popBranch()

	ctx.assert(instr.Category == ir.CatMeta && instr.Op == ir.OpMetaFlow,
		"endif matches a flow marker")

	ifb := instr.Flow.IfBlock
	elseb := instr.Flow.ElseBlock

	// without an else block the parent provides the not-taken values
	if elseb == nil {
		elseb = ifb.Parent
	}

	hasElse := elseb != ifb.Parent

	var ifout, elseout []*ir.Instruction

	merge := func(slots func(*ir.Block) []*ir.Instruction,
		find func(*ir.Block, int) *ir.Instruction,
		i int) *ir.Instruction {

		a := slots(ifb)[i]
		b := slots(elseb)[i]

		// merge if written in the if block, or in a real else block
		if a == nil && !(hasElse && b != nil) {
			return nil
		}

		// written on one side only: resolve the other side from the
		// nearest enclosing scope
		if a == nil {
			a = find(ifb, i)
		}
		if b == nil {
			b = find(elseb, i)
		}

		ifout = append(ifout, a)
		a = createOutput(ifb, a, len(ifout)-1)

		if hasElse {
			elseout = append(elseout, b)
			b = createOutput(elseb, b, len(elseout)-1)
		}

		return ctx.createPhi(instr, a, b)
	}

	temps := func(b *ir.Block) []*ir.Instruction { return b.Temporaries }
	outs := func(b *ir.Block) []*ir.Instruction { return b.Outputs }

	nphi := 0

	for i := range ifb.Temporaries {
		if phi := merge(temps, findTemporary, i); phi != nil {
			ctx.block.Temporaries[i] = phi
			nphi++
		}
	}

	for i := range ifb.Outputs {
		if phi := merge(outs, findOutput, i); phi != nil {
			ctx.block.Outputs[i] = phi
			nphi++
		}
	}

	// compact the branch scopes' outputs to exactly the merged slots
	ifb.Outputs = ifout
	if hasElse {
		elseb.Outputs = elseout
	}

	tlog.V("branch").Printw("endif", "phis", nphi, "else", hasElse)
}

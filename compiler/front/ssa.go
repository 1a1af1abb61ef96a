package front

import (
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// createOutput makes a boundary node exporting value instr as block
// output n, so a merge point outside the block can reference it.
func createOutput(block *ir.Block, instr *ir.Instruction, n int) *ir.Instruction {
	out := block.Instr(ir.CatMeta, ir.OpMetaOutput)
	out.Reg(n, 0)

	if instr != nil {
		out.Reg(0, ir.FlagSSA).Instr = instr
	}

	return out
}

// createInput makes a boundary node importing value instr into block as
// input n.
func createInput(block *ir.Block, instr *ir.Instruction, n int) *ir.Instruction {
	in := block.Instr(ir.CatMeta, ir.OpMetaInput)
	in.Reg(n, 0)

	if instr != nil {
		in.Reg(0, ir.FlagSSA).Instr = instr
	}

	return in
}

// blockInput resolves shader input n. Input reads always go back to the
// top block.
func blockInput(block *ir.Block, n int) *ir.Instruction {
	if block.Parent != nil {
		return blockInput(block.Parent, n)
	}

	return block.Inputs[n]
}

// blockTemporary resolves temporary n in scope. If the block has not
// itself written it, the value is resolved from the nearest enclosing
// block and imported through a boundary node cached in the block's input
// slot, so repeated reads reuse one node.
func blockTemporary(block *ir.Block, n int) *ir.Instruction {
	if block.Parent != nil && block.Temporaries[n] == nil {
		if block.Inputs[n] == nil {
			instr := blockTemporary(block.Parent, n)
			block.Inputs[n] = createInput(block, instr, n)
		}

		return block.Inputs[n]
	}

	return block.Temporaries[n]
}

// findTemporary is an upward lookup without boundary node creation, used
// for the branch side that did not write a merged value.
func findTemporary(block *ir.Block, n int) *ir.Instruction {
	if block.Parent != nil && block.Temporaries[n] == nil {
		return findTemporary(block.Parent, n)
	}

	return block.Temporaries[n]
}

func findOutput(block *ir.Block, n int) *ir.Instruction {
	if block.Parent != nil && block.Outputs[n] == nil {
		return findOutput(block.Parent, n)
	}

	return block.Outputs[n]
}

// createImmed makes a mov-immediate instruction producing val.
//
// Besides real constants this backs the undefined read policy: a register
// read before any write resolves to immediate zero instead of propagating
// a missing reference through the graph. Deliberately not instrCreate, it
// must not flush the deferred queue.
func (ctx *compileContext) createImmed(val float32) *ir.Instruction {
	instr := ctx.block.Instr(ir.Cat1, ir.OpNone)
	instr.Cat1.SrcType = ctx.ftype()
	instr.Cat1.DstType = ctx.ftype()
	instr.Reg(0, 0)

	r := instr.Reg(0, ir.FlagImmed)
	r.Fim = val

	return instr
}

// ssaSrc resolves a source operand reference to the instruction that
// last produced the value and wires reg to it.
func (ctx *compileContext) ssaSrc(reg *ir.Register, src *tokens.Src, chan_ int) {
	block := ctx.block
	n := ir.RegID(src.Index, chan_)

	switch src.File {
	case tokens.FileInput:
		reg.Flags |= ir.FlagSSA
		reg.Instr = blockInput(block, n)
	case tokens.FileOutput:
		// reading an output only happens for the saturate clamp
		// follow-up, which always sits in the block that wrote it
		reg.Flags |= ir.FlagSSA
		reg.Instr = block.Outputs[n]
		ctx.assert(reg.Instr != nil, "output read resolves in scope")
	case tokens.FileTemporary:
		reg.Flags |= ir.FlagSSA
		reg.Instr = blockTemporary(block, n)
	}

	if reg.Flags&ir.FlagSSA != 0 && reg.Instr == nil {
		// read of a register never written: substitute zero
		reg.Instr = ctx.createImmed(0)
	}
}

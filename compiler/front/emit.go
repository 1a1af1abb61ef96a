package front

import (
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// instrFinish applies the deferred register writes queued while lowering
// the current source instruction. No-op inside an atomic group.
func (ctx *compileContext) instrFinish() {
	if ctx.atomic {
		return
	}

	for i := 0; i < ctx.nupdates; i++ {
		u := &ctx.outputUpdates[i]
		u.slots[u.n] = u.instr
	}

	ctx.nupdates = 0
}

// atomicStart brackets a group of instructions that jointly implement one
// logical vector operation.  Deferred writes are not flushed between
// them, so every instruction in the group reads pre-group values.
func (ctx *compileContext) atomicStart() {
	ctx.atomic = true
}

func (ctx *compileContext) atomicEnd() {
	ctx.atomic = false
	ctx.instrFinish()
}

// instrCreate flushes pending deferred writes, then creates a new
// instruction in the current block, which becomes the current one.
func (ctx *compileContext) instrCreate(cat ir.Category, op ir.Opcode) *ir.Instruction {
	ctx.instrFinish()

	ctx.current = ctx.block.Instr(cat, op)

	return ctx.current
}

// instrClone is instrCreate for replicating a template instruction.
func (ctx *compileContext) instrClone(in *ir.Instruction) *ir.Instruction {
	ctx.instrFinish()

	ctx.current = ir.Clone(in)

	return ctx.current
}

// ssaDst queues "slot for dst+chan now holds instr" into the deferred
// write queue. The update only lands at instrFinish, so reads within the
// same source instruction still see the previous value.
func (ctx *compileContext) ssaDst(instr *ir.Instruction, dst *tokens.Dst, chan_ int) {
	n := ir.RegID(dst.Index, chan_)

	if ctx.nupdates >= maxOutputUpdates {
		ctx.errorf(ErrExhausted, "output update queue")
	}

	u := &ctx.outputUpdates[ctx.nupdates]

	switch dst.File {
	case tokens.FileOutput:
		ctx.assert(n < len(ctx.block.Outputs), "output slot in range")
		u.slots, u.n, u.instr = ctx.block.Outputs, n, instr
		ctx.nupdates++
	case tokens.FileTemporary:
		ctx.assert(n < len(ctx.block.Temporaries), "temporary slot in range")
		u.slots, u.n, u.instr = ctx.block.Temporaries, n, instr
		ctx.nupdates++
	}

	tlog.V("ssa").Printw("slot write", "file", dst.File, "slot", n, "from", loc.Callers(1, 3))
}

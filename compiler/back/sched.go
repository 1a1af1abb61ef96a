package back

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
)

// ErrSchedule reports a graph that cannot be linearized.
var ErrSchedule = errors.New("schedule")

// Schedule reduces the block to the instructions reachable from its
// outputs and side effects, in execution order. Instructions are
// created producer first, so the creation order the block already holds
// is a valid linearization; scheduling keeps it stable and drops the
// dead ones. Stable order also keeps address register writes ahead of
// the relative accesses that implicitly depend on them.
func (p pipeline) Schedule(b *ir.Block) error {
	if err := flat(b); err != nil {
		return err
	}

	live := map[*ir.Instruction]struct{}{}

	var mark func(in *ir.Instruction)
	mark = func(in *ir.Instruction) {
		if _, ok := live[in]; ok {
			return
		}

		live[in] = struct{}{}

		in.SSASrcs(func(reg *ir.Register) {
			if reg.Instr != nil {
				mark(reg.Instr)
			}
		})
	}

	for _, in := range roots(b) {
		mark(in)
	}

	instrs := b.Instrs[:0]

	for _, in := range b.Instrs {
		if _, ok := live[in]; ok {
			instrs = append(instrs, in)
		}
	}

	tlog.V("sched").Printw("scheduled", "live", len(instrs), "dropped", len(b.Instrs)-len(instrs))

	b.Instrs = instrs

	return nil
}

// roots are the instructions that must execute: final output values,
// control instructions and address register writes.
func roots(b *ir.Block) []*ir.Instruction {
	var r []*ir.Instruction

	for _, in := range b.Outputs {
		if in != nil {
			r = append(r, in)
		}
	}

	for _, in := range b.Instrs {
		if in.Category == ir.Cat0 {
			r = append(r, in)
			continue
		}

		if !in.IsMeta() && len(in.Regs) > 0 &&
			in.Regs[0].Flags&ir.FlagSSA == 0 &&
			ir.RegNum(in.Regs[0].Num) == ir.RegNum(ir.RegA0) {
			r = append(r, in)
		}
	}

	return r
}

func flat(b *ir.Block) error {
	for _, in := range b.Instrs {
		if in.Flow.IfBlock != nil || in.Flow.ElseBlock != nil {
			return errors.Wrap(ErrSchedule, "nested control flow, flatten first")
		}
	}

	return nil
}

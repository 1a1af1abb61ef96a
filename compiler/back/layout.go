package back

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// hardware register file size, in full precision vec4 registers
const maxRegisters = 64

// Layout validates the register assignment of a scheduled block. The
// lowering packs register numbers up front, so there is nothing left to
// assign; the pass checks that every destination fits the register file
// and reports the high-water mark.
func (p pipeline) Layout(b *ir.Block, kind tokens.Kind) error {
	if err := flat(b); err != nil {
		return err
	}

	maxreg := -1

	for _, in := range b.Instrs {
		if in.IsMeta() || len(in.Regs) == 0 {
			continue
		}

		dst := in.Regs[0]
		if dst.Flags&(ir.FlagSSA|ir.FlagImmed|ir.FlagConst) != 0 {
			continue
		}

		num := ir.RegNum(dst.Num)

		if num == ir.RegNum(ir.RegA0) {
			continue
		}

		if num >= maxRegisters {
			return errors.Wrap(ErrAllocation, "r%d.%c out of range", num, "xyzw"[ir.RegComp(dst.Num)])
		}

		if num > maxreg {
			maxreg = num
		}
	}

	tlog.V("layout").Printw("layout", "kind", kind, "maxreg", maxreg)

	return nil
}

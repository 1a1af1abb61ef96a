package back

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/ir"
)

// ErrFlatten reports control flow that cannot be predicated away.
var ErrFlatten = errors.New("cannot flatten")

// Flatten splices conditional blocks into their parent, innermost
// first, and converts the phi merges into selects. After this pass both
// sides of every conditional execute unconditionally and the select
// picks the live value.
func (p pipeline) Flatten(b *ir.Block) (n int, err error) {
	instrs := make([]*ir.Instruction, 0, len(b.Instrs))

	for _, in := range b.Instrs {
		if !(in.Category == ir.CatMeta && in.Op == ir.OpMetaFlow) {
			instrs = append(instrs, in)
			continue
		}

		for _, nested := range []*ir.Block{in.Flow.IfBlock, in.Flow.ElseBlock} {
			if nested == nil {
				continue
			}

			nn, err := p.Flatten(nested)
			if err != nil {
				return 0, err
			}

			n += nn

			if err = predicable(nested); err != nil {
				return 0, err
			}

			instrs = append(instrs, nested.Instrs...)
		}

		n++
	}

	// both sides run now, the merge is a select on the branch condition
	for _, in := range instrs {
		if in.Category == ir.CatMeta && in.Op == ir.OpMetaPhi {
			convertPhi(in)
		}
	}

	b.Instrs = instrs

	tlog.V("flatten").Printw("flattened", "blocks", n, "instrs", len(instrs))

	return n, nil
}

// predicable rejects blocks whose instructions have side effects beyond
// their destination write; those cannot run unconditionally.
func predicable(b *ir.Block) error {
	for _, in := range b.Instrs {
		if in.Category == ir.Cat0 {
			return errors.Wrap(ErrFlatten, "%v inside a conditional", in.Op)
		}
	}

	return nil
}

// convertPhi rewrites phi(cond, a, b) in place as sel.b32 dst, b, cond,
// a: the condition is nonzero when the branch was taken, and the select
// picks its third operand on a nonzero condition. Rewriting in place
// keeps every use edge pointing at the merge valid.
func convertPhi(in *ir.Instruction) {
	cond, a, b := in.Regs[1], in.Regs[2], in.Regs[3]

	// the phi holds the branch marker; the select needs the condition
	// value the marker was branching on
	if f := cond.Instr; f != nil && f.Category == ir.CatMeta && f.Op == ir.OpMetaFlow {
		cond = f.Regs[1]
	}

	in.Category = ir.Cat3
	in.Op = ir.OpSelB32
	in.Regs = []*ir.Register{in.Regs[0], b, cond, a}
}

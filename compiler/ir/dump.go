package ir

import (
	"fmt"
)

var opNames = map[Opcode]string{
	OpNone: "mov",
	OpEnd:  "end", OpKill: "kill",
	OpAbsNegF: "absneg.f", OpAddF: "add.f", OpAddS: "add.s",
	OpMulF: "mul.f", OpMinF: "min.f", OpMaxF: "max.f",
	OpCmpsF: "cmps.f", OpFloorF: "floor.f", OpCeilF: "ceil.f",
	OpRndNeF: "rndne.f", OpTruncF: "trunc.f", OpSignF: "sign.f",
	OpShlB: "shl.b", OpBaryF: "bary.f",
	OpMadF16: "mad.f16", OpMadF32: "mad.f32",
	OpSelB32: "sel.b32", OpSelF16: "sel.f16", OpSelF32: "sel.f32",
	OpRcp: "rcp", OpRsq: "rsq", OpSqrt: "sqrt",
	OpExp2: "exp2", OpLog2: "log2", OpSin: "sin", OpCos: "cos",
	OpSam: "sam",
	OpMetaInput: "meta:in", OpMetaOutput: "meta:out",
	OpMetaFanIn: "meta:fi", OpMetaFanOut: "meta:fo",
	OpMetaFlow: "meta:flow", OpMetaPhi: "meta:phi",
}

func (op Opcode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}

	return fmt.Sprintf("op%d", int(op))
}

var condNames = [...]string{"lt", "le", "gt", "ge", "eq", "ne"}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}

	return "cond?"
}

// Dump renders the block and its nested blocks as a readable listing.
// Instructions are numbered in creation order, SSA operands reference
// those numbers.
func Dump(b *Block) []byte {
	d := dumper{ids: map[*Instruction]int{}}

	d.number(b)

	return d.block(nil, b, 0)
}

type dumper struct {
	ids  map[*Instruction]int
	next int
}

func (d *dumper) number(b *Block) {
	for _, in := range b.Instrs {
		d.ids[in] = d.next
		d.next++
	}

	for _, in := range b.Instrs {
		if in.Op == OpMetaFlow {
			if in.Flow.IfBlock != nil {
				d.number(in.Flow.IfBlock)
			}
			if in.Flow.ElseBlock != nil {
				d.number(in.Flow.ElseBlock)
			}
		}
	}
}

func (d *dumper) block(w []byte, b *Block, depth int) []byte {
	for _, in := range b.Instrs {
		w = d.instr(w, in, depth)

		if in.Op == OpMetaFlow {
			if in.Flow.IfBlock != nil {
				w = fmt.Appendf(w, "%*sthen:\n", depth*2+2, "")
				w = d.block(w, in.Flow.IfBlock, depth+1)
			}
			if in.Flow.ElseBlock != nil {
				w = fmt.Appendf(w, "%*selse:\n", depth*2+2, "")
				w = d.block(w, in.Flow.ElseBlock, depth+1)
			}
		}
	}

	return w
}

func (d *dumper) instr(w []byte, in *Instruction, depth int) []byte {
	w = fmt.Appendf(w, "%*s%4d: ", depth*2, "", d.ids[in])

	if in.Category == Cat1 {
		w = append(w, "mov"...)
	} else {
		w = fmt.Appendf(w, "%v", in.Op)
	}

	if in.Category == Cat2 && in.Op == OpCmpsF {
		w = fmt.Appendf(w, ".%v", in.Cat2.Cond)
	}
	if in.Op == OpMetaFanOut {
		w = fmt.Appendf(w, "[%d]", in.FanOff)
	}

	for i, r := range in.Regs {
		if i == 0 {
			w = append(w, ' ')
		} else {
			w = append(w, ", "...)
		}

		w = d.reg(w, r)
	}

	return append(w, '\n')
}

func (d *dumper) reg(w []byte, r *Register) []byte {
	if r.Flags&FlagNegate != 0 {
		w = append(w, '-')
	}
	if r.Flags&FlagAbs != 0 {
		w = append(w, '|')
	}

	switch {
	case r.Flags&FlagImmed != 0:
		w = fmt.Appendf(w, "imm{%v/%v}", r.Iim, r.Fim)
	case r.Flags&FlagSSA != 0:
		if r.Instr != nil {
			w = fmt.Appendf(w, "_[%d]", d.ids[r.Instr])
		} else {
			w = append(w, "_[?]"...)
		}
	case r.Flags&FlagConst != 0:
		w = fmt.Appendf(w, "c%d.%c", RegNum(r.Num), "xyzw"[RegComp(r.Num)])
	default:
		w = fmt.Appendf(w, "r%d.%c", RegNum(r.Num), "xyzw"[RegComp(r.Num)])
	}

	if r.Flags&FlagAbs != 0 {
		w = append(w, '|')
	}

	return w
}

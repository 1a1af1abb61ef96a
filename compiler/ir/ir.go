// Package ir is the target instruction graph produced by lowering: SSA
// form instructions over a vector ISA organized into numbered categories
// (operand arity/shape classes), grouped into nested blocks.
package ir

type (
	// Category is the instruction class. CatMeta instructions are
	// synthetic graph nodes, not real target instructions.
	Category int8

	Opcode uint16

	// Type is the numeric type a cat1/cat5 instruction operates on.
	Type uint8

	// Cond is a cat2 comparison predicate.
	Cond uint8

	RegFlag uint16

	InstrFlag uint8

	// Register is one operand record. Regs[0] of an instruction is the
	// destination, the rest are sources.
	Register struct {
		Flags RegFlag

		// Num is the packed register id: register number << 2 | component.
		Num int

		// Wrmask is the set of components written (dst) or read (src).
		Wrmask uint8

		// Instr is the producing instruction, for FlagSSA operands.
		Instr *Instruction

		// immediate payloads, for FlagImmed operands
		Iim int32
		Fim float32
	}

	Instruction struct {
		Category Category
		Op       Opcode
		Flags    InstrFlag

		Regs []*Register

		Block *Block

		Cat1 struct {
			SrcType, DstType Type
		}

		Cat2 struct {
			Cond Cond
		}

		Cat5 struct {
			Type      Type
			Samp, Tex int
		}

		Flow struct {
			IfBlock, ElseBlock *Block
		}

		// FanOff is the component a fan-out node extracts.
		FanOff int

		// Depth is filled by the depth pass.
		Depth int
	}

	// Block is a lowering scope. The slot arrays are indexed by the
	// flattened source register number and hold the SSA value currently
	// live for that register in this scope.
	//
	// Parent is an upward reference only, the parent outlives its
	// children for the duration of one compile.
	Block struct {
		Parent *Block

		Temporaries []*Instruction
		Inputs      []*Instruction
		Outputs     []*Instruction

		// Instrs owns every instruction created in this block, in
		// creation order.
		Instrs []*Instruction
	}

	// Graph owns the blocks and instructions of one compile.
	Graph struct {
		Top *Block

		ninstrs int
	}
)

const (
	CatMeta Category = -1 + iota
	Cat0
	Cat1
	Cat2
	Cat3
	Cat4
	Cat5
)

const (
	OpNone Opcode = iota

	// cat0
	OpEnd
	OpKill

	// cat1 is always OpNone + Cat1 types

	// cat2
	OpAbsNegF
	OpAddF
	OpAddS
	OpMulF
	OpMinF
	OpMaxF
	OpCmpsF
	OpFloorF
	OpCeilF
	OpRndNeF
	OpTruncF
	OpSignF
	OpShlB
	OpBaryF

	// cat3
	OpMadF16
	OpMadF32
	OpSelB32
	OpSelF16
	OpSelF32

	// cat4
	OpRcp
	OpRsq
	OpSqrt
	OpExp2
	OpLog2
	OpSin
	OpCos

	// cat5
	OpSam

	// meta
	OpMetaInput
	OpMetaOutput
	OpMetaFanIn
	OpMetaFanOut
	OpMetaFlow
	OpMetaPhi
)

const (
	TypeF16 Type = iota
	TypeF32
	TypeU16
	TypeU32
	TypeS16
	TypeS32
)

const (
	CondLT Cond = iota
	CondLE
	CondGT
	CondGE
	CondEQ
	CondNE
)

const (
	FlagSSA RegFlag = 1 << iota
	FlagImmed
	FlagConst
	FlagHalf
	FlagRelative
	FlagAbs
	FlagNegate
)

const (
	Flag3D InstrFlag = 1 << iota
	FlagProjective
)

// RegA0 is the packed id of the dedicated address register, which lives
// outside the general register file.
const RegA0 = 61 << 2

// RegID packs a register number and component into a register id.
func RegID(num, comp int) int {
	return num<<2 | comp&3
}

// RegNum extracts the register number of a packed id.
func RegNum(id int) int {
	return id >> 2
}

// RegComp extracts the component of a packed id.
func RegComp(id int) int {
	return id & 3
}

func New() *Graph {
	return &Graph{}
}

// NewBlock creates a block with room for the given number of scalar
// temporary, input and output slots. The first block created becomes the
// top block.
func (g *Graph) NewBlock(parent *Block, ntmp, nin, nout int) *Block {
	b := &Block{
		Parent:      parent,
		Temporaries: make([]*Instruction, ntmp),
		Inputs:      make([]*Instruction, nin),
		Outputs:     make([]*Instruction, nout),
	}

	if g.Top == nil {
		g.Top = b
	}

	return b
}

// Instr creates an instruction owned by the block.
func (b *Block) Instr(cat Category, op Opcode) *Instruction {
	in := &Instruction{
		Category: cat,
		Op:       op,
		Block:    b,
	}

	b.Instrs = append(b.Instrs, in)

	return in
}

// Clone creates a copy of in, with copied operand records, owned by the
// same block.
func Clone(in *Instruction) *Instruction {
	cp := *in
	cp.Regs = make([]*Register, len(in.Regs))

	for i, r := range in.Regs {
		rr := *r
		cp.Regs[i] = &rr
	}

	in.Block.Instrs = append(in.Block.Instrs, &cp)

	return &cp
}

// Reg appends an operand record to the instruction.
func (in *Instruction) Reg(num int, flags RegFlag) *Register {
	r := &Register{
		Num:    num,
		Flags:  flags,
		Wrmask: 0x1,
	}

	in.Regs = append(in.Regs, r)

	return r
}

// Dst is the destination operand, or nil if none was created yet.
func (in *Instruction) Dst() *Register {
	if len(in.Regs) == 0 {
		return nil
	}

	return in.Regs[0]
}

// SSASrcs calls f for every SSA-resolved source operand.
func (in *Instruction) SSASrcs(f func(*Register)) {
	for i, r := range in.Regs {
		if i == 0 {
			continue
		}
		if r.Flags&FlagSSA != 0 && r.Instr != nil {
			f(r)
		}
	}
}

// IsMeta reports whether the instruction is a synthetic graph node.
func (in *Instruction) IsMeta() bool {
	return in.Category == CatMeta
}

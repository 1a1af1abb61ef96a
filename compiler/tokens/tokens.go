// Package tokens defines the source shader IR consumed by the compiler:
// a flat stream of declaration, immediate and instruction tokens over
// register files with per-component swizzles, write-masks and modifiers.
package tokens

type (
	// File is a source register file.
	File uint8

	// Kind is the shader kind a token stream compiles as.
	Kind uint8

	Opcode uint8

	// Swizzle selects one source component.
	Swizzle uint8

	// WriteMask is a bitset of destination components.
	WriteMask uint8

	Semantic uint8

	Texture uint8

	Saturate uint8

	// Src is a source operand reference.
	Src struct {
		File  File
		Index int

		Swizzle [4]Swizzle

		Negate   bool
		Absolute bool
		Indirect bool
	}

	// Dst is a destination register reference.
	Dst struct {
		File  File
		Index int

		Mask WriteMask

		Indirect bool
	}

	// Decl declares a register range with a semantic role.
	Decl struct {
		File        File
		First, Last int

		Semantic Semantic
		SemIndex int
	}

	// Imm carries one vec4 immediate constant.
	Imm struct {
		Val [4]uint32
	}

	// Instr is one source instruction.
	Instr struct {
		Op  Opcode
		Dst Dst
		Src []Src

		Sat Saturate
		Tex Texture
	}

	Token interface{ token() }

	// Shader is a complete token stream.
	Shader struct {
		Kind Kind
		Toks []Token
	}
)

func (Decl) token()  {}
func (Imm) token()   {}
func (Instr) token() {}

const (
	FileNull File = iota
	FileConstant
	FileInput
	FileOutput
	FileTemporary
	FileSampler
	FileAddress
	FileImmediate

	FileCount
)

const (
	KindVertex Kind = iota
	KindFragment
)

const (
	SwizX Swizzle = iota
	SwizY
	SwizZ
	SwizW
)

const (
	MaskX WriteMask = 1 << iota
	MaskY
	MaskZ
	MaskW

	MaskXY   = MaskX | MaskY
	MaskXYZ  = MaskX | MaskY | MaskZ
	MaskXYZW = MaskX | MaskY | MaskZ | MaskW
)

const (
	SemNone Semantic = iota
	SemPosition
	SemColor
	SemGeneric
	SemFog
	SemTexcoord
	SemPointSize
)

const (
	TexNone Texture = iota
	Tex2D
	Tex3D
	TexCube
)

const (
	SatNone Saturate = iota
	SatZeroOne
	SatSignedOne
)

const (
	OpMov Opcode = iota
	OpRcp
	OpRsq
	OpSqrt
	OpMul
	OpAdd
	OpSub
	OpMin
	OpMax
	OpMad
	OpTrunc
	OpClamp
	OpFloor
	OpRound
	OpArl
	OpEx2
	OpLg2
	OpAbs
	OpCos
	OpSin
	OpTex
	OpTxp
	OpSgt
	OpSlt
	OpSge
	OpSle
	OpSne
	OpSeq
	OpCmp
	OpIf
	OpElse
	OpEndif
	OpEnd
	OpKill

	OpCount
)

// numSrc is the operand arity of each opcode.
var numSrc = [OpCount]int{
	OpMov: 1, OpRcp: 1, OpRsq: 1, OpSqrt: 1,
	OpMul: 2, OpAdd: 2, OpSub: 2, OpMin: 2, OpMax: 2,
	OpMad: 3, OpTrunc: 1, OpClamp: 3, OpFloor: 1, OpRound: 1,
	OpArl: 1, OpEx2: 1, OpLg2: 1, OpAbs: 1, OpCos: 1, OpSin: 1,
	OpTex: 2, OpTxp: 2,
	OpSgt: 2, OpSlt: 2, OpSge: 2, OpSle: 2, OpSne: 2, OpSeq: 2,
	OpCmp: 3,
	OpIf:  1, OpElse: 0, OpEndif: 0, OpEnd: 0, OpKill: 0,
}

// NumSrc reports the operand arity of op, or -1 if op is unknown.
func NumSrc(op Opcode) int {
	if op >= OpCount {
		return -1
	}

	return numSrc[op]
}

// Swiz returns the swizzle selector for destination component ch.
func (s *Src) Swiz(ch int) Swizzle {
	return s.Swizzle[ch]
}

// Identity reports whether the swizzle selects components in natural order.
func (s *Src) Identity() bool {
	return s.Swizzle == [4]Swizzle{SwizX, SwizY, SwizZ, SwizW}
}

// SwizzleAll replicates one selector into all four components.
func SwizzleAll(c Swizzle) [4]Swizzle {
	return [4]Swizzle{c, c, c, c}
}

// SwizzleNone is the identity swizzle.
func SwizzleNone() [4]Swizzle {
	return [4]Swizzle{SwizX, SwizY, SwizZ, SwizW}
}

// SrcFromDst derives a plain full-swizzle source referencing the same
// register as dst.
func SrcFromDst(dst *Dst) Src {
	return Src{
		File:     dst.File,
		Index:    dst.Index,
		Indirect: dst.Indirect,
		Swizzle:  SwizzleNone(),
	}
}

var fileNames = [FileCount]string{
	FileNull:      "NULL",
	FileConstant:  "CONST",
	FileInput:     "IN",
	FileOutput:    "OUT",
	FileTemporary: "TEMP",
	FileSampler:   "SAMP",
	FileAddress:   "ADDR",
	FileImmediate: "IMM",
}

func (f File) String() string {
	if f >= FileCount {
		return "FILE?"
	}

	return fileNames[f]
}

var opNames = [OpCount]string{
	OpMov: "MOV", OpRcp: "RCP", OpRsq: "RSQ", OpSqrt: "SQRT",
	OpMul: "MUL", OpAdd: "ADD", OpSub: "SUB", OpMin: "MIN", OpMax: "MAX",
	OpMad: "MAD", OpTrunc: "TRUNC", OpClamp: "CLAMP", OpFloor: "FLR", OpRound: "ROUND",
	OpArl: "ARL", OpEx2: "EX2", OpLg2: "LG2", OpAbs: "ABS", OpCos: "COS", OpSin: "SIN",
	OpTex: "TEX", OpTxp: "TXP",
	OpSgt: "SGT", OpSlt: "SLT", OpSge: "SGE", OpSle: "SLE", OpSne: "SNE", OpSeq: "SEQ",
	OpCmp: "CMP",
	OpIf:  "IF", OpElse: "ELSE", OpEndif: "ENDIF", OpEnd: "END", OpKill: "KILL",
}

func (op Opcode) String() string {
	if op >= OpCount {
		return "OP?"
	}

	return opNames[op]
}

var semNames = [...]string{
	SemNone:      "none",
	SemPosition:  "position",
	SemColor:     "color",
	SemGeneric:   "generic",
	SemFog:       "fog",
	SemTexcoord:  "texcoord",
	SemPointSize: "psize",
}

func (s Semantic) String() string {
	if int(s) >= len(semNames) {
		return "sem?"
	}

	return semNames[s]
}

func (t Texture) String() string {
	switch t {
	case Tex2D:
		return "2D"
	case Tex3D:
		return "3D"
	case TexCube:
		return "CUBE"
	}

	return ""
}

func (k Kind) String() string {
	if k == KindFragment {
		return "frag"
	}

	return "vert"
}

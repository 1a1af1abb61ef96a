// Package front lowers a source token stream into the SSA instruction
// graph: instruction selection, scalar-to-vector expansion, live value
// tracking across nested scopes and phi synthesis for conditionals.
package front

import (
	"fmt"
	"math"

	"tlog.app/go/errors"

	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

// ErrUnsupported reports source input the lowering cannot express.
var ErrUnsupported = errors.New("unsupported input")

// ErrExhausted reports a fixed internal capacity running out
// (branch nesting, internal temporaries, immediate pool).
var ErrExhausted = errors.New("resource exhausted")

const (
	maxBranchDepth   = 16
	maxOutputUpdates = 16
	maxInternalTemps = 6
	maxImmediates    = 64
)

type (
	compileContext struct {
		sh   *tokens.Shader
		info tokens.Info

		prog  *Program
		graph *ir.Graph

		block   *ir.Block
		current *ir.Instruction

		// updates to block temporary/output slots are deferred until
		// the end of a source instruction, so the instruction reads
		// pre-instruction values
		outputUpdates [maxOutputUpdates]outputUpdate
		nupdates      int

		// inside an atomic group of instructions
		atomic bool

		// fragment shaders have a single real input, the position
		// register pair feeding varying fetches
		fragPos *ir.Instruction

		nextInloc int

		ninternalTemps int
		internalTemps  [maxInternalTemps]tokens.Src

		// per-file base offsets in the packed register space
		baseReg [tokens.FileCount]int

		// scalar slot just past the last immediate
		immediateIdx int

		// source immediates copied into the pool so far
		nimm int

		// in-flight conditional markers
		branch  [maxBranchDepth]*ir.Instruction
		nbranch int

		// destination redirect for dst==src hazards
		tmpDst tokens.Dst
		tmpSrc tokens.Src
	}

	outputUpdate struct {
		slots []*ir.Instruction
		n     int
		instr *ir.Instruction
	}

	// compileError carries a fatal lowering failure up to Compile.
	compileError struct {
		err error
	}
)

// errorf aborts the current compile. The panic is recovered at the
// Compile boundary and returned as an error after the source is dumped.
func (ctx *compileContext) errorf(base error, format string, args ...interface{}) {
	panic(compileError{err: errors.Wrap(base, format, args...)})
}

func (ctx *compileContext) assert(cond bool, what string) {
	if !cond {
		ctx.errorf(ErrUnsupported, "failed assert: %v", what)
	}
}

// newContext computes the per-file base offsets and prepares per-shader
// lowering state.
//
// The packed register space is laid out as constants, then immediates,
// then (full precision fragment shaders only) one reserved register for
// the hardware position, then inputs, outputs and temporaries.
func newContext(sh *tokens.Shader, info tokens.Info, half bool) (*compileContext, error) {
	// the packer relocates these files, so indirect addressing through
	// them cannot be expressed
	relocated := uint32(1<<tokens.FileTemporary | 1<<tokens.FileInput |
		1<<tokens.FileOutput | 1<<tokens.FileImmediate | 1<<tokens.FileConstant)

	if info.IndirectFiles&relocated != 0 {
		return nil, errors.Wrap(ErrUnsupported, "indirect addressing of a relocated register file (mask %#x)", info.IndirectFiles&relocated)
	}

	ctx := &compileContext{
		sh:        sh,
		info:      info,
		graph:     ir.New(),
		nextInloc: 8,
	}

	ctx.prog = &Program{
		Kind: sh.Kind,
		Half: half,
	}

	// immediates go after constants
	ctx.baseReg[tokens.FileConstant] = 0
	ctx.baseReg[tokens.FileImmediate] = info.FileMax[tokens.FileConstant] + 1

	// full precision fragment shaders must not clobber the position
	// register with varying fetches
	base := 0
	if sh.Kind == tokens.KindFragment && !half {
		base = 1
	}

	ctx.baseReg[tokens.FileInput] = base
	ctx.baseReg[tokens.FileOutput] = base +
		info.FileMax[tokens.FileInput] + 1
	ctx.baseReg[tokens.FileTemporary] = base +
		info.FileMax[tokens.FileInput] + 1 +
		info.FileMax[tokens.FileOutput] + 1

	ctx.prog.FirstImmediate = ctx.baseReg[tokens.FileImmediate]
	ctx.immediateIdx = 4 * (info.FileMax[tokens.FileImmediate] + 1)

	return ctx, nil
}

func (ctx *compileContext) ftype() ir.Type {
	if ctx.prog.Half {
		return ir.TypeF16
	}

	return ir.TypeF32
}

func (ctx *compileContext) utype() ir.Type {
	if ctx.prog.Half {
		return ir.TypeU16
	}

	return ir.TypeU32
}

func isConst(src *tokens.Src) bool {
	return src.File == tokens.FileConstant || src.File == tokens.FileImmediate
}

func isRelative(src *tokens.Src) bool {
	return src.Indirect
}

func isRelOrConst(src *tokens.Src) bool {
	return isRelative(src) || isConst(src)
}

// getInternalTemp assigns the next internal temporary for the sequence of
// instructions lowering one source instruction. It fills dst and returns
// the matching source reference.
func (ctx *compileContext) getInternalTemp(dst *tokens.Dst) *tokens.Src {
	dst.File = tokens.FileTemporary
	dst.Mask = tokens.MaskXYZW
	dst.Indirect = false

	n := ctx.ninternalTemps
	ctx.ninternalTemps++

	if n >= maxInternalTemps {
		ctx.errorf(ErrExhausted, "internal temporaries")
	}

	dst.Index = ctx.info.FileMax[tokens.FileTemporary] + n + 1

	ctx.internalTemps[n] = tokens.SrcFromDst(dst)

	return &ctx.internalTemps[n]
}

// getInternalTempHR is getInternalTemp for values that must live in a
// reduced precision register (the address register load path). In full
// precision mode it claims hr0, which nothing else uses.
func (ctx *compileContext) getInternalTempHR(dst *tokens.Dst) *tokens.Src {
	if ctx.prog.Half {
		return ctx.getInternalTemp(dst)
	}

	dst.File = tokens.FileTemporary
	dst.Mask = tokens.MaskXYZW
	dst.Indirect = false

	n := ctx.ninternalTemps
	ctx.ninternalTemps++

	if n >= maxInternalTemps {
		ctx.errorf(ErrExhausted, "internal temporaries")
	}

	dst.Index = 0

	ctx.internalTemps[n] = tokens.SrcFromDst(dst)

	return &ctx.internalTemps[n]
}

// getImmediate finds or allocates an immediate pool slot holding val and
// fills reg with a reference to it. A slot holding -val is reused with
// the negate flag.
func (ctx *compileContext) getImmediate(reg *tokens.Src, val uint32) {
	var neg bool
	var swiz, idx int

	for len(ctx.prog.Immediates)*4 < ctx.immediateIdx {
		ctx.prog.Immediates = append(ctx.prog.Immediates, [4]uint32{})
	}

	i := 0
	for ; i < ctx.immediateIdx; i++ {
		swiz = i % 4
		idx = i / 4

		if ctx.prog.Immediates[idx][swiz] == val {
			neg = false
			break
		}

		if ctx.prog.Immediates[idx][swiz] == negf(val) {
			neg = true
			break
		}
	}

	if i == ctx.immediateIdx {
		swiz = i % 4
		idx = i / 4
		neg = false

		if idx >= maxImmediates {
			ctx.errorf(ErrExhausted, "immediate pool")
		}

		for idx >= len(ctx.prog.Immediates) {
			ctx.prog.Immediates = append(ctx.prog.Immediates, [4]uint32{})
		}

		ctx.prog.Immediates[idx][swiz] = val
		ctx.immediateIdx++
	}

	*reg = tokens.Src{
		File:    tokens.FileImmediate,
		Index:   idx,
		Negate:  neg,
		Swizzle: tokens.SwizzleAll(tokens.Swizzle(swiz)),
	}
}

// negf is float negation on the raw bit pattern.
func negf(v uint32) uint32 {
	return v ^ 0x80000000
}

func fui(f float32) uint32 {
	return math.Float32bits(f)
}

func (ctx *compileContext) String() string {
	return fmt.Sprintf("compileContext{%v}", ctx.sh.Kind)
}

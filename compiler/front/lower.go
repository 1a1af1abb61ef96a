package front

import (
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

type (
	// translater maps one source opcode to a lowering routine with its
	// fixed parameters: the target opcode, an alternate for reduced
	// precision, and an auxiliary argument.
	translater struct {
		fn func(t *translater, ctx *compileContext, inst *tokens.Instr)

		srcOp tokens.Opcode
		opc   ir.Opcode
		hopc  ir.Opcode
		arg   tokens.Opcode
	}
)

var translaters = [tokens.OpCount]translater{
	tokens.OpMov:   {fn: instrCat1},
	tokens.OpRcp:   {fn: instrCat4, opc: ir.OpRcp},
	tokens.OpRsq:   {fn: instrCat4, opc: ir.OpRsq},
	tokens.OpSqrt:  {fn: instrCat4, opc: ir.OpSqrt},
	tokens.OpMul:   {fn: instrCat2, opc: ir.OpMulF},
	tokens.OpAdd:   {fn: instrCat2, opc: ir.OpAddF},
	tokens.OpSub:   {fn: instrCat2, opc: ir.OpAddF},
	tokens.OpMin:   {fn: instrCat2, opc: ir.OpMinF},
	tokens.OpMax:   {fn: instrCat2, opc: ir.OpMaxF},
	tokens.OpMad:   {fn: instrCat3, opc: ir.OpMadF32, hopc: ir.OpMadF16},
	tokens.OpTrunc: {fn: instrCat2, opc: ir.OpTruncF},
	tokens.OpClamp: {fn: transClamp},
	tokens.OpFloor: {fn: instrCat2, opc: ir.OpFloorF},
	tokens.OpRound: {fn: instrCat2, opc: ir.OpRndNeF},
	tokens.OpArl:   {fn: transArl},
	tokens.OpEx2:   {fn: instrCat4, opc: ir.OpExp2},
	tokens.OpLg2:   {fn: instrCat4, opc: ir.OpLog2},
	tokens.OpAbs:   {fn: instrCat2, opc: ir.OpAbsNegF},
	tokens.OpCos:   {fn: instrCat4, opc: ir.OpCos},
	tokens.OpSin:   {fn: instrCat4, opc: ir.OpSin},
	tokens.OpTex:   {fn: transSamp, opc: ir.OpSam, arg: tokens.OpTex},
	tokens.OpTxp:   {fn: transSamp, opc: ir.OpSam, arg: tokens.OpTxp},
	tokens.OpSgt:   {fn: transCmp},
	tokens.OpSlt:   {fn: transCmp},
	tokens.OpSge:   {fn: transCmp},
	tokens.OpSle:   {fn: transCmp},
	tokens.OpSne:   {fn: transCmp},
	tokens.OpSeq:   {fn: transCmp},
	tokens.OpCmp:   {fn: transCmp},
	tokens.OpIf:    {fn: transIf},
	tokens.OpElse:  {fn: transElse},
	tokens.OpEndif: {fn: transEndif},
	tokens.OpEnd:   {fn: instrCat0, opc: ir.OpEnd},
	tokens.OpKill:  {fn: instrCat0, opc: ir.OpKill},
}

func init() {
	for op := range translaters {
		translaters[op].srcOp = tokens.Opcode(op)
	}
}

// getUnconst materializes a constant (or indirect) operand into an
// internal temporary via a plain move, for instructions whose operand
// slots cannot take one.
func (ctx *compileContext) getUnconst(src *tokens.Src) *tokens.Src {
	ctx.assert(isRelOrConst(src), "getUnconst takes const or relative src")

	var tmpDst tokens.Dst
	tmpSrc := ctx.getInternalTemp(&tmpDst)

	ctx.createMov(&tmpDst, src)

	return tmpSrc
}

// createMov emits per-component moves of src into dst. A negated or
// absolute source cannot ride on the move opcode and is routed through
// absneg instead.
func (ctx *compileContext) createMov(dst *tokens.Dst, src *tokens.Src) {
	typeMov := ctx.ftype()

	for i := 0; i < 4; i++ {
		if dst.Mask&(1<<i) == 0 {
			continue
		}

		var instr *ir.Instruction

		if src.Absolute || src.Negate {
			instr = ctx.instrCreate(ir.Cat2, ir.OpAbsNegF)
		} else {
			instr = ctx.instrCreate(ir.Cat1, ir.OpNone)
			instr.Cat1.SrcType = typeMov
			instr.Cat1.DstType = typeMov
		}

		ctx.addDstReg(instr, dst, i)
		ctx.addSrcReg(instr, src, int(src.Swiz(i)))
	}
}

// createClamp lowers clamp(val, lo, hi) to max-then-min.
func (ctx *compileContext) createClamp(dst *tokens.Dst, val, minval, maxval *tokens.Src) {
	instr := ctx.instrCreate(ir.Cat2, ir.OpMaxF)
	ctx.vectorize(instr, dst, opReg(val), opReg(minval))

	instr = ctx.instrCreate(ir.Cat2, ir.OpMinF)
	ctx.vectorize(instr, dst, opReg(val), opReg(maxval))
}

// createClampImm clamps dst in place against immediate bounds; this is
// how saturate destination modifiers are lowered after the main
// instruction completes.
func (ctx *compileContext) createClampImm(dst *tokens.Dst, minval, maxval uint32) {
	var minconst, maxconst tokens.Src

	src := tokens.SrcFromDst(dst)

	ctx.getImmediate(&minconst, minval)
	ctx.getImmediate(&maxconst, maxval)

	ctx.createClamp(dst, &src, &minconst, &maxconst)
}

// getDst returns the destination to lower into. If the true destination
// also appears non-trivially among the sources, it is redirected to an
// internal temporary so the per-component expansion does not overwrite a
// source element it still has to read; putDst moves the result back.
func (ctx *compileContext) getDst(inst *tokens.Instr) *tokens.Dst {
	dst := &inst.Dst

	for i := range inst.Src {
		src := &inst.Src[i]

		if src.File != dst.File || src.Index != dst.Index {
			continue
		}
		if dst.Mask == tokens.MaskXYZW && src.Identity() {
			continue
		}

		ctx.tmpSrc = *ctx.getInternalTemp(&ctx.tmpDst)
		ctx.tmpDst.Mask = dst.Mask

		return &ctx.tmpDst
	}

	return dst
}

func (ctx *compileContext) putDst(inst *tokens.Instr, dst *tokens.Dst) {
	if dst != &inst.Dst {
		ctx.createMov(&inst.Dst, &ctx.tmpSrc)
	}
}

/*
 * Handlers for source opcodes with a 1:1 native mapping:
 */

func instrCat0(t *translater, ctx *compileContext, inst *tokens.Instr) {
	ctx.instrCreate(ir.Cat0, t.opc)
}

func instrCat1(t *translater, ctx *compileContext, inst *tokens.Instr) {
	dst := ctx.getDst(inst)
	src := &inst.Src[0]

	if src.Negate {
		// the move opcode cannot encode negation, substitute an add
		// against zero which can
		var constval tokens.Src

		instr := ctx.instrCreate(ir.Cat2, ir.OpAddF)
		ctx.getImmediate(&constval, fui(0))
		ctx.vectorize(instr, dst, opReg(src), opReg(&constval))
	} else {
		// createMov expands per component itself
		ctx.createMov(dst, src)
	}

	ctx.putDst(inst, dst)
}

func instrCat2(t *translater, ctx *compileContext, inst *tokens.Instr) {
	dst := ctx.getDst(inst)
	src0 := &inst.Src[0]

	var src0Flags, src1Flags ir.RegFlag

	switch t.srcOp {
	case tokens.OpAbs:
		src0Flags = ir.FlagAbs
	case tokens.OpSub:
		src1Flags = ir.FlagNegate
	}

	switch t.opc {
	case ir.OpAbsNegF, ir.OpFloorF, ir.OpCeilF, ir.OpRndNeF,
		ir.OpTruncF, ir.OpSignF:
		// single src reg ops
		instr := ctx.instrCreate(ir.Cat2, t.opc)
		ctx.vectorize(instr, dst, opRegFlags(src0, src0Flags))
	default:
		src1 := &inst.Src[1]

		if isConst(src0) && isConst(src1) {
			src0 = ctx.getUnconst(src0)
		}

		instr := ctx.instrCreate(ir.Cat2, t.opc)
		ctx.vectorize(instr, dst,
			opRegFlags(src0, src0Flags), opRegFlags(src1, src1Flags))
	}

	ctx.putDst(inst, dst)
}

func isMad(op ir.Opcode) bool {
	return op == ir.OpMadF16 || op == ir.OpMadF32
}

func instrCat3(t *translater, ctx *compileContext, inst *tokens.Instr) {
	dst := ctx.getDst(inst)
	src0 := &inst.Src[0]
	src1 := &inst.Src[1]

	// cat3 cannot take a const in the second slot; the multiply-add
	// family tolerates one in the first, so swap when possible
	if isRelOrConst(src1) {
		if isMad(t.opc) && !isRelOrConst(src0) {
			src0, src1 = src1, src0
		} else {
			src1 = ctx.getUnconst(src1)
		}
	}

	opc := t.opc
	if ctx.prog.Half {
		opc = t.hopc
	}

	instr := ctx.instrCreate(ir.Cat3, opc)
	ctx.vectorize(instr, dst,
		opReg(src0), opReg(src1), opReg(&inst.Src[2]))
	ctx.putDst(inst, dst)
}

func instrCat4(t *translater, ctx *compileContext, inst *tokens.Instr) {
	dst := ctx.getDst(inst)
	src := &inst.Src[0]

	// transcendentals refuse const srcs
	if isConst(src) {
		src = ctx.getUnconst(src)
	}

	// replicated per component, not vectorized
	for i := 0; i < 4; i++ {
		if dst.Mask&(1<<i) == 0 {
			continue
		}

		instr := ctx.instrCreate(ir.Cat4, t.opc)
		ctx.addDstReg(instr, dst, i)
		ctx.addSrcReg(instr, src, int(src.Swiz(0)))
	}

	ctx.putDst(inst, dst)
}

/*
 * Handlers for source opcodes lowered to multi-instruction idioms:
 */

func transClamp(t *translater, ctx *compileContext, inst *tokens.Instr) {
	dst := ctx.getDst(inst)

	ctx.createClamp(dst, &inst.Src[0], &inst.Src[1], &inst.Src[2])

	ctx.putDst(inst, dst)
}

// transArl lowers the address register load: narrow the value to a
// signed integer, shift to byte units, and move it into the address
// register, all through a reduced-precision-safe temporary since the
// address register is a fixed reduced precision resource.
func transArl(t *translater, ctx *compileContext, inst *tokens.Instr) {
	dst := &inst.Dst
	src := &inst.Src[0]
	ch := int(src.Swiz(0))

	ctx.assert(dst.File == tokens.FileAddress, "arl writes the address register")

	var tmpDst tokens.Dst
	tmpSrc := ctx.getInternalTempHR(&tmpDst)

	// cov.{f32,f16}s16 tmp, src
	instr := ctx.instrCreate(ir.Cat1, ir.OpNone)
	instr.Cat1.SrcType = ctx.ftype()
	instr.Cat1.DstType = ir.TypeS16
	ctx.addDstReg(instr, &tmpDst, ch).Flags |= ir.FlagHalf
	ctx.addSrcReg(instr, src, ch)

	// shl.b tmp, tmp, 2
	instr = ctx.instrCreate(ir.Cat2, ir.OpShlB)
	ctx.addDstReg(instr, &tmpDst, ch).Flags |= ir.FlagHalf
	ctx.addSrcReg(instr, tmpSrc, ch).Flags |= ir.FlagHalf
	instr.Reg(0, ir.FlagImmed).Iim = 2

	// mova a0, tmp
	instr = ctx.instrCreate(ir.Cat1, ir.OpNone)
	instr.Cat1.SrcType = ir.TypeS16
	instr.Cat1.DstType = ir.TypeS16
	ctx.addDstReg(instr, dst, 0).Flags |= ir.FlagHalf
	ctx.addSrcReg(instr, tmpSrc, ch).Flags |= ir.FlagHalf
}

/*
 * Comparison family, lowered per a fixed truth table of operand order
 * and predicate:
 *
 *   SEQ(a,b) = (a == b) ? 1 : 0      cmps.f.eq t
 *                                    cov.u16f16 dst, t
 *   SNE(a,b) = (a != b) ? 1 : 0      cmps.f.eq t
 *                                    add.s t, t, -1
 *                                    sel dst, {0}, t, {1}
 *   SGE(a,b) = (a >= b) ? 1 : 0      cmps.f.ge t, a, b; cov
 *   SLE(a,b) = (a <= b) ? 1 : 0      cmps.f.ge t, b, a; cov
 *   SGT(a,b) = (a > b)  ? 1 : 0      cmps.f.ge t, b, a; add -1; sel
 *   SLT(a,b) = (a < b)  ? 1 : 0      cmps.f.ge t, a, b; add -1; sel
 *   CMP(a,b,c) = (a < 0) ? b : c     cmps.f.ge t, a, {0}; add -1;
 *                                    sel dst, c, t, b
 */
func transCmp(t *translater, ctx *compileContext, inst *tokens.Instr) {
	var tmpDst tokens.Dst
	var constval0, constval1 tokens.Src

	dst := ctx.getDst(inst)
	tmpSrc := ctx.getInternalTemp(&tmpDst)

	var a0, a1 *tokens.Src
	var cond ir.Cond

	switch t.srcOp {
	case tokens.OpSeq, tokens.OpSne:
		a0 = &inst.Src[1]
		a1 = &inst.Src[0]
		cond = ir.CondEQ
	case tokens.OpSge, tokens.OpSlt:
		a0 = &inst.Src[0]
		a1 = &inst.Src[1]
		cond = ir.CondGE
	case tokens.OpSle, tokens.OpSgt:
		a0 = &inst.Src[1]
		a1 = &inst.Src[0]
		cond = ir.CondGE
	case tokens.OpCmp:
		ctx.getImmediate(&constval0, fui(0))
		a0 = &inst.Src[0]
		a1 = &constval0
		cond = ir.CondGE
	default:
		ctx.errorf(ErrUnsupported, "bad cmp opcode %v", t.srcOp)
	}

	if isConst(a0) && isConst(a1) {
		a0 = ctx.getUnconst(a0)
	}

	// cmps.f.<cond> tmp, a0, a1
	instr := ctx.instrCreate(ir.Cat2, ir.OpCmpsF)
	instr.Cat2.Cond = cond
	ctx.vectorize(instr, &tmpDst, opReg(a0), opReg(a1))

	switch t.srcOp {
	case tokens.OpSeq, tokens.OpSge, tokens.OpSle:
		// cov.u16f16 dst, tmp
		instr = ctx.instrCreate(ir.Cat1, ir.OpNone)
		instr.Cat1.SrcType = ctx.utype()
		instr.Cat1.DstType = ctx.ftype()
		ctx.vectorize(instr, dst, opReg(tmpSrc))
	default:
		// add.s tmp, tmp, -1
		instr = ctx.instrCreate(ir.Cat2, ir.OpAddS)
		ctx.vectorize(instr, &tmpDst, opReg(tmpSrc), opImm(-1))

		selOp := ir.OpSelF32
		if ctx.prog.Half {
			selOp = ir.OpSelF16
		}

		if t.srcOp == tokens.OpCmp {
			// sel dst, src2, tmp, src1
			instr = ctx.instrCreate(ir.Cat3, selOp)
			ctx.vectorize(instr, dst,
				opReg(&inst.Src[2]), opReg(tmpSrc), opReg(&inst.Src[1]))
		} else {
			ctx.getImmediate(&constval0, fui(0))
			ctx.getImmediate(&constval1, fui(1))

			// sel dst, {0.0}, tmp, {1.0}
			instr = ctx.instrCreate(ir.Cat3, selOp)
			ctx.vectorize(instr, dst,
				opReg(&constval0), opReg(tmpSrc), opReg(&constval1))
		}
	}

	ctx.putDst(inst, dst)
}

// transSamp lowers texture fetches. The sample instruction needs the
// coordinate in successive components matching the sampled
// dimensionality, and projective 2D needs the divide component in .z, so
// shuffle moves into an internal temporary are emitted when the
// swizzle does not line up.
func transSamp(t *translater, ctx *compileContext, inst *tokens.Instr) {
	coord := &inst.Src[0]
	samp := &inst.Src[1]

	var order [4]int8
	var srcWrmask tokens.WriteMask
	var flags ir.InstrFlag

	switch t.arg {
	case tokens.OpTex:
		if inst.Tex == tokens.Tex2D {
			order = [4]int8{0, 1, -1, -1}
			srcWrmask = tokens.MaskXY
		} else {
			order = [4]int8{0, 1, 2, -1}
			srcWrmask = tokens.MaskXYZ
		}
	case tokens.OpTxp:
		if inst.Tex == tokens.Tex2D {
			order = [4]int8{0, 1, 3, -1}
			srcWrmask = tokens.MaskXYZ
		} else {
			order = [4]int8{0, 1, 2, 3}
			srcWrmask = tokens.MaskXYZW
		}

		flags |= ir.FlagProjective
	default:
		ctx.errorf(ErrUnsupported, "bad sample opcode %v", t.arg)
	}

	if inst.Tex == tokens.Tex3D || inst.Tex == tokens.TexCube {
		flags |= ir.Flag3D
	}

	// the sample instruction cannot take const or relative coords
	needsMov := isRelOrConst(coord)

	for i := 1; i < 4 && order[i] >= 0 && !needsMov; i++ {
		if int(coord.Swiz(i)) != int(coord.Swiz(0))+int(order[i]) {
			needsMov = true
		}
	}

	if needsMov {
		var tmpDst tokens.Dst
		tmpSrc := ctx.getInternalTemp(&tmpDst)

		typeMov := ctx.ftype()

		for j := 0; j < 4 && order[j] >= 0; j++ {
			instr := ctx.instrCreate(ir.Cat1, ir.OpNone)
			instr.Cat1.SrcType = typeMov
			instr.Cat1.DstType = typeMov
			ctx.addDstReg(instr, &tmpDst, j)
			ctx.addSrcReg(instr, coord, int(coord.Swiz(int(order[j]))))
		}

		coord = tmpSrc
	}

	instr := ctx.instrCreate(ir.Cat5, t.opc)
	instr.Cat5.Type = ctx.ftype()
	instr.Cat5.Samp = samp.Index
	instr.Cat5.Tex = samp.Index
	instr.Flags |= flags

	ctx.addDstRegWrmask(instr, &inst.Dst, 0, inst.Dst.Mask)
	ctx.addSrcRegWrmask(instr, coord, int(coord.Swiz(0)), srcWrmask)
}

package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowgfx/shade/compiler/front"
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

func compileSrc(t *testing.T, src string) *front.Program {
	t.Helper()

	sh, err := tokens.Assemble([]byte(src))
	require.NoError(t, err)

	info, err := tokens.Scan(sh)
	require.NoError(t, err)

	p, err := front.Compile(context.Background(), sh, info, false)
	require.NoError(t, err)

	return p
}

func TestFlatten(t *testing.T) {
	p := compileSrc(t, `vert
dcl IN[0]
IF IN[0].x
MOV TEMP[0].x, IN[0].y
ELSE
MOV TEMP[0].x, IN[0].z
ENDIF
MOV TEMP[1].x, TEMP[0].x
END
`)

	phi := p.Top.Temporaries[0]
	require.NotNil(t, phi)
	require.Equal(t, ir.OpMetaPhi, phi.Op)

	n, err := Default().Flatten(p.Top)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, in := range p.Top.Instrs {
		assert.NotEqual(t, ir.OpMetaFlow, in.Op)
		assert.Nil(t, in.Flow.IfBlock)
	}

	// the merge mutated in place, so its uses stayed valid
	assert.Equal(t, ir.Cat3, phi.Category)
	assert.Equal(t, ir.OpSelB32, phi.Op)
	require.Len(t, phi.Regs, 4)

	// the select tests the branch condition value itself
	cond := phi.Regs[2]
	require.NotNil(t, cond.Instr)
	assert.Equal(t, ir.OpAddS, cond.Instr.Op)
}

func TestFlattenSideEffect(t *testing.T) {
	p := compileSrc(t, `frag
dcl IN[0], color[0]
dcl OUT[0], color
IF IN[0].x
KILL
ENDIF
MOV OUT[0], IN[0]
END
`)

	_, err := Default().Flatten(p.Top)
	assert.ErrorIs(t, err, ErrFlatten)
}

func TestPropagateCopies(t *testing.T) {
	g := ir.New()
	b := g.NewBlock(nil, 0, 0, 0)

	producer := b.Instr(ir.Cat2, ir.OpAddF)
	producer.Reg(ir.RegID(1, 0), 0)
	producer.Reg(0, ir.FlagImmed).Fim = 1
	producer.Reg(0, ir.FlagImmed).Fim = 2

	mov := b.Instr(ir.Cat1, ir.OpNone)
	mov.Cat1.SrcType = ir.TypeF32
	mov.Cat1.DstType = ir.TypeF32
	mov.Reg(ir.RegID(2, 0), 0)
	mov.Reg(0, ir.FlagSSA).Instr = producer

	route := b.Instr(ir.CatMeta, ir.OpMetaOutput)
	route.Reg(0, 0)
	route.Reg(0, ir.FlagSSA).Instr = mov

	// negated copies and conversions produce a value of their own
	neg := b.Instr(ir.Cat1, ir.OpNone)
	neg.Cat1.SrcType = ir.TypeF32
	neg.Cat1.DstType = ir.TypeF32
	neg.Reg(ir.RegID(3, 0), 0)
	neg.Reg(0, ir.FlagSSA|ir.FlagNegate).Instr = producer

	cov := b.Instr(ir.Cat1, ir.OpNone)
	cov.Cat1.SrcType = ir.TypeF32
	cov.Cat1.DstType = ir.TypeS16
	cov.Reg(ir.RegID(4, 0), 0)
	cov.Reg(0, ir.FlagSSA).Instr = mov

	user := b.Instr(ir.Cat2, ir.OpMulF)
	user.Reg(ir.RegID(5, 0), 0)
	user.Reg(0, ir.FlagSSA).Instr = route
	user.Reg(0, ir.FlagSSA).Instr = neg

	// operand-less instructions pass through untouched
	b.Instr(ir.Cat0, ir.OpEnd)

	Default().PropagateCopies(b)

	assert.Same(t, producer, user.Regs[1].Instr)
	assert.Same(t, neg, user.Regs[2].Instr)
	assert.Same(t, producer, cov.Regs[1].Instr)
}

func TestSchedule(t *testing.T) {
	g := ir.New()
	b := g.NewBlock(nil, 0, 0, 1)

	live := b.Instr(ir.Cat2, ir.OpMulF)
	live.Reg(ir.RegID(1, 0), 0)
	live.Reg(0, ir.FlagImmed).Fim = 2
	live.Reg(0, ir.FlagImmed).Fim = 3

	dead := b.Instr(ir.Cat2, ir.OpAddF)
	dead.Reg(ir.RegID(2, 0), 0)
	dead.Reg(0, ir.FlagImmed).Fim = 1
	dead.Reg(0, ir.FlagImmed).Fim = 1

	mova := b.Instr(ir.Cat1, ir.OpNone)
	mova.Cat1.SrcType = ir.TypeS16
	mova.Cat1.DstType = ir.TypeS16
	mova.Reg(ir.RegA0, 0)
	mova.Reg(0, ir.FlagSSA).Instr = live

	out := b.Instr(ir.Cat1, ir.OpNone)
	out.Cat1.SrcType = ir.TypeF32
	out.Cat1.DstType = ir.TypeF32
	out.Reg(ir.RegID(3, 0), 0)
	out.Reg(0, ir.FlagSSA).Instr = live

	end := b.Instr(ir.Cat0, ir.OpEnd)

	b.Outputs[0] = out

	err := Default().Schedule(b)
	require.NoError(t, err)

	// dead dropped, creation order kept
	assert.Equal(t, []*ir.Instruction{live, mova, out, end}, b.Instrs)
}

func TestScheduleNested(t *testing.T) {
	g := ir.New()
	b := g.NewBlock(nil, 0, 0, 0)

	flow := b.Instr(ir.CatMeta, ir.OpMetaFlow)
	flow.Flow.IfBlock = g.NewBlock(b, 0, 0, 0)

	err := Default().Schedule(b)
	assert.ErrorIs(t, err, ErrSchedule)
}

func TestComputeDepth(t *testing.T) {
	g := ir.New()
	b := g.NewBlock(nil, 0, 0, 1)

	base := b.Instr(ir.Cat2, ir.OpAddF)
	base.Reg(ir.RegID(1, 0), 0)
	base.Reg(0, ir.FlagImmed).Fim = 1
	base.Reg(0, ir.FlagImmed).Fim = 2

	route := b.Instr(ir.CatMeta, ir.OpMetaOutput)
	route.Reg(0, 0)
	route.Reg(0, ir.FlagSSA).Instr = base

	top := b.Instr(ir.Cat2, ir.OpMulF)
	top.Reg(ir.RegID(2, 0), 0)
	top.Reg(0, ir.FlagSSA).Instr = route
	top.Reg(0, ir.FlagImmed).Fim = 2

	b.Outputs[0] = top

	Default().ComputeDepth(b)

	assert.Equal(t, 1, base.Depth)
	assert.Equal(t, 1, route.Depth)
	assert.Equal(t, 2, top.Depth)
}

func TestLayout(t *testing.T) {
	g := ir.New()
	b := g.NewBlock(nil, 0, 0, 0)

	in := b.Instr(ir.Cat2, ir.OpAddF)
	in.Reg(ir.RegID(63, 0), 0)
	in.Reg(0, ir.FlagImmed).Fim = 1
	in.Reg(0, ir.FlagImmed).Fim = 1

	mova := b.Instr(ir.Cat1, ir.OpNone)
	mova.Reg(ir.RegA0, 0)
	mova.Reg(0, ir.FlagSSA).Instr = in

	require.NoError(t, Default().Layout(b, tokens.KindVertex))

	over := b.Instr(ir.Cat2, ir.OpMulF)
	over.Reg(ir.RegID(maxRegisters, 0), 0)
	over.Reg(0, ir.FlagImmed).Fim = 1
	over.Reg(0, ir.FlagImmed).Fim = 1

	assert.ErrorIs(t, Default().Layout(b, tokens.KindVertex), ErrAllocation)
}

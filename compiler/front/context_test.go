package front

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/slowgfx/shade/compiler/tokens"
)

func emptyInfo() tokens.Info {
	var n tokens.Info

	for i := range n.FileMax {
		n.FileMax[i] = -1
	}

	return n
}

func newTestContext(t *testing.T, kind tokens.Kind, half bool) *compileContext {
	t.Helper()

	ctx, err := newContext(&tokens.Shader{Kind: kind}, emptyInfo(), half)
	require.NoError(t, err)

	return ctx
}

// expectAbort runs f, which must abort the compile with an error
// wrapping base.
func expectAbort(t *testing.T, base error, f func()) {
	t.Helper()

	defer func() {
		p := recover()
		require.NotNil(t, p, "expected the compile to abort")

		ce, ok := p.(compileError)
		require.True(t, ok, "unexpected panic: %v", p)

		assert.ErrorIs(t, ce.err, base)
	}()

	f()
}

func TestBaseRegLayout(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		info := emptyInfo()

		nconst := rapid.IntRange(0, 8).Draw(t, "nconst")
		nimm := rapid.IntRange(0, 8).Draw(t, "nimm")
		nin := rapid.IntRange(0, 8).Draw(t, "nin")
		nout := rapid.IntRange(0, 8).Draw(t, "nout")
		ntmp := rapid.IntRange(0, 8).Draw(t, "ntmp")

		info.FileMax[tokens.FileConstant] = nconst - 1
		info.FileMax[tokens.FileImmediate] = nimm - 1
		info.FileMax[tokens.FileInput] = nin - 1
		info.FileMax[tokens.FileOutput] = nout - 1
		info.FileMax[tokens.FileTemporary] = ntmp - 1

		kind := tokens.Kind(rapid.IntRange(0, 1).Draw(t, "kind"))
		half := rapid.Bool().Draw(t, "half")

		ctx, err := newContext(&tokens.Shader{Kind: kind}, info, half)
		require.NoError(t, err)

		// immediates directly follow the constants
		assert.Equal(t, 0, ctx.baseReg[tokens.FileConstant])
		assert.Equal(t, nconst, ctx.baseReg[tokens.FileImmediate])
		assert.Equal(t, nconst, ctx.prog.FirstImmediate)
		assert.Equal(t, 4*nimm, ctx.immediateIdx)

		// full precision fragment shaders keep r0 for the position
		reserve := 0
		if kind == tokens.KindFragment && !half {
			reserve = 1
		}

		assert.Equal(t, reserve, ctx.baseReg[tokens.FileInput])
		assert.Equal(t, reserve+nin, ctx.baseReg[tokens.FileOutput])
		assert.Equal(t, reserve+nin+nout, ctx.baseReg[tokens.FileTemporary])
	})
}

func TestIndirectRelocatedFile(t *testing.T) {
	info := emptyInfo()
	info.IndirectFiles = 1 << tokens.FileTemporary

	_, err := newContext(&tokens.Shader{Kind: tokens.KindVertex}, info, false)
	assert.ErrorIs(t, err, ErrUnsupported)

	// constants get repacked too
	info.IndirectFiles = 1 << tokens.FileConstant

	_, err = newContext(&tokens.Shader{Kind: tokens.KindVertex}, info, false)
	assert.ErrorIs(t, err, ErrUnsupported)

	info.IndirectFiles = 1 << tokens.FileSampler

	_, err = newContext(&tokens.Shader{Kind: tokens.KindVertex}, info, false)
	assert.NoError(t, err)
}

func TestImmediateDedup(t *testing.T) {
	ctx := newTestContext(t, tokens.KindVertex, false)

	var a, b, c, d tokens.Src

	ctx.getImmediate(&a, fui(0.5))
	ctx.getImmediate(&b, fui(-0.5))
	ctx.getImmediate(&c, fui(1))
	ctx.getImmediate(&d, fui(0.5))

	// -0.5 reuses the 0.5 slot with the negate flag
	assert.Equal(t, a.Index, b.Index)
	assert.Equal(t, a.Swizzle, b.Swizzle)
	assert.False(t, a.Negate)
	assert.True(t, b.Negate)

	assert.Equal(t, a, d)

	assert.Equal(t, tokens.SwizzleAll(tokens.SwizY), c.Swizzle)

	require.Len(t, ctx.prog.Immediates, 1)
	assert.Equal(t, [4]uint32{fui(0.5), fui(1), 0, 0}, ctx.prog.Immediates[0])
}

func TestImmediatePoolExhausted(t *testing.T) {
	ctx := newTestContext(t, tokens.KindVertex, false)

	var reg tokens.Src

	for i := 0; i < 4*maxImmediates; i++ {
		ctx.getImmediate(&reg, fui(float32(i+1)))
	}

	expectAbort(t, ErrExhausted, func() {
		ctx.getImmediate(&reg, fui(1e30))
	})
}

func TestInternalTemps(t *testing.T) {
	ctx := newTestContext(t, tokens.KindVertex, false)

	var dst tokens.Dst

	for i := 0; i < maxInternalTemps; i++ {
		src := ctx.getInternalTemp(&dst)

		assert.Equal(t, tokens.FileTemporary, dst.File)
		assert.Equal(t, i, dst.Index)
		assert.Equal(t, dst.Index, src.Index)
		assert.True(t, src.Identity())
	}

	expectAbort(t, ErrExhausted, func() {
		ctx.getInternalTemp(&dst)
	})
}

func TestInternalTempHR(t *testing.T) {
	// full precision claims hr0
	ctx := newTestContext(t, tokens.KindVertex, false)

	var dst tokens.Dst

	src := ctx.getInternalTempHR(&dst)
	assert.Equal(t, 0, dst.Index)
	assert.Equal(t, 0, src.Index)
	assert.Equal(t, 1, ctx.ninternalTemps)

	// reduced precision uses a regular internal temporary
	ctx = newTestContext(t, tokens.KindVertex, true)

	ctx.getInternalTempHR(&dst)
	assert.Equal(t, ctx.info.FileMax[tokens.FileTemporary]+1, dst.Index)
}

package compiler

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowgfx/shade/compiler/back"
	"github.com/slowgfx/shade/compiler/front"
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

func compileSrc(t *testing.T, src string, opts Options) *front.Program {
	t.Helper()

	sh, err := tokens.Assemble([]byte(src))
	require.NoError(t, err)

	p, err := Compile(context.Background(), sh, opts)
	require.NoError(t, err)

	return p
}

func TestCompileVertex(t *testing.T) {
	p := compileSrc(t, `vert
dcl IN[0]
dcl OUT[0], position
MOV OUT[0], IN[0]
END
`, Options{})

	assert.True(t, p.WritesPos)
	assert.Equal(t, 4, p.TotalIn)
	assert.Zero(t, p.Samplers)

	ins := []front.InOut{
		{Semantic: tokens.SemNone, SemIndex: 0, RegID: ir.RegID(0, 0), Compmask: 0xf, Inloc: 8},
	}
	outs := []front.InOut{
		{Semantic: tokens.SemPosition, SemIndex: 0, RegID: ir.RegID(1, 0)},
	}

	assert.Empty(t, cmp.Diff(ins, p.Inputs))
	assert.Empty(t, cmp.Diff(outs, p.Outputs))

	// four input nodes, four moves, end; the zero seeds are dead
	require.Len(t, p.Top.Instrs, 9)

	last := p.Top.Instrs[len(p.Top.Instrs)-1]
	assert.Equal(t, ir.OpEnd, last.Op)
}

func TestCompileFragment(t *testing.T) {
	p := compileSrc(t, `frag
dcl IN[0], color[0]
dcl OUT[0], color
MOV OUT[0], IN[0]
END
`, Options{})

	assert.False(t, p.WritesPos)

	// varyings are always fetched as full vectors
	assert.Equal(t, 4, p.TotalIn)

	ins := []front.InOut{
		{Semantic: tokens.SemColor, SemIndex: 0, RegID: ir.RegID(1, 0), Compmask: 0xf, Inloc: 8},
	}
	outs := []front.InOut{
		{Semantic: tokens.SemColor, SemIndex: 0, RegID: ir.RegID(2, 0)},
	}

	assert.Empty(t, cmp.Diff(ins, p.Inputs))
	assert.Empty(t, cmp.Diff(outs, p.Outputs))

	// the varying fetches survive scheduling
	fetches := 0
	for _, in := range p.Top.Instrs {
		if in.Op == ir.OpBaryF {
			fetches++
		}
	}

	assert.Equal(t, 4, fetches)
}

func TestCompileTexture(t *testing.T) {
	p := compileSrc(t, `frag
dcl IN[0], texcoord[0]
dcl OUT[0], color
dcl SAMP[0]
TEX TEMP[0], IN[0], SAMP[0], 2D
MOV OUT[0], TEMP[0]
END
`, Options{})

	assert.Equal(t, 1, p.Samplers)

	sams := 0
	for _, in := range p.Top.Instrs {
		if in.Op == ir.OpSam {
			sams++
		}
	}

	assert.Equal(t, 1, sams)
}

func TestCompileBranch(t *testing.T) {
	p := compileSrc(t, `vert
dcl IN[0]
dcl OUT[0], position
MOV OUT[0], IN[0]
IF IN[0].w
ADD OUT[0].x, IN[0], IN[0]
ENDIF
END
`, Options{})

	// control flow is gone, the merge became a select
	sels := 0
	for _, in := range p.Top.Instrs {
		require.NotEqual(t, ir.OpMetaFlow, in.Op)
		if in.Op == ir.OpSelB32 {
			sels++
		}
	}

	assert.Equal(t, 1, sels)
}

func TestCompileErrors(t *testing.T) {
	sh, err := tokens.Assemble([]byte(`frag
dcl IN[0], color[0]
dcl OUT[0], color
IF IN[0].x
KILL
ENDIF
MOV OUT[0], IN[0]
END
`))
	require.NoError(t, err)

	_, err = Compile(context.Background(), sh, Options{})
	assert.ErrorIs(t, err, back.ErrFlatten)

	sh, err = tokens.Assemble([]byte("vert\ndcl OUT[0], position\nMOV OUT[0], CONST[70]\nEND\n"))
	require.NoError(t, err)

	_, err = Compile(context.Background(), sh, Options{})
	assert.Error(t, err)
}

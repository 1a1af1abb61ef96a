package back

import (
	"github.com/slowgfx/shade/compiler/ir"
)

// ComputeDepth assigns every instruction reachable from the block
// outputs its dependency depth: the longest producer chain below it.
// Routing nodes are free, real instructions cost one.
func (p pipeline) ComputeDepth(b *ir.Block) {
	d := depther{depth: map[*ir.Instruction]int{}}

	for _, in := range roots(b) {
		d.instr(in)
	}
}

type depther struct {
	depth map[*ir.Instruction]int
}

func (d depther) instr(in *ir.Instruction) int {
	if v, ok := d.depth[in]; ok {
		return v
	}

	// cycle guard; a cycle would mean a broken graph
	d.depth[in] = 0

	v := 0

	in.SSASrcs(func(reg *ir.Register) {
		if reg.Instr == nil {
			return
		}

		if s := d.instr(reg.Instr); s > v {
			v = s
		}
	})

	if !in.IsMeta() {
		v++
	}

	d.depth[in] = v
	in.Depth = v

	return v
}

package front

import (
	"github.com/slowgfx/shade/compiler/tokens"
)

// Fixup reads the final register assignments back into the program
// descriptor. It runs after the back passes, once the graph's register
// numbers are settled.
func (p *Program) Fixup() {
	for i := range p.Outputs {
		io := &p.Outputs[i]

		io.RegID = p.Top.Outputs[i*4].Regs[0].Num

		// depth is written to .z but the hardware wants the scalar
		// register
		if p.Kind == tokens.KindFragment && io.Semantic == tokens.SemPosition {
			io.RegID += 2
		}
	}

	// some or all channels of an input may be unused
	actualIn := 0

	for i := range p.Inputs {
		io := &p.Inputs[i]

		regid := -1
		compmask := uint8(0)

		for j := 0; j < 4 && i*4+j < len(p.inSlots); j++ {
			in := p.inSlots[i*4+j]
			if in == nil {
				continue
			}

			compmask |= 1 << j
			regid = in.Regs[0].Num - j
			actualIn++
		}

		io.RegID = regid
		io.Compmask = compmask
	}

	// fragment shaders always fetch full vec4 varyings; vertex
	// attribute fetch counts must match the components actually read
	if p.Kind == tokens.KindVertex {
		p.TotalIn = actualIn
	}
}

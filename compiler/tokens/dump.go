package tokens

import (
	"fmt"
	"math"
)

var swizChars = [4]byte{'x', 'y', 'z', 'w'}

// Dump renders the token stream in the textual form Assemble accepts.
// It is used for diagnostics: fatal compile errors log the full source.
func Dump(sh *Shader) []byte {
	b := fmt.Appendf(nil, "%v\n", sh.Kind)

	for _, tok := range sh.Toks {
		switch tok := tok.(type) {
		case Decl:
			b = appendDecl(b, tok)
		case Imm:
			b = fmt.Appendf(b, "imm %v, %v, %v, %v\n",
				math.Float32frombits(tok.Val[0]), math.Float32frombits(tok.Val[1]),
				math.Float32frombits(tok.Val[2]), math.Float32frombits(tok.Val[3]))
		case Instr:
			b = appendInstr(b, tok)
		}
	}

	return b
}

func appendDecl(b []byte, d Decl) []byte {
	b = fmt.Appendf(b, "dcl %v[%d", d.File, d.First)
	if d.Last != d.First {
		b = fmt.Appendf(b, "..%d", d.Last)
	}
	b = append(b, ']')

	if d.Semantic != SemNone {
		b = fmt.Appendf(b, ", %v[%d]", d.Semantic, d.SemIndex)
	}

	return append(b, '\n')
}

func appendInstr(b []byte, in Instr) []byte {
	b = fmt.Appendf(b, "%v", in.Op)

	switch in.Sat {
	case SatZeroOne:
		b = append(b, "_SAT"...)
	case SatSignedOne:
		b = append(b, "_SSAT"...)
	}

	if in.Dst.File != FileNull {
		b = fmt.Appendf(b, " %v[%d]", in.Dst.File, in.Dst.Index)

		if in.Dst.Mask != MaskXYZW {
			b = append(b, '.')
			for i := 0; i < 4; i++ {
				if in.Dst.Mask&(1<<i) != 0 {
					b = append(b, swizChars[i])
				}
			}
		}
	}

	for i := range in.Src {
		if i == 0 && in.Dst.File == FileNull {
			b = append(b, ' ')
		} else {
			b = append(b, ", "...)
		}

		b = appendSrc(b, &in.Src[i])
	}

	if in.Tex != TexNone {
		b = fmt.Appendf(b, ", %v", in.Tex)
	}

	return append(b, '\n')
}

func appendSrc(b []byte, s *Src) []byte {
	if s.Negate {
		b = append(b, '-')
	}
	if s.Absolute {
		b = append(b, '|')
	}

	b = fmt.Appendf(b, "%v[%d]", s.File, s.Index)

	if !s.Identity() {
		b = append(b, '.')
		for i := 0; i < 4; i++ {
			b = append(b, swizChars[s.Swizzle[i]])
		}
	}

	if s.Absolute {
		b = append(b, '|')
	}

	return b
}

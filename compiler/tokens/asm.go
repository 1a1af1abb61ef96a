package tokens

import (
	"math"
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

// Assemble parses the textual shader form into a token stream.
//
// The format is line oriented: a "vert" or "frag" header, then "dcl",
// "imm" and instruction lines. "#" starts a comment. The result is not
// validated beyond syntax; run Scan on it before compiling.
func Assemble(src []byte) (*Shader, error) {
	sh := &Shader{}
	seenKind := false

	for ln, line := range strings.Split(string(src), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !seenKind {
			switch line {
			case "vert":
				sh.Kind = KindVertex
			case "frag":
				sh.Kind = KindFragment
			default:
				return nil, errors.Wrap(ErrParse, "line %d: expected shader kind, got %q", ln+1, line)
			}

			seenKind = true
			continue
		}

		tok, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrap(err, "line %d", ln+1)
		}

		sh.Toks = append(sh.Toks, tok)
	}

	if !seenKind {
		return nil, errors.Wrap(ErrParse, "empty source")
	}

	return sh, nil
}

func parseLine(line string) (Token, error) {
	head, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch head {
	case "dcl":
		return parseDecl(rest)
	case "imm":
		return parseImm(rest)
	}

	return parseInstr(head, rest)
}

func parseDecl(s string) (Token, error) {
	var d Decl

	regs, sem, hasSem := strings.Cut(s, ",")

	file, idx, err := splitRef(strings.TrimSpace(regs))
	if err != nil {
		return nil, err
	}

	d.File = file

	first, last, isRange := strings.Cut(idx, "..")

	d.First, err = strconv.Atoi(first)
	if err == nil && isRange {
		d.Last, err = strconv.Atoi(last)
	} else {
		d.Last = d.First
	}
	if err != nil {
		return nil, errors.Wrap(ErrParse, "decl range %q", idx)
	}

	if hasSem {
		name, idx, err := splitName(strings.TrimSpace(sem))
		if err != nil {
			return nil, err
		}

		d.Semantic = name
		d.SemIndex = idx
	}

	return d, nil
}

func parseImm(s string) (Token, error) {
	var im Imm

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.Wrap(ErrParse, "imm wants 4 components, got %d", len(parts))
	}

	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, errors.Wrap(ErrParse, "imm component %q", p)
		}

		im.Val[i] = math.Float32bits(float32(v))
	}

	return im, nil
}

func parseInstr(head, rest string) (Token, error) {
	var in Instr

	name := head

	if n, ok := strings.CutSuffix(name, "_SSAT"); ok {
		name, in.Sat = n, SatSignedOne
	} else if n, ok := strings.CutSuffix(name, "_SAT"); ok {
		name, in.Sat = n, SatZeroOne
	}

	op, ok := opByName(name)
	if !ok {
		return nil, errors.Wrap(ErrParse, "unknown opcode %q", head)
	}

	in.Op = op

	var args []string
	if rest != "" {
		args = strings.Split(rest, ",")
		for i := range args {
			args[i] = strings.TrimSpace(args[i])
		}
	}

	// trailing texture target
	if op == OpTex || op == OpTxp {
		if len(args) == 0 {
			return nil, errors.Wrap(ErrParse, "%v wants a texture target", op)
		}

		switch args[len(args)-1] {
		case "2D":
			in.Tex = Tex2D
		case "3D":
			in.Tex = Tex3D
		case "CUBE":
			in.Tex = TexCube
		default:
			return nil, errors.Wrap(ErrParse, "bad texture target %q", args[len(args)-1])
		}

		args = args[:len(args)-1]
	}

	if hasDst(op) {
		if len(args) == 0 {
			return nil, errors.Wrap(ErrParse, "%v wants a destination", op)
		}

		dst, err := parseDst(args[0])
		if err != nil {
			return nil, err
		}

		in.Dst = dst
		args = args[1:]
	}

	for _, a := range args {
		s, err := parseSrc(a)
		if err != nil {
			return nil, err
		}

		in.Src = append(in.Src, s)
	}

	return in, nil
}

func hasDst(op Opcode) bool {
	switch op {
	case OpIf, OpElse, OpEndif, OpEnd, OpKill:
		return false
	}

	return true
}

func parseDst(s string) (d Dst, err error) {
	ref, mask, hasMask := strings.Cut(s, ".")

	d.File, d.Index, err = splitIndex(ref)
	if err != nil {
		return d, err
	}

	d.Mask = MaskXYZW
	if hasMask {
		d.Mask = 0

		for i := 0; i < len(mask); i++ {
			c := swizByChar(mask[i])
			if c < 0 {
				return d, errors.Wrap(ErrParse, "bad write mask %q", mask)
			}

			d.Mask |= 1 << c
		}
	}

	return d, nil
}

func parseSrc(s string) (r Src, err error) {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		r.Negate = true
		s = rest
	}

	if rest, ok := strings.CutPrefix(s, "|"); ok {
		rest, ok = strings.CutSuffix(rest, "|")
		if !ok {
			// swizzle may follow the closing bar
			ref, swiz, hasSwiz := strings.Cut(rest, ".")
			if ref, ok = strings.CutSuffix(ref, "|"); !ok {
				return r, errors.Wrap(ErrParse, "unbalanced |..| in %q", s)
			}

			rest = ref
			if hasSwiz {
				rest += "." + swiz
			}
		}

		r.Absolute = true
		s = rest
	}

	ref, swiz, hasSwiz := strings.Cut(s, ".")

	r.File, r.Index, err = splitIndex(ref)
	if err != nil {
		return r, err
	}

	r.Swizzle = SwizzleNone()
	if hasSwiz {
		if len(swiz) == 0 || len(swiz) > 4 {
			return r, errors.Wrap(ErrParse, "bad swizzle %q", swiz)
		}

		last := SwizX

		for i := 0; i < 4; i++ {
			if i < len(swiz) {
				c := swizByChar(swiz[i])
				if c < 0 {
					return r, errors.Wrap(ErrParse, "bad swizzle %q", swiz)
				}

				last = Swizzle(c)
			}

			r.Swizzle[i] = last
		}
	}

	return r, nil
}

func splitRef(s string) (File, string, error) {
	name, rest, ok := strings.Cut(s, "[")
	if !ok {
		return FileNull, "", errors.Wrap(ErrParse, "register reference %q", s)
	}

	idx, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return FileNull, "", errors.Wrap(ErrParse, "register reference %q", s)
	}

	for f := FileConstant; f < FileCount; f++ {
		if name == fileNames[f] {
			return f, idx, nil
		}
	}

	return FileNull, "", errors.Wrap(ErrParse, "unknown register file %q", name)
}

func splitIndex(s string) (File, int, error) {
	f, idx, err := splitRef(s)
	if err != nil {
		return f, 0, err
	}

	n, err := strconv.Atoi(idx)
	if err != nil {
		return f, 0, errors.Wrap(ErrParse, "register index %q", idx)
	}

	return f, n, nil
}

func splitName(s string) (Semantic, int, error) {
	name, rest, hasIdx := strings.Cut(s, "[")

	idx := 0

	if hasIdx {
		num, ok := strings.CutSuffix(rest, "]")
		if !ok {
			return SemNone, 0, errors.Wrap(ErrParse, "semantic %q", s)
		}

		var err error
		idx, err = strconv.Atoi(num)
		if err != nil {
			return SemNone, 0, errors.Wrap(ErrParse, "semantic index %q", num)
		}
	}

	for i := range semNames {
		if name == semNames[i] {
			return Semantic(i), idx, nil
		}
	}

	return SemNone, 0, errors.Wrap(ErrParse, "unknown semantic %q", name)
}

func swizByChar(c byte) int {
	switch c {
	case 'x':
		return 0
	case 'y':
		return 1
	case 'z':
		return 2
	case 'w':
		return 3
	}

	return -1
}

func opByName(name string) (Opcode, bool) {
	for op := Opcode(0); op < OpCount; op++ {
		if opNames[op] == name {
			return op, true
		}
	}

	return 0, false
}

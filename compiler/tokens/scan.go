package tokens

import (
	"tlog.app/go/errors"
)

// ErrParse reports a malformed token stream, detected before any lowering.
var ErrParse = errors.New("malformed token stream")

// Info is the usage summary of a token stream.
type Info struct {
	// FileMax holds the maximum register index used per file, -1 if the
	// file is unused.
	FileMax [FileCount]int

	// IndirectFiles is a bitmask (by File) of files addressed indirectly.
	IndirectFiles uint32
}

// Indirect reports whether file f is used with indirect addressing.
func (n *Info) Indirect(f File) bool {
	return n.IndirectFiles&(1<<f) != 0
}

// Scan validates a token stream and computes its usage statistics.
//
// Declarations, immediates and operand references all contribute to the
// per-file maximum index. Returned errors wrap ErrParse.
func Scan(sh *Shader) (n Info, err error) {
	for i := range n.FileMax {
		n.FileMax[i] = -1
	}

	seen := func(f File, idx int) error {
		if f == FileNull || f >= FileCount {
			return errors.Wrap(ErrParse, "bad register file %d", f)
		}
		if idx < 0 {
			return errors.Wrap(ErrParse, "negative register index %v[%d]", f, idx)
		}

		if idx > n.FileMax[f] {
			n.FileMax[f] = idx
		}

		return nil
	}

	nimm := 0

	for i, tok := range sh.Toks {
		switch tok := tok.(type) {
		case Decl:
			if tok.Last < tok.First {
				return n, errors.Wrap(ErrParse, "token %d: decl range %v[%d..%d]", i, tok.File, tok.First, tok.Last)
			}

			err = seen(tok.File, tok.Last)
		case Imm:
			err = seen(FileImmediate, nimm)
			nimm++
		case Instr:
			err = scanInstr(&n, seen, i, tok)
		default:
			err = errors.Wrap(ErrParse, "token %d: unknown token %T", i, tok)
		}

		if err != nil {
			return n, errors.Wrap(err, "token %d", i)
		}
	}

	return n, nil
}

func scanInstr(n *Info, seen func(File, int) error, i int, tok Instr) error {
	if tok.Op >= OpCount {
		return errors.Wrap(ErrParse, "unknown opcode %d", tok.Op)
	}
	if len(tok.Src) != numSrc[tok.Op] {
		return errors.Wrap(ErrParse, "%v wants %d operands, got %d", tok.Op, numSrc[tok.Op], len(tok.Src))
	}

	if tok.Dst.File != FileNull {
		if err := seen(tok.Dst.File, tok.Dst.Index); err != nil {
			return err
		}
		if tok.Dst.Indirect {
			n.IndirectFiles |= 1 << tok.Dst.File
		}
	}

	for j := range tok.Src {
		s := &tok.Src[j]

		if err := seen(s.File, s.Index); err != nil {
			return errors.Wrap(err, "operand %d", j)
		}
		if s.Indirect {
			n.IndirectFiles |= 1 << s.File
		}
	}

	return nil
}

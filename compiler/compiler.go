package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler/back"
	"github.com/slowgfx/shade/compiler/front"
	"github.com/slowgfx/shade/compiler/tokens"
)

type (
	// Options select how a shader is compiled.
	Options struct {
		// Half compiles the whole shader in reduced precision.
		Half bool

		// Pipeline overrides the downstream pass sequence.
		// back.Default is used when nil.
		Pipeline back.Pipeline
	}
)

// CompileFile reads and compiles a shader in assembly form.
func CompileFile(ctx context.Context, name string, opts Options) (p *front.Program, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	sh, err := tokens.Assemble(text)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}

	return Compile(ctx, sh, opts)
}

// Compile lowers the shader into its final instruction list and
// register layout.
func Compile(ctx context.Context, sh *tokens.Shader, opts Options) (p *front.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "kind", sh.Kind)
	defer tr.Finish("err", &err)

	info, err := tokens.Scan(sh)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}

	p, err = front.Compile(ctx, sh, info, opts.Half)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	pl := opts.Pipeline
	if pl == nil {
		pl = back.Default()
	}

	_, err = pl.Flatten(p.Top)
	if err != nil {
		return nil, errors.Wrap(err, "flatten")
	}

	pl.PropagateCopies(p.Top)
	pl.ComputeDepth(p.Top)

	err = pl.Schedule(p.Top)
	if err != nil {
		return nil, errors.Wrap(err, "schedule")
	}

	err = pl.Layout(p.Top, sh.Kind)
	if err != nil {
		return nil, errors.Wrap(err, "layout")
	}

	p.Fixup()

	return p, nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowgfx/shade/compiler"
	"github.com/slowgfx/shade/compiler/ir"
	"github.com/slowgfx/shade/compiler/tokens"
)

func main() {
	compileCmd := &cli.Command{
		Name:   "compile",
		Action: compileAct,
		Args:   cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("half", false, "compile in reduced precision"),
		},
	}

	dumpCmd := &cli.Command{
		Name:   "dump",
		Action: dumpAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "shade",
		Description: "shade is a tool for compiling shader assembly",
		Commands: []*cli.Command{
			compileCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts := compiler.Options{
		Half: c.Bool("half"),
	}

	for _, a := range c.Args {
		p, err := compiler.CompileFile(ctx, a, opts)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		fmt.Printf("%s", ir.Dump(p.Top))

		for _, io := range p.Inputs {
			fmt.Printf("in  %v[%d]: r%d.%c mask %#x inloc %d\n",
				io.Semantic, io.SemIndex, io.RegID>>2, "xyzw"[io.RegID&3], io.Compmask, io.Inloc)
		}
		for _, io := range p.Outputs {
			fmt.Printf("out %v[%d]: r%d.%c\n",
				io.Semantic, io.SemIndex, io.RegID>>2, "xyzw"[io.RegID&3])
		}
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		sh, err := tokens.Assemble(text)
		if err != nil {
			return errors.Wrap(err, "assemble %v", a)
		}

		fmt.Printf("%s", tokens.Dump(sh))
	}

	return nil
}

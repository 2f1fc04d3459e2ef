package dustcmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/solaeus/dust/internal/compiler"
	"github.com/solaeus/dust/internal/dustconfig"
	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
	"github.com/solaeus/dust/internal/resolver"
	"github.com/solaeus/dust/internal/trace"
	"github.com/solaeus/dust/internal/vm"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := readFile(args[0])
	if err != nil {
		return err
	}
	toks, lexErrs := lexer.Tokenize(src)
	if lexErrs.HasErrors() {
		return lexErrs
	}
	astProg, parseErrs := parser.Parse(toks)
	if parseErrs.HasErrors() {
		return parseErrs
	}
	res, resErrs := resolver.Resolve(astProg)
	if resErrs.HasErrors() {
		return resErrs
	}
	prog, compileErrs := compiler.Compile(astProg, res)
	if compileErrs.HasErrors() {
		return compileErrs
	}

	cfg := dustconfig.Default()
	cfg.ProgramName = args[0]
	machine := vm.New(prog, cfg, trace.New(false))
	machine.SetStdio(stdio.Stdin, stdio.Stdout)
	v, runErr := machine.Run()
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(stdio.Stdout, v)
	return nil
}

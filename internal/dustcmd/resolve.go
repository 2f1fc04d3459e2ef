package dustcmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
	"github.com/solaeus/dust/internal/resolver"
)

func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := readFile(args[0])
	if err != nil {
		return err
	}
	toks, lexErrs := lexer.Tokenize(src)
	if lexErrs.HasErrors() {
		return lexErrs
	}
	prog, parseErrs := parser.Parse(toks)
	if parseErrs.HasErrors() {
		return parseErrs
	}
	res, resErrs := resolver.Resolve(prog)
	for name, sig := range res.Functions {
		fmt.Fprintf(stdio.Stdout, "fn %s: %d param(s) -> %s\n", name, len(sig.Params), sig.Return)
	}
	fmt.Fprintf(stdio.Stdout, "declarations: %d\n", len(res.Declarations))
	return resErrs.AsError()
}

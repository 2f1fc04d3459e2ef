package dustcmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := readFile(args[0])
	if err != nil {
		return err
	}
	toks, lexErrs := lexer.Tokenize(src)
	if lexErrs.HasErrors() {
		return lexErrs
	}
	prog, parseErrs := parser.Parse(toks)
	for _, item := range prog.Items {
		fmt.Fprintf(stdio.Stdout, "%T @%s\n", item, item.Span())
	}
	return parseErrs.AsError()
}

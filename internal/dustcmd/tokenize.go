package dustcmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/solaeus/dust/internal/lexer"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := readFile(args[0])
	if err != nil {
		return err
	}
	toks, errs := lexer.Tokenize(src)
	for _, tok := range toks {
		fmt.Fprintln(stdio.Stdout, tok)
	}
	return errs.AsError()
}

package dustcmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/solaeus/dust/internal/compiler"
	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
	"github.com/solaeus/dust/internal/resolver"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
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
	for _, proto := range prog.Prototypes {
		if c.Dis {
			fmt.Fprint(stdio.Stdout, proto.Disassemble())
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%s: %d instructions, %d registers\n", proto.Name, len(proto.Instructions), proto.RegisterCount)
	}
	return nil
}

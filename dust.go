// Package dust is the host entry point of spec §6: it strings the
// lexer, parser, resolver, compiler, and VM together behind three
// functions (Compile, Run, RunProgram) so an embedder never has to touch an internal package
// directly.
package dust

import (
	"github.com/solaeus/dust/internal/compiler"
	"github.com/solaeus/dust/internal/dustconfig"
	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/resolver"
	"github.com/solaeus/dust/internal/trace"
	"github.com/solaeus/dust/internal/value"
	"github.com/solaeus/dust/internal/vm"
)

// Config re-exports dustconfig.Config, the only knobs spec §6 recognizes
// at the host boundary.
type Config = dustconfig.Config

// DefaultConfig returns release-profile settings.
func DefaultConfig() Config { return dustconfig.Default() }

// Compile runs source through lex/parse/resolve/compile and returns the
// resulting Program, or the first stage's errors. Each stage's errors
// are returned as soon as that stage fails, since a later stage cannot
// run meaningfully over a broken tree (spec §7: "a failed stage stops
// the pipeline").
func Compile(source []byte) (*program.Program, error) {
	toks, lexErrs := lexer.Tokenize(source)
	if lexErrs.HasErrors() {
		return nil, lexErrs
	}
	astProg, parseErrs := parser.Parse(toks)
	if parseErrs.HasErrors() {
		return nil, parseErrs
	}
	res, resErrs := resolver.Resolve(astProg)
	if resErrs.HasErrors() {
		return nil, resErrs
	}
	prog, compileErrs := compiler.Compile(astProg, res)
	if compileErrs.HasErrors() {
		return nil, compileErrs
	}
	return prog, nil
}

// Run compiles and executes source's implicit or explicit main function,
// returning its value.
func Run(source []byte, cfg Config) (*value.Value, error) {
	prog, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return RunProgram(prog, cfg)
}

// RunProgram executes an already-compiled Program's main (prototype 0).
func RunProgram(prog *program.Program, cfg Config) (*value.Value, error) {
	machine := vm.New(prog, cfg, trace.New(cfg.Verbose))
	v, err := machine.Run()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

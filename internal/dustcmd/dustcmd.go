// Package dustcmd is the CLI collaborator SPEC_FULL.md carves out as
// the one piece of the out-of-scope "command-line driver" that still
// needs to exist: a thin driver that runs the internal lexer, parser,
// resolver, compiler, and VM packages phase by phase, following the teacher pack's mna/mainer reflection-dispatch
// pattern rather than hand-rolled flag parsing.
package dustcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "dust"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <file>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <file>
       %[1]s -h|--help
       %[1]s -v|--version

A phase-by-phase driver for the Dust language toolchain.

The <command> can be one of:
       tokenize                  Run the lexer and print the resulting tokens.
       parse                     Run the parser and print each top-level item.
       resolve                   Run the resolver and print resolved types.
       compile                   Run the compiler and print each prototype's
                                 register count (add --dis to disassemble).
       run                       Compile and execute, printing the final value.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --dis                     Disassemble compiled prototypes (compile only).

More information on the Dust language:
       https://github.com/solaeus/dust
`, binName)
)

// Cmd is the CLI's entire state: mainer populates the flag fields by
// reflection, then Main dispatches to whichever exported method matches
// the first positional argument.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Dis     bool `flag:"dis"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}
	cmdName := c.args[0]
	cmds := buildCmds(c)
	c.cmdFn = cmds[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: a source file must be provided", cmdName)
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds mirrors the teacher pack's reflection dispatch: any exported
// method shaped like a phase handler becomes a subcommand named after
// itself, lowercased.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)
	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

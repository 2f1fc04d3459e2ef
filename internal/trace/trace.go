// Package trace is the ambient diagnostic logger: a thin wrapper over
// fmt.Fprintf gated by a single Verbose switch, matching the
// teacher's own habit of ad hoc fmt.Fprintf-to-stderr diagnostics rather
// than pulling in a logging dependency nothing else in the pack imports.
package trace

import (
	"fmt"
	"io"
	"os"
)

// Logger writes verbose diagnostics when enabled, and is silent
// otherwise. The zero value is a valid, silent Logger.
type Logger struct {
	Verbose bool
	Out     io.Writer
}

// New returns a Logger writing to stderr when verbose is true.
func New(verbose bool) *Logger {
	return &Logger{Verbose: verbose, Out: os.Stderr}
}

func (l *Logger) out() io.Writer {
	if l == nil || l.Out == nil {
		return os.Stderr
	}
	return l.Out
}

func (l *Logger) Printf(format string, args ...interface{}) {
	if l == nil || !l.Verbose {
		return
	}
	fmt.Fprintf(l.out(), format+"\n", args...)
}

func (l *Logger) GCCycle(collections, freedObjects, freedBytes int) {
	l.Printf("gc: cycle=%d freed_objects=%d freed_bytes=%d", collections, freedObjects, freedBytes)
}

func (l *Logger) TaskSpawned(taskID int) {
	l.Printf("task: spawned id=%d", taskID)
}

func (l *Logger) TaskExited(taskID int, err error) {
	if err != nil {
		l.Printf("task: exited id=%d error=%v", taskID, err)
		return
	}
	l.Printf("task: exited id=%d", taskID)
}

func (l *Logger) CompilePass(name string, prototypes int) {
	l.Printf("compile: %s prototypes=%d", name, prototypes)
}

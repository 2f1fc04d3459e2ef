package compiler

import (
	"github.com/solaeus/dust/internal/ast"
)

// compileBlockInto compiles every statement of a block and writes the
// block's value (or `none`, if the block ends in a statement rather than
// a bare expression) into dest. Locals declared inside the block are
// released when it closes (spec §4.4's block-scoped register rewind).
func (c *compiler) compileBlockInto(b *ast.Block, dest int) {
	mark := c.alloc.Mark()
	wroteValue := false
	for i, stmt := range b.Stmts {
		if i == len(b.Stmts)-1 {
			if es, ok := stmt.(*ast.ExprStmt); ok && !es.HasSemicolon {
				c.compileInto(es.Value, dest)
				wroteValue = true
				break
			}
		}
		c.compileStmt(stmt)
	}
	if !wroteValue {
		c.loadNoneInto(dest)
	}
	c.alloc.Rewind(mark)
}

func (c *compiler) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		id := c.res.Decls[s]
		reg := c.alloc.Alloc()
		c.locals[id] = reg
		c.current.Locals = append(c.current.Locals, c.localEntry(id, s.Name, reg))
		c.compileInto(s.Value, reg)
	case *ast.ExprStmt:
		// A mid-block or semicolon-terminated expression: its value is
		// discarded, but side effects (calls, assignments) still run.
		tmp := c.alloc.Alloc()
		c.compileInto(s.Value, tmp)
		c.alloc.Rewind(tmp)
	case *ast.ErrorStmt:
		// A parse-error placeholder; nothing to lower.
	}
}

// Package resolver implements spec §4.3: it assigns type-ids and
// declaration-ids to syntax tree nodes, resolves names to bindings using
// block scoping, and enforces the type rules of the language.
package resolver

import (
	"github.com/solaeus/dust/internal/ast"
	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/token"
)

// Result is the output of a resolve pass: every expression node's static
// type and every binder/use's declaration, keyed by the node pointer
// itself (ast nodes are always pointers, so this is a legitimate map key
// without needing an explicit ID field on every node).
type Result struct {
	Types        map[ast.Node]Type
	Decls        map[ast.Node]DeclarationID
	Declarations []Declaration
	Functions    map[string]*FunctionSignature
	// ParamDecls maps a function name to its parameters' DeclarationIDs,
	// in declaration order, so the compiler can seed each parameter's
	// register from a stable binding rather than re-deriving it.
	ParamDecls map[string][]DeclarationID
}

// FunctionSignature is what the resolver records for each top-level
// function item so call sites can check arity and argument types.
type FunctionSignature struct {
	Name   string
	Params []Type
	Return Type
}

func (r *Result) TypeOf(n ast.Node) Type {
	if t, ok := r.Types[n]; ok {
		return t
	}
	return Type{Kind: KError}
}

type resolver struct {
	result *Result
	scopes *scopeStack
	errs   derrors.List
}

// Resolve runs name and type resolution over a parsed program.
func Resolve(prog *ast.Program) (*Result, *derrors.List) {
	r := &resolver{
		result: &Result{
			Types:      make(map[ast.Node]Type),
			Decls:      make(map[ast.Node]DeclarationID),
			Functions:  make(map[string]*FunctionSignature),
			ParamDecls: make(map[string][]DeclarationID),
		},
		scopes: newScopeStack(),
	}

	r.registerNativeSignatures()

	// First pass: register every function item's signature so forward
	// calls and recursion resolve regardless of declaration order.
	for _, item := range prog.Items {
		if fn, ok := item.(*ast.FunctionItem); ok {
			r.registerSignature(fn)
		}
	}

	for _, item := range prog.Items {
		r.resolveItem(item)
	}

	return r.result, &r.errs
}

func (r *resolver) paramType(p ast.Param) Type {
	return r.typeFromName(p.TypeName)
}

func (r *resolver) typeFromName(name string) Type {
	switch name {
	case "", "none":
		return Primitive(KNone)
	case "bool":
		return Primitive(KBool)
	case "byte":
		return Primitive(KByte)
	case "char":
		return Primitive(KCharacter)
	case "int":
		return Primitive(KInteger)
	case "float":
		return Primitive(KFloat)
	case "string":
		return Primitive(KString)
	default:
		// An unknown name is treated as a nominal struct/enum; actual
		// existence is checked lazily the first time it's used as a
		// constructor, which the core VM does not implement (§9).
		return Type{Kind: KStruct, Name: name}
	}
}

// registerNativeSignatures seeds the fixed native table's call signatures
// (spec §4.7) so call sites like `_write_line("hi")` type-check the same
// way a call to a user-defined function does. Kept in sync by hand with
// program.NativeFunctionNames/NativeFunctionArity rather than imported
// from the program package, which itself imports resolver for Prototype's
// Scope/DeclarationID fields — importing it back here would cycle.
func (r *resolver) registerNativeSignatures() {
	none := Primitive(KNone)
	r.result.Functions["_no_op"] = &FunctionSignature{Name: "_no_op", Params: nil, Return: none}
	r.result.Functions["_to_string"] = &FunctionSignature{Name: "_to_string", Params: []Type{Primitive(KAny)}, Return: Primitive(KString)}
	r.result.Functions["_read_line"] = &FunctionSignature{Name: "_read_line", Params: nil, Return: Primitive(KString)}
	r.result.Functions["_write_line"] = &FunctionSignature{Name: "_write_line", Params: []Type{Primitive(KString)}, Return: none}
	r.result.Functions["_spawn"] = &FunctionSignature{Name: "_spawn", Params: []Type{FuncType(nil, none)}, Return: none}
	r.result.Functions["_list_length"] = &FunctionSignature{Name: "_list_length", Params: []Type{Primitive(KAny)}, Return: Primitive(KInteger)}
}

func (r *resolver) registerSignature(fn *ast.FunctionItem) {
	params := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = r.paramType(p)
	}
	sig := &FunctionSignature{Name: fn.Name, Params: params, Return: r.typeFromName(fn.ReturnType)}
	r.result.Functions[fn.Name] = sig
}

func (r *resolver) resolveItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.MainFunction:
		r.resolveBlock(it.Body)
	case *ast.FunctionItem:
		scope := r.scopes.push()
		ids := make([]DeclarationID, len(it.Params))
		for i, p := range it.Params {
			ids[i] = r.declare(p.Name, r.paramType(p), false, scope)
		}
		r.result.ParamDecls[it.Name] = ids
		r.resolveBlockBody(it.Body)
		r.scopes.pop()
	case *ast.StructDefinition, *ast.EnumDefinition, *ast.UseItem:
		// Declarations only, per §9's explicit Open Question: no
		// instantiation/destructuring semantics at this layer.
	case *ast.ModuleItem:
		for _, sub := range it.Items {
			r.resolveItem(sub)
		}
	case *ast.ErrorItem:
		// already reported during parsing
	}
}

func (r *resolver) declare(name string, t Type, mutable bool, scope BlockScope) DeclarationID {
	id := DeclarationID(len(r.result.Declarations))
	r.result.Declarations = append(r.result.Declarations, Declaration{ID: id, Name: name, Type: t, Mutable: mutable, Scope: scope})
	r.scopes.declare(name, id)
	return id
}

// resolveBlock pushes a new scope; resolveBlockBody resolves statements
// in the scope already on top (used for function bodies sharing the
// parameter scope, matching how the compiler below keeps parameters and
// the top level of the body in one register window).
func (r *resolver) resolveBlock(b *ast.Block) Type {
	r.scopes.push()
	t := r.resolveBlockBody(b)
	r.scopes.pop()
	return t
}

func (r *resolver) resolveBlockBody(b *ast.Block) Type {
	result := Primitive(KNone)
	for i, stmt := range b.Stmts {
		t := r.resolveStmt(stmt)
		if i == len(b.Stmts)-1 {
			if es, ok := stmt.(*ast.ExprStmt); ok && !es.HasSemicolon {
				result = t
			}
		}
	}
	r.result.Types[b] = result
	return result
}

func (r *resolver) resolveStmt(stmt ast.Stmt) Type {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		valType := r.resolveExpr(s.Value)
		declared := valType
		if s.TypeName != "" {
			declared = r.typeFromName(s.TypeName)
			if !valType.IsSubtype(declared) {
				r.errs.Add(derrors.New(derrors.ResolveError, s.Span().Start,
					"cannot assign %s to a binding of type %s", valType, declared).
					WithExpectedAt(s.Value.Span().Start))
			}
		}
		id := r.declare(s.Name, declared, s.Mut, r.scopes.current())
		r.result.Decls[s] = id
		return Primitive(KNone)
	case *ast.ExprStmt:
		t := r.resolveExpr(s.Value)
		if s.HasSemicolon {
			return Primitive(KNone)
		}
		return t
	case *ast.ErrorStmt:
		return Primitive(KError)
	}
	return Primitive(KNone)
}

func (r *resolver) resolveExpr(expr ast.Expr) Type {
	var t Type
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		t = Primitive(KInteger)
	case *ast.FloatLiteral:
		t = Primitive(KFloat)
	case *ast.ByteLiteral:
		t = Primitive(KByte)
	case *ast.CharacterLiteral:
		t = Primitive(KCharacter)
	case *ast.StringLiteral:
		t = Primitive(KString)
	case *ast.BooleanLiteral:
		t = Primitive(KBool)
	case *ast.Identifier:
		t = r.resolveIdentifier(e)
	case *ast.UnaryExpr:
		t = r.resolveUnary(e)
	case *ast.BinaryExpr:
		t = r.resolveBinary(e)
	case *ast.LogicalExpr:
		t = r.resolveLogical(e)
	case *ast.AssignExpr:
		t = r.resolveAssign(e)
	case *ast.CallExpr:
		t = r.resolveCall(e)
	case *ast.IndexExpr:
		t = r.resolveIndex(e)
	case *ast.IfExpr:
		t = r.resolveIf(e)
	case *ast.WhileExpr:
		r.resolveExpr(e.Cond)
		r.resolveBlock(e.Body)
		t = Primitive(KNone)
	case *ast.ForExpr:
		t = r.resolveFor(e)
	case *ast.ListExpr:
		t = r.resolveList(e)
	case *ast.Block:
		t = r.resolveBlock(e)
	case *ast.ErrorExpr:
		t = Primitive(KError)
	default:
		t = Primitive(KError)
	}
	r.result.Types[expr] = t
	return t
}

func (r *resolver) resolveIdentifier(e *ast.Identifier) Type {
	name := e.Path[0]
	if id, ok := r.scopes.lookup(name); ok {
		r.result.Decls[e] = id
		t := r.result.Declarations[id].Type
		if len(e.Path) > 1 {
			// Field/path access beyond the first segment is resolved
			// structurally only as far as §9 requires (no destructuring);
			// the type carried forward is the base declaration's type.
			return t
		}
		return t
	}
	if sig, ok := r.result.Functions[name]; ok {
		return FuncType(sig.Params, sig.Return)
	}
	r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "variable %q not found", name))
	return Primitive(KError)
}

func (r *resolver) resolveUnary(e *ast.UnaryExpr) Type {
	operand := r.resolveExpr(e.Operand)
	switch e.Operator {
	case token.Minus:
		if !IsNumeric(operand) {
			r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "cannot negate a %s", operand))
			return Primitive(KError)
		}
		return operand
	case token.Bang:
		if operand.Kind != KBool {
			r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "! requires a boolean operand, found %s", operand))
			return Primitive(KError)
		}
		return Primitive(KBool)
	}
	return Primitive(KError)
}

func (r *resolver) resolveBinary(e *ast.BinaryExpr) Type {
	left := r.resolveExpr(e.Left)
	right := r.resolveExpr(e.Right)
	switch e.Operator {
	case token.Plus:
		return r.resolvePlus(e, left, right)
	case token.Minus, token.Star, token.Slash, token.Percent:
		if !IsNumeric(left) || !left.Equal(right) {
			r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start,
				"arithmetic operands must be the same numeric type, found %s and %s", left, right).
				WithExpectedAt(e.Left.Span().Start))
			return Primitive(KError)
		}
		return left
	case token.Eq, token.NotEq, token.Less, token.LessEq, token.Greater, token.GreaterEq:
		if !left.Equal(right) {
			r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start,
				"comparison operands must match, found %s and %s", left, right).
				WithExpectedAt(e.Left.Span().Start))
		}
		return Primitive(KBool)
	}
	return Primitive(KError)
}

// resolvePlus implements §4.3's extra `+` rules: numeric+numeric,
// string+string, character+character→string, and the mixed
// string/character combinations, both directions.
func (r *resolver) resolvePlus(e *ast.BinaryExpr, left, right Type) Type {
	if IsNumeric(left) && left.Equal(right) {
		return left
	}
	if left.Kind == KString && right.Kind == KString {
		return Primitive(KString)
	}
	if left.Kind == KCharacter && right.Kind == KCharacter {
		return Primitive(KString)
	}
	if (left.Kind == KString && right.Kind == KCharacter) || (left.Kind == KCharacter && right.Kind == KString) {
		return Primitive(KString)
	}
	r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start,
		"+ does not support %s and %s", left, right).WithExpectedAt(e.Left.Span().Start))
	return Primitive(KError)
}

func (r *resolver) resolveLogical(e *ast.LogicalExpr) Type {
	left := r.resolveExpr(e.Left)
	right := r.resolveExpr(e.Right)
	if left.Kind != KBool || right.Kind != KBool {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "&&/|| require boolean operands, found %s and %s", left, right))
		return Primitive(KError)
	}
	return Primitive(KBool)
}

func (r *resolver) resolveAssign(e *ast.AssignExpr) Type {
	valType := r.resolveExpr(e.Value)
	var targetType Type
	switch tgt := e.Target.(type) {
	case *ast.Identifier:
		if id, ok := r.scopes.lookup(tgt.Path[0]); ok {
			decl := r.result.Declarations[id]
			if !decl.Mutable {
				r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "cannot assign to immutable binding %q", decl.Name))
			}
			r.result.Decls[tgt] = id
			targetType = decl.Type
		} else {
			r.errs.Add(derrors.New(derrors.ResolveError, tgt.Span().Start, "variable %q not found", tgt.Path[0]))
			targetType = Primitive(KError)
		}
	case *ast.IndexExpr:
		targetType = r.resolveExpr(tgt)
	default:
		r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "invalid assignment target"))
		targetType = Primitive(KError)
	}
	if e.Operator != token.Assign && !IsNumeric(targetType) && targetType.Kind != KString {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "compound assignment requires a numeric or string target"))
	}
	if !valType.IsSubtype(targetType) && targetType.Kind != KError {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "cannot assign %s to %s", valType, targetType))
	}
	return Primitive(KNone)
}

func (r *resolver) resolveCall(e *ast.CallExpr) Type {
	args := make([]Type, len(e.Args))
	for i, a := range e.Args {
		args[i] = r.resolveExpr(a)
	}
	ident, ok := e.Callee.(*ast.Identifier)
	if !ok {
		r.resolveExpr(e.Callee)
		return Primitive(KError)
	}
	sig, ok := r.result.Functions[ident.Path[0]]
	if !ok {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "function %q not found", ident.Path[0]))
		return Primitive(KError)
	}
	r.result.Types[ident] = FuncType(sig.Params, sig.Return)
	if len(args) != len(sig.Params) {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "%s expects %d argument(s), found %d", ident.Path[0], len(sig.Params), len(args)))
		return sig.Return
	}
	for i, want := range sig.Params {
		if !args[i].IsSubtype(want) {
			r.errs.Add(derrors.New(derrors.ResolveError, e.Args[i].Span().Start, "argument %d: expected %s, found %s", i, want, args[i]))
		}
	}
	return sig.Return
}

func (r *resolver) resolveIndex(e *ast.IndexExpr) Type {
	objType := r.resolveExpr(e.Object)
	idxType := r.resolveExpr(e.Index)
	if idxType.Kind != KInteger {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Index.Span().Start, "list index must be an integer, found %s", idxType))
	}
	if objType.Kind != KList {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Object.Span().Start, "cannot index a %s", objType))
		return Primitive(KError)
	}
	return *objType.Elem
}

func (r *resolver) resolveIf(e *ast.IfExpr) Type {
	cond := r.resolveExpr(e.Cond)
	if cond.Kind != KBool {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Cond.Span().Start, "if condition must be a boolean, found %s", cond))
	}
	thenType := r.resolveBlock(e.Then)
	if e.Else == nil {
		return Primitive(KNone)
	}
	var elseType Type
	switch els := e.Else.(type) {
	case *ast.Block:
		elseType = r.resolveBlock(els)
	case *ast.IfExpr:
		elseType = r.resolveIf(els)
	}
	if thenType.IsSubtype(elseType) {
		if thenType.Kind == KNone {
			return elseType
		}
		return thenType
	}
	if elseType.IsSubtype(thenType) {
		return thenType
	}
	r.errs.Add(derrors.New(derrors.ResolveError, e.Span().Start, "if branches have incompatible types %s and %s", thenType, elseType))
	return Primitive(KError)
}

func (r *resolver) resolveFor(e *ast.ForExpr) Type {
	iterType := r.resolveExpr(e.Iter)
	elem := Primitive(KError)
	if iterType.Kind == KList {
		elem = *iterType.Elem
	} else {
		r.errs.Add(derrors.New(derrors.ResolveError, e.Iter.Span().Start, "for-in requires a list, found %s", iterType))
	}
	scope := r.scopes.push()
	id := r.declare(e.Binder, elem, false, scope)
	r.result.Decls[e] = id
	r.resolveBlockBody(e.Body)
	r.scopes.pop()
	return Primitive(KNone)
}

func (r *resolver) resolveList(e *ast.ListExpr) Type {
	if len(e.Elements) == 0 {
		return ListOf(Primitive(KNone))
	}
	first := r.resolveExpr(e.Elements[0])
	for _, el := range e.Elements[1:] {
		t := r.resolveExpr(el)
		if !t.Equal(first) {
			r.errs.Add(derrors.New(derrors.ResolveError, el.Span().Start, "list elements must share a type: expected %s, found %s", first, t))
		}
	}
	return ListOf(first)
}

// Package ast defines the syntax tree produced by the parser (spec §4.2).
// Every node carries a Span so the tree is lossless over its own text
// range: printing every node's Span in order reconstructs the source.
package ast

import "github.com/solaeus/dust/internal/token"

// Node is implemented by every syntax tree element.
type Node interface {
	Span() token.Span
}

type base struct{ span token.Span }

func (b base) Span() token.Span { return b.span }

// Program is the root of a parsed file.
type Program struct {
	base
	Items []Item
}

func NewProgram(span token.Span, items []Item) *Program {
	return &Program{base{span}, items}
}

// Item is a top-level declaration.
type Item interface {
	Node
	itemNode()
}

type MainFunction struct {
	base
	Body *Block
}

func (*MainFunction) itemNode() {}

func NewMainFunction(span token.Span, body *Block) *MainFunction {
	return &MainFunction{base{span}, body}
}

type Param struct {
	Name     string
	TypeName string
	Span     token.Span
}

type FunctionItem struct {
	base
	Name       string
	Params     []Param
	ReturnType string // empty means none
	Body       *Block
}

func (*FunctionItem) itemNode() {}

func NewFunctionItem(span token.Span, name string, params []Param, returnType string, body *Block) *FunctionItem {
	return &FunctionItem{base{span}, name, params, returnType, body}
}

type StructField struct {
	Name     string
	TypeName string
}

type StructDefinition struct {
	base
	Name   string
	Fields []StructField
}

func (*StructDefinition) itemNode() {}

func NewStructDefinition(span token.Span, name string, fields []StructField) *StructDefinition {
	return &StructDefinition{base{span}, name, fields}
}

type EnumVariant struct {
	Name string
}

type EnumDefinition struct {
	base
	Name     string
	Variants []EnumVariant
}

func (*EnumDefinition) itemNode() {}

func NewEnumDefinition(span token.Span, name string, variants []EnumVariant) *EnumDefinition {
	return &EnumDefinition{base{span}, name, variants}
}

type UseItem struct {
	base
	Path []string
}

func (*UseItem) itemNode() {}

func NewUseItem(span token.Span, path []string) *UseItem {
	return &UseItem{base{span}, path}
}

type ModuleItem struct {
	base
	Name  string
	Items []Item
}

func (*ModuleItem) itemNode() {}

func NewModuleItem(span token.Span, name string, items []Item) *ModuleItem {
	return &ModuleItem{base{span}, name, items}
}

// ErrorItem marks a recovered parse failure at item scope.
type ErrorItem struct {
	base
	Message string
}

func (*ErrorItem) itemNode() {}

func NewErrorItem(span token.Span, message string) *ErrorItem {
	return &ErrorItem{base{span}, message}
}

// Stmt is a block-level statement.
type Stmt interface {
	Node
	stmtNode()
}

type LetStmt struct {
	base
	Name     string
	Mut      bool
	TypeName string // empty means inferred
	Value    Expr
}

func (*LetStmt) stmtNode() {}

func NewLetStmt(span token.Span, name string, mut bool, typeName string, value Expr) *LetStmt {
	return &LetStmt{base{span}, name, mut, typeName, value}
}

type ExprStmt struct {
	base
	Value        Expr
	HasSemicolon bool // presence nullifies the expression's value, per §4.2
}

func (*ExprStmt) stmtNode() {}

func NewExprStmt(span token.Span, value Expr, hasSemicolon bool) *ExprStmt {
	return &ExprStmt{base{span}, value, hasSemicolon}
}

type ErrorStmt struct {
	base
	Message string
}

func (*ErrorStmt) stmtNode() {}

func NewErrorStmt(span token.Span, message string) *ErrorStmt {
	return &ErrorStmt{base{span}, message}
}

// Block is `{ stmts... optional-expr }`; the last Stmt may be an
// ExprStmt without a semicolon, which is how the block's value is
// produced. Block is itself an Expr.
type Block struct {
	base
	Stmts []Stmt
}

func (*Block) exprNode() {}

func NewBlock(span token.Span, stmts []Stmt) *Block { return &Block{base{span}, stmts} }

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

type IntegerLiteral struct {
	base
	Value int64
}

func (*IntegerLiteral) exprNode() {}

func NewIntegerLiteral(span token.Span, value int64) *IntegerLiteral {
	return &IntegerLiteral{base{span}, value}
}

type FloatLiteral struct {
	base
	Value float64
}

func (*FloatLiteral) exprNode() {}

func NewFloatLiteral(span token.Span, value float64) *FloatLiteral {
	return &FloatLiteral{base{span}, value}
}

type ByteLiteral struct {
	base
	Value byte
}

func (*ByteLiteral) exprNode() {}

func NewByteLiteral(span token.Span, value byte) *ByteLiteral {
	return &ByteLiteral{base{span}, value}
}

type CharacterLiteral struct {
	base
	Value rune
}

func (*CharacterLiteral) exprNode() {}

func NewCharacterLiteral(span token.Span, value rune) *CharacterLiteral {
	return &CharacterLiteral{base{span}, value}
}

type StringLiteral struct {
	base
	Value string
}

func (*StringLiteral) exprNode() {}

func NewStringLiteral(span token.Span, value string) *StringLiteral {
	return &StringLiteral{base{span}, value}
}

type BooleanLiteral struct {
	base
	Value bool
}

func (*BooleanLiteral) exprNode() {}

func NewBooleanLiteral(span token.Span, value bool) *BooleanLiteral {
	return &BooleanLiteral{base{span}, value}
}

type Identifier struct {
	base
	Path []string // ident(.ident)*(::ident)*
}

func (*Identifier) exprNode() {}

func NewIdentifier(span token.Span, path []string) *Identifier {
	return &Identifier{base{span}, path}
}

type UnaryExpr struct {
	base
	Operator token.Kind // Minus or Bang
	Operand  Expr
}

func (*UnaryExpr) exprNode() {}

func NewUnaryExpr(span token.Span, op token.Kind, operand Expr) *UnaryExpr {
	return &UnaryExpr{base{span}, op, operand}
}

type BinaryExpr struct {
	base
	Operator token.Kind
	Left     Expr
	Right    Expr
}

func (*BinaryExpr) exprNode() {}

func NewBinaryExpr(span token.Span, op token.Kind, left, right Expr) *BinaryExpr {
	return &BinaryExpr{base{span}, op, left, right}
}

type LogicalExpr struct {
	base
	Operator token.Kind // And or Or
	Left     Expr
	Right    Expr
}

func (*LogicalExpr) exprNode() {}

func NewLogicalExpr(span token.Span, op token.Kind, left, right Expr) *LogicalExpr {
	return &LogicalExpr{base{span}, op, left, right}
}

type AssignExpr struct {
	base
	Operator token.Kind // Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign
	Target   Expr       // Identifier or IndexExpr
	Value    Expr
}

func (*AssignExpr) exprNode() {}

func NewAssignExpr(span token.Span, op token.Kind, target, value Expr) *AssignExpr {
	return &AssignExpr{base{span}, op, target, value}
}

type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

func NewCallExpr(span token.Span, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{base{span}, callee, args}
}

type IndexExpr struct {
	base
	Object Expr
	Index  Expr
}

func (*IndexExpr) exprNode() {}

func NewIndexExpr(span token.Span, object, index Expr) *IndexExpr {
	return &IndexExpr{base{span}, object, index}
}

type IfExpr struct {
	base
	Cond Expr
	Then *Block
	Else Node // *Block or *IfExpr, nil if absent
}

func (*IfExpr) exprNode() {}

func NewIfExpr(span token.Span, cond Expr, then *Block, els Node) *IfExpr {
	return &IfExpr{base{span}, cond, then, els}
}

type WhileExpr struct {
	base
	Cond Expr
	Body *Block
}

func (*WhileExpr) exprNode() {}

func NewWhileExpr(span token.Span, cond Expr, body *Block) *WhileExpr {
	return &WhileExpr{base{span}, cond, body}
}

// ForExpr lowers to a While per SPEC_FULL.md's supplemented-feature note.
type ForExpr struct {
	base
	Binder string
	Iter   Expr
	Body   *Block
}

func (*ForExpr) exprNode() {}

func NewForExpr(span token.Span, binder string, iter Expr, body *Block) *ForExpr {
	return &ForExpr{base{span}, binder, iter, body}
}

type ListExpr struct {
	base
	Elements []Expr
}

func (*ListExpr) exprNode() {}

func NewListExpr(span token.Span, elements []Expr) *ListExpr {
	return &ListExpr{base{span}, elements}
}

// ErrorExpr marks a recovered parse failure at expression scope; it
// still carries a position so downstream stages keep running (§4.2).
type ErrorExpr struct {
	base
	Message string
}

func (*ErrorExpr) exprNode() {}

func NewErrorExpr(span token.Span, message string) *ErrorExpr {
	return &ErrorExpr{base{span}, message}
}

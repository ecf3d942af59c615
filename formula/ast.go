// Package formula implements the typed expression tree, parser, printer,
// reference shifter, dependency graph, and evaluator for worksheet
// formulas. It depends only on model, never the reverse, so that model
// stays free of a formula import (Sheet.Fill takes a model.FormulaShifter
// callback satisfied by Shift instead).
package formula

import "github.com/adnsv/xlpatch/model"

// ExprKind tags the variant of an Expr node.
type ExprKind int

const (
	KindNumber ExprKind = iota
	KindString
	KindBool
	KindErrorLit
	KindRef
	KindUnary
	KindBinary
	KindCall
)

// Expr is a node in a parsed formula's expression tree.
type Expr interface {
	Kind() ExprKind
}

// NumberLit is a numeric literal, including scientific notation at parse
// time (e.g. "1.5e3").
type NumberLit struct{ Value float64 }

func (NumberLit) Kind() ExprKind { return KindNumber }

// StringLit is a double-quoted string literal; "" inside the literal
// denotes a literal double quote.
type StringLit struct{ Value string }

func (StringLit) Kind() ExprKind { return KindString }

// BoolLit is TRUE or FALSE.
type BoolLit struct{ Value bool }

func (BoolLit) Kind() ExprKind { return KindBool }

// ErrorLit is a literal error value such as #DIV/0! typed directly into a
// formula.
type ErrorLit struct{ Kind_ model.ErrorKind }

func (ErrorLit) Kind() ExprKind { return KindErrorLit }

// CellRef is one endpoint of a reference, carrying independent anchor flags
// for its column and row, per the '$' markers recognized by the parser.
type CellRef struct {
	Col    model.Column
	ColAbs bool
	Row    model.Row
	RowAbs bool
}

// ARef discards anchor information, yielding the plain cell address.
func (c CellRef) ARef() model.ARef { return model.ARef{Col: c.Col, Row: c.Row} }

// RefExpr is a cell or range reference, optionally sheet-qualified and
// optionally a 3-D reference (Sheet2 differs from Sheet).
type RefExpr struct {
	IsRange  bool
	HasSheet bool
	Sheet    string
	Sheet2   string // equals Sheet unless this is a 3-D reference

	Cell       CellRef // meaningful when !IsRange
	Start, End CellRef // meaningful when IsRange
}

func (RefExpr) Kind() ExprKind { return KindRef }

// Is3D reports whether the reference spans more than one sheet.
func (r RefExpr) Is3D() bool { return r.HasSheet && r.Sheet != r.Sheet2 }

// NameRef is a bare identifier used as a reference atom: a workbook-scoped
// defined name, resolved against Workbook.DefinedNames() at evaluation time.
// An identifier that resolves to neither a defined name nor a function call
// evaluates to a NAME error.
type NameRef struct{ Name string }

func (NameRef) Kind() ExprKind { return KindRef }

// UnaryOp enumerates the unary operators: prefix '+', prefix '-', and
// postfix '%' (percent, meaning "divide by 100").
type UnaryOp byte

const (
	UnaryPlus    UnaryOp = '+'
	UnaryMinus   UnaryOp = '-'
	UnaryPercent UnaryOp = '%'
)

// UnaryExpr applies a unary operator to X.
type UnaryExpr struct {
	Op UnaryOp
	X  Expr
}

func (UnaryExpr) Kind() ExprKind { return KindUnary }

// BinaryOp enumerates the binary operators recognized by the grammar.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpPow BinaryOp = "^"
	OpCat BinaryOp = "&"

	OpEq BinaryOp = "="
	OpNe BinaryOp = "<>"
	OpLt BinaryOp = "<"
	OpLe BinaryOp = "<="
	OpGt BinaryOp = ">"
	OpGe BinaryOp = ">="
)

// BinaryExpr applies a binary operator to X (left) and Y (right).
type BinaryExpr struct {
	Op BinaryOp
	X  Expr
	Y  Expr
}

func (BinaryExpr) Kind() ExprKind { return KindBinary }

// CallExpr is a function application over the built-in function registry.
type CallExpr struct {
	Name string
	Args []Expr
}

func (CallExpr) Kind() ExprKind { return KindCall }

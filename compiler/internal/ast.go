package internal

import (
	"fmt"
)

// In this file, we defined all ast of goal according to its grammar. A goal
// program is a single expression, so the root of the tree is an ExpressionAst.
//
// ExpressionAst is sealed: only the types in this file implement it, and the
// code generator switches over exactly these three.

type ExpressionAst interface {
	fmt.Stringer
	expressionAst()
}

type Operator string

const (
	AddOperator      Operator = "+"
	MinusOperator    Operator = "-"
	MultiplyOperator Operator = "*"
	DivideOperator   Operator = "/"
)

var tokenTPOperatorMap = map[TokenType]Operator{
	AddTP:      AddOperator,
	MinusTP:    MinusOperator,
	MultiplyTP: MultiplyOperator,
	DivideTP:   DivideOperator,
}

type NumberLiteralAst struct {
	Value int64
}

// StringLiteralAst holds the unquoted value, with \" already turned into ".
type StringLiteralAst struct {
	Value string
}

type BinaryOpAst struct {
	Operator Operator
	Left     ExpressionAst
	Right    ExpressionAst
}

func (*NumberLiteralAst) expressionAst() {}
func (*StringLiteralAst) expressionAst() {}
func (*BinaryOpAst) expressionAst()      {}

func (ast *NumberLiteralAst) String() string {
	return fmt.Sprintf("%d", ast.Value)
}

func (ast *StringLiteralAst) String() string {
	return fmt.Sprintf("%q", ast.Value)
}

// String prints the tree fully parenthesized, e.g. (1 + (2 * 3)).
func (ast *BinaryOpAst) String() string {
	return fmt.Sprintf("(%s %s %s)", ast.Left, string(ast.Operator), ast.Right)
}

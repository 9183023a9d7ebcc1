package internal

import (
	"strconv"
	"strings"
)

// A recursive descent parser for goal expressions. Precedence is encoded by
// grammar level and every loop folds the tree built so far into the left
// child, which makes both levels left associative:
//
// expr   := term (('+' | '-') term)*
// term   := factor (('*' | '/') factor)*
// factor := NUMBER | STRING | '(' expr ')'

const (
	exprRule   = "expr"
	termRule   = "term"
	factorRule = "factor"
)

type Parser struct {
	currentTokenPos int
	currentTokens   []*Token
}

// Parse builds the tree of one expression with a fresh parser. Tokens after
// the expression are left unread.
func Parse(tokens []*Token) (ExpressionAst, error) {
	parser := &Parser{currentTokens: tokens}
	return parser.parseExpression()
}

func (parser *Parser) reset() {
	parser.currentTokenPos, parser.currentTokens = 0, nil
}

func (parser *Parser) hasRemainTokens() bool {
	return parser.currentTokenPos < len(parser.currentTokens)
}

// getCurrentToken returns the next unread token, nil at the end of input.
func (parser *Parser) getCurrentToken() *Token {
	if !parser.hasRemainTokens() {
		return nil
	}
	return parser.currentTokens[parser.currentTokenPos]
}

func (parser *Parser) stepForward() {
	parser.currentTokenPos++
}

// matchToken reports whether the next token has one of tps.
func (parser *Parser) matchToken(tps ...TokenType) bool {
	token := parser.getCurrentToken()
	if token == nil {
		return false
	}
	for _, tp := range tps {
		if token.tp == tp {
			return true
		}
	}
	return false
}

// eat consumes the next token when it has type tp. It is the only place a
// token is consumed, so every syntax error surfaces here or in parseFactor.
func (parser *Parser) eat(tp TokenType, rule string) (*Token, error) {
	token := parser.getCurrentToken()
	if token == nil || token.tp != tp {
		return nil, parser.makeError(rule, tp.String())
	}
	parser.stepForward()
	return token, nil
}

func (parser *Parser) makeError(rule string, expected string) error {
	return &ParseError{
		Token:    parser.getCurrentToken(),
		Rule:     rule,
		Expected: expected,
	}
}

func (parser *Parser) parseExpression() (ExpressionAst, error) {
	return parser.parseBinaryOp(exprRule, parser.parseTerm, AddTP, MinusTP)
}

func (parser *Parser) parseTerm() (ExpressionAst, error) {
	return parser.parseBinaryOp(termRule, parser.parseFactor, MultiplyTP, DivideTP)
}

// parseBinaryOp parses operand (op operand)* for one precedence level.
func (parser *Parser) parseBinaryOp(rule string, parseOperand func() (ExpressionAst, error),
	ops ...TokenType) (ExpressionAst, error) {
	left, err := parseOperand()
	if err != nil {
		return nil, err
	}
	for parser.matchToken(ops...) {
		opToken, err := parser.eat(parser.getCurrentToken().tp, rule)
		if err != nil {
			return nil, err
		}
		right, err := parseOperand()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpAst{
			Operator: tokenTPOperatorMap[opToken.tp],
			Left:     left,
			Right:    right,
		}
	}
	return left, nil
}

func (parser *Parser) parseFactor() (ExpressionAst, error) {
	token := parser.getCurrentToken()
	if token == nil {
		return nil, parser.makeError(factorRule, "NUMBER, STRING or LEFT_PAREN")
	}
	switch token.tp {
	case IntegerTP:
		return parser.parseNumberLiteral()
	case StringTP:
		return parser.parseStringLiteral()
	case LeftParentThesesTP:
		return parser.parseParenthesizedExpression()
	default:
		return nil, parser.makeError(factorRule, "NUMBER, STRING or LEFT_PAREN")
	}
}

func (parser *Parser) parseNumberLiteral() (ExpressionAst, error) {
	token, err := parser.eat(IntegerTP, factorRule)
	if err != nil {
		return nil, err
	}
	value, err := strconv.ParseInt(token.content, 10, 64)
	if err != nil {
		return nil, &ParseError{Token: token, Rule: factorRule, Msg: "integer out of range"}
	}
	return &NumberLiteralAst{Value: value}, nil
}

func (parser *Parser) parseStringLiteral() (ExpressionAst, error) {
	token, err := parser.eat(StringTP, factorRule)
	if err != nil {
		return nil, err
	}
	return &StringLiteralAst{Value: unquoteString(token.content)}, nil
}

func (parser *Parser) parseParenthesizedExpression() (ExpressionAst, error) {
	_, err := parser.eat(LeftParentThesesTP, factorRule)
	if err != nil {
		return nil, err
	}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	_, err = parser.eat(RightParentThesesTP, factorRule)
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// unquoteString strips the surrounding quotes and resolves \" to ". Other
// backslash sequences are kept as written.
func unquoteString(content string) string {
	return strings.ReplaceAll(content[1:len(content)-1], `\"`, `"`)
}

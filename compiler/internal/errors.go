package internal

import (
	"fmt"
)

// LexError is returned when no token pattern accepts the character at the
// current position.
type LexError struct {
	Char rune
	Line int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("tokenizer error: unexpected character %q at line %d", e.Char, e.Line)
}

// ParseError is returned on the first token the grammar can't accept. Token
// is nil when the input ended early. Rule is the grammar rule being parsed.
type ParseError struct {
	Token    *Token
	Rule     string
	Expected string
	Msg      string
}

func (e *ParseError) Error() string {
	near := "end of input"
	if e.Token != nil {
		near = fmt.Sprintf("token %q at line %d", e.Token.content, e.Token.line)
	}
	if e.Msg != "" {
		return fmt.Sprintf("parser error in %s near %s, msg: %s", e.Rule, near, e.Msg)
	}
	return fmt.Sprintf("parser error in %s: unexpected %s, expecting %s", e.Rule, near, e.Expected)
}

// CodeGenError is returned when an operator node holds an operator the code
// generator has no instruction for.
type CodeGenError struct {
	Operator Operator
}

func (e *CodeGenError) Error() string {
	return fmt.Sprintf("code generator error: unsupported operator %q", string(e.Operator))
}

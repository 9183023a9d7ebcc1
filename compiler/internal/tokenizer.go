package internal

import (
	"fmt"
	"goal/util"
	"unicode/utf8"
)

// A simple Tokenizer for goal.

// Goal language has those elements:
// * Constant: integer (1010), string ("xxx", where \" is an escaped quote)
// * Symbol: +, -, *, /, (, ), =, ;
// * Identifier: letters, digits, underscore, not starting with a digit.
// Identifiers, = and ; are recognised but no grammar rule consumes them yet.

type TokenType int

const (
	IntegerTP            TokenType = iota // 1010
	IdentifierTP                          // varA
	AssignTP                              // =
	EndTP                                 // ;
	AddTP                                 // +
	MinusTP                               // -
	MultiplyTP                            // *
	DivideTP                              // /
	LeftParentThesesTP                    // (
	RightParentThesesTP                   // )
	StringTP                              // "xxx"
	skipTP                                // spaces and tabs, never emitted
	newLineTP                             // \n, never emitted
	mismatchTP                            // anything else
)

var tokenTypeNames = map[TokenType]string{
	IntegerTP:           "NUMBER",
	IdentifierTP:        "IDENT",
	AssignTP:            "ASSIGN",
	EndTP:               "END",
	AddTP:               "PLUS",
	MinusTP:             "MINUS",
	MultiplyTP:          "MULTIPLY",
	DivideTP:            "DIVIDE",
	LeftParentThesesTP:  "LEFT_PAREN",
	RightParentThesesTP: "RIGHT_PAREN",
	StringTP:            "STRING",
	skipTP:              "SKIP",
	newLineTP:           "NEWLINE",
	mismatchTP:          "MISMATCH",
}

func (tp TokenType) String() string {
	name, ok := tokenTypeNames[tp]
	if !ok {
		return fmt.Sprintf("TokenType(%d)", int(tp))
	}
	return name
}

type Token struct {
	content  string
	line     int
	startPos int
	endPos   int
	tp       TokenType
}

func (t *Token) Type() TokenType {
	return t.tp
}

func (t *Token) Content() string {
	return t.content
}

func (t *Token) Line() int {
	return t.line
}

func (t *Token) String() string {
	return fmt.Sprintf("%s(%s)", t.tp, t.content)
}

// tokenPattern matches a token kind at the beginning of content and returns the
// length of the match, 0 when it doesn't match.
type tokenPattern struct {
	tp    TokenType
	match func(content string) int
}

// tokenPatterns are tried in order and the first match wins. NUMBER comes
// before IDENT so that a digit never starts an identifier, and MISMATCH is
// last and matches any single character.
var tokenPatterns = []tokenPattern{
	{tp: IntegerTP, match: matchNumber},
	{tp: IdentifierTP, match: matchIdentifier},
	{tp: AssignTP, match: matchSymbol('=')},
	{tp: EndTP, match: matchSymbol(';')},
	{tp: AddTP, match: matchSymbol('+')},
	{tp: MinusTP, match: matchSymbol('-')},
	{tp: MultiplyTP, match: matchSymbol('*')},
	{tp: DivideTP, match: matchSymbol('/')},
	{tp: LeftParentThesesTP, match: matchSymbol('(')},
	{tp: RightParentThesesTP, match: matchSymbol(')')},
	{tp: StringTP, match: matchString},
	{tp: skipTP, match: matchBlank},
	{tp: newLineTP, match: matchSymbol('\n')},
	{tp: mismatchTP, match: matchAny},
}

func matchNumber(content string) int {
	return util.CountPrefix(content, util.IsNumber)
}

func matchIdentifier(content string) int {
	if len(content) == 0 || !util.IsLetterOrUnderscore(content[0]) {
		return 0
	}
	return 1 + util.CountPrefix(content[1:], util.IsLetterOrUnderscoreOrNumber)
}

func matchSymbol(symbol byte) func(string) int {
	return func(content string) int {
		if len(content) > 0 && content[0] == symbol {
			return 1
		}
		return 0
	}
}

// matchString matches a double quoted string. A backslash escapes whatever
// follows it, so \" doesn't close the string. An unterminated string doesn't
// match at all.
func matchString(content string) int {
	if len(content) == 0 || content[0] != '"' {
		return 0
	}
	for i := 1; i < len(content); i++ {
		switch content[i] {
		case '\\':
			if i+1 >= len(content) {
				return 0
			}
			_, size := utf8.DecodeRuneInString(content[i+1:])
			i += size
		case '"':
			return i + 1
		}
	}
	return 0
}

func matchBlank(content string) int {
	return util.CountPrefix(content, util.IsBlank)
}

func matchAny(content string) int {
	if len(content) == 0 {
		return 0
	}
	_, size := utf8.DecodeRuneInString(content)
	return size
}

type Tokenizer struct {
	currentPos  int
	currentLine int
	tokens      []*Token
}

// Lex converts source into tokens with a fresh tokenizer.
func Lex(source string) ([]*Token, error) {
	tokenizer := &Tokenizer{}
	return tokenizer.Tokenize(source)
}

// Tokenize walks source from the beginning, emitting every token except
// blanks and newlines. It stops at the first character no pattern accepts.
func (tokenizer *Tokenizer) Tokenize(source string) ([]*Token, error) {
	tokenizer.Reset()
	for tokenizer.hasRemainCharacters(source) {
		token := tokenizer.getNextToken(source)
		switch token.tp {
		case skipTP:
		case newLineTP:
			tokenizer.currentLine++
		case mismatchTP:
			r, _ := utf8.DecodeRuneInString(token.content)
			return nil, &LexError{Char: r, Line: token.line}
		case StringTP:
			tokenizer.tokens = append(tokenizer.tokens, token)
			tokenizer.currentLine += countNewLines(token.content)
		default:
			tokenizer.tokens = append(tokenizer.tokens, token)
		}
	}
	return tokenizer.tokens, nil
}

// getNextToken returns the token starting at the current position and steps
// past it. MISMATCH accepts any character, so there is always a token.
func (tokenizer *Tokenizer) getNextToken(source string) *Token {
	remain := source[tokenizer.currentPos:]
	for _, pattern := range tokenPatterns {
		length := pattern.match(remain)
		if length == 0 {
			continue
		}
		token := &Token{
			content:  remain[:length],
			line:     tokenizer.currentLine,
			tp:       pattern.tp,
			startPos: tokenizer.currentPos,
			endPos:   tokenizer.currentPos + length,
		}
		tokenizer.currentPos += length
		return token
	}
	panic("no token pattern matched")
}

func (tokenizer *Tokenizer) hasRemainCharacters(source string) bool {
	return tokenizer.currentPos < len(source)
}

func countNewLines(content string) int {
	ret := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			ret++
		}
	}
	return ret
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos, tokenizer.currentLine = 0, 1
	tokenizer.tokens = nil
}

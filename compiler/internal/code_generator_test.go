package internal

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, content string) string {
	code, err := Compile(content, NewCounterLabels())
	require.NoError(t, err, content)
	return code
}

// evaluate runs the program for content and returns eax when the exit code
// starts.
func evaluate(t *testing.T, content string) int64 {
	_, result, err := Simulate(content, NewCounterLabels())
	require.NoError(t, err, content)
	require.True(t, len(result.Steps) > 3, content)
	return result.Steps[len(result.Steps)-4].Accumulator
}

func TestCodeGenerator_NumberLiteral(t *testing.T) {
	for _, content := range []string{"0", "7", "42", "2147483647", "007"} {
		code := generate(t, content)
		value := strings.TrimLeft(content, "0")
		if value == "" {
			value = "0"
		}
		expected := ".global _start\n_start:\n    movl eax, " + value + "\n" +
			"    movl ebx, 0\n    movl eax, 1\n    int 0x80\n"
		assert.Equal(t, expected, code, content)
		for _, op := range []string{"add", "sub", "imul", "idiv", "push", "pop"} {
			assert.NotContains(t, code, "    "+op+" ", content)
		}
	}
}

func TestCodeGenerator_BinaryOp(t *testing.T) {
	code := generate(t, "5-2")
	expected := `.global _start
_start:
    movl eax, 5
    push eax
    movl eax, 2
    pop ebx
    xchg eax, ebx
    sub eax, ebx
    movl ebx, 0
    movl eax, 1
    int 0x80
`
	assert.Equal(t, expected, code)

	code = generate(t, "8/2")
	assert.Contains(t, code, "    pop ebx\n    xchg eax, ebx\n    cdq\n    idiv ebx\n")
	code = generate(t, "8*2")
	assert.Contains(t, code, "    pop ebx\n    imul eax, ebx\n")
	code = generate(t, "8+2")
	assert.Contains(t, code, "    pop ebx\n    add eax, ebx\n")
}

func TestCodeGenerator_StringLiteral(t *testing.T) {
	code := generate(t, `"it's"`)
	expected := `.global _start
_start:
    mov rax, 1
    mov rdi, 1
    mov rsi, str0
    mov rdx, 4
    syscall
    ; String label
str0:
    db 'it''s'
    movl ebx, 0
    movl eax, 1
    int 0x80
`
	assert.Equal(t, expected, code)
}

func TestCodeGenerator_UniqueLabels(t *testing.T) {
	labelDefinition := regexp.MustCompile(`(?m)^(str\w+):$`)
	for _, labels := range []LabelSupplier{NewCounterLabels(), NewRandomLabels()} {
		code, err := Compile(`"a" + "b" * ("c" - "d")`, labels)
		require.NoError(t, err)
		matches := labelDefinition.FindAllStringSubmatch(code, -1)
		require.Len(t, matches, 4)
		seen := map[string]bool{}
		for _, match := range matches {
			assert.False(t, seen[match[1]], match[1])
			seen[match[1]] = true
			assert.Contains(t, code, "mov rsi, "+match[1]+"\n")
		}
	}
}

func TestCodeGenerator_Evaluate(t *testing.T) {
	testData := []struct {
		content  string
		expected int64
	}{
		{content: "5-2", expected: 3},
		{content: "2-5", expected: -3},
		{content: "6/3", expected: 2},
		{content: "7/2", expected: 3},
		{content: "1+2*3", expected: 7},
		{content: "(1+2)*3", expected: 9},
		{content: "1-2-3", expected: -4},
		{content: "100/10/5", expected: 2},
		{content: "2*(3+4)-10/(1+1)", expected: 9},
		{content: "(0-7)/2", expected: -3},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, evaluate(t, data.content), data.content)
	}
}

func TestCodeGenerator_EvaluateString(t *testing.T) {
	_, result, err := Simulate(`"hello, " + "wor\"ld"`, NewCounterLabels())
	require.NoError(t, err)
	assert.Equal(t, `hello, wor"ld`, string(result.Stdout))
	assert.Equal(t, 0, result.ExitStatus)
}

func TestCodeGenerator_DivideByZero(t *testing.T) {
	// the generated code has no guard, the divide traps like on the cpu.
	_, _, err := Simulate("1/(2-2)", NewCounterLabels())
	assert.Error(t, err)
}

func TestCodeGenerator_Idempotent(t *testing.T) {
	tokens, err := Lex(`("x" + 1) * "y" - 4 / 2`)
	require.NoError(t, err)
	ast, err := Parse(tokens)
	require.NoError(t, err)

	first, err := GenerateCode(ast, NewCounterLabels())
	require.NoError(t, err)
	second, err := GenerateCode(ast, NewCounterLabels())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	label := regexp.MustCompile(`str\w+`)
	random1, err := GenerateCode(ast, NewRandomLabels())
	require.NoError(t, err)
	random2, err := GenerateCode(ast, NewRandomLabels())
	require.NoError(t, err)
	assert.NotEqual(t, random1, random2)
	assert.Equal(t, label.ReplaceAllString(first, "L"), label.ReplaceAllString(random1, "L"))
	assert.Equal(t, label.ReplaceAllString(random1, "L"), label.ReplaceAllString(random2, "L"))
}

func TestCodeGenerator_GeneratorReuse(t *testing.T) {
	generator := NewCodeGenerator(NewCounterLabels())
	first, err := generator.GenerateCode(num(1))
	require.NoError(t, err)
	second, err := generator.GenerateCode(num(1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCodeGenerator_UnsupportedOperator(t *testing.T) {
	ast := binary(Operator("%"), num(1), num(2))
	_, err := GenerateCode(ast, NewCounterLabels())
	var codeGenErr *CodeGenError
	require.True(t, errors.As(err, &codeGenErr))
	assert.Equal(t, Operator("%"), codeGenErr.Operator)
	assert.EqualError(t, err, `code generator error: unsupported operator "%"`)

	nested := binary(AddOperator, num(1), binary(Operator("^"), num(2), num(3)))
	_, err = GenerateCode(nested, NewCounterLabels())
	assert.True(t, errors.As(err, &codeGenErr))
}

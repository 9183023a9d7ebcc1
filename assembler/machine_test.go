package assembler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exitCode = `
    movl ebx, 0
    movl eax, 1
    int 0x80
`

func run(t *testing.T, body string) (*Result, error) {
	asm := parse(t, ".global _start\n_start:\n"+body+exitCode)
	return NewMachine(asm).Run(0)
}

// accumulator returns eax right before the exit code starts.
func accumulator(t *testing.T, result *Result) int64 {
	require.True(t, len(result.Steps) > 3)
	return result.Steps[len(result.Steps)-4].Accumulator
}

func TestMachine_Arithmetic(t *testing.T) {
	testData := []struct {
		body     string
		expected int64
	}{
		{body: "    movl eax, 42\n", expected: 42},
		{body: "    movl eax, 5\n    push eax\n    movl eax, 2\n    pop ebx\n    xchg eax, ebx\n    sub eax, ebx\n", expected: 3},
		{body: "    movl eax, 6\n    movl ebx, 7\n    imul eax, ebx\n", expected: 42},
		{body: "    movl eax, 7\n    movl ebx, -2\n    cdq\n    idiv ebx\n", expected: -3},
		{body: "    movl eax, -7\n    movl ebx, 2\n    cdq\n    idiv ebx\n", expected: -3},
		{body: "    movl eax, 2147483647\n    movl ebx, 1\n    add eax, ebx\n", expected: math.MinInt32},
		{body: "    movl eax, 5\n    xor eax, eax\n", expected: 0},
	}
	for _, data := range testData {
		result, err := run(t, data.body)
		require.NoError(t, err, data.body)
		assert.Equal(t, data.expected, accumulator(t, result), data.body)
		assert.Equal(t, 0, result.ExitStatus)
	}
}

func TestMachine_StackDepth(t *testing.T) {
	result, err := run(t, "    movl eax, 1\n    push eax\n    push eax\n    pop ebx\n    pop ebx\n")
	require.NoError(t, err)
	var depths []int
	for _, step := range result.Steps[:5] {
		depths = append(depths, step.StackDepth)
	}
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)
}

func TestMachine_Write(t *testing.T) {
	body := `    mov rax, 1
    mov rdi, 1
    mov rsi, str0
    mov rdx, 4
    syscall
    ; String label
str0:
    db 'it''s'
`
	result, err := run(t, body)
	require.NoError(t, err)
	assert.Equal(t, "it's", string(result.Stdout))
	assert.Equal(t, 0, result.ExitStatus)
}

func TestMachine_WriteOutsideData(t *testing.T) {
	body := `    mov rax, 1
    mov rdi, 1
    mov rsi, str0
    mov rdx, 10
    syscall
str0:
    db 'abc'
`
	_, err := run(t, body)
	assert.Error(t, err)
}

func TestMachine_SyscallExit(t *testing.T) {
	asm := parse(t, ".global _start\n_start:\n    mov rax, 60\n    mov rdi, 7\n    syscall\n")
	result, err := NewMachine(asm).Run(0)
	require.NoError(t, err)
	assert.Equal(t, 7, result.ExitStatus)
	assert.Len(t, result.Steps, 3)
}

func TestMachine_Errors(t *testing.T) {
	testData := []struct {
		body string
		err  error
	}{
		{body: "    movl eax, 1\n    movl ebx, 0\n    cdq\n    idiv ebx\n", err: ErrDivideError},
		{body: "    movl eax, -2147483648\n    movl ebx, -1\n    cdq\n    idiv ebx\n", err: ErrDivideError},
		{body: "    pop ebx\n", err: ErrStackUnderrun},
	}
	for _, data := range testData {
		_, err := run(t, data.body)
		assert.ErrorIs(t, err, data.err, data.body)
	}

	for _, body := range []string{"    jmp _start\n", "    movl 1, eax\n", "    movl eax, nowhere\n", "    int 0x81\n"} {
		_, err := run(t, body)
		assert.Error(t, err, body)
	}
}

func TestMachine_NoExit(t *testing.T) {
	asm := parse(t, "_start:\n    movl eax, 1\n")
	_, err := NewMachine(asm).Run(0)
	assert.ErrorIs(t, err, ErrNoExit)
}

func TestMachine_StepLimit(t *testing.T) {
	asm := parse(t, ".global _start\n_start:\n    movl eax, 1\n    movl eax, 2\n    movl eax, 3\n")
	result, err := NewMachine(asm).Run(2)
	assert.ErrorIs(t, err, ErrTooManySteps)
	assert.Len(t, result.Steps, 2)
}

func TestMachine_RunTwice(t *testing.T) {
	asm := parse(t, ".global _start\n_start:\n    movl eax, 9\n"+exitCode)
	machine := NewMachine(asm)
	first, err := machine.Run(0)
	require.NoError(t, err)
	second, err := machine.Run(0)
	require.NoError(t, err)
	assert.Equal(t, first.Steps, second.Steps)
}

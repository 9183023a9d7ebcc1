package internal

import (
	"fmt"
	"strings"
)

// The code generator evaluates expressions with the machine stack. eax is the
// accumulator and holds the value of the last generated sub expression, ebx
// receives the saved left operand of a binary operation.

const instructionIndent = "    "

type CodeGenerator struct {
	labels LabelSupplier
	output strings.Builder
}

func NewCodeGenerator(labels LabelSupplier) *CodeGenerator {
	return &CodeGenerator{labels: labels}
}

// GenerateCode returns the whole program for ast: the entry point, the code
// of the expression and the exit system call.
func GenerateCode(ast ExpressionAst, labels LabelSupplier) (string, error) {
	return NewCodeGenerator(labels).GenerateCode(ast)
}

func (generator *CodeGenerator) GenerateCode(ast ExpressionAst) (string, error) {
	generator.output.Reset()
	generator.writeLine(".global _start")
	generator.writeLine("_start:")
	err := generator.generateExpressionCode(ast)
	if err != nil {
		return "", err
	}
	generator.generateExitCode()
	return generator.output.String(), nil
}

// generateExpressionCode: for example: 1 + 2 * 3
//
//	  +
//	/   \
//	1    *
//	   /   \
//	  2     3
//
// the left operand is computed and pushed, then the right one is computed and
// the left one popped back. A postOrder traversal is enough.
func (generator *CodeGenerator) generateExpressionCode(ast ExpressionAst) error {
	switch ast := ast.(type) {
	case *NumberLiteralAst:
		generator.writeInstruction("movl eax, %d", ast.Value)
		return nil
	case *StringLiteralAst:
		generator.generateStringLiteralCode(ast)
		return nil
	case *BinaryOpAst:
		return generator.generateBinaryOpCode(ast)
	default:
		panic(fmt.Sprintf("unknown expression ast %T", ast))
	}
}

// A string literal is written to stdout with the write system call. The bytes
// follow the code under a fresh label.
func (generator *CodeGenerator) generateStringLiteralCode(ast *StringLiteralAst) {
	label := generator.labels.NextLabel()
	generator.writeInstruction("mov rax, 1")
	generator.writeInstruction("mov rdi, 1")
	generator.writeInstruction("mov rsi, %s", label)
	generator.writeInstruction("mov rdx, %d", len(ast.Value))
	generator.writeInstruction("syscall")
	generator.writeInstruction("; String label")
	generator.writeLine(label + ":")
	generator.writeInstruction("db '%s'", strings.ReplaceAll(ast.Value, "'", "''"))
}

func (generator *CodeGenerator) generateBinaryOpCode(ast *BinaryOpAst) error {
	err := generator.generateExpressionCode(ast.Left)
	if err != nil {
		return err
	}
	generator.writeInstruction("push eax")
	err = generator.generateExpressionCode(ast.Right)
	if err != nil {
		return err
	}
	generator.writeInstruction("pop ebx")
	return generator.generateOpCode(ast.Operator)
}

// generateOpCode runs with the right operand in eax and the left one in ebx.
// For - and / the two are exchanged first so that eax holds the left operand.
func (generator *CodeGenerator) generateOpCode(op Operator) error {
	switch op {
	case AddOperator:
		generator.writeInstruction("add eax, ebx")
	case MinusOperator:
		generator.writeInstruction("xchg eax, ebx")
		generator.writeInstruction("sub eax, ebx")
	case MultiplyOperator:
		generator.writeInstruction("imul eax, ebx")
	case DivideOperator:
		// No guard against a zero divisor or INT_MIN / -1, the cpu traps on both.
		generator.writeInstruction("xchg eax, ebx")
		generator.writeInstruction("cdq")
		generator.writeInstruction("idiv ebx")
	default:
		return &CodeGenError{Operator: op}
	}
	return nil
}

// generateExitCode ends the process with the exit system call and status 0.
func (generator *CodeGenerator) generateExitCode() {
	generator.writeInstruction("movl ebx, 0")
	generator.writeInstruction("movl eax, 1")
	generator.writeInstruction("int 0x80")
}

func (generator *CodeGenerator) writeInstruction(format string, args ...interface{}) {
	generator.writeLine(instructionIndent + fmt.Sprintf(format, args...))
}

func (generator *CodeGenerator) writeLine(line string) {
	generator.output.WriteString(line)
	generator.output.WriteByte('\n')
}

package assembler

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Machine executes parsed commands on a tiny model of an x86-64 cpu. It knows
// the instructions goal emits and the write and exit system calls. Data
// commands are skipped when reached, they are never executed.

// DefaultMaxSteps bounds a run when Run is given no limit.
const DefaultMaxSteps = 1 << 20

var (
	ErrDivideError   = errors.New("divide error")
	ErrStackUnderrun = errors.New("pop from an empty stack")
	ErrNoExit        = errors.New("program ran off the end without exiting")
	ErrTooManySteps  = errors.New("step limit exceeded")
)

type register struct {
	name  string
	width int
}

// registerAliasMap maps register names to the physical register and the
// width of the access.
var registerAliasMap = map[string]register{
	"rax": {"a", 64}, "eax": {"a", 32},
	"rbx": {"b", 64}, "ebx": {"b", 32},
	"rcx": {"c", 64}, "ecx": {"c", 32},
	"rdx": {"d", 64}, "edx": {"d", 32},
	"rsi": {"si", 64}, "esi": {"si", 32},
	"rdi": {"di", 64}, "edi": {"di", 32},
}

// Step records one executed instruction and the accumulator after it.
type Step struct {
	Command     Command
	Accumulator int64
	StackDepth  int
}

type Result struct {
	Steps      []Step
	Stdout     []byte
	ExitStatus int
}

type Machine struct {
	asm       *Assembler
	registers map[string]int64
	stack     []int64
	stdout    bytes.Buffer
	pc        int
	exited    bool
	status    int
}

func NewMachine(asm *Assembler) *Machine {
	return &Machine{
		asm:       asm,
		registers: map[string]int64{},
	}
}

// Run executes from the entry label, or from the first command when there is
// none, until the program exits. maxSteps <= 0 means DefaultMaxSteps.
func (m *Machine) Run(maxSteps int) (result *Result, err error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	m.reset()
	result = &Result{}
	defer func() {
		result.Stdout = bytes.Clone(m.stdout.Bytes())
	}()
	commands := m.asm.Commands()
	for !m.exited {
		if m.pc >= len(commands) {
			return result, ErrNoExit
		}
		command := commands[m.pc]
		m.pc++
		if command.Tp != InstructionCommand {
			continue
		}
		if len(result.Steps) >= maxSteps {
			return result, ErrTooManySteps
		}
		if execErr := m.execute(command); execErr != nil {
			return result, fmt.Errorf("line %d: %s: %w", command.Line, command.OriginalContent, execErr)
		}
		result.Steps = append(result.Steps, Step{
			Command:     command,
			Accumulator: m.readRegister(registerAliasMap["eax"]),
			StackDepth:  len(m.stack),
		})
	}
	result.ExitStatus = m.status
	return result, nil
}

func (m *Machine) reset() {
	m.registers = map[string]int64{}
	m.stack = m.stack[:0]
	m.stdout.Reset()
	m.pc, m.exited, m.status = 0, false, 0
	if entry := m.asm.Entry(); entry != "" {
		m.pc = m.asm.labelLocationMap[entry]
	}
}

func (m *Machine) execute(command Command) error {
	ops := command.Operands
	switch command.Mnemonic {
	case "mov", "movl":
		if err := expectOperands(ops, 2); err != nil {
			return err
		}
		v, err := m.value(ops[1])
		if err != nil {
			return err
		}
		return m.store(ops[0], v)
	case "push":
		if err := expectOperands(ops, 1); err != nil {
			return err
		}
		v, err := m.value(ops[0])
		if err != nil {
			return err
		}
		m.stack = append(m.stack, v)
		return nil
	case "pop":
		if err := expectOperands(ops, 1); err != nil {
			return err
		}
		if len(m.stack) == 0 {
			return ErrStackUnderrun
		}
		v := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		return m.store(ops[0], v)
	case "add", "sub", "imul", "xor":
		return m.executeArithmetic(command.Mnemonic, ops)
	case "xchg":
		if err := expectOperands(ops, 2); err != nil {
			return err
		}
		a, err := m.value(ops[0])
		if err != nil {
			return err
		}
		b, err := m.value(ops[1])
		if err != nil {
			return err
		}
		if err := m.store(ops[0], b); err != nil {
			return err
		}
		return m.store(ops[1], a)
	case "cdq":
		if err := expectOperands(ops, 0); err != nil {
			return err
		}
		edx := int64(0)
		if m.readRegister(registerAliasMap["eax"]) < 0 {
			edx = -1
		}
		m.writeRegister(registerAliasMap["edx"], edx)
		return nil
	case "idiv":
		return m.executeDivide(ops)
	case "syscall":
		return m.executeSyscall()
	case "int":
		return m.executeInterrupt(ops)
	default:
		return fmt.Errorf("unsupported instruction %s", command.Mnemonic)
	}
}

func (m *Machine) executeArithmetic(mnemonic string, ops []string) error {
	if err := expectOperands(ops, 2); err != nil {
		return err
	}
	a, err := m.value(ops[0])
	if err != nil {
		return err
	}
	b, err := m.value(ops[1])
	if err != nil {
		return err
	}
	var v int64
	switch mnemonic {
	case "add":
		v = a + b
	case "sub":
		v = a - b
	case "imul":
		v = a * b
	case "xor":
		v = a ^ b
	}
	return m.store(ops[0], v)
}

// executeDivide divides edx:eax by the operand, quotient to eax and
// remainder to edx. Like the cpu it fails on a zero divisor and on a quotient
// that doesn't fit in 32 bits.
func (m *Machine) executeDivide(ops []string) error {
	if err := expectOperands(ops, 1); err != nil {
		return err
	}
	divisor, err := m.value(ops[0])
	if err != nil {
		return err
	}
	if divisor == 0 {
		return ErrDivideError
	}
	eax := m.readRegister(registerAliasMap["eax"])
	edx := m.readRegister(registerAliasMap["edx"])
	dividend := edx<<32 | int64(uint32(eax))
	quotient, remainder := dividend/divisor, dividend%divisor
	if quotient > math.MaxInt32 || quotient < math.MinInt32 {
		return ErrDivideError
	}
	m.writeRegister(registerAliasMap["eax"], quotient)
	m.writeRegister(registerAliasMap["edx"], remainder)
	return nil
}

const (
	sysWrite   = 1
	sysExit    = 60
	int80Exit  = 1
	stdoutFile = 1
)

func (m *Machine) executeSyscall() error {
	switch number := m.registers["a"]; number {
	case sysWrite:
		if fd := m.registers["di"]; fd != stdoutFile {
			return fmt.Errorf("write to unsupported file descriptor %d", fd)
		}
		data, err := m.readData(m.registers["si"], m.registers["d"])
		if err != nil {
			return err
		}
		m.stdout.Write(data)
		m.registers["a"] = int64(len(data))
		return nil
	case sysExit:
		m.exit(m.registers["di"])
		return nil
	default:
		return fmt.Errorf("unsupported system call %d", number)
	}
}

func (m *Machine) executeInterrupt(ops []string) error {
	if err := expectOperands(ops, 1); err != nil {
		return err
	}
	vector, err := m.value(ops[0])
	if err != nil {
		return err
	}
	if vector != 0x80 {
		return fmt.Errorf("unsupported interrupt %#x", vector)
	}
	if number := m.readRegister(registerAliasMap["eax"]); number != int80Exit {
		return fmt.Errorf("unsupported system call %d", number)
	}
	m.exit(m.readRegister(registerAliasMap["ebx"]))
	return nil
}

func (m *Machine) exit(status int64) {
	m.exited = true
	m.status = int(status & 0xff)
}

func (m *Machine) readData(addr int64, length int64) ([]byte, error) {
	data := m.asm.Data()
	start := addr - DataBaseAddr
	if start < 0 || length < 0 || start+length > int64(len(data)) {
		return nil, fmt.Errorf("read of %d bytes at %#x is outside the data", length, addr)
	}
	return data[start : start+length], nil
}

// value evaluates a register, an integer or a label operand.
func (m *Machine) value(operand string) (int64, error) {
	if reg, ok := registerAliasMap[strings.ToLower(operand)]; ok {
		return m.readRegister(reg), nil
	}
	if v, err := strconv.ParseInt(operand, 0, 64); err == nil {
		return v, nil
	}
	if addr, ok := m.asm.LabelAddress(operand); ok {
		return addr, nil
	}
	return 0, fmt.Errorf("unknown operand %s", operand)
}

func (m *Machine) store(operand string, v int64) error {
	reg, ok := registerAliasMap[strings.ToLower(operand)]
	if !ok {
		return fmt.Errorf("operand %s is not a register", operand)
	}
	m.writeRegister(reg, v)
	return nil
}

// 32 bit accesses keep the value as a signed 32 bit integer.
func (m *Machine) readRegister(reg register) int64 {
	v := m.registers[reg.name]
	if reg.width == 32 {
		return int64(int32(v))
	}
	return v
}

func (m *Machine) writeRegister(reg register, v int64) {
	if reg.width == 32 {
		v = int64(int32(v))
	}
	m.registers[reg.name] = v
}

func expectOperands(ops []string, n int) error {
	if len(ops) != n {
		return fmt.Errorf("expect %d operands, got %d", n, len(ops))
	}
	return nil
}

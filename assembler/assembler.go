package assembler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"goal/util"
	"io"
	"regexp"
	"strings"
)

// A small assembler front end for the x86 dialect goal emits. It doesn't
// produce machine code, it turns the text into commands which the Machine in
// this package can execute.

// The dialect has those lines:
// * .global _start, a directive naming the entry label.
// * _start:, a label. A label names the next instruction and the next data.
// * ; comment, ignored.
// * db 'text', data bytes, where '' is an escaped quote.
// * mnemonic operand, operand, an instruction.

// DataBaseAddr is the address of the first data byte.
const DataBaseAddr = 0x402000

type Assembler struct {
	line             int
	entry            string
	labelLocationMap map[string]int
	labelAddrMap     map[string]int64
	data             []byte
	commands         []Command
}

func CreateAssembler() *Assembler {
	return &Assembler{
		line:             1,
		labelLocationMap: map[string]int{},
		labelAddrMap:     map[string]int64{},
	}
}

type CommandType int

const (
	DirectiveCommand CommandType = iota
	LabelCommand
	DataCommand
	InstructionCommand
)

var commandTypeNames = map[CommandType]string{
	DirectiveCommand:   "directive",
	LabelCommand:       "label",
	DataCommand:        "data",
	InstructionCommand: "instruction",
}

func (tp CommandType) String() string {
	return commandTypeNames[tp]
}

type Command struct {
	Tp       CommandType
	Mnemonic string
	Operands []string
	// Addr is the address of the bytes of a data command.
	Addr            int64
	Data            []byte
	Line            int
	OriginalContent string
}

func (command Command) String() string {
	return fmt.Sprintf("Command: {Tp: %s, Line: %d, OriginalContent: %s}", command.Tp, command.Line,
		command.OriginalContent)
}

// Parse reads the assembly text and returns its commands in order. Labels
// and comments produce no command of their own except label commands, which
// keep the position of the label.
func (asm *Assembler) Parse(rd io.Reader) (ret []Command, err error) {
	bfReader := bufio.NewReader(rd)
	for {
		line, readErr := bfReader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, readErr
		}
		trimmed, hasRemainCharacter := asm.trimLine(line)
		if hasRemainCharacter {
			err = asm.transformLine(trimmed)
			if err != nil {
				return nil, err
			}
		}
		if readErr == io.EOF {
			return asm.commands, asm.checkEntry()
		}
		asm.line++
	}
}

// trimLine removes spaces and a trailing ; comment, then returns whether the
// line has other characters left. Data lines keep their ; since it can be
// quoted.
func (asm *Assembler) trimLine(line []byte) ([]byte, bool) {
	line = bytes.TrimSpace(line)
	if !bytes.HasPrefix(line, []byte("db ")) {
		index := bytes.IndexByte(line, ';')
		if index != -1 {
			line = bytes.TrimSpace(line[:index])
		}
	}
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

func (asm *Assembler) transformLine(line []byte) error {
	switch {
	case line[0] == '.':
		return asm.transformDirective(line)
	case bytes.HasPrefix(line, []byte("db ")):
		return asm.transformData(line)
	case line[len(line)-1] == ':':
		return asm.transformLabel(line)
	default:
		return asm.transformInstruction(line)
	}
}

var labelFormat = regexp.MustCompile(`^[A-Za-z_.$][0-9A-Za-z_.$]*$`)

func (asm *Assembler) transformDirective(line []byte) error {
	fields := strings.Fields(string(line))
	switch fields[0] {
	case ".global", ".globl":
		if len(fields) != 2 || !labelFormat.MatchString(fields[1]) {
			return asm.makeSyntaxErr("incorrect global directive")
		}
		asm.entry = fields[1]
	default:
		return asm.makeSyntaxErr("unknown directive " + fields[0])
	}
	asm.appendCommand(Command{Tp: DirectiveCommand, Mnemonic: fields[0], Operands: fields[1:]}, line)
	return nil
}

func (asm *Assembler) transformLabel(line []byte) error {
	label := string(line[:len(line)-1])
	if !labelFormat.MatchString(label) {
		return asm.makeSyntaxErr("incorrect label format: " + label)
	}
	if _, exist := asm.labelLocationMap[label]; exist {
		return asm.makeSyntaxErr("duplicated label: " + label)
	}
	asm.labelLocationMap[label] = len(asm.commands)
	asm.labelAddrMap[label] = DataBaseAddr + int64(len(asm.data))
	asm.appendCommand(Command{Tp: LabelCommand, Mnemonic: label}, line)
	return nil
}

// transformData accepts db 'text' where a quote inside text is written ''.
func (asm *Assembler) transformData(line []byte) error {
	content := string(bytes.TrimSpace(line[len("db "):]))
	if len(content) < 2 || content[0] != '\'' || content[len(content)-1] != '\'' {
		return asm.makeSyntaxErr("incorrect data format")
	}
	inner := content[1 : len(content)-1]
	var data []byte
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\'' {
			if i+1 >= len(inner) || inner[i+1] != '\'' {
				return asm.makeSyntaxErr("unescaped quote in data")
			}
			i++
		}
		data = append(data, inner[i])
	}
	command := Command{Tp: DataCommand, Mnemonic: "db", Addr: DataBaseAddr + int64(len(asm.data)), Data: data}
	asm.data = append(asm.data, data...)
	asm.appendCommand(command, line)
	return nil
}

func (asm *Assembler) transformInstruction(line []byte) error {
	mnemonicLen := util.CountPrefix(string(line), util.IsLetterOrUnderscoreOrNumber)
	if mnemonicLen == 0 {
		return asm.makeSyntaxErr("incorrect instruction format")
	}
	mnemonic := strings.ToLower(string(line[:mnemonicLen]))
	rest := strings.TrimSpace(string(line[mnemonicLen:]))
	var operands []string
	if rest != "" {
		for _, operand := range strings.Split(rest, ",") {
			operand = strings.TrimSpace(operand)
			if operand == "" {
				return asm.makeSyntaxErr("empty operand")
			}
			operands = append(operands, operand)
		}
	}
	asm.appendCommand(Command{Tp: InstructionCommand, Mnemonic: mnemonic, Operands: operands}, line)
	return nil
}

func (asm *Assembler) appendCommand(command Command, line []byte) {
	command.Line = asm.line
	command.OriginalContent = string(line)
	asm.commands = append(asm.commands, command)
}

func (asm *Assembler) checkEntry() error {
	if asm.entry == "" {
		return nil
	}
	if _, exist := asm.labelLocationMap[asm.entry]; !exist {
		return errors.New(fmt.Sprintf("entry label %s is not defined", asm.entry))
	}
	return nil
}

// Entry returns the label named by .global, empty when there is none.
func (asm *Assembler) Entry() string {
	return asm.entry
}

// LabelAddress returns the data address of label.
func (asm *Assembler) LabelAddress(label string) (int64, bool) {
	addr, exist := asm.labelAddrMap[label]
	return addr, exist
}

// Data returns all data bytes, starting at DataBaseAddr.
func (asm *Assembler) Data() []byte {
	return asm.data
}

func (asm *Assembler) Commands() []Command {
	return asm.commands
}

func (asm *Assembler) makeSyntaxErr(msg string) error {
	return errors.New(fmt.Sprintf("syntax err at line %d: %s", asm.line, msg))
}

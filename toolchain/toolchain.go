package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Toolchain turns an assembly file into an executable by running an external
// assembler and linker, `as -o x.o x.s` and `ld -o x x.o` by default.

const (
	DefaultAssembler = "as"
	DefaultLinker    = "ld"
)

type Toolchain struct {
	Assembler     string
	AssemblerArgs []string
	Linker        string
	LinkerArgs    []string
}

func New() *Toolchain {
	return &Toolchain{
		Assembler: DefaultAssembler,
		Linker:    DefaultLinker,
	}
}

// Assemble runs `<assembler> <args...> -o objectPath sourcePath`.
func (tc *Toolchain) Assemble(ctx context.Context, sourcePath string, objectPath string) error {
	return run(ctx, tc.Assembler, tc.AssemblerArgs, objectPath, sourcePath)
}

// Link runs `<linker> <args...> -o executablePath objectPath`.
func (tc *Toolchain) Link(ctx context.Context, objectPath string, executablePath string) error {
	return run(ctx, tc.Linker, tc.LinkerArgs, executablePath, objectPath)
}

func run(ctx context.Context, tool string, args []string, output string, input string) error {
	cmdArgs := make([]string, 0, len(args)+3)
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, "-o", output, input)
	cmd := exec.CommandContext(ctx, tool, cmdArgs...)
	out := new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = out, out
	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return fmt.Errorf("run %s %s: %w", tool, strings.Join(cmdArgs, " "), err)
		}
		return fmt.Errorf("run %s %s: %w: %s", tool, strings.Join(cmdArgs, " "), err, msg)
	}
	return nil
}

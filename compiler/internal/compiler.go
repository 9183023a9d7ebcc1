package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"goal/assembler"
	"goal/toolchain"
)

// Compile runs the three stages on source and returns the assembly program.
// It keeps no state between calls.
func Compile(source string, labels LabelSupplier) (string, error) {
	tokens, err := Lex(source)
	if err != nil {
		return "", err
	}
	ast, err := Parse(tokens)
	if err != nil {
		return "", err
	}
	return GenerateCode(ast, labels)
}

// Artifacts are the files one build produced. Empty paths were not produced.
type Artifacts struct {
	Assembly       string
	AssemblyPath   string
	ObjectPath     string
	ExecutablePath string
}

// Builder drives a whole build, from source text to an executable on disk.
type Builder struct {
	Logger    *slog.Logger
	Toolchain *toolchain.Toolchain
	// NewLabels returns the label supplier of one build.
	NewLabels func() LabelSupplier
	OutputDir string
	// AssemblyOnly stops the build once <program>.s is written.
	AssemblyOnly bool
}

func (b *Builder) Build(ctx context.Context, programName string, source string) (*Artifacts, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("program", programName)
	newLabels := b.NewLabels
	if newLabels == nil {
		newLabels = func() LabelSupplier { return NewCounterLabels() }
	}

	logger.InfoContext(ctx, "compiler: tokenizing")
	tokens, err := Lex(source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", programName, err)
	}
	logger.DebugContext(ctx, "compiler: tokenized", "tokens", len(tokens))

	logger.InfoContext(ctx, "compiler: parsing")
	ast, err := Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", programName, err)
	}
	logger.DebugContext(ctx, "compiler: parsed", "ast", ast.String())

	logger.InfoContext(ctx, "compiler: converting to assembly")
	assembly, err := GenerateCode(ast, newLabels())
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", programName, err)
	}

	base := filepath.Join(b.OutputDir, programName)
	artifacts := &Artifacts{
		Assembly:     assembly,
		AssemblyPath: base + ".s",
	}
	logger.InfoContext(ctx, "compiler: saving assembly", "path", artifacts.AssemblyPath)
	err = os.WriteFile(artifacts.AssemblyPath, []byte(assembly), 0666)
	if err != nil {
		return nil, fmt.Errorf("save assembly: %w", err)
	}
	if b.AssemblyOnly {
		return artifacts, nil
	}

	objectPath := base + ".o"
	logger.InfoContext(ctx, "compiler: compiling assembly to an object file", "path", objectPath)
	err = b.Toolchain.Assemble(ctx, artifacts.AssemblyPath, objectPath)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", artifacts.AssemblyPath, err)
	}
	artifacts.ObjectPath = objectPath

	logger.InfoContext(ctx, "compiler: linking executable", "path", base)
	err = b.Toolchain.Link(ctx, objectPath, base)
	if err != nil {
		return nil, fmt.Errorf("link %s: %w", objectPath, err)
	}
	artifacts.ExecutablePath = base
	return artifacts, nil
}

// Simulate compiles source and runs the program on the assembler's machine
// model instead of the real toolchain.
func Simulate(source string, labels LabelSupplier) (string, *assembler.Result, error) {
	assembly, err := Compile(source, labels)
	if err != nil {
		return "", nil, err
	}
	asm := assembler.CreateAssembler()
	_, err = asm.Parse(strings.NewReader(assembly))
	if err != nil {
		return assembly, nil, fmt.Errorf("parse generated assembly: %w", err)
	}
	result, err := assembler.NewMachine(asm).Run(0)
	if err != nil {
		return assembly, result, fmt.Errorf("simulate: %w", err)
	}
	return assembly, result, nil
}

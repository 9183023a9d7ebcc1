package main

import (
	"context"
	"flag"
	"fmt"
	"goal/compiler/internal"
	"goal/configs"
	"goal/logs"
	"goal/toolchain"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
)

// goal compiles a source file holding one expression into an executable.

var (
	output     = flag.String("o", "", "the program name, defaults to the source path without its extension")
	configPath = flag.String("config", "", "a cue config file read before goal.cue in the usual places")
	asmOnly    = flag.Bool("S", false, "stop after writing the assembly file")
	trace      = flag.Bool("trace", false, "simulate the program and print every executed instruction instead of building it")
	labels     = flag.String("labels", "", "how string labels are named: counter or random")
	verbose    = flag.Bool("v", false, "log debug messages")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <source file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}
	sourcePath := flag.Arg(0)

	config, err := configs.Load(configs.Locate(*configPath))
	if err != nil {
		fmt.Printf("Error: %+v\n", err)
		return 1
	}
	if *labels != "" {
		config.Labels = *labels
	}
	level, err := logs.ParseLevel(config.LogLevel)
	if err != nil {
		fmt.Printf("Error: %+v\n", err)
		return 1
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger, closeLog, err := logs.New(logs.Options{
		Level:   level,
		File:    config.LogFile,
		Journal: config.Journal,
	})
	if err != nil {
		fmt.Printf("Error: %+v\n", err)
		return 1
	}
	defer closeLog()

	logger.Info("compiler: reading code", "path", sourcePath)
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		logger.Error("read source", "error", err)
		return 1
	}

	if *trace {
		return traceProgram(logger, string(source), config.Labels)
	}

	builder := &internal.Builder{
		Logger: logger,
		Toolchain: &toolchain.Toolchain{
			Assembler:     config.Assembler,
			AssemblerArgs: config.AssemblerArgs,
			Linker:        config.Linker,
			LinkerArgs:    config.LinkerArgs,
		},
		NewLabels: func() internal.LabelSupplier {
			return internal.NewLabelSupplier(config.Labels)
		},
		OutputDir:    config.OutputDir,
		AssemblyOnly: *asmOnly,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	artifacts, err := builder.Build(ctx, programName(sourcePath, *output), string(source))
	if err != nil {
		logger.Error("compile failed", "error", err)
		return 1
	}
	if artifacts.ExecutablePath != "" {
		logger.Info("compiler: done", "executable", artifacts.ExecutablePath)
	} else {
		logger.Info("compiler: done", "assembly", artifacts.AssemblyPath)
	}
	return 0
}

// programName strips the extension of the source path. A source without an
// extension gets .out so that the executable doesn't replace it.
func programName(sourcePath string, output string) string {
	if output != "" {
		return output
	}
	name := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	if name == sourcePath || name == "" {
		name = sourcePath + ".out"
	}
	return name
}

func traceProgram(logger *slog.Logger, source string, labelsName string) int {
	_, result, err := internal.Simulate(source, internal.NewLabelSupplier(labelsName))
	if result != nil {
		for i, step := range result.Steps {
			fmt.Printf("%4d  %-24s eax=%-12d stack=%d\n", i, step.Command.OriginalContent, step.Accumulator,
				step.StackDepth)
		}
	}
	if err != nil {
		logger.Error("simulate failed", "error", err)
		return 1
	}
	fmt.Printf("stdout: %q\n", result.Stdout)
	fmt.Printf("exit status: %d\n", result.ExitStatus)
	return 0
}

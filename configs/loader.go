package configs

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/samber/lo"
)

//go:embed schema.cue
var schema string

// FileNames are looked up in the working directory, the user config
// directory and /etc, in that order.
var FileNames = []string{
	"goal.cue",
	".goal.cue",
}

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings of a build. Zero values are replaced by Default.
type Config struct {
	Assembler     string   `json:"assembler"`
	AssemblerArgs []string `json:"assemblerArgs"`
	Linker        string   `json:"linker"`
	LinkerArgs    []string `json:"linkerArgs"`
	OutputDir     string   `json:"outputDir"`
	Labels        string   `json:"labels"`
	LogLevel      string   `json:"logLevel"`
	LogFile       string   `json:"logFile"`
	Journal       bool     `json:"journal"`
}

func Default() Config {
	return Config{
		Assembler: "as",
		Linker:    "ld",
		Labels:    "counter",
		LogLevel:  "info",
	}
}

// fileConfig is one file's view, nil means the file doesn't set the field.
type fileConfig struct {
	Assembler     *string   `json:"assembler"`
	AssemblerArgs *[]string `json:"assemblerArgs"`
	Linker        *string   `json:"linker"`
	LinkerArgs    *[]string `json:"linkerArgs"`
	OutputDir     *string   `json:"outputDir"`
	Labels        *string   `json:"labels"`
	LogLevel      *string   `json:"logLevel"`
	LogFile       *string   `json:"logFile"`
	Journal       *bool     `json:"journal"`
}

func (f fileConfig) applyTo(config *Config) {
	setIfPresent(&config.Assembler, f.Assembler)
	setIfPresent(&config.AssemblerArgs, f.AssemblerArgs)
	setIfPresent(&config.Linker, f.Linker)
	setIfPresent(&config.LinkerArgs, f.LinkerArgs)
	setIfPresent(&config.OutputDir, f.OutputDir)
	setIfPresent(&config.Labels, f.Labels)
	setIfPresent(&config.LogLevel, f.LogLevel)
	setIfPresent(&config.LogFile, f.LogFile)
	setIfPresent(&config.Journal, f.Journal)
}

func setIfPresent[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

// Load reads the cue files at paths, validates each against the schema and
// merges them over Default. A field set by an earlier path wins over later
// ones.
func Load(paths []string) (Config, error) {
	config := Default()
	ctx := cuecontext.New()
	schemaValue := ctx.CompileString("close({" + schema + "})")
	if err := schemaValue.Err(); err != nil {
		return config, err
	}

	files := make([]fileConfig, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return config, err
		}
		value := ctx.CompileBytes(content, cue.Filename(path))
		if err := value.Err(); err != nil {
			return config, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
		if err := schemaValue.Unify(value).Validate(cue.Concrete(true)); err != nil {
			return config, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
		var file fileConfig
		if err := value.Decode(&file); err != nil {
			return config, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
		files = append(files, file)
	}

	for i := len(files) - 1; i >= 0; i-- {
		files[i].applyTo(&config)
	}
	return config, nil
}

// Locate returns the existing config files, explicit first, then FileNames in
// the working directory, the user config directory and /etc.
func Locate(explicit string) []string {
	var dirs []string
	if workingDir, err := os.Getwd(); err == nil {
		dirs = append(dirs, workingDir)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, configDir)
	}
	dirs = append(dirs, "/etc")

	var candidates []string
	for _, dir := range dirs {
		for _, name := range FileNames {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	found := lo.Filter(candidates, func(path string, _ int) bool {
		_, err := os.Stat(path)
		return err == nil
	})
	if explicit != "" {
		found = append([]string{explicit}, lo.Without(found, explicit)...)
	}
	return lo.Uniq(found)
}

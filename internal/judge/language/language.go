// Package language resolves submission languages to build and run recipes.
package language

import (
	"strings"

	appErr "codejudge/pkg/errors"

	"github.com/google/shlex"
)

const (
	srcPlaceholder   = "{src}"
	binPlaceholder   = "{bin}"
	classPlaceholder = "{class}"
)

// Spec defines how to compile and run a language.
type Spec struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	SourceFile string   `yaml:"sourceFile"`
	BinaryFile string   `yaml:"binaryFile"`
	// CompileCmd is empty for interpreted languages.
	CompileCmd       string   `yaml:"compileCmd"`
	RunCmd           string   `yaml:"runCmd"`
	Image            string   `yaml:"image"`
	CompileTimeoutMs int64    `yaml:"compileTimeoutMs"`
	Env              []string `yaml:"env"`
	// RemoteID is the language id understood by the remote judge API.
	RemoteID int `yaml:"remoteId"`
	// MainClass fills {class} in file names and commands for languages whose
	// source file must be named after the entry class.
	MainClass string `yaml:"mainClass"`
}

// WithMainClass returns a copy that resolves {class} to name. An empty name
// keeps the configured default.
func (s Spec) WithMainClass(name string) Spec {
	if name != "" {
		s.MainClass = name
	}
	return s
}

// SourceName returns the file the submission is written to.
func (s Spec) SourceName() string {
	return strings.ReplaceAll(s.SourceFile, classPlaceholder, s.MainClass)
}

// BinaryName returns the compiled artifact name.
func (s Spec) BinaryName() string {
	return strings.ReplaceAll(s.BinaryFile, classPlaceholder, s.MainClass)
}

// CompileEnabled reports whether the language has a compile step.
func (s Spec) CompileEnabled() bool {
	return strings.TrimSpace(s.CompileCmd) != ""
}

// CompileArgs expands the compile template into argv.
func (s Spec) CompileArgs() ([]string, error) {
	if !s.CompileEnabled() {
		return nil, nil
	}
	return s.buildCommand(s.CompileCmd)
}

// RunArgs expands the run template into argv.
func (s Spec) RunArgs() ([]string, error) {
	return s.buildCommand(s.RunCmd)
}

func (s Spec) buildCommand(tpl string) ([]string, error) {
	cmd := strings.ReplaceAll(tpl, srcPlaceholder, s.SourceName())
	cmd = strings.ReplaceAll(cmd, binPlaceholder, s.BinaryName())
	cmd = strings.ReplaceAll(cmd, classPlaceholder, s.MainClass)
	parts, err := shlex.Split(cmd)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(parts) == 0 {
		return nil, appErr.ValidationError("command", "required")
	}
	return parts, nil
}

func (s Spec) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return appErr.ValidationError("language.id", "required")
	}
	if s.SourceFile == "" {
		return appErr.ValidationError("language.sourceFile", "required")
	}
	if strings.Contains(s.SourceFile+s.BinaryFile+s.CompileCmd+s.RunCmd, classPlaceholder) && s.MainClass == "" {
		return appErr.ValidationError("language.mainClass", "required when {class} is used")
	}
	if strings.TrimSpace(s.RunCmd) == "" {
		return appErr.ValidationError("language.runCmd", "required")
	}
	if s.CompileTimeoutMs < 0 {
		return appErr.ValidationError("language.compileTimeoutMs", "must be non-negative")
	}
	return nil
}

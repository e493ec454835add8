package language

import (
	"sort"
	"strings"
	"sync"

	appErr "codejudge/pkg/errors"
)

// Registry maps language names and aliases to specs.
type Registry struct {
	mu      sync.RWMutex
	specs   map[string]Spec
	aliases map[string]string
}

// NewRegistry creates a registry preloaded with the built-in languages.
func NewRegistry() *Registry {
	r := &Registry{
		specs:   make(map[string]Spec),
		aliases: make(map[string]string),
	}
	r.registerDefaults()
	return r
}

// Register adds or replaces a language. Aliases are additive.
func (r *Registry) Register(spec Spec) error {
	spec.ID = normalize(spec.ID)
	if spec.BinaryFile == "" {
		spec.BinaryFile = "Main"
	}
	if err := spec.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.ID] = spec
	r.aliases[spec.ID] = spec.ID
	for _, alias := range spec.Aliases {
		if key := normalize(alias); key != "" {
			r.aliases[key] = spec.ID
		}
	}
	return nil
}

// Resolve returns the spec for a language name or alias, case-insensitively.
func (r *Registry) Resolve(name string) (Spec, error) {
	key := normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.aliases[key]
	if !ok {
		return Spec{}, appErr.New(appErr.LanguageNotSupported).WithMessagef("language %q is not supported", name)
	}
	return r.specs[id], nil
}

// List returns all canonical specs sorted by id.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) registerDefaults() {
	for _, spec := range builtinSpecs() {
		if err := r.Register(spec); err != nil {
			panic("invalid builtin language " + spec.ID + ": " + err.Error())
		}
	}
}

func builtinSpecs() []Spec {
	return []Spec{
		{
			ID: "c", Name: "C", SourceFile: "Main.c",
			CompileCmd: "gcc {src} -O2 -o {bin}", RunCmd: "./{bin}",
			Image: "gcc:latest", CompileTimeoutMs: 30000, RemoteID: 50,
		},
		{
			ID: "cpp", Name: "C++", Aliases: []string{"c++", "cxx"}, SourceFile: "Main.cpp",
			CompileCmd: "g++ {src} -O2 -std=gnu++17 -o {bin}", RunCmd: "./{bin}",
			Image: "gcc:latest", CompileTimeoutMs: 30000, RemoteID: 54,
		},
		{
			ID: "java", Name: "Java", SourceFile: "{class}.java", MainClass: "Main",
			CompileCmd: "javac {src}", RunCmd: "java -Xss64m {class}",
			Image: "openjdk:21", CompileTimeoutMs: 15000, RemoteID: 62,
		},
		{
			ID: "python", Name: "Python", Aliases: []string{"py", "python3"}, SourceFile: "main.py",
			RunCmd: "python3 -u {src}", Image: "python:3.11-slim", RemoteID: 71,
			Env: []string{"PYTHONDONTWRITEBYTECODE=1"},
		},
		{
			ID: "javascript", Name: "JavaScript", Aliases: []string{"js", "node", "nodejs"}, SourceFile: "main.js",
			RunCmd: "node {src}", Image: "node:18-slim", RemoteID: 63,
		},
		{
			ID: "typescript", Name: "TypeScript", Aliases: []string{"ts"}, SourceFile: "main.ts",
			CompileCmd: "tsc --target es2019 --module commonjs {src}", RunCmd: "node main.js",
			Image: "node:18-slim", CompileTimeoutMs: 60000, RemoteID: 74,
		},
		{
			ID: "go", Name: "Go", Aliases: []string{"golang"}, SourceFile: "main.go",
			CompileCmd: "go build -o {bin} {src}", RunCmd: "./{bin}",
			Image: "golang:1.21-alpine", CompileTimeoutMs: 20000, RemoteID: 60,
			Env: []string{"GOCACHE=/tmp/gocache", "CGO_ENABLED=0"},
		},
		{
			ID: "rust", Name: "Rust", Aliases: []string{"rs"}, SourceFile: "main.rs",
			CompileCmd: "rustc {src} -O -o {bin}", RunCmd: "./{bin}",
			Image: "rust:1.75-slim", CompileTimeoutMs: 30000, RemoteID: 73,
		},
		{
			ID: "csharp", Name: "C#", Aliases: []string{"c#", "cs"}, SourceFile: "Main.cs",
			RunCmd: "dotnet script {src}", Image: "mcr.microsoft.com/dotnet/sdk:7.0", RemoteID: 51,
		},
		{
			ID: "php", Name: "PHP", SourceFile: "main.php",
			RunCmd: "php {src}", Image: "php:8.2-cli", RemoteID: 68,
		},
		{
			ID: "ruby", Name: "Ruby", Aliases: []string{"rb"}, SourceFile: "main.rb",
			RunCmd: "ruby {src}", Image: "ruby:3.2-slim", RemoteID: 72,
		},
		{
			ID: "swift", Name: "Swift", SourceFile: "main.swift",
			CompileCmd: "swiftc {src} -o {bin}", RunCmd: "./{bin}",
			Image: "swift:5.9", CompileTimeoutMs: 60000, RemoteID: 83,
		},
		{
			ID: "kotlin", Name: "Kotlin", Aliases: []string{"kt"}, SourceFile: "Main.kt", BinaryFile: "Main.jar",
			CompileCmd: "kotlinc {src} -include-runtime -d {bin}", RunCmd: "java -jar {bin}",
			Image: "zenika/kotlin:latest", CompileTimeoutMs: 60000, RemoteID: 78,
		},
		{
			ID: "dart", Name: "Dart", SourceFile: "main.dart",
			RunCmd: "dart run {src}", Image: "dart:stable", RemoteID: 90,
		},
		{
			ID: "scala", Name: "Scala", SourceFile: "Main.scala",
			CompileCmd: "scalac {src}", RunCmd: "scala Main",
			Image: "hseeberger/scala-sbt:latest", CompileTimeoutMs: 60000, RemoteID: 81,
		},
		{
			ID: "bash", Name: "Bash", Aliases: []string{"sh", "shell"}, SourceFile: "main.sh",
			RunCmd: "bash {src}", Image: "bash:5", RemoteID: 46,
		},
	}
}

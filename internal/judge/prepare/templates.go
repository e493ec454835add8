package prepare

import (
	"strings"
	"sync"
	"text/template"

	appErr "codejudge/pkg/errors"
)

// TemplateData is what a wrapper template sees.
type TemplateData struct {
	// Code is the user submission.
	Code string
	// Entry is the inferred or default function name.
	Entry string
	// Call invokes Entry, through a Solution instance when the code declares one.
	Call string
}

type templateKey struct {
	language  string
	problemID int64
}

// TemplateRegistry maps (language, problem) pairs to wrapper templates.
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates map[templateKey]*template.Template
	entries   map[int64]string
}

// NewTemplateRegistry creates a registry with the built-in problem wrappers.
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{
		templates: make(map[templateKey]*template.Template),
		entries:   make(map[int64]string),
	}
	for problemID, entry := range builtinEntries {
		r.entries[problemID] = entry
	}
	for key, text := range builtinTemplates {
		if err := r.Register(key.language, key.problemID, text); err != nil {
			panic("invalid builtin template: " + err.Error())
		}
	}
	return r
}

// Register parses and stores a wrapper template. The template must reference {{.Code}}.
func (r *TemplateRegistry) Register(languageID string, problemID int64, text string) error {
	if languageID == "" {
		return appErr.ValidationError("language", "required")
	}
	if !strings.Contains(text, "{{.Code}}") {
		return appErr.ValidationError("template", "must contain {{.Code}}")
	}
	tpl, err := template.New(languageID).Option("missingkey=error").Parse(text)
	if err != nil {
		return appErr.Wrapf(err, appErr.InvalidParams, "parse template failed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[templateKey{language: languageID, problemID: problemID}] = tpl
	return nil
}

// SetDefaultEntry sets the entry name used when none can be inferred.
func (r *TemplateRegistry) SetDefaultEntry(problemID int64, entry string) error {
	if !validEntry(entry) {
		return appErr.ValidationError("defaultEntry", "must be an identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[problemID] = entry
	return nil
}

// DefaultEntry returns the fallback entry name for a problem.
func (r *TemplateRegistry) DefaultEntry(problemID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.entries[problemID]; ok {
		return entry
	}
	return fallbackEntry
}

// Render fills the template for (language, problem) with data.
func (r *TemplateRegistry) Render(languageID string, problemID int64, data TemplateData) (string, error) {
	r.mu.RLock()
	tpl, ok := r.templates[templateKey{language: languageID, problemID: problemID}]
	r.mu.RUnlock()
	if !ok {
		return "", appErr.New(appErr.TemplateNotFound).
			WithDetail("language", languageID).
			WithDetail("problemId", problemID)
	}

	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", appErr.Wrapf(err, appErr.InvalidParams, "render template failed")
	}
	return sb.String(), nil
}

// Package workspace manages per-execution scratch directories.
package workspace

import (
	"context"
	"os"
	"path/filepath"

	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

const dirPattern = "codejudge-exec-"

// Manager creates scratch directories under one root.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at root, or the system temp dir when empty.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "create workspace root %s failed", root)
	}
	return &Manager{root: root}, nil
}

// Root returns the directory new workspaces are created in.
func (m *Manager) Root() string {
	return m.root
}

// Scope creates an exclusive directory, runs fn in it and removes the directory
// on every exit path. A panic in fn is re-raised after cleanup.
func (m *Manager) Scope(ctx context.Context, fn func(dir string) error) (err error) {
	dir, err := os.MkdirTemp(m.root, dirPattern)
	if err != nil {
		return appErr.Wrapf(err, appErr.JudgeSystemError, "create workspace failed")
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn(ctx, "remove workspace failed", zap.String("dir", dir), zap.Error(rmErr))
		}
	}()
	return fn(dir)
}

// WriteFile writes a source file into a workspace directory.
func WriteFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if filepath.Dir(path) != filepath.Clean(dir) {
		return appErr.ValidationError("fileName", "must not contain path separators")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return appErr.Wrapf(err, appErr.JudgeSystemError, "write %s failed", name)
	}
	return nil
}

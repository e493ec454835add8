package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	appErr "codejudge/pkg/errors"
)

func TestScopeRemovesDirectory(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager failed: %v", err)
	}
	var seen string
	err = m.Scope(context.Background(), func(dir string) error {
		seen = dir
		if !strings.HasPrefix(filepath.Base(dir), dirPattern) {
			t.Fatalf("unexpected dir name %s", dir)
		}
		return WriteFile(dir, "main.py", "print(1)")
	})
	if err != nil {
		t.Fatalf("scope failed: %v", err)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatalf("workspace must be removed, stat err=%v", err)
	}
}

func TestScopeRemovesOnError(t *testing.T) {
	m, _ := NewManager(t.TempDir())
	boom := errors.New("boom")
	var seen string
	err := m.Scope(context.Background(), func(dir string) error {
		seen = dir
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatalf("workspace must be removed after error")
	}
}

func TestScopeRemovesOnPanic(t *testing.T) {
	m, _ := NewManager(t.TempDir())
	var seen string
	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Fatalf("panic must propagate, got %v", r)
			}
		}()
		_ = m.Scope(context.Background(), func(dir string) error {
			seen = dir
			panic("kaboom")
		})
	}()
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatalf("workspace must be removed after panic")
	}
}

func TestScopesAreExclusive(t *testing.T) {
	m, _ := NewManager(t.TempDir())
	_ = m.Scope(context.Background(), func(a string) error {
		return m.Scope(context.Background(), func(b string) error {
			if a == b {
				t.Fatalf("nested scopes share a directory")
			}
			return nil
		})
	})
	entries, _ := os.ReadDir(m.Root())
	if len(entries) != 0 {
		t.Fatalf("expected empty root, got %d entries", len(entries))
	}
}

func TestWriteFileRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFile(dir, "../escape.py", "x"); !appErr.Is(err, appErr.ValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

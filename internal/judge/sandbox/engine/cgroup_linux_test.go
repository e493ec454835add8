//go:build linux

package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCgroupFiles(t *testing.T) {
	dir := t.TempDir()
	if wasOomKilled(dir) {
		t.Fatalf("missing memory.events must not report oom")
	}
	events := "low 0\nhigh 0\nmax 3\noom 1\noom_kill 1\n"
	if err := os.WriteFile(filepath.Join(dir, "memory.events"), []byte(events), 0644); err != nil {
		t.Fatalf("write events failed: %v", err)
	}
	if !wasOomKilled(dir) {
		t.Fatalf("expected oom kill")
	}
	if err := os.WriteFile(filepath.Join(dir, "memory.peak"), []byte("2097152\n"), 0644); err != nil {
		t.Fatalf("write peak failed: %v", err)
	}
	if got := memoryPeakKB(dir, nil); got != 2048 {
		t.Fatalf("expected 2048KB, got %d", got)
	}
	if got := memoryPeakKB("", nil); got != 0 {
		t.Fatalf("expected 0 without state, got %d", got)
	}
}

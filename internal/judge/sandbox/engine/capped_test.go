package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codejudge/internal/judge/sandbox/result"
)

func writeFile(dir, name string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
}

func TestCappedBuffer(t *testing.T) {
	cases := []struct {
		name      string
		limit     int64
		writes    []string
		want      string
		truncated bool
	}{
		{name: "under limit", limit: 10, writes: []string{"abc", "def"}, want: "abcdef"},
		{name: "exact limit", limit: 6, writes: []string{"abc", "def"}, want: "abcdef"},
		{name: "split write", limit: 4, writes: []string{"abc", "def"}, want: "abcd" + result.TruncatedMarker, truncated: true},
		{name: "after cap", limit: 3, writes: []string{"abc", "d"}, want: "abc" + result.TruncatedMarker, truncated: true},
		{name: "empty write at cap", limit: 3, writes: []string{"abc", ""}, want: "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := newCappedBuffer(tc.limit)
			for _, w := range tc.writes {
				n, err := buf.Write([]byte(w))
				if err != nil || n != len(w) {
					t.Fatalf("write must accept all bytes: n=%d err=%v", n, err)
				}
			}
			if buf.String() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, buf.String())
			}
			if buf.Truncated() != tc.truncated {
				t.Fatalf("expected truncated=%v", tc.truncated)
			}
		})
	}
}

func TestCappedBufferDefaultLimit(t *testing.T) {
	buf := newCappedBuffer(0)
	big := strings.Repeat("a", int(defaultMaxOutputBytes)+1)
	_, _ = buf.Write([]byte(big))
	if !buf.Truncated() {
		t.Fatalf("expected default limit to apply")
	}
}

//go:build !linux

package main

import (
	"fmt"
	"os"
)

func rlimitResource(id int) int {
	return id
}

func main() {
	_, _ = fmt.Fprintln(os.Stderr, "sandbox-init: only supported on linux")
	os.Exit(126)
}

// kcc is a single-pass compiler for a small C-like language. It emits
// x86-64 (NASM) or AArch64 (GNU as) assembly that links against a tiny
// hand-written runtime providing printint, printchar and printstring.
package main

import (
	"context"
	"os"

	"github.com/knightc/kcc/internal/cli"
)

// Entry point.
func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}

// Package main provides the stepform CLI: it inspects form schemas, validates
// record files against them and submits records through the wizard into a
// SQLite store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

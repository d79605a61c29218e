// Package main provides the entry point for the anonyfiles CLI.
package main

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/anonyfiles-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

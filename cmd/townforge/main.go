// Package main is the entry point for townforge.
package main

import (
	"os"

	"github.com/townforge/townforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

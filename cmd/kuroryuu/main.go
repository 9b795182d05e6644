// Package main is the entry point for the kuroryuu CLI.
package main

import (
	"os"

	"github.com/ahostbr/kuroryuu/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

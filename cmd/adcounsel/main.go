// Package main is the entry point for the adcounsel CLI.
package main

import (
	"os"

	"github.com/adcounsel/adcounsel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

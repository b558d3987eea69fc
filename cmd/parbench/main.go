// Package main provides the entry point for the parbench CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

func main() {
	if err := Execute(); err != nil {
		// Run failures were already rendered with their phase.
		var pe *types.PhaseError
		if !errors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

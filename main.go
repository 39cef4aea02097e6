// Package main provides a short usage banner at the module root.
//
// For the full CLI, use: go run ./cmd/signalgp
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("signalgp - a tag-addressed event-driven virtual machine")
	fmt.Println("")
	fmt.Println("Usage: signalgp [options] <program.sgp>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config   Path to a VM configuration JSON file")
	fmt.Println("  -ticks    Number of ticks to run")
	fmt.Println("  -spawn    Module id to spawn one starting thread on")
	fmt.Println("  -trace    Write per-tick diagnostic lines to stderr")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/signalgp' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: you provided arguments. Use 'go run ./cmd/signalgp' instead.")
	}
}

// Package main provides the entry point for TomSim.
// TomSim is a cycle-accurate teaching simulator for Tomasulo's
// dynamic-scheduling algorithm.
//
// For the full CLI, use: go run ./cmd/tomsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("TomSim - Tomasulo Algorithm Simulator")
	fmt.Println("")
	fmt.Println("Usage: tomsim [options] <program.asm>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to latency configuration JSON file")
	fmt.Println("  -max-cycles  Cycle limit (0 = no limit)")
	fmt.Println("  -trace       Print the stage log of every cycle")
	fmt.Println("  -state       Dump RS/ROB/register tables after the run")
	fmt.Println("  -v           Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomsim' instead.")
	}
}

// Package main provides the entry point for TomSim.
// TomSim is a cycle-accurate teaching simulator for Tomasulo's algorithm.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/timing/core"
	"github.com/sarchlab/tomsim/timing/latency"
	"github.com/sarchlab/tomsim/timing/pipeline"
)

var (
	configPath = flag.String("config", "", "Path to latency configuration JSON file")
	maxCycles  = flag.Uint64("max-cycles", 100000, "Cycle limit (0 = no limit)")
	trace      = flag.Bool("trace", false, "Print the stage log of every cycle")
	dumpState  = flag.Bool("state", false, "Dump RS/ROB/register tables after the run")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomsim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	data, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		os.Exit(1)
	}
	lines := strings.Split(string(data), "\n")

	timingConfig := latency.DefaultTimingConfig()
	if *configPath != "" {
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		if err := timingConfig.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid timing config: %v\n", err)
			os.Exit(1)
		}
	}

	c := core.NewCore(
		pipeline.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
	)
	if err := c.Load(lines); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Instructions: %d\n", len(c.Pipeline.Instructions()))
	}

	finished := run(c)

	printReport(c, programPath, finished)

	if *dumpState {
		dumpTables(c.State())
	}
}

// run steps the core to completion, optionally tracing each cycle.
func run(c *core.Core) bool {
	if !*trace {
		return c.Run(*maxCycles)
	}

	for !c.Finished() {
		if *maxCycles > 0 && c.Metrics().Cycles >= *maxCycles {
			return false
		}
		c.Step()
		s := c.State()
		fmt.Printf("--- cycle %d ---\n", s.Cycle)
		for _, line := range s.Log {
			fmt.Printf("  %s\n", line)
		}
	}
	return true
}

func printReport(c *core.Core, programPath string, finished bool) {
	m := c.Metrics()

	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", programPath)
	if !finished {
		color.Yellow("Cycle limit reached before the program finished.")
	}
	fmt.Printf("Total Cycles: %d\n", m.Cycles)
	fmt.Printf("Committed: %d\n", m.Committed)
	fmt.Printf("IPC: %.2f\n", m.IPC)
	fmt.Printf("Stalls: %d\n", m.Stalls)
	fmt.Printf("Branch accuracy: %.1f%%\n", m.BranchAccuracy*100)
}

// dumpTables renders the station, ROB, and register state.
func dumpTables(s pipeline.State) {
	busy := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\nReservation stations:\n")
	rsTable := tablewriter.NewWriter(os.Stdout)
	rsTable.SetHeader([]string{"Name", "Busy", "Op", "Vj", "Vk", "Qj", "Qk", "Dest", "Rem"})
	for _, rs := range s.Stations {
		row := []string{
			rs.Name,
			strconv.FormatBool(rs.Busy),
			rs.Op.String(),
			fmt.Sprintf("%g", rs.Vj),
			fmt.Sprintf("%g", rs.Vk),
			tagString(rs.Qj),
			tagString(rs.Qk),
			tagString(rs.Dest),
			strconv.Itoa(rs.Remaining),
		}
		if rs.Busy {
			row[0] = busy(row[0])
		}
		rsTable.Append(row)
	}
	rsTable.Render()

	fmt.Printf("\nReorder buffer:\n")
	robTable := tablewriter.NewWriter(os.Stdout)
	robTable.SetHeader([]string{"ID", "Instr", "Dest", "State", "Ready", "Result"})
	for _, e := range s.ROB {
		result := ""
		if e.HasResult {
			result = fmt.Sprintf("%g", e.Result)
		}
		robTable.Append([]string{
			strconv.Itoa(e.ID),
			e.Instr,
			e.Dest,
			e.State.String(),
			strconv.FormatBool(e.Ready),
			result,
		})
	}
	robTable.Render()

	fmt.Printf("\nRegisters (non-zero or renamed):\n")
	regTable := tablewriter.NewWriter(os.Stdout)
	regTable.SetHeader([]string{"Reg", "Value", "Producer"})
	for i, v := range s.IntRegs {
		if v != 0 || s.IntTags[i] != emu.TagNone {
			regTable.Append([]string{
				fmt.Sprintf("R%d", i),
				strconv.FormatInt(v, 10),
				tagString(s.IntTags[i]),
			})
		}
	}
	for i, v := range s.FPRegs {
		if v != 0 || s.FPTags[i] != emu.TagNone {
			regTable.Append([]string{
				fmt.Sprintf("F%d", i),
				fmt.Sprintf("%g", v),
				tagString(s.FPTags[i]),
			})
		}
	}
	regTable.Render()
}

func tagString(tag int) string {
	if tag == pipeline.InvalidID {
		return "-"
	}
	return strconv.Itoa(tag)
}

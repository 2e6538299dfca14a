// Package core provides the cycle-accurate Tomasulo core model.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/timing/pipeline"
)

// Core represents one simulated Tomasulo core. It owns the register
// file, the memory image, and the pipeline built over them.
type Core struct {
	// Pipeline is the underlying dynamic-scheduling pipeline.
	Pipeline *pipeline.Pipeline

	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewCore creates a Core with a fresh register file and memory image.
func NewCore(opts ...pipeline.Option) *Core {
	regFile := emu.NewRegFile()
	memory := emu.NewMemory()
	return &Core{
		Pipeline: pipeline.NewPipeline(regFile, memory, opts...),
		regFile:  regFile,
		memory:   memory,
	}
}

// Load decodes and installs a program, resetting all dynamic state.
func (c *Core) Load(lines []string) error {
	return c.Pipeline.Load(lines)
}

// Step executes one pipeline cycle.
func (c *Core) Step() {
	c.Pipeline.Step()
}

// Run steps the core until the program finishes or maxCycles elapse
// (0 means no limit). It returns true if the program finished.
func (c *Core) Run(maxCycles uint64) bool {
	return c.Pipeline.Run(maxCycles)
}

// Finished reports whether the program has fully retired.
func (c *Core) Finished() bool {
	return c.Pipeline.Finished()
}

// State returns an observable snapshot of the pipeline.
func (c *Core) State() pipeline.State {
	return c.Pipeline.State()
}

// Metrics returns the performance counters accumulated so far.
func (c *Core) Metrics() pipeline.Metrics {
	return c.Pipeline.Metrics()
}

// RegFile returns the architectural register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the data memory image.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Reset clears all dynamic state while keeping the loaded program.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}

// Package pipeline provides the dynamic-scheduling pipeline model for
// cycle-accurate Tomasulo simulation.
//
// The pipeline implements speculative out-of-order execution with:
//   - Per-op-class reservation stations and typed functional units
//   - A reorder buffer enforcing in-order commit with stable entry IDs
//   - Register renaming via per-register producer tags
//   - A common data bus broadcasting results to dependent stations
//   - A 2-bit saturating branch predictor with flush-based recovery
//
// Each Step advances exactly one cycle, driving the stages in the fixed
// order Commit, Write-Back, Execute, Dispatch so that slots freed at the
// tail of the pipeline become available to earlier stages within the
// same tick.
package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/latency"
)

// Config holds the structural parameters of the pipeline.
type Config struct {
	// IssueWidth is the maximum number of dispatches and commits per
	// cycle. Default is 4.
	IssueWidth int

	// ROBSize is the reorder-buffer capacity. Default is 16.
	ROBSize int

	// RSCounts is the reservation-station pool size per op class.
	RSCounts map[OpClass]int

	// FUCounts is the functional-unit pool size per op class.
	FUCounts map[OpClass]int

	// PredictorTableSize is the branch predictor's counter table length.
	// Default is 64.
	PredictorTableSize uint32
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		IssueWidth: 4,
		ROBSize:    16,
		RSCounts: map[OpClass]int{
			ClassAdd:    3,
			ClassMul:    2,
			ClassLoad:   2,
			ClassStore:  2,
			ClassBranch: 1,
		},
		FUCounts: map[OpClass]int{
			ClassAdd:    2,
			ClassMul:    2,
			ClassLoad:   2,
			ClassStore:  2,
			ClassBranch: 1,
		},
		PredictorTableSize: 64,
	}
}

// Pipeline is the cycle-accurate Tomasulo pipeline engine. It exclusively
// owns all stations, units, the reorder buffer, the register file, memory,
// the predictor, and the counters; callers observe state between ticks
// through State and Metrics.
type Pipeline struct {
	config    Config
	latencies *latency.Table

	regFile   *emu.RegFile
	memory    *emu.Memory
	predictor *BranchPredictor
	rob       *ReorderBuffer
	stations  []*ReservationStation
	units     map[OpClass][]*FunctionalUnit

	instructions []*insts.Instruction
	labels       map[string]int

	pc       int
	halted   bool
	finished bool

	waitingWB []*ReservationStation

	cycleLog []string

	cycle     uint64
	committed uint64
	stalls    uint64
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithConfig replaces the whole structural configuration.
func WithConfig(config Config) Option {
	return func(p *Pipeline) {
		p.config = config
	}
}

// WithIssueWidth sets the maximum dispatches and commits per cycle.
func WithIssueWidth(width int) Option {
	return func(p *Pipeline) {
		p.config.IssueWidth = width
	}
}

// WithROBSize sets the reorder-buffer capacity.
func WithROBSize(size int) Option {
	return func(p *Pipeline) {
		p.config.ROBSize = size
	}
}

// WithLatencyTable sets a custom latency table.
func WithLatencyTable(table *latency.Table) Option {
	return func(p *Pipeline) {
		p.latencies = table
	}
}

// WithPredictorTableSize sets the branch predictor table length.
func WithPredictorTableSize(size uint32) Option {
	return func(p *Pipeline) {
		p.config.PredictorTableSize = size
	}
}

// NewPipeline creates a pipeline over the given register file and memory.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:  DefaultConfig(),
		regFile: regFile,
		memory:  memory,
		labels:  map[string]int{},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.latencies == nil {
		p.latencies = latency.NewTable()
	}

	p.predictor = NewBranchPredictor(BranchPredictorConfig{
		TableSize: p.config.PredictorTableSize,
	})
	p.rob = NewReorderBuffer(p.config.ROBSize)
	p.buildStations()
	p.buildUnits()

	return p
}

// buildStations lays the station pools out in declaration order; the
// allocator and the execute stage both scan them in this order.
func (p *Pipeline) buildStations() {
	p.stations = nil
	for _, class := range opClasses {
		for i := 0; i < p.config.RSCounts[class]; i++ {
			name := fmt.Sprintf("%s%d", class, i)
			p.stations = append(p.stations, NewReservationStation(name, class))
		}
	}
}

func (p *Pipeline) buildUnits() {
	p.units = map[OpClass][]*FunctionalUnit{}
	for _, class := range opClasses {
		for i := 0; i < p.config.FUCounts[class]; i++ {
			name := fmt.Sprintf("%s%d", class, i)
			p.units[class] = append(p.units[class], NewFunctionalUnit(name, class))
		}
	}
}

// Load decodes a program, builds the label table, validates register
// names and branch targets, and resets all dynamic state. Blank and
// unrecognized lines are discarded.
func (p *Pipeline) Load(lines []string) error {
	decoder := insts.NewDecoder()

	p.instructions = nil
	p.labels = map[string]int{}

	for _, line := range lines {
		inst := decoder.Decode(line)
		if inst.Label != "" {
			p.labels[inst.Label] = len(p.instructions)
		}
		if inst.Op == insts.OpInvalid {
			continue
		}
		p.instructions = append(p.instructions, inst)
	}

	if err := p.validateProgram(); err != nil {
		p.instructions = nil
		p.labels = map[string]int{}
		return err
	}

	p.Reset()
	return nil
}

// validateProgram rejects register names outside the two banks and branch
// targets that resolve to no label.
func (p *Pipeline) validateProgram() error {
	for _, inst := range p.instructions {
		for _, reg := range []string{inst.Rd, inst.Rs, inst.Rt} {
			if reg == "" {
				continue
			}
			if _, err := emu.ParseRef(reg); err != nil {
				return fmt.Errorf("instruction %q: %w", inst.Raw, err)
			}
		}
		if inst.Op.IsBranch() {
			if _, ok := p.labels[inst.Target]; !ok {
				return fmt.Errorf("instruction %q: %w %q",
					inst.Raw, ErrUnknownLabel, inst.Target)
			}
		}
	}
	return nil
}

// Reset clears all dynamic state while keeping the loaded program.
func (p *Pipeline) Reset() {
	p.regFile.Reset()
	p.memory.Reset()
	p.predictor.Reset()
	p.rob = NewReorderBuffer(p.config.ROBSize)
	for _, rs := range p.stations {
		rs.Clear()
	}
	for _, units := range p.units {
		for _, fu := range units {
			fu.Release()
		}
	}
	p.pc = 0
	p.halted = false
	p.finished = false
	p.waitingWB = nil
	p.cycleLog = nil
	p.cycle = 0
	p.committed = 0
	p.stalls = 0
}

// Step advances the pipeline by exactly one cycle. It is a no-op once the
// program has finished.
func (p *Pipeline) Step() {
	if p.finished {
		return
	}

	p.cycleLog = p.cycleLog[:0]
	p.cycle++

	p.commit()
	p.writeBack()
	p.execute()
	p.dispatch()
}

// Run steps the pipeline until it finishes or maxCycles elapse
// (0 means no limit). It returns true if the program finished.
func (p *Pipeline) Run(maxCycles uint64) bool {
	for !p.finished {
		if maxCycles > 0 && p.cycle >= maxCycles {
			return false
		}
		p.Step()
	}
	return true
}

// Metrics holds the pipeline performance counters.
type Metrics struct {
	Cycles         uint64
	Committed      uint64
	IPC            float64
	Stalls         uint64
	BranchAccuracy float64
}

// Metrics returns the performance counters accumulated so far.
func (p *Pipeline) Metrics() Metrics {
	m := Metrics{
		Cycles:         p.cycle,
		Committed:      p.committed,
		Stalls:         p.stalls,
		BranchAccuracy: p.predictor.Stats().Accuracy(),
	}
	if m.Cycles > 0 {
		m.IPC = float64(m.Committed) / float64(m.Cycles)
	}
	return m
}

// PC returns the index of the next instruction to dispatch.
func (p *Pipeline) PC() int {
	return p.pc
}

// Halted reports whether dispatch has stopped at a HLT.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Finished reports whether the program has fully retired.
func (p *Pipeline) Finished() bool {
	return p.finished
}

// Cycle returns the number of cycles simulated so far.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Predictor returns the branch predictor for inspection and pre-training.
func (p *Pipeline) Predictor() *BranchPredictor {
	return p.predictor
}

// RegFile returns the architectural register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Memory returns the data memory image.
func (p *Pipeline) Memory() *emu.Memory {
	return p.memory
}

// Instructions returns the loaded program.
func (p *Pipeline) Instructions() []*insts.Instruction {
	return p.instructions
}

// logf appends a formatted event to the current cycle's log.
func (p *Pipeline) logf(format string, args ...any) {
	p.cycleLog = append(p.cycleLog, fmt.Sprintf(format, args...))
}

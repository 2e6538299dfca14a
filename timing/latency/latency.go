// Package latency provides instruction timing models for cycle-accurate
// simulation. Latencies are grouped by instruction class and can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/tomsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with a custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given opcode.
func (t *Table) GetLatency(op insts.Op) uint64 {
	switch op {
	case insts.OpADD, insts.OpSUB, insts.OpADDI, insts.OpSUBI:
		return t.config.ALULatency

	case insts.OpMUL, insts.OpDIV:
		return t.config.MulDivLatency

	case insts.OpLD:
		return t.config.LoadLatency

	case insts.OpSD:
		return t.config.StoreLatency

	case insts.OpBEQ, insts.OpBNE, insts.OpBNEZ:
		return t.config.BranchLatency
	}

	return 1
}

// Config returns the underlying timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds execution latency values per instruction class.
type TimingConfig struct {
	// ALULatency is the execution latency for ADD, SUB, ADDI, SUBI.
	// Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MulDivLatency is the execution latency for MUL and DIV.
	// Default: 2 cycles.
	MulDivLatency uint64 `json:"muldiv_latency"`

	// LoadLatency is the execution latency for LD. Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the execution latency for SD. This covers address
	// computation only; the actual memory write happens at commit.
	// Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// BranchLatency is the execution latency for BEQ, BNE, BNEZ.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the reference latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:    1,
		MulDivLatency: 2,
		LoadLatency:   2,
		StoreLatency:  1,
		BranchLatency: 1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Values missing from
// the file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MulDivLatency == 0 {
		return fmt.Errorf("muldiv_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}

package pipeline

import (
	"hash/fnv"

	"github.com/sarchlab/tomsim/insts"
)

// BranchPredictorConfig holds configuration for the branch predictor.
type BranchPredictorConfig struct {
	// TableSize is the number of 2-bit counters in the prediction table.
	// Default is 64.
	TableSize uint32
}

// DefaultBranchPredictorConfig returns a default configuration.
func DefaultBranchPredictorConfig() BranchPredictorConfig {
	return BranchPredictorConfig{
		TableSize: 64,
	}
}

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of resolved branch predictions.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a fraction in [0, 1].
// With no resolved predictions yet it returns 1.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 1
	}
	return float64(s.Correct) / float64(s.Predictions)
}

// BranchPredictor implements a 2-bit saturating counter (bimodal)
// predictor. The table is indexed by a hash of the branch instruction's
// source text, which stands in for its PC.
//
// Counter states: 0 = strongly not taken, 1 = weakly not taken,
// 2 = weakly taken, 3 = strongly taken.
type BranchPredictor struct {
	table     []uint8
	tableSize uint32

	stats BranchPredictorStats
}

// NewBranchPredictor creates a new branch predictor with the given
// configuration.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	tableSize := config.TableSize
	if tableSize == 0 {
		tableSize = 64
	}

	bp := &BranchPredictor{
		table:     make([]uint8, tableSize),
		tableSize: tableSize,
	}

	// Initialize every counter to weakly not-taken (1).
	for i := range bp.table {
		bp.table[i] = 1
	}

	return bp
}

// index computes the table index for a branch instruction.
func (bp *BranchPredictor) index(inst *insts.Instruction) uint32 {
	h := fnv.New32a()
	h.Write([]byte(inst.Raw))
	return h.Sum32() % bp.tableSize
}

// Predict returns true if the branch is predicted taken.
func (bp *BranchPredictor) Predict(inst *insts.Instruction) bool {
	return bp.table[bp.index(inst)] >= 2
}

// Update records a resolved branch outcome against the prediction made
// at dispatch, adjusting the accuracy counters.
func (bp *BranchPredictor) Update(taken, predicted bool) {
	bp.stats.Predictions++
	if taken == predicted {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}
}

// Train moves the branch's saturating counter toward the observed
// outcome, saturating in [0, 3].
func (bp *BranchPredictor) Train(inst *insts.Instruction, taken bool) {
	idx := bp.index(inst)
	counter := bp.table[idx]

	if taken {
		if counter < 3 {
			bp.table[idx] = counter + 1
		}
	} else {
		if counter > 0 {
			bp.table[idx] = counter - 1
		}
	}
}

// Counter returns the current saturating counter for a branch, for
// inspection.
func (bp *BranchPredictor) Counter(inst *insts.Instruction) uint8 {
	return bp.table[bp.index(inst)]
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset restores every counter to weakly not-taken and clears statistics.
func (bp *BranchPredictor) Reset() {
	for i := range bp.table {
		bp.table[i] = 1
	}
	bp.stats = BranchPredictorStats{}
}

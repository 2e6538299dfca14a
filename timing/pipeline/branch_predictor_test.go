package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var (
		bp     *pipeline.BranchPredictor
		branch *insts.Instruction
	)

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor(pipeline.BranchPredictorConfig{
			TableSize: 16,
		})
		branch = insts.NewDecoder().Decode("BNEZ R1, LOOP")
	})

	Describe("Prediction", func() {
		It("should initially predict not-taken (weakly)", func() {
			Expect(bp.Predict(branch)).To(BeFalse())
			Expect(bp.Counter(branch)).To(Equal(uint8(1)))
		})

		It("should learn a taken pattern", func() {
			for i := 0; i < 10; i++ {
				bp.Train(branch, true)
			}
			Expect(bp.Predict(branch)).To(BeTrue())
		})

		It("should learn a not-taken pattern", func() {
			bp.Train(branch, true)
			bp.Train(branch, true) // up to strongly taken
			for i := 0; i < 10; i++ {
				bp.Train(branch, false)
			}
			Expect(bp.Predict(branch)).To(BeFalse())
		})
	})

	Describe("2-bit saturating counter", func() {
		It("should saturate in [0, 3]", func() {
			for i := 0; i < 20; i++ {
				bp.Train(branch, true)
			}
			Expect(bp.Counter(branch)).To(Equal(uint8(3)))

			for i := 0; i < 20; i++ {
				bp.Train(branch, false)
			}
			Expect(bp.Counter(branch)).To(Equal(uint8(0)))
		})

		It("should converge to strongly taken after consecutive taken outcomes", func() {
			bp.Train(branch, true)
			bp.Train(branch, true)
			Expect(bp.Counter(branch)).To(Equal(uint8(3)))
		})

		It("should require 2 mispredictions to change direction", func() {
			bp.Train(branch, true)
			bp.Train(branch, true) // at 3 (strongly taken)

			bp.Train(branch, false)
			Expect(bp.Predict(branch)).To(BeTrue()) // at 2

			bp.Train(branch, false)
			Expect(bp.Predict(branch)).To(BeFalse()) // at 1
		})
	})

	Describe("Statistics", func() {
		It("should report accuracy 1.0 with no resolved branches", func() {
			Expect(bp.Stats().Accuracy()).To(Equal(1.0))
		})

		It("should track correct predictions and mispredictions", func() {
			bp.Update(true, true)
			bp.Update(false, false)
			bp.Update(true, false)

			stats := bp.Stats()
			Expect(stats.Predictions).To(Equal(uint64(3)))
			Expect(stats.Correct).To(Equal(uint64(2)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.Accuracy()).To(BeNumerically("~", 2.0/3.0, 1e-9))
		})
	})

	Describe("Reset", func() {
		It("should clear counters and statistics", func() {
			bp.Train(branch, true)
			bp.Train(branch, true)
			bp.Update(true, true)

			bp.Reset()

			Expect(bp.Counter(branch)).To(Equal(uint8(1)))
			Expect(bp.Stats().Predictions).To(Equal(uint64(0)))
		})
	})

	Describe("Default configuration", func() {
		It("should use a 64-entry table", func() {
			Expect(pipeline.DefaultBranchPredictorConfig().TableSize).To(Equal(uint32(64)))
		})
	})
})

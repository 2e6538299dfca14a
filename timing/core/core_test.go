package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/timing/core"
	"github.com/sarchlab/tomsim/timing/latency"
	"github.com/sarchlab/tomsim/timing/pipeline"
)

var _ = Describe("Core", func() {
	var c *core.Core

	BeforeEach(func() {
		c = core.NewCore()
	})

	It("should run a program to completion", func() {
		Expect(c.Load([]string{
			"ADDI R1, R0, 5",
			"ADDI R2, R1, 7",
			"HLT",
		})).To(Succeed())

		Expect(c.Run(1000)).To(BeTrue())
		Expect(c.Finished()).To(BeTrue())
		Expect(c.RegFile().Int[1]).To(Equal(int64(5)))
		Expect(c.RegFile().Int[2]).To(Equal(int64(12)))
	})

	It("should report metrics", func() {
		Expect(c.Load([]string{
			"ADDI R1, R0, 5",
			"HLT",
		})).To(Succeed())
		Expect(c.Run(1000)).To(BeTrue())

		m := c.Metrics()
		Expect(m.Committed).To(Equal(uint64(1)))
		Expect(m.Cycles).To(BeNumerically(">", uint64(0)))
		Expect(m.IPC).To(BeNumerically("~", float64(m.Committed)/float64(m.Cycles), 1e-9))
	})

	It("should stop at the cycle limit", func() {
		Expect(c.Load([]string{
			"ADDI R1, R0, 5",
			"ADDI R2, R1, 7",
			"HLT",
		})).To(Succeed())

		Expect(c.Run(1)).To(BeFalse())
		Expect(c.Finished()).To(BeFalse())
	})

	It("should honor a custom latency table", func() {
		config := latency.DefaultTimingConfig()
		config.ALULatency = 5
		c = core.NewCore(
			pipeline.WithLatencyTable(latency.NewTableWithConfig(config)),
		)

		Expect(c.Load([]string{"ADDI R1, R0, 5", "HLT"})).To(Succeed())
		Expect(c.Run(1000)).To(BeTrue())

		// 1 dispatch cycle + 5 execute cycles + WB + commit.
		Expect(c.Metrics().Cycles).To(BeNumerically(">=", uint64(8)))
	})

	It("should expose a structural snapshot", func() {
		Expect(c.Load([]string{"ADDI R1, R0, 5", "HLT"})).To(Succeed())
		c.Step()

		s := c.State()
		Expect(s.Cycle).To(Equal(uint64(1)))
		Expect(s.ROB).To(HaveLen(1))
		Expect(s.Stations).NotTo(BeEmpty())
		Expect(s.Log).NotTo(BeEmpty())
	})

	It("should replay deterministically after Reset", func() {
		lines := []string{
			"ADDI R1, R0, 3",
			"MUL R2, R1, R1",
			"SD R2, 8(R0)",
			"HLT",
		}
		Expect(c.Load(lines)).To(Succeed())
		Expect(c.Run(1000)).To(BeTrue())
		first := c.Metrics()

		c.Reset()
		Expect(c.Run(1000)).To(BeTrue())
		Expect(c.Metrics()).To(Equal(first))
	})
})

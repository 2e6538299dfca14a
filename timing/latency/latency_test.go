package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/latency"
)

var _ = Describe("Table", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	It("should use the reference latencies by default", func() {
		Expect(table.GetLatency(insts.OpADD)).To(Equal(uint64(1)))
		Expect(table.GetLatency(insts.OpSUB)).To(Equal(uint64(1)))
		Expect(table.GetLatency(insts.OpADDI)).To(Equal(uint64(1)))
		Expect(table.GetLatency(insts.OpSUBI)).To(Equal(uint64(1)))
		Expect(table.GetLatency(insts.OpMUL)).To(Equal(uint64(2)))
		Expect(table.GetLatency(insts.OpDIV)).To(Equal(uint64(2)))
		Expect(table.GetLatency(insts.OpLD)).To(Equal(uint64(2)))
		Expect(table.GetLatency(insts.OpSD)).To(Equal(uint64(1)))
		Expect(table.GetLatency(insts.OpBNEZ)).To(Equal(uint64(1)))
	})

	It("should honor a custom configuration", func() {
		config := latency.DefaultTimingConfig()
		config.MulDivLatency = 5
		table = latency.NewTableWithConfig(config)
		Expect(table.GetLatency(insts.OpMUL)).To(Equal(uint64(5)))
		Expect(table.GetLatency(insts.OpADD)).To(Equal(uint64(1)))
	})
})

var _ = Describe("TimingConfig", func() {
	It("should validate the defaults", func() {
		Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
	})

	It("should reject zero latencies", func() {
		config := latency.DefaultTimingConfig()
		config.LoadLatency = 0
		Expect(config.Validate()).NotTo(Succeed())
	})

	It("should clone without aliasing", func() {
		config := latency.DefaultTimingConfig()
		clone := config.Clone()
		clone.ALULatency = 9
		Expect(config.ALULatency).To(Equal(uint64(1)))
	})

	It("should round-trip through JSON", func() {
		config := latency.DefaultTimingConfig()
		config.LoadLatency = 7

		path := filepath.Join(GinkgoT().TempDir(), "timing.json")
		Expect(config.SaveConfig(path)).To(Succeed())

		loaded, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
	})

	It("should keep defaults for fields missing from the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "partial.json")
		Expect(os.WriteFile(path, []byte(`{"muldiv_latency": 4}`), 0644)).To(Succeed())

		loaded, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.MulDivLatency).To(Equal(uint64(4)))
		Expect(loaded.ALULatency).To(Equal(uint64(1)))
	})

	It("should fail on a missing file", func() {
		_, err := latency.LoadConfig("/nonexistent/timing.json")
		Expect(err).To(HaveOccurred())
	})
})

package pipeline

import (
	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/insts"
)

// StationView is an observable snapshot of one reservation station.
type StationView struct {
	Name      string
	Class     OpClass
	Busy      bool
	Op        insts.Op
	Vj        float64
	Vk        float64
	Qj        int
	Qk        int
	Dest      int
	Remaining int
	Instr     string
}

// EntryView is an observable snapshot of one reorder-buffer entry.
type EntryView struct {
	ID           int
	Instr        string
	Dest         string
	Ready        bool
	State        EntryState
	Result       float64
	HasResult    bool
	StoreValue   float64
	Address      int64
	AddressReady bool
	Mispredicted bool
}

// UnitView is an observable snapshot of one functional unit.
type UnitView struct {
	Name    string
	Class   OpClass
	Busy    bool
	Station string
}

// State is a structural snapshot of the pipeline taken between ticks.
type State struct {
	Cycle    uint64
	PC       int
	Halted   bool
	Finished bool

	Stations []StationView
	ROB      []EntryView
	Units    []UnitView

	IntRegs [emu.NumRegs]int64
	FPRegs  [emu.NumRegs]float64
	IntTags [emu.NumRegs]int
	FPTags  [emu.NumRegs]int

	Memory map[int64]float64

	// Log holds the most recent cycle's stage events.
	Log []string
}

// State returns an observable snapshot of the whole pipeline. The
// snapshot shares nothing with the engine's internal state.
func (p *Pipeline) State() State {
	s := State{
		Cycle:    p.cycle,
		PC:       p.pc,
		Halted:   p.halted,
		Finished: p.finished,
		IntRegs:  p.regFile.Int,
		FPRegs:   p.regFile.FP,
		Memory:   p.memory.Snapshot(),
		Log:      append([]string(nil), p.cycleLog...),
	}
	s.IntTags, s.FPTags = p.regFile.Tags()

	for _, rs := range p.stations {
		view := StationView{
			Name:      rs.Name,
			Class:     rs.Class,
			Busy:      rs.Busy,
			Op:        rs.Op,
			Vj:        rs.Vj,
			Vk:        rs.Vk,
			Qj:        rs.Qj,
			Qk:        rs.Qk,
			Dest:      rs.Dest,
			Remaining: rs.Remaining,
		}
		if rs.Instr != nil {
			view.Instr = rs.Instr.String()
		}
		s.Stations = append(s.Stations, view)
	}

	for _, e := range p.rob.Entries() {
		s.ROB = append(s.ROB, EntryView{
			ID:           e.ID,
			Instr:        e.Instr.String(),
			Dest:         e.Dest,
			Ready:        e.Ready,
			State:        e.State,
			Result:       e.Result,
			HasResult:    e.HasResult,
			StoreValue:   e.StoreValue,
			Address:      e.Address,
			AddressReady: e.AddressReady,
			Mispredicted: e.Mispredicted,
		})
	}

	for _, class := range opClasses {
		for _, fu := range p.units[class] {
			view := UnitView{Name: fu.Name, Class: class, Busy: fu.Busy()}
			if fu.Busy() {
				view.Station = fu.Station().Name
			}
			s.Units = append(s.Units, view)
		}
	}

	return s
}

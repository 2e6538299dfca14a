package pipeline

import (
	"errors"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/insts"
)

// ErrUnknownLabel is returned at load time for a branch whose target
// label does not exist in the program.
var ErrUnknownLabel = errors.New("unknown branch target label")

// commit retires ready entries from the reorder-buffer head, up to the
// issue width. Committing a mis-predicted branch flushes the pipeline and
// ends commit for the cycle.
func (p *Pipeline) commit() {
	count := 0
	for count < p.config.IssueWidth && p.rob.Len() > 0 && p.rob.Head().Ready {
		entry := p.rob.Head()
		inst := entry.Instr

		if entry.Mispredicted {
			newPC := entry.PCIndex + 1
			if entry.BranchTaken {
				newPC = entry.BranchTarget
			}
			p.logf("COMMIT: mis-predicted branch '%s' (ROB %d), flushing, PC -> %d",
				inst, entry.ID, newPC)
			p.flush(newPC)
			break
		}

		switch {
		case inst.Op.WritesRegister():
			// The write is suppressed when a later producer has renamed
			// the register.
			ref, _ := emu.ParseRef(entry.Dest)
			if p.regFile.Tag(ref) == entry.ID {
				p.regFile.SetValue(ref, entry.Result)
				p.regFile.ClearTag(ref)
			}
			p.logf("COMMIT: '%s' (ROB %d) retired", inst, entry.ID)

		case inst.Op == insts.OpSD:
			p.memory.Write(entry.Address, entry.StoreValue)
			p.logf("COMMIT: store '%s' (ROB %d) wrote %g to [%d]",
				inst, entry.ID, entry.StoreValue, entry.Address)

		case inst.Op.IsBranch():
			p.logf("COMMIT: branch '%s' (ROB %d) retired", inst, entry.ID)
		}

		entry.State = StateCommit
		p.rob.Remove()

		// Free the station still bound to this entry. Stations outlive
		// execution so the ROB -> station reverse lookup stays valid
		// until here.
		for _, rs := range p.stations {
			if rs.Dest == entry.ID {
				rs.Clear()
				break
			}
		}

		p.committed++
		count++
	}

	if p.rob.Len() == 0 && (p.pc >= len(p.instructions) || p.halted) {
		p.finished = true
	}
}

// writeBack completes every station whose countdown drained, publishing
// numeric results on the common data bus. Stores and branches do not
// broadcast.
func (p *Pipeline) writeBack() {
	pending := p.waitingWB
	p.waitingWB = nil

	for _, rs := range pending {
		if !rs.Busy || rs.Dest == InvalidID {
			continue
		}

		entry := p.rob.Lookup(rs.Dest)
		if entry == nil {
			// The entry was flushed while the station was in flight.
			rs.Clear()
			continue
		}

		switch {
		case rs.Op.IsArith3() || rs.Op.IsArithImm():
			result := emu.ALUResult(rs.Op, rs.Vj, rs.Vk)
			p.completeNumeric(rs, entry, result)

		case rs.Op == insts.OpLD:
			result := p.memory.Read(entry.Address)
			p.logf("WB: LD (ROB %d) read %g from [%d]", entry.ID, result, entry.Address)
			p.completeNumeric(rs, entry, result)

		case rs.Op == insts.OpSD:
			entry.StoreValue = rs.Vk
			entry.Ready = true
			entry.State = StateWB
			rs.Ready = true
			p.logf("WB: SD (ROB %d) ready to commit", entry.ID)

		case rs.Op.IsBranch():
			p.resolveBranch(rs, entry)
		}
	}
}

// completeNumeric records an arithmetic or load result and broadcasts it.
func (p *Pipeline) completeNumeric(rs *ReservationStation, entry *ROBEntry, result float64) {
	entry.Result = result
	entry.HasResult = true
	entry.Ready = true
	entry.State = StateWB
	rs.Ready = true
	p.broadcast(entry.ID, result)
}

// resolveBranch evaluates the comparison, compares against the prediction
// recorded at dispatch, and trains the predictor. No CDB broadcast.
func (p *Pipeline) resolveBranch(rs *ReservationStation, entry *ROBEntry) {
	taken := emu.BranchTaken(rs.Op, rs.Vj, rs.Vk)

	entry.BranchTaken = taken
	entry.BranchTarget = p.labels[entry.Instr.Target]
	entry.Mispredicted = taken != entry.PredictedTaken
	entry.Ready = true
	entry.State = StateWB
	rs.Ready = true

	p.predictor.Update(taken, entry.PredictedTaken)
	p.predictor.Train(entry.Instr, taken)

	p.logf("WB: branch (ROB %d) resolved, taken=%t predicted=%t",
		entry.ID, taken, entry.PredictedTaken)
}

// broadcast publishes one producer's result on the common data bus: every
// waiting station captures the value, and memory entries whose address
// was awaiting this producer compute base + offset.
func (p *Pipeline) broadcast(tag int, result float64) {
	p.logf("WB: ROB %d broadcast %g on the CDB", tag, result)

	for _, rs := range p.stations {
		if rs.Qj == tag {
			if rs.Class == ClassLoad || rs.Class == ClassStore {
				// Memory stations keep the offset in Vj; the producer's
				// value is the base, consumed directly into the address.
				if entry := p.rob.Lookup(rs.Dest); entry != nil && !entry.AddressReady {
					entry.Address = int64(result) + int64(rs.Vj)
					entry.AddressReady = true
				}
			} else {
				rs.Vj = result
			}
			rs.Qj = InvalidID
		}
		if rs.Qk == tag {
			rs.Vk = result
			rs.Qk = InvalidID
		}
	}
}

// execute releases drained units, binds ready stations to idle units in
// declaration order, and ticks every bound station's countdown.
func (p *Pipeline) execute() {
	for _, class := range opClasses {
		for _, fu := range p.units[class] {
			if fu.Busy() && fu.Station().Remaining == 0 {
				fu.Release()
			}
		}
	}

	for _, class := range opClasses {
		for _, rs := range p.stations {
			if rs.Class != class || !p.readyToExecute(rs) {
				continue
			}
			for _, fu := range p.units[class] {
				if !fu.Busy() {
					fu.Bind(rs)
					if entry := p.rob.Lookup(rs.Dest); entry != nil {
						entry.State = StateExec
					}
					p.logf("EXEC: '%s' started on %s unit %s", rs.Instr, class, fu.Name)
					break
				}
			}
		}
	}

	for _, class := range opClasses {
		for _, fu := range p.units[class] {
			rs := fu.Station()
			if rs == nil || !rs.Busy || rs.Remaining <= 0 {
				continue
			}
			rs.Remaining--
			if rs.Remaining == 0 {
				p.waitingWB = append(p.waitingWB, rs)
			}
		}
	}
}

// readyToExecute reports whether a station may bind to a functional unit
// this cycle.
func (p *Pipeline) readyToExecute(rs *ReservationStation) bool {
	if !rs.Busy || rs.Remaining <= 0 || !rs.OperandsReady() {
		return false
	}
	if p.boundUnit(rs) != nil {
		return false
	}

	if rs.Class == ClassLoad || rs.Class == ClassStore {
		entry := p.rob.Lookup(rs.Dest)
		if entry == nil || !entry.AddressReady {
			return false
		}
		// Loads stay behind every older store so the memory image they
		// read reflects program order.
		if rs.Class == ClassLoad && p.rob.HasOlderStore(rs.Dest) {
			return false
		}
	}

	return true
}

// boundUnit returns the unit a station currently occupies, if any.
func (p *Pipeline) boundUnit(rs *ReservationStation) *FunctionalUnit {
	for _, fu := range p.units[rs.Class] {
		if fu.Station() == rs {
			return fu
		}
	}
	return nil
}

// dispatch issues up to the issue width of instructions, stopping at a
// HLT or at the first structural stall.
func (p *Pipeline) dispatch() {
	if p.halted {
		return
	}

	issued := 0
	for issued < p.config.IssueWidth && p.pc < len(p.instructions) {
		inst := p.instructions[p.pc]

		if inst.Op == insts.OpHLT {
			p.halted = true
			p.logf("DISPATCH: HLT reached, issue stopped")
			break
		}

		class, _ := ClassOf(inst.Op)
		rs := p.freeStation(class)
		if rs == nil || p.rob.Full() {
			p.stalls++
			p.logf("DISPATCH: stall, no free station or ROB slot for '%s'", inst)
			break
		}

		id := p.rob.NextID()
		entry := &ROBEntry{
			ID:      id,
			Instr:   inst,
			PCIndex: p.pc,
			State:   StateIssue,
		}
		if inst.Op.WritesRegister() {
			entry.Dest = inst.Rd
		}
		p.rob.Add(entry)

		rs.Busy = true
		rs.Op = inst.Op
		rs.Instr = inst
		rs.Dest = id
		p.populateStation(rs, entry, inst)

		rs.Latency = int(p.latencies.GetLatency(inst.Op))
		rs.Remaining = rs.Latency

		p.logf("DISPATCH: '%s' issued to %s as ROB %d", inst, rs.Name, id)

		p.pc++
		issued++
	}
}

// populateStation captures operands, renames the destination, and
// pre-computes memory addresses whose base is already available.
func (p *Pipeline) populateStation(rs *ReservationStation, entry *ROBEntry, inst *insts.Instruction) {
	switch {
	case inst.Op.IsArith3():
		rs.Vj, rs.Qj = p.operand(inst.Rs)
		rs.Vk, rs.Qk = p.operand(inst.Rt)
		p.rename(inst.Rd, entry.ID)

	case inst.Op.IsArithImm():
		rs.Vj, rs.Qj = p.operand(inst.Rs)
		rs.Vk = float64(inst.Imm)
		p.rename(inst.Rd, entry.ID)

	case inst.Op == insts.OpLD:
		p.captureAddress(rs, entry, inst)
		p.rename(inst.Rd, entry.ID)

	case inst.Op == insts.OpSD:
		p.captureAddress(rs, entry, inst)
		// The stored register is the value source, not a destination.
		rs.Vk, rs.Qk = p.operand(inst.Rd)

	case inst.Op.IsBranch():
		rs.Vj, rs.Qj = p.operand(inst.Rs)
		if inst.Op == insts.OpBNEZ {
			rs.Vk = 0
		} else {
			rs.Vk, rs.Qk = p.operand(inst.Rt)
		}
		entry.PredictedTaken = p.predictor.Predict(inst)
	}
}

// captureAddress pre-computes base + offset when the base is available at
// issue; otherwise the station waits on the base producer with the offset
// parked in Vj.
func (p *Pipeline) captureAddress(rs *ReservationStation, entry *ROBEntry, inst *insts.Instruction) {
	base, qbase := p.operand(inst.Rs)
	rs.Vj = float64(inst.Imm)
	if qbase == InvalidID {
		entry.Address = int64(base) + inst.Imm
		entry.AddressReady = true
	} else {
		rs.Qj = qbase
	}
}

// operand implements rename-aware operand fetch: an empty producer tag
// yields the architectural value; a ready in-flight producer forwards its
// result early from the ROB; otherwise the tag is returned for capture.
func (p *Pipeline) operand(reg string) (float64, int) {
	if reg == "" {
		return 0, InvalidID
	}

	// Register names were validated at load.
	ref, _ := emu.ParseRef(reg)

	tag := p.regFile.Tag(ref)
	if tag == emu.TagNone {
		return p.regFile.Value(ref), InvalidID
	}

	if entry := p.rob.Lookup(tag); entry != nil && entry.Ready && entry.HasResult {
		return entry.Result, InvalidID
	}

	return 0, tag
}

// rename records the new producer of a destination register.
func (p *Pipeline) rename(reg string, id int) {
	if reg == "" {
		return
	}
	ref, _ := emu.ParseRef(reg)
	p.regFile.SetTag(ref, id)
}

// freeStation picks the first free station of a class in declaration
// order.
func (p *Pipeline) freeStation(class OpClass) *ReservationStation {
	for _, rs := range p.stations {
		if rs.Class == class && !rs.Busy {
			return rs
		}
	}
	return nil
}

// flush atomically discards all speculative state after a mis-predicted
// branch commit and restarts dispatch at the resolved path. The correct
// path may continue past a stale HLT, so the halted flag is cleared.
func (p *Pipeline) flush(newPC int) {
	for _, entry := range p.rob.Entries() {
		p.logf("FLUSH: discarding '%s' (ROB %d)", entry.Instr, entry.ID)
	}

	for _, rs := range p.stations {
		rs.Clear()
	}
	p.regFile.ClearAllTags()
	p.rob.Clear()
	p.waitingWB = nil
	for _, units := range p.units {
		for _, fu := range units {
			fu.Release()
		}
	}
	p.halted = false
	p.pc = newPC
}

package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomsim/insts"
)

// InvalidID marks an unassigned reorder-buffer tag. A reservation-station
// operand with tag InvalidID is ready; otherwise the station is waiting
// for that producer's broadcast.
const InvalidID = -1

// OpClass groups opcodes by the station/unit pool that serves them.
type OpClass int

const (
	// ClassAdd serves ADD, SUB, ADDI, SUBI.
	ClassAdd OpClass = iota
	// ClassMul serves MUL and DIV.
	ClassMul
	// ClassLoad serves LD.
	ClassLoad
	// ClassStore serves SD.
	ClassStore
	// ClassBranch serves BEQ, BNE, BNEZ.
	ClassBranch
)

// opClasses lists the classes in their fixed declaration order.
var opClasses = [...]OpClass{ClassAdd, ClassMul, ClassLoad, ClassStore, ClassBranch}

var classNames = map[OpClass]string{
	ClassAdd:    "ADD",
	ClassMul:    "MUL",
	ClassLoad:   "LOAD",
	ClassStore:  "STORE",
	ClassBranch: "BR",
}

// String returns the pool name of the class.
func (c OpClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ClassOf routes an opcode to its station pool.
func ClassOf(op insts.Op) (OpClass, bool) {
	switch {
	case op == insts.OpADD, op == insts.OpSUB, op == insts.OpADDI, op == insts.OpSUBI:
		return ClassAdd, true
	case op == insts.OpMUL, op == insts.OpDIV:
		return ClassMul, true
	case op == insts.OpLD:
		return ClassLoad, true
	case op == insts.OpSD:
		return ClassStore, true
	case op.IsBranch():
		return ClassBranch, true
	}
	return 0, false
}

// ReservationStation buffers one dispatched instruction together with its
// captured operands or the producer tags it is waiting on.
//
// For memory-class stations Vj holds the address offset; the base value
// never lands in the station, the computed address lives in the ROB entry.
type ReservationStation struct {
	// Name identifies the station, e.g. "ADD0".
	Name string

	// Class is the pool this station belongs to.
	Class OpClass

	// Busy is set from dispatch until the owning ROB entry commits.
	Busy bool

	// Op is the opcode currently held.
	Op insts.Op

	// Vj and Vk are the captured operand values.
	Vj float64
	Vk float64

	// Qj and Qk are the producer tags still outstanding; InvalidID means
	// the corresponding value is ready.
	Qj int
	Qk int

	// Dest is the reorder-buffer entry this station produces into.
	Dest int

	// Latency is the execution latency; Remaining counts down while the
	// station occupies a functional unit.
	Latency   int
	Remaining int

	// Ready is set once the station has written back.
	Ready bool

	// Instr is the owning instruction.
	Instr *insts.Instruction
}

// NewReservationStation creates a free station for the given pool.
func NewReservationStation(name string, class OpClass) *ReservationStation {
	rs := &ReservationStation{Name: name, Class: class}
	rs.Clear()
	return rs
}

// OperandsReady reports whether both operand tags have been satisfied.
func (rs *ReservationStation) OperandsReady() bool {
	return rs.Qj == InvalidID && rs.Qk == InvalidID
}

// Clear frees the station.
func (rs *ReservationStation) Clear() {
	rs.Busy = false
	rs.Op = insts.OpInvalid
	rs.Vj = 0
	rs.Vk = 0
	rs.Qj = InvalidID
	rs.Qk = InvalidID
	rs.Dest = InvalidID
	rs.Latency = 0
	rs.Remaining = 0
	rs.Ready = false
	rs.Instr = nil
}

// String renders the station for state dumps.
func (rs *ReservationStation) String() string {
	if !rs.Busy {
		return fmt.Sprintf("%s: free", rs.Name)
	}
	return fmt.Sprintf("%s: %s Vj=%g Vk=%g Qj=%d Qk=%d dest=%d rem=%d",
		rs.Name, rs.Op, rs.Vj, rs.Vk, rs.Qj, rs.Qk, rs.Dest, rs.Remaining)
}

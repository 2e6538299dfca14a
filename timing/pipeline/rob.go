package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tomsim/insts"
)

// ErrROBFull is returned when appending to a full reorder buffer.
var ErrROBFull = errors.New("reorder buffer full")

// EntryState is the coarse pipeline state of a reorder-buffer entry.
type EntryState int

const (
	// StateIssue means the entry has been dispatched but not yet bound to
	// a functional unit.
	StateIssue EntryState = iota
	// StateExec means the entry's station is executing.
	StateExec
	// StateWB means the entry's result has been written back.
	StateWB
	// StateCommit means the entry has retired.
	StateCommit
)

var entryStateNames = map[EntryState]string{
	StateIssue:  "ISSUE",
	StateExec:   "EXEC",
	StateWB:     "WB",
	StateCommit: "COMMIT",
}

// String returns the state name.
func (s EntryState) String() string {
	if name, ok := entryStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ROBEntry is one in-flight instruction in the reorder buffer.
//
// The result fields are disjoint by instruction class: Result/HasResult
// for arithmetic and LD, StoreValue for SD, and the branch outcome tuple
// for branches.
type ROBEntry struct {
	// ID is the entry's stable identifier. IDs are monotone modulo twice
	// the buffer capacity, so they are never positions.
	ID int

	// Instr is the owning instruction; PCIndex is its index in the
	// loaded program.
	Instr   *insts.Instruction
	PCIndex int

	// Dest is the destination register name, or "" for SD and branches.
	Dest string

	// Ready means the relevant result payload is populated and the entry
	// may retire once it reaches the head.
	Ready bool

	// State tracks the entry's coarse progress.
	State EntryState

	// Result is the numeric result for arithmetic and LD.
	Result    float64
	HasResult bool

	// StoreValue is the payload an SD will write to memory at commit.
	StoreValue float64

	// BranchTaken and BranchTarget record a resolved branch outcome;
	// PredictedTaken is the prediction recorded at dispatch.
	BranchTaken    bool
	BranchTarget   int
	PredictedTaken bool
	Mispredicted   bool

	// Address is the computed memory address for LD/SD. AddressReady is
	// set once the base operand was available to compute it.
	Address      int64
	AddressReady bool
}

// String renders the entry for state dumps.
func (e *ROBEntry) String() string {
	val := ""
	switch {
	case e.HasResult:
		val = fmt.Sprintf(" res=%g", e.Result)
	case e.Instr.Op == insts.OpSD && e.Ready:
		val = fmt.Sprintf(" store=%g", e.StoreValue)
	case e.Instr.Op.IsBranch() && e.Ready:
		val = fmt.Sprintf(" taken=%t", e.BranchTaken)
	}
	return fmt.Sprintf("ROB%d: %s dest=%s%s ready=%t state=%s",
		e.ID, e.Instr, e.Dest, val, e.Ready, e.State)
}

// ReorderBuffer is the fixed-capacity FIFO of in-flight instructions. It
// enforces in-order retirement: the entry at the head is always the next
// to commit.
type ReorderBuffer struct {
	entries  []*ROBEntry
	capacity int
	nextID   int
}

// NewReorderBuffer creates an empty buffer with the given capacity.
func NewReorderBuffer(capacity int) *ReorderBuffer {
	return &ReorderBuffer{
		entries:  make([]*ROBEntry, 0, capacity),
		capacity: capacity,
	}
}

// Full reports whether the buffer has no free slot.
func (b *ReorderBuffer) Full() bool {
	return len(b.entries) >= b.capacity
}

// Len returns the number of in-flight entries.
func (b *ReorderBuffer) Len() int {
	return len(b.entries)
}

// Capacity returns the fixed capacity.
func (b *ReorderBuffer) Capacity() int {
	return b.capacity
}

// NextID returns a fresh stable ID. The counter wraps modulo twice the
// capacity, which is safe because at most capacity entries are ever in
// flight.
func (b *ReorderBuffer) NextID() int {
	id := b.nextID
	b.nextID = (b.nextID + 1) % (b.capacity * 2)
	return id
}

// Add appends an entry at the tail.
func (b *ReorderBuffer) Add(e *ROBEntry) error {
	if b.Full() {
		return ErrROBFull
	}
	b.entries = append(b.entries, e)
	return nil
}

// Head returns the oldest entry, or nil when empty.
func (b *ReorderBuffer) Head() *ROBEntry {
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[0]
}

// Remove pops the head entry.
func (b *ReorderBuffer) Remove() {
	if len(b.entries) > 0 {
		b.entries = b.entries[1:]
	}
}

// Lookup finds an entry by stable ID. It returns nil if the ID is not in
// flight, which happens after a flush discarded it.
func (b *ReorderBuffer) Lookup(id int) *ROBEntry {
	if id == InvalidID {
		return nil
	}
	for _, e := range b.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Entries returns the in-flight entries in program order.
func (b *ReorderBuffer) Entries() []*ROBEntry {
	out := make([]*ROBEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// HasOlderStore reports whether any entry older than id is an SD still in
// flight. Loads consult this so they never read memory ahead of a store
// that precedes them in program order.
func (b *ReorderBuffer) HasOlderStore(id int) bool {
	for _, e := range b.entries {
		if e.ID == id {
			return false
		}
		if e.Instr.Op == insts.OpSD {
			return true
		}
	}
	return false
}

// Clear discards every entry. The ID counter is not reset, so stale tags
// held elsewhere can never match a recycled entry prematurely.
func (b *ReorderBuffer) Clear() {
	b.entries = b.entries[:0]
}

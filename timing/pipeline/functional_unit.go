package pipeline

// FunctionalUnit is one typed compute slot. It is either idle or bound to
// a reservation station while that station's countdown drains.
type FunctionalUnit struct {
	// Name identifies the unit, e.g. "MUL1".
	Name string

	// Class is the pool this unit belongs to.
	Class OpClass

	rs *ReservationStation
}

// NewFunctionalUnit creates an idle unit for the given pool.
func NewFunctionalUnit(name string, class OpClass) *FunctionalUnit {
	return &FunctionalUnit{Name: name, Class: class}
}

// Busy reports whether the unit is bound to a station.
func (fu *FunctionalUnit) Busy() bool {
	return fu.rs != nil
}

// Station returns the bound station, or nil when idle.
func (fu *FunctionalUnit) Station() *ReservationStation {
	return fu.rs
}

// Bind occupies the unit with a station.
func (fu *FunctionalUnit) Bind(rs *ReservationStation) {
	fu.rs = rs
}

// Release returns the unit to the idle state.
func (fu *FunctionalUnit) Release() {
	fu.rs = nil
}

package emu

import "github.com/sarchlab/tomsim/insts"

// ALUResult evaluates an arithmetic opcode over captured operands.
// Division by zero yields 0 rather than trapping.
func ALUResult(op insts.Op, vj, vk float64) float64 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return vj + vk
	case insts.OpSUB, insts.OpSUBI:
		return vj - vk
	case insts.OpMUL:
		return vj * vk
	case insts.OpDIV:
		if vk == 0 {
			return 0
		}
		return vj / vk
	}
	return 0
}

// BranchTaken evaluates a conditional branch over captured operands.
// BNEZ compares Vj against zero; its Vk is fixed to 0 at dispatch.
func BranchTaken(op insts.Op, vj, vk float64) bool {
	switch op {
	case insts.OpBEQ:
		return vj == vk
	case insts.OpBNE:
		return vj != vk
	case insts.OpBNEZ:
		return vj != 0
	}
	return false
}

// Package lir implements the low-level IR of the backend: one Node per target
// instruction with symbolic operands, the per-unit program-order and fixup
// lists, resource masks and the block-local optimizations run over them.
//
// The package is architecture independent. Everything that depends on the
// instruction set is reached through the Target type parameter of Unit.
package lir

import "fmt"

// Opcode identifies a target instruction. Negative values are pseudo
// opcodes shared by every target: they never encode to machine code.
type Opcode int32

// Pseudo opcodes.
const (
	PseudoExportedPC Opcode = -(iota + 1)
	PseudoSafepointPC
	PseudoTargetLabel
	PseudoCaseLabel
	PseudoNormalBlockLabel
	PseudoDalvikBoundary
	PseudoBarrier
	PseudoAlign4
	PseudoMethodEntry
	PseudoMethodExit
	// PseudoLiteral is a data word of the literal pool. Literal nodes are
	// never linked in program order; they only serve as load targets.
	PseudoLiteral

	pseudoEnd
)

var pseudoNames = [...]string{
	-PseudoExportedPC - 1:       "ExportedPC",
	-PseudoSafepointPC - 1:      "SafepointPC",
	-PseudoTargetLabel - 1:      "TargetLabel",
	-PseudoCaseLabel - 1:        "CaseLabel",
	-PseudoNormalBlockLabel - 1: "NormalBlockLabel",
	-PseudoDalvikBoundary - 1:   "DalvikBoundary",
	-PseudoBarrier - 1:          "Barrier",
	-PseudoAlign4 - 1:           "Align4",
	-PseudoMethodEntry - 1:      "MethodEntry",
	-PseudoMethodExit - 1:       "MethodExit",
	-PseudoLiteral - 1:          "Literal",
}

// IsPseudo returns true if op is a pseudo opcode.
func (op Opcode) IsPseudo() bool {
	return op < 0
}

// IsLabel returns true for the pseudo opcodes that mark branch targets.
func (op Opcode) IsLabel() bool {
	switch op {
	case PseudoTargetLabel, PseudoCaseLabel, PseudoNormalBlockLabel:
		return true
	}
	return false
}

// isBarrierPseudo returns true for the pseudo opcodes whose effect depends on
// code not known yet. They get the all-resource mask so nothing is moved
// across them.
func (op Opcode) isBarrierPseudo() bool {
	switch op {
	case PseudoTargetLabel, PseudoCaseLabel, PseudoNormalBlockLabel,
		PseudoSafepointPC, PseudoExportedPC, PseudoBarrier,
		PseudoMethodEntry, PseudoMethodExit:
		return true
	}
	return false
}

// PseudoName returns the name of a pseudo opcode.
func PseudoName(op Opcode) string {
	if !op.IsPseudo() || op <= pseudoEnd {
		panic(fmt.Sprintf("BUG: %d is not a pseudo opcode", op))
	}
	return pseudoNames[-op-1]
}

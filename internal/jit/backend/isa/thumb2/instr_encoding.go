package thumb2

import (
	"encoding/hex"
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// Assemble implements backend.Machine.
func (m *Machine) Assemble() ([]byte, uint32) {
	if !m.frameReady {
		panic("BUG: Assemble before SetupFrame")
	}
	m.codeSize = m.LinkFixups()
	m.assignDataOffsets()
	m.resolveFixups()

	m.buf.Reset()
	m.encode()
	m.installData()
	m.collectPCs()

	if jitapi.PrintFinalizedMachineCode {
		fmt.Printf("[[[after fixups]]]\n%s\n[[[machine code]]]\n%s\n", m.Dump(), hex.Dump(m.buf.Bytes()))
	}
	return m.buf.Bytes(), uint32(m.codeSize)
}

// encodeInstr returns the bits of the real instruction n.
func encodeInstr(n *lir.Node) uint32 {
	d := descriptorOf(n.Opcode)
	bits := d.skeleton
	for i, f := range d.fields {
		if f.kind == fieldUnused {
			break
		}
		bits |= f.encode(n.Operands[i])
	}
	return bits
}

// encode writes the instructions, giving every node its final offset.
func (m *Machine) encode() {
	offset := int32(0)
	for n := m.First(); n != nil; n = n.Next() {
		if n.IsNop {
			continue
		}
		if jitapi.LIRValidationEnabled && n.Fixup != lir.FixupNone && n.Offset != offset {
			panic(fmt.Sprintf("BUG: %s laid out at %#x but encoded at %#x\n%s",
				formatNode(n), n.Offset, offset, m.Dump()))
		}
		n.Offset = offset

		if n.Opcode.IsPseudo() {
			// Alignment padding is a nop, which leaves the flags alone.
			if n.Opcode == lir.PseudoAlign4 && n.Size == 2 {
				m.buf.WriteUint16(uint16(descriptorOf(ThumbNop).skeleton))
			}
			offset += int32(n.Size)
			continue
		}

		bits := encodeInstr(n)
		if n.Size == 2 {
			m.buf.WriteUint16(uint16(bits))
		} else {
			m.buf.WriteThumb2(bits)
		}
		offset += int32(n.Size)
	}
	if offset != m.codeSize || int32(m.buf.Len()) != m.codeSize {
		panic(fmt.Sprintf("BUG: encoded %d bytes but the layout has %d", m.buf.Len(), m.codeSize))
	}
}

// installData writes the data region after the code: literal pool, switch
// tables, then fill-array payloads, at the offsets assigned by the last
// fixup pass.
func (m *Machine) installData() {
	for _, lit := range m.literals {
		m.buf.PadTo(int(lit.Offset))
		m.buf.WriteUint32(uint32(lit.Operands[0]))
	}
	for _, tab := range m.switchTables {
		m.buf.PadTo(int(tab.Offset))
		base := tab.Anchor.Offset + 4
		switch tab.Kind {
		case lir.EmbeddedPackedSwitch:
			for _, t := range tab.Targets {
				m.buf.WriteUint32(uint32(t.Offset - base))
			}
		case lir.EmbeddedSparseSwitch:
			for i, t := range tab.Targets {
				m.buf.WriteUint32(uint32(tab.Keys[i]))
				m.buf.WriteUint32(uint32(t.Offset - base))
			}
		}
	}
	for _, tab := range m.fillArrays {
		m.buf.PadTo(int(tab.Offset))
		m.buf.WriteBytes(tab.Payload)
		m.buf.PadTo(int(tab.Offset + tab.Size()))
	}
	m.buf.PadTo(int(m.dataSize))
}

// Package golang_asm drives the ARM backend of golang-asm as a reference
// encoder. VFP data-processing instructions encode the same in the ARM and
// Thumb2 instruction sets once the condition is "always", so the words it
// produces can be compared with the Thumb2 encoder bit for bit.
package golang_asm

import (
	"encoding/binary"
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm"
)

// VFPOp is a VFP data-processing operation known to the reference encoder.
type VFPOp byte

const (
	VAddS VFPOp = iota
	VAddD
	VSubS
	VSubD
	VMulS
	VMulD
	VDivS
	VDivD
)

var castAsGolangAsmInstruction = [...]obj.As{
	VAddS: arm.AADDF,
	VAddD: arm.AADDD,
	VSubS: arm.ASUBF,
	VSubD: arm.ASUBD,
	VMulS: arm.AMULF,
	VMulD: arm.AMULD,
	VDivS: arm.ADIVF,
	VDivD: arm.ADIVD,
}

// GolangAsmVFPAssembler collects VFP instructions for golang-asm.
type GolangAsmVFPAssembler struct {
	b     *goasm.Builder
	count int
}

// NewGolangAsmVFPAssembler returns an empty assembler.
func NewGolangAsmVFPAssembler() (*GolangAsmVFPAssembler, error) {
	b, err := goasm.NewBuilder("arm", 64)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	// The ARM backend takes the first instruction as the function header and
	// never encodes it.
	text := b.NewProg()
	text.As = obj.ATEXT
	text.From.Type = obj.TYPE_MEM
	text.From.Name = obj.NAME_EXTERN
	text.From.Sym = &obj.LSym{Name: "vfp"}
	text.To.Type = obj.TYPE_TEXTSIZE
	b.AddInstruction(text)
	return &GolangAsmVFPAssembler{b: b}, nil
}

// CompileThreeRegisters adds "op dst, src1, src2". Registers are numbered
// as doubles: single precision operations address s(2n) for register n.
func (a *GolangAsmVFPAssembler) CompileThreeRegisters(op VFPOp, dst, src1, src2 int) {
	p := a.b.NewProg()
	p.As = castAsGolangAsmInstruction[op]
	// Go assembler operand order: OP Fm, Fn, Fd.
	p.From.Type = obj.TYPE_REG
	p.From.Reg = arm.REG_F0 + int16(src2)
	p.Reg = arm.REG_F0 + int16(src1)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = arm.REG_F0 + int16(dst)
	a.b.AddInstruction(p)
	a.count++
}

// Assemble returns the instruction words in order.
func (a *GolangAsmVFPAssembler) Assemble() ([]uint32, error) {
	code := a.b.Assemble()
	if len(code) != 4*a.count {
		return nil, fmt.Errorf("got %d bytes for %d instructions", len(code), a.count)
	}
	words := make([]uint32, a.count)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[4*i:])
	}
	return words, nil
}

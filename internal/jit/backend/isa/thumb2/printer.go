package thumb2

import (
	"fmt"
	"strings"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
)

var shiftNames = [...]string{"lsl", "lsr", "asr", "ror"}

// expandFormat renders a descriptor format. Each !<i><kind> directive prints
// operand i of the node at offset:
//
//	d  decimal            C  core register     s/S  single/double register
//	h  hex                E  operand*4         F    operand*2
//	c  condition          t  branch target     m/n  (inverted) modified immediate
//	M  16-bit immediate   R  core register list
//	P  FP register list (operand i is the first register, i+1 the count)
//	H  shift              b  IT mask           B    dmb option
//
// "!!" prints a literal '!'.
func expandFormat(format string, operands [5]int32, offset int32) string {
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '!' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			panic("BUG: truncated format " + format)
		}
		if format[i] == '!' {
			sb.WriteByte('!')
			continue
		}
		idx := int(format[i] - '0')
		i++
		if idx < 0 || idx >= len(operands) || i >= len(format) {
			panic("BUG: invalid format " + format)
		}
		op := operands[idx]
		switch format[i] {
		case 'd', 'M':
			fmt.Fprintf(&sb, "%d", op)
		case 'h':
			fmt.Fprintf(&sb, "%04x", op)
		case 'C':
			sb.WriteString(RegName(op))
		case 's':
			fmt.Fprintf(&sb, "s%d", regNum(op))
		case 'S':
			fmt.Fprintf(&sb, "d%d", regNum(op))
		case 'E':
			fmt.Fprintf(&sb, "%d", op*4)
		case 'F':
			fmt.Fprintf(&sb, "%d", op*2)
		case 'c':
			sb.WriteString(Cond(op).String())
		case 't':
			fmt.Fprintf(&sb, "0x%08x", uint32(offset+4+op<<1))
		case 'm':
			v := ExpandImmediate(op)
			fmt.Fprintf(&sb, "%d [%#x]", int32(v), v)
		case 'n':
			v := ^ExpandImmediate(op)
			fmt.Fprintf(&sb, "%d [%#x]", int32(v), v)
		case 'H':
			if op != 0 {
				fmt.Fprintf(&sb, ", %s %d", shiftNames[op&3], op>>2)
			}
		case 'b':
			for bit := 3; bit >= 0; bit-- {
				sb.WriteByte('0' + byte(op>>uint(bit)&1))
			}
		case 'B':
			sb.WriteString(dmbOption(op))
		case 'R':
			sb.WriteString(regList(op))
		case 'P':
			first := regNum(op)
			count := operands[idx+1]
			if count == 1 {
				fmt.Fprintf(&sb, "s%d", first)
			} else {
				fmt.Fprintf(&sb, "s%d-s%d", first, first+count-1)
			}
		default:
			panic(fmt.Sprintf("BUG: unknown format directive %q in %s", format[i], format))
		}
	}
	return sb.String()
}

func dmbOption(op int32) string {
	switch op {
	case 0xf:
		return "sy"
	case 0xe:
		return "st"
	case 0xb:
		return "ish"
	case 0xa:
		return "ishst"
	case 0x7:
		return "nsh"
	case 0x6:
		return "nshst"
	}
	return fmt.Sprintf("%#x", op)
}

func regList(list int32) string {
	var names []string
	for r := int32(0); r < 16; r++ {
		if list&(1<<uint(r)) != 0 {
			names = append(names, RegName(r))
		}
	}
	return strings.Join(names, ", ")
}

// Disassemble renders the instruction of opcode encoded as bits at offset,
// decoding its operands from the bits.
func Disassemble(op lir.Opcode, bits uint32, offset int32) string {
	ops := DecodeOperands(op, bits)
	n := lir.Node{Opcode: op, Offset: offset}
	copy(n.Operands[:], ops[:])
	return target{}.Format(&n)
}

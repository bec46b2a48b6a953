package wiring

import (
	"fmt"
	"strings"
)

// An Opcode identifies the operation a net performs.
type Opcode int

const (
	// OpAnd is bitwise AND.
	OpAnd Opcode = iota

	// OpOr is bitwise OR.
	OpOr

	// OpXor is bitwise XOR.
	OpXor

	// OpNot is bitwise complement.
	OpNot

	// OpAdd is unsigned addition. The result is one bit wider than the
	// operands.
	OpAdd

	// OpMux selects between two operands with a 1-bit selector.
	OpMux

	// OpConcat concatenates operands, first operand in the high bits.
	OpConcat

	// OpSelect extracts the bit positions listed in the parameter.
	OpSelect

	// OpCopy drives the destination with the value of the argument.
	OpCopy

	// OpRegister updates a register from its next-value argument at the
	// end of every cycle.
	OpRegister

	// OpMemRead reads one word from a memory. The parameter identifies
	// the memory.
	OpMemRead

	// OpMemWrite writes one word to a memory when its enable argument is
	// high. It has no destinations.
	OpMemWrite
)

func (op Opcode) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpNot:
		return "not"
	case OpAdd:
		return "add"
	case OpMux:
		return "mux"
	case OpConcat:
		return "concat"
	case OpSelect:
		return "select"
	case OpCopy:
		return "copy"
	case OpRegister:
		return "reg"
	case OpMemRead:
		return "memread"
	case OpMemWrite:
		return "memwrite"
	}

	panic(fmt.Sprintf("unknown opcode %d", int(op)))
}

// A Net is an operation node connecting argument wires to destination
// wires. Side-effecting ports have no destinations. A net is immutable once
// added to a block. Param carries opcode-specific data, such as the selected
// bit positions of OpSelect or the memory reference of the port opcodes.
type Net struct {
	Op    Opcode
	Args  []*Wire
	Dests []*Wire
	Param any
}

func (n *Net) String() string {
	dests := wireNames(n.Dests)
	args := wireNames(n.Args)

	str := fmt.Sprintf("%s <-- %s -- %s", dests, n.Op, args)
	if n.Param != nil {
		str += fmt.Sprintf(" (%v)", n.Param)
	}

	return str
}

func wireNames(wires []*Wire) string {
	if len(wires) == 0 {
		return "()"
	}

	names := make([]string, len(wires))
	for i, w := range wires {
		names[i] = w.name
	}

	return strings.Join(names, ", ")
}

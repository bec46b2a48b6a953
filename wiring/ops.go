package wiring

import "fmt"

// Expression helpers. Each helper creates one net and returns its
// destination wire. Width rules are strict: operands of binary operations
// must match exactly, callers widen explicitly with AsWidth. Misuse panics,
// as these helpers are only reachable from construction code.

// And returns the bitwise AND of two equal-width wires.
func And(a, b *Wire) *Wire {
	return binOp(OpAnd, a, b)
}

// Or returns the bitwise OR of two equal-width wires.
func Or(a, b *Wire) *Wire {
	return binOp(OpOr, a, b)
}

// Xor returns the bitwise XOR of two equal-width wires.
func Xor(a, b *Wire) *Wire {
	return binOp(OpXor, a, b)
}

// Not returns the bitwise complement of a wire.
func Not(a *Wire) *Wire {
	out := a.block.NewWire(a.width, "")
	a.block.AddNet(&Net{
		Op:    OpNot,
		Args:  []*Wire{a},
		Dests: []*Wire{out},
	})

	return out
}

// Add returns the unsigned sum of two equal-width wires. The result is one
// bit wider than the operands so that the carry is never lost, which caps
// the operands at 63 bits.
func Add(a, b *Wire) *Wire {
	checkOperands(a, b)

	if a.width > 63 {
		panic(fmt.Sprintf(
			"add of %d-bit wires %s and %s needs a %d-bit result, max is 64",
			a.width, a.name, b.name, a.width+1))
	}

	out := a.block.NewWire(a.width+1, "")
	a.block.AddNet(&Net{
		Op:    OpAdd,
		Args:  []*Wire{a, b},
		Dests: []*Wire{out},
	})

	return out
}

// Mux returns onFalse when sel is 0 and onTrue when sel is 1. sel must be
// one bit wide, the two cases must have equal widths.
func Mux(sel, onFalse, onTrue *Wire) *Wire {
	if sel.width != 1 {
		panic(fmt.Sprintf("mux selector %s must be 1 bit, got %d",
			sel.name, sel.width))
	}

	checkOperands(onFalse, onTrue)
	if sel.block != onFalse.block {
		panic("mux operands belong to different blocks")
	}

	out := sel.block.NewWire(onFalse.width, "")
	sel.block.AddNet(&Net{
		Op:    OpMux,
		Args:  []*Wire{sel, onFalse, onTrue},
		Dests: []*Wire{out},
	})

	return out
}

// Concat concatenates wires, the first argument occupying the high bits.
func Concat(ws ...*Wire) *Wire {
	if len(ws) == 0 {
		panic("concat of zero wires")
	}

	width := 0
	for _, w := range ws {
		if w.block != ws[0].block {
			panic("concat operands belong to different blocks")
		}

		width += w.width
	}

	if width > 64 {
		panic(fmt.Sprintf("concat result is %d bits, max is 64", width))
	}

	out := ws[0].block.NewWire(width, "")
	ws[0].block.AddNet(&Net{
		Op:    OpConcat,
		Args:  append([]*Wire{}, ws...),
		Dests: []*Wire{out},
	})

	return out
}

// Select extracts the listed bit positions of a wire, lowest position of
// the result first.
func Select(a *Wire, bits ...int) *Wire {
	if len(bits) == 0 {
		panic("select of zero bits")
	}

	for _, pos := range bits {
		if pos < 0 || pos >= a.width {
			panic(fmt.Sprintf("select bit %d out of range for %d-bit %s",
				pos, a.width, a.name))
		}
	}

	out := a.block.NewWire(len(bits), "")
	a.block.AddNet(&Net{
		Op:    OpSelect,
		Args:  []*Wire{a},
		Dests: []*Wire{out},
		Param: append([]int{}, bits...),
	})

	return out
}

// Drive connects a source expression to a previously declared wire. It is
// how forward-declared wires, including primary outputs, get their value.
func Drive(dst, src *Wire) {
	checkOperands(dst, src)

	dst.block.AddNet(&Net{
		Op:    OpCopy,
		Args:  []*Wire{src},
		Dests: []*Wire{dst},
	})
}

// AsWidth coerces a wire to a target width. Narrower wires are
// zero-extended. Wider wires fail with ErrWidth unless truncating is set,
// in which case the low bits are kept.
func AsWidth(w *Wire, width int, truncating bool) (*Wire, error) {
	switch {
	case w.width == width:
		return w, nil

	case w.width < width:
		pad := w.block.NewConst(0, width-w.width)
		return Concat(pad, w), nil

	case truncating:
		bits := make([]int, width)
		for i := range bits {
			bits[i] = i
		}

		return Select(w, bits...), nil

	default:
		return nil, fmt.Errorf(
			"%w: wire %s is %d bits, expected at most %d",
			ErrWidth, w.name, w.width, width)
	}
}

func binOp(op Opcode, a, b *Wire) *Wire {
	checkOperands(a, b)

	out := a.block.NewWire(a.width, "")
	a.block.AddNet(&Net{
		Op:    op,
		Args:  []*Wire{a, b},
		Dests: []*Wire{out},
	})

	return out
}

func checkOperands(a, b *Wire) {
	if a.block != b.block {
		panic(fmt.Sprintf("wires %s and %s belong to different blocks",
			a.name, b.name))
	}

	if a.width != b.width {
		panic(fmt.Sprintf("wires %s (%d bits) and %s (%d bits) differ in width",
			a.name, a.width, b.name, b.width))
	}
}

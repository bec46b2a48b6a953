package wiring

import "fmt"

// A Kind classifies the role a wire plays in the design graph.
type Kind int

const (
	// KindWire is a plain internal wire driven by some net.
	KindWire Kind = iota

	// KindInput is a primary input. It has no driving net.
	KindInput

	// KindOutput is a primary output.
	KindOutput

	// KindConst is a wire holding a design-time constant.
	KindConst

	// KindRegister is the output of a storage element. Its value comes
	// from the previous cycle, so it legitimately terminates feedback.
	KindRegister
)

func (k Kind) String() string {
	switch k {
	case KindWire:
		return "wire"
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindConst:
		return "const"
	case KindRegister:
		return "register"
	}

	panic(fmt.Sprintf("unknown wire kind %d", int(k)))
}

// A Wire is a fixed-width bit-vector value node. A wire is created through
// its owning block and is never shared across blocks.
type Wire struct {
	width int
	name  string
	kind  Kind
	val   uint64
	block *Block
}

// Width returns the number of bits the wire carries.
func (w *Wire) Width() int {
	return w.width
}

// Name returns the name of the wire.
func (w *Wire) Name() string {
	return w.name
}

// Kind returns the role of the wire in the graph.
func (w *Wire) Kind() Kind {
	return w.kind
}

// ConstVal returns the value of a KindConst wire.
func (w *Wire) ConstVal() uint64 {
	if w.kind != KindConst {
		panic(fmt.Sprintf("wire %s is not a constant", w.name))
	}

	return w.val
}

// Block returns the block that owns the wire.
func (w *Wire) Block() *Block {
	return w.block
}

// SetNext connects the next-cycle value of a register. It creates the
// register net that the loop detector and the simulator treat as a
// sequential boundary.
func (w *Wire) SetNext(next *Wire) {
	if w.kind != KindRegister {
		panic(fmt.Sprintf("SetNext on non-register wire %s", w.name))
	}

	if next.block != w.block {
		panic("register and its next value belong to different blocks")
	}

	if next.width != w.width {
		panic(fmt.Sprintf(
			"register %s is %d bits, next value is %d bits",
			w.name, w.width, next.width))
	}

	w.block.AddNet(&Net{
		Op:    OpRegister,
		Args:  []*Wire{next},
		Dests: []*Wire{w},
	})
}

// Mask returns the bit mask covering width bits.
func Mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}

package wiring

import (
	"fmt"
)

// A Block owns all the wires and nets of one design. All construction goes
// through the block, so that two designs built in the same process never
// share state.
type Block struct {
	name string

	wires      []*Wire
	wireByName map[string]*Wire
	nets       []*Net
	driver     map[*Wire]*Net

	tmpCount int
	memCount int
	mems     []any

	condBuilder any
}

// NewBlock creates an empty design container.
func NewBlock(name string) *Block {
	return &Block{
		name:       name,
		wireByName: make(map[string]*Wire),
		driver:     make(map[*Wire]*Net),
	}
}

// Name returns the name of the block.
func (b *Block) Name() string {
	return b.name
}

// NewWire creates a plain internal wire. An empty name is replaced with a
// generated temporary name.
func (b *Block) NewWire(width int, name string) *Wire {
	return b.addWire(width, name, KindWire, 0)
}

// NewInput creates a primary input wire.
func (b *Block) NewInput(width int, name string) *Wire {
	return b.addWire(width, name, KindInput, 0)
}

// NewOutput creates a primary output wire.
func (b *Block) NewOutput(width int, name string) *Wire {
	return b.addWire(width, name, KindOutput, 0)
}

// NewConst creates a wire holding a design-time constant. The value must
// fit in the given width.
func (b *Block) NewConst(val uint64, width int) *Wire {
	if val&^Mask(width) != 0 {
		panic(fmt.Sprintf(
			"constant %d does not fit in %d bits", val, width))
	}

	return b.addWire(width, "", KindConst, val)
}

// NewRegister creates a register output wire. Its next-cycle value is
// connected later with SetNext.
func (b *Block) NewRegister(width int, name string) *Wire {
	return b.addWire(width, name, KindRegister, 0)
}

func (b *Block) addWire(width int, name string, kind Kind, val uint64) *Wire {
	if width < 1 || width > 64 {
		panic(fmt.Sprintf("wire width must be in [1, 64], got %d", width))
	}

	if name == "" {
		name = b.tempName("tmp")
	}

	if _, taken := b.wireByName[name]; taken {
		panic(fmt.Sprintf("wire name %s already used in block %s",
			name, b.name))
	}

	w := &Wire{
		width: width,
		name:  name,
		kind:  kind,
		val:   val,
		block: b,
	}
	b.wires = append(b.wires, w)
	b.wireByName[name] = w

	return w
}

func (b *Block) tempName(prefix string) string {
	for {
		name := fmt.Sprintf("%s%d", prefix, b.tmpCount)
		b.tmpCount++

		if _, taken := b.wireByName[name]; !taken {
			return name
		}
	}
}

// AddNet registers an operation node. All argument and destination wires
// must belong to the block, and a wire can be driven by at most one net.
func (b *Block) AddNet(n *Net) {
	for _, arg := range n.Args {
		if arg.block != b {
			panic(fmt.Sprintf(
				"net argument %s belongs to another block", arg.name))
		}
	}

	for _, dst := range n.Dests {
		if dst.block != b {
			panic(fmt.Sprintf(
				"net destination %s belongs to another block", dst.name))
		}

		if dst.kind == KindInput || dst.kind == KindConst {
			panic(fmt.Sprintf("%s wire %s cannot be driven by a net",
				dst.kind, dst.name))
		}

		if prev, driven := b.driver[dst]; driven {
			panic(fmt.Sprintf("wire %s already driven by %s",
				dst.name, prev))
		}

		b.driver[dst] = n
	}

	b.nets = append(b.nets, n)
}

// Wires returns all wires of the block, in creation order.
func (b *Block) Wires() []*Wire {
	return b.wires
}

// Nets returns all nets of the block, in creation order.
func (b *Block) Nets() []*Net {
	return b.nets
}

// WireByName looks up a wire by name.
func (b *Block) WireByName(name string) (*Wire, bool) {
	w, ok := b.wireByName[name]
	return w, ok
}

// Driver returns the net driving the wire, if any.
func (b *Block) Driver(w *Wire) (*Net, bool) {
	n, ok := b.driver[w]
	return n, ok
}

// NextMemID hands out the identity for one memory resource. IDs are unique
// within the block only, so independent designs never contaminate each
// other.
func (b *Block) NextMemID() int {
	id := b.memCount
	b.memCount++

	return id
}

// RegisterMemory records a memory resource with the block.
func (b *Block) RegisterMemory(mem any) {
	b.mems = append(b.mems, mem)
}

// Memories returns the memory resources registered with the block, in
// creation order.
func (b *Block) Memories() []any {
	return b.mems
}

// SetCondBuilder installs the active conditional-assignment builder. The
// substrate treats the builder as opaque; memories retrieve it to stage
// guarded writes.
func (b *Block) SetCondBuilder(builder any) {
	b.condBuilder = builder
}

// CondBuilder returns the active conditional-assignment builder, or nil.
func (b *Block) CondBuilder() any {
	return b.condBuilder
}

// SanityCheck validates the structural invariants of the block: every net
// endpoint is a registered wire of this block, and every non-source wire
// has at most one driver.
func (b *Block) SanityCheck() error {
	registered := make(map[*Wire]bool, len(b.wires))
	for _, w := range b.wires {
		registered[w] = true
	}

	for _, n := range b.nets {
		for _, arg := range n.Args {
			if !registered[arg] {
				return fmt.Errorf(
					"%w: net %s uses unregistered wire %s",
					ErrUsage, n, arg.name)
			}
		}

		for _, dst := range n.Dests {
			if !registered[dst] {
				return fmt.Errorf(
					"%w: net %s drives unregistered wire %s",
					ErrUsage, n, dst.name)
			}
		}
	}

	return nil
}

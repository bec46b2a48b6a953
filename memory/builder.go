package memory

import (
	"fmt"

	"github.com/sarchlab/netlist/wiring"
)

// A Builder builds read-write memories.
type Builder struct {
	block         *wiring.Block
	bitwidth      int
	addrwidth     int
	maxReadPorts  int
	maxWritePorts int
	asynchronous  bool
}

// MakeBuilder returns a Builder with the default port limits of 2 read
// ports and 1 write port.
func MakeBuilder() Builder {
	return Builder{
		maxReadPorts:  2,
		maxWritePorts: 1,
	}
}

// WithBlock sets the block that owns the memory.
func (b Builder) WithBlock(block *wiring.Block) Builder {
	b.block = block
	return b
}

// WithBitwidth sets the word width of the memory.
func (b Builder) WithBitwidth(bitwidth int) Builder {
	b.bitwidth = bitwidth
	return b
}

// WithAddrwidth sets the address-bus width. The memory holds 2^addrwidth
// words.
func (b Builder) WithAddrwidth(addrwidth int) Builder {
	b.addrwidth = addrwidth
	return b
}

// WithMaxReadPorts limits the number of read ports. A negative value lifts
// the limit.
func (b Builder) WithMaxReadPorts(n int) Builder {
	b.maxReadPorts = n
	return b
}

// WithMaxWritePorts limits the number of write ports. A negative value
// lifts the limit.
func (b Builder) WithMaxWritePorts(n int) Builder {
	b.maxWritePorts = n
	return b
}

// WithAsynchronous declares that the memory may be addressed by arbitrary
// combinational logic rather than straight from a register or input.
func (b Builder) WithAsynchronous(asynchronous bool) Builder {
	b.asynchronous = asynchronous
	return b
}

// Build creates the memory, assigns it a fresh identity, and registers it
// with the owning block. An empty name is replaced with a generated one.
func (b Builder) Build(name string) (*MemBlock, error) {
	if b.block == nil {
		panic("memory built without a block")
	}

	if err := checkWidths(b.bitwidth, b.addrwidth, name); err != nil {
		return nil, err
	}

	m := newMemBlock(b.block, name, b.bitwidth, b.addrwidth,
		b.maxReadPorts, b.maxWritePorts, b.asynchronous)
	m.self = m
	b.block.RegisterMemory(m)

	return m, nil
}

func newMemBlock(
	block *wiring.Block,
	name string,
	bitwidth, addrwidth int,
	maxReadPorts, maxWritePorts int,
	asynchronous bool,
) *MemBlock {
	id := block.NextMemID()
	if name == "" {
		name = fmt.Sprintf("mem%d", id)
	}

	return &MemBlock{
		block:         block,
		name:          name,
		id:            id,
		bitwidth:      bitwidth,
		addrwidth:     addrwidth,
		maxReadPorts:  maxReadPorts,
		maxWritePorts: maxWritePorts,
		asynchronous:  asynchronous,
	}
}

func checkWidths(bitwidth, addrwidth int, name string) error {
	if bitwidth < 1 {
		return fmt.Errorf("%w: memory %s bitwidth must be >= 1, got %d",
			wiring.ErrUsage, name, bitwidth)
	}

	if addrwidth < 1 {
		return fmt.Errorf("%w: memory %s addrwidth must be >= 1, got %d",
			wiring.ErrUsage, name, addrwidth)
	}

	if bitwidth > 64 {
		return fmt.Errorf("%w: memory %s bitwidth must be <= 64, got %d",
			wiring.ErrUsage, name, bitwidth)
	}

	if addrwidth > 64 {
		return fmt.Errorf("%w: memory %s addrwidth must be <= 64, got %d",
			wiring.ErrUsage, name, addrwidth)
	}

	return nil
}

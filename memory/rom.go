package memory

import (
	"fmt"

	"github.com/sarchlab/netlist/wiring"
)

// A RomBlock is a read-only memory resource. It supports the same read
// interface as MemBlock but has no write ports; its contents come from a
// data source and are resolved at simulation time.
type RomBlock struct {
	*MemBlock

	data           DataSource
	padWithZeros   bool
	buildNewCopies bool

	// current is the replica accepting new read ports when replication is
	// enabled. It starts as the RomBlock itself.
	current *RomBlock
}

// Read indexes the ROM at an address expression. Indexing with a
// design-time constant is rejected; a constant address should be resolved
// against the data source directly instead of routed through hardware.
func (r *RomBlock) Read(addr *wiring.Wire) (*Indexed, error) {
	if addr.Kind() == wiring.KindConst {
		return nil, fmt.Errorf(
			"%w: ROM %s indexed with a constant; read the data source directly",
			wiring.ErrUsage, r.name)
	}

	return r.MemBlock.Read(addr)
}

// Write always fails: the memory is read-only.
func (r *RomBlock) Write(addr *wiring.Wire, value any) error {
	return r.readOnlyErr()
}

// WriteGuarded always fails: the memory is read-only.
func (r *RomBlock) WriteGuarded(addr *wiring.Wire, value any) error {
	return r.readOnlyErr()
}

// Stage always fails: the memory is read-only.
func (r *RomBlock) Stage(addr *wiring.Wire, pw PendingWrite) error {
	return r.readOnlyErr()
}

// MaterializeWrite always fails: the memory is read-only.
func (r *RomBlock) MaterializeWrite(addr, data, enable *wiring.Wire) error {
	return r.readOnlyErr()
}

func (r *RomBlock) readOnlyErr() error {
	return fmt.Errorf("%w: no writing to read-only memory %s",
		wiring.ErrUsage, r.name)
}

// PadWithZeros reports whether undefined addresses resolve to zero.
func (r *RomBlock) PadWithZeros() bool {
	return r.padWithZeros
}

// Current returns the replica currently accepting read ports.
func (r *RomBlock) Current() *RomBlock {
	return r.current
}

// Resolve returns the ROM content at an address. It is used by the
// simulator, not during netlist construction.
func (r *RomBlock) Resolve(addr uint64) (uint64, error) {
	if r.addrwidth < 64 && addr > wiring.Mask(r.addrwidth) {
		return 0, fmt.Errorf(
			"%w: address %d invalid for ROM %s with addrwidth %d",
			ErrOutOfRange, addr, r.name, r.addrwidth)
	}

	v, ok, err := r.data.Lookup(addr)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid data source for ROM %s: %v",
			wiring.ErrUsage, r.name, err)
	}

	if !ok {
		if !r.padWithZeros {
			return 0, fmt.Errorf(
				"%w: ROM %s has no content at address %d",
				ErrUninitializedData, r.name, addr)
		}

		v = 0
	}

	if v&^wiring.Mask(r.bitwidth) != 0 {
		return 0, fmt.Errorf(
			"%w: ROM %s content %d at address %d exceeds bitwidth %d",
			ErrOutOfRange, r.name, v, addr, r.bitwidth)
	}

	return v, nil
}

// buildReadPort allocates the port on the current replica. With
// replication enabled, a replica at its read cap is replaced with a fresh
// copy of the ROM, modeling a physical duplicate that adds read bandwidth.
func (r *RomBlock) buildReadPort(addr *wiring.Wire) (*wiring.Wire, error) {
	if r.buildNewCopies && r.current.atReadCap() {
		r.current = r.makeCopy()
	}

	return r.current.MemBlock.buildReadPort(addr)
}

func (r *RomBlock) makeCopy() *RomBlock {
	base := newMemBlock(r.block, r.name, r.bitwidth, r.addrwidth,
		r.maxReadPorts, 0, r.asynchronous)

	rom := &RomBlock{
		MemBlock:     base,
		data:         r.data,
		padWithZeros: r.padWithZeros,
	}
	rom.current = rom
	base.self = rom
	r.block.RegisterMemory(rom)

	return rom
}

// A RomBuilder builds read-only memories.
type RomBuilder struct {
	block          *wiring.Block
	bitwidth       int
	addrwidth      int
	maxReadPorts   int
	asynchronous   bool
	data           DataSource
	padWithZeros   bool
	buildNewCopies bool
}

// MakeRomBuilder returns a RomBuilder with the default limit of 2 read
// ports.
func MakeRomBuilder() RomBuilder {
	return RomBuilder{
		maxReadPorts: 2,
	}
}

// WithBlock sets the block that owns the ROM.
func (b RomBuilder) WithBlock(block *wiring.Block) RomBuilder {
	b.block = block
	return b
}

// WithBitwidth sets the word width of the ROM.
func (b RomBuilder) WithBitwidth(bitwidth int) RomBuilder {
	b.bitwidth = bitwidth
	return b
}

// WithAddrwidth sets the address-bus width.
func (b RomBuilder) WithAddrwidth(addrwidth int) RomBuilder {
	b.addrwidth = addrwidth
	return b
}

// WithMaxReadPorts limits the number of read ports per replica. A negative
// value lifts the limit.
func (b RomBuilder) WithMaxReadPorts(n int) RomBuilder {
	b.maxReadPorts = n
	return b
}

// WithAsynchronous declares the ROM asynchronous.
func (b RomBuilder) WithAsynchronous(asynchronous bool) RomBuilder {
	b.asynchronous = asynchronous
	return b
}

// WithDataSource sets the contents of the ROM.
func (b RomBuilder) WithDataSource(src DataSource) RomBuilder {
	b.data = src
	return b
}

// WithPadWithZeros makes addresses absent from the data source resolve to
// zero instead of failing.
func (b RomBuilder) WithPadWithZeros(pad bool) RomBuilder {
	b.padWithZeros = pad
	return b
}

// WithBuildNewCopies replicates the ROM when the read-port limit is
// reached, instead of failing the allocation.
func (b RomBuilder) WithBuildNewCopies(build bool) RomBuilder {
	b.buildNewCopies = build
	return b
}

// Build creates the ROM and registers it with the owning block.
func (b RomBuilder) Build(name string) (*RomBlock, error) {
	if b.block == nil {
		panic("ROM built without a block")
	}

	if err := checkWidths(b.bitwidth, b.addrwidth, name); err != nil {
		return nil, err
	}

	if b.data == nil {
		return nil, fmt.Errorf("%w: ROM %s built without a data source",
			wiring.ErrUsage, name)
	}

	base := newMemBlock(b.block, name, b.bitwidth, b.addrwidth,
		b.maxReadPorts, 0, b.asynchronous)

	rom := &RomBlock{
		MemBlock:       base,
		data:           b.data,
		padWithZeros:   b.padWithZeros,
		buildNewCopies: b.buildNewCopies,
	}
	rom.current = rom
	base.self = rom
	b.block.RegisterMemory(rom)

	return rom, nil
}

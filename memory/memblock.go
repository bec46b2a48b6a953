package memory

import (
	"fmt"

	"github.com/sarchlab/netlist/wiring"
)

// An EnabledWrite pairs write data with a 1-bit enable signal. The write
// commits in a cycle only when the enable is high.
type EnabledWrite struct {
	Data   *wiring.Wire
	Enable *wiring.Wire
}

// A PendingWrite captures one staged write request before it is
// materialized into a write port. Value is either a data wire or an
// EnabledWrite. A conditional pending write is routed through the block's
// active conditional-assignment builder instead of becoming a port
// directly.
type PendingWrite struct {
	Value       any
	Conditional bool
}

// A WriteStager merges guarded writes into write ports. The conditional
// builder installs an implementation on the block while a guard scope is
// open.
type WriteStager interface {
	StageGuardedWrite(
		mem *MemBlock,
		addr, data, enable *wiring.Wire,
	) error
}

// A PortParam identifies the memory a port net accesses. It is stored as
// the parameter of every OpMemRead and OpMemWrite net.
type PortParam struct {
	ID  int
	Mem any
}

func (p PortParam) String() string {
	if named, ok := p.Mem.(interface{ Name() string }); ok {
		return fmt.Sprintf("memid=%d mem=%s", p.ID, named.Name())
	}

	return fmt.Sprintf("memid=%d", p.ID)
}

// A MemBlock is a named read-write storage resource. Each read or write
// access materializes one port net, up to the configured port maximums.
type MemBlock struct {
	block *wiring.Block

	name          string
	id            int
	bitwidth      int
	addrwidth     int
	maxReadPorts  int
	maxWritePorts int
	asynchronous  bool

	readPortCount  int
	writePortCount int
	readPortNets   []*wiring.Net
	writePortNets  []*wiring.Net

	// self is the outermost memory value, so that ports built through an
	// embedded MemBlock still carry the specialized memory as their
	// parameter.
	self any
}

type readPortSource interface {
	buildReadPort(addr *wiring.Wire) (*wiring.Wire, error)
}

// Name returns the name of the memory.
func (m *MemBlock) Name() string {
	return m.name
}

// ID returns the identity the owning block assigned to the memory.
func (m *MemBlock) ID() int {
	return m.id
}

// Bitwidth returns the word width of the memory.
func (m *MemBlock) Bitwidth() int {
	return m.bitwidth
}

// Addrwidth returns the width of the address bus. The memory holds
// 2^addrwidth words.
func (m *MemBlock) Addrwidth() int {
	return m.addrwidth
}

// Asynchronous reports whether the memory was declared asynchronous.
// Synchronous memories should be addressed from a register or primary
// input; that property is declared here and checked by a separate
// validation pass, not enforced during construction.
func (m *MemBlock) Asynchronous() bool {
	return m.asynchronous
}

// ReadPortCount returns the number of materialized read ports.
func (m *MemBlock) ReadPortCount() int {
	return m.readPortCount
}

// WritePortCount returns the number of materialized write ports.
func (m *MemBlock) WritePortCount() int {
	return m.writePortCount
}

// ReadPortNets returns the materialized read-port nets, in creation order.
func (m *MemBlock) ReadPortNets() []*wiring.Net {
	return m.readPortNets
}

// WritePortNets returns the materialized write-port nets, in creation
// order.
func (m *MemBlock) WritePortNets() []*wiring.Net {
	return m.writePortNets
}

// Read indexes the memory at an address expression. It returns a lazy
// reference; the read port is materialized when the reference is first
// resolved to a concrete wire. Every Read call stands for an independent
// port.
func (m *MemBlock) Read(addr *wiring.Wire) (*Indexed, error) {
	coerced, err := m.coerceAddr(addr)
	if err != nil {
		return nil, err
	}

	return &Indexed{mem: m, addr: coerced}, nil
}

// Write stages an unconditional write. value is either a data wire, with
// the enable implicitly constant high, or an EnabledWrite. The write port
// is materialized immediately.
func (m *MemBlock) Write(addr *wiring.Wire, value any) error {
	return m.Stage(addr, PendingWrite{Value: value})
}

// WriteGuarded stages a write under the currently open conditional guard.
// The block's conditional-assignment builder merges the guard predicate
// into the enable signal.
func (m *MemBlock) WriteGuarded(addr *wiring.Wire, value any) error {
	return m.Stage(addr, PendingWrite{Value: value, Conditional: true})
}

// Stage consumes a pending write: it coerces the address, data, and enable,
// then either materializes a write port or hands the request to the active
// conditional builder.
func (m *MemBlock) Stage(addr *wiring.Wire, pw PendingWrite) error {
	coerced, err := m.coerceAddr(addr)
	if err != nil {
		return err
	}

	var data, enable *wiring.Wire
	switch v := pw.Value.(type) {
	case *wiring.Wire:
		data = v
		enable = m.block.NewConst(1, 1)
	case EnabledWrite:
		data = v.Data
		enable = v.Enable
	default:
		return fmt.Errorf(
			"%w: memory %s written with %T, want *wiring.Wire or EnabledWrite",
			wiring.ErrUsage, m.name, pw.Value)
	}

	data, err = wiring.AsWidth(data, m.bitwidth, false)
	if err != nil {
		return fmt.Errorf("memory %s write data: %w", m.name, err)
	}

	if enable.Width() != 1 {
		return fmt.Errorf(
			"%w: memory %s write enable is %d bits, want exactly 1",
			wiring.ErrWidth, m.name, enable.Width())
	}

	if pw.Conditional {
		stager, ok := m.block.CondBuilder().(WriteStager)
		if !ok {
			return fmt.Errorf(
				"%w: guarded write to memory %s outside a conditional context",
				wiring.ErrUsage, m.name)
		}

		return stager.StageGuardedWrite(m, coerced, data, enable)
	}

	return m.MaterializeWrite(coerced, data, enable)
}

// MaterializeWrite turns a fully coerced write request into a write-port
// net. Conditional builders call it after merging guards into the enable.
// It fails, without mutating the memory, when the port maximum is reached.
func (m *MemBlock) MaterializeWrite(addr, data, enable *wiring.Wire) error {
	if m.maxWritePorts >= 0 && m.writePortCount+1 > m.maxWritePorts {
		return fmt.Errorf(
			"%w: memory %s allows at most %d write ports",
			ErrCapacity, m.name, m.maxWritePorts)
	}

	net := &wiring.Net{
		Op:    wiring.OpMemWrite,
		Args:  []*wiring.Wire{addr, data, enable},
		Param: PortParam{ID: m.id, Mem: m.self},
	}
	m.block.AddNet(net)
	m.writePortNets = append(m.writePortNets, net)
	m.writePortCount++

	return nil
}

func (m *MemBlock) buildReadPort(addr *wiring.Wire) (*wiring.Wire, error) {
	if m.maxReadPorts >= 0 && m.readPortCount+1 > m.maxReadPorts {
		return nil, fmt.Errorf(
			"%w: memory %s allows at most %d read ports",
			ErrCapacity, m.name, m.maxReadPorts)
	}

	data := m.block.NewWire(m.bitwidth, "")
	net := &wiring.Net{
		Op:    wiring.OpMemRead,
		Args:  []*wiring.Wire{addr},
		Dests: []*wiring.Wire{data},
		Param: PortParam{ID: m.id, Mem: m.self},
	}
	m.block.AddNet(net)
	m.readPortNets = append(m.readPortNets, net)
	m.readPortCount++

	return data, nil
}

func (m *MemBlock) atReadCap() bool {
	return m.maxReadPorts >= 0 && m.readPortCount >= m.maxReadPorts
}

func (m *MemBlock) coerceAddr(addr *wiring.Wire) (*wiring.Wire, error) {
	if addr.Block() != m.block {
		return nil, fmt.Errorf(
			"%w: address wire %s belongs to another block than memory %s",
			wiring.ErrUsage, addr.Name(), m.name)
	}

	coerced, err := wiring.AsWidth(addr, m.addrwidth, false)
	if err != nil {
		return nil, fmt.Errorf("memory %s address: %w", m.name, err)
	}

	return coerced, nil
}

// An Indexed is the lazy reference Read returns. The read port, and its
// data wire, come into existence on the first Resolve call; later calls
// return the same wire.
type Indexed struct {
	mem  *MemBlock
	addr *wiring.Wire
	wire *wiring.Wire
}

// Addr returns the coerced address expression of the reference.
func (ix *Indexed) Addr() *wiring.Wire {
	return ix.addr
}

// Resolve materializes the read port, failing when the memory's read-port
// maximum is reached. The memory is not mutated on failure.
func (ix *Indexed) Resolve() (*wiring.Wire, error) {
	if ix.wire != nil {
		return ix.wire, nil
	}

	w, err := ix.mem.self.(readPortSource).buildReadPort(ix.addr)
	if err != nil {
		return nil, err
	}

	ix.wire = w

	return w, nil
}

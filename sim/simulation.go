// Package sim evaluates finished netlists cycle by cycle. It is a
// functional simulator: every Step computes all combinational values from
// the inputs and the current state, then commits register and memory
// updates for the next cycle.
package sim

import (
	"fmt"

	"github.com/sarchlab/netlist/analysis"
	"github.com/sarchlab/netlist/memory"
	"github.com/sarchlab/netlist/wiring"
)

// A Simulation holds the run-time state of one block: wire values of the
// latest cycle, register state, and memory contents.
type Simulation struct {
	block *wiring.Block

	order     []*wiring.Net
	regNets   []*wiring.Net
	writeNets []*wiring.Net
	inputs    []*wiring.Wire

	values   map[*wiring.Wire]uint64
	regState map[*wiring.Wire]uint64
	memState map[int]map[uint64]uint64

	cycle int
}

// NewSimulation prepares a block for simulation. It validates the block,
// rejects combinational loops, and fixes the evaluation order of the
// combinational nets once.
func NewSimulation(block *wiring.Block) (*Simulation, error) {
	if err := block.SanityCheck(); err != nil {
		return nil, err
	}

	if loop := analysis.FindLoop(block); loop != nil {
		return nil, fmt.Errorf(
			"%w: combinational loop of %d nets, starting at %s",
			wiring.ErrUsage, len(loop), loop[0])
	}

	s := &Simulation{
		block:    block,
		regState: make(map[*wiring.Wire]uint64),
		memState: make(map[int]map[uint64]uint64),
	}

	for _, w := range block.Wires() {
		if w.Kind() == wiring.KindInput {
			s.inputs = append(s.inputs, w)
		}
	}

	s.orderNets()

	return s, nil
}

// orderNets topologically sorts the combinational nets. Register outputs,
// inputs, and constants are sources; register nets themselves only run at
// commit time.
func (s *Simulation) orderNets() {
	var combNets []*wiring.Net
	for _, n := range s.block.Nets() {
		if n.Op == wiring.OpRegister {
			s.regNets = append(s.regNets, n)
			continue
		}

		if n.Op == wiring.OpMemWrite {
			s.writeNets = append(s.writeNets, n)
		}

		combNets = append(combNets, n)
	}

	producer := make(map[*wiring.Wire]*wiring.Net)
	for _, n := range combNets {
		for _, dst := range n.Dests {
			producer[dst] = n
		}
	}

	pending := make(map[*wiring.Net]int, len(combNets))
	consumers := make(map[*wiring.Net][]*wiring.Net)

	var ready []*wiring.Net
	for _, n := range combNets {
		deps := 0
		for _, arg := range n.Args {
			if p := producer[arg]; p != nil {
				deps++
				consumers[p] = append(consumers[p], n)
			}
		}

		pending[n] = deps
		if deps == 0 {
			ready = append(ready, n)
		}
	}

	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		s.order = append(s.order, n)

		for _, c := range consumers[n] {
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(s.order) != len(combNets) {
		// FindLoop accepted the block, so the sort cannot stall.
		panic("combinational nets did not order topologically")
	}
}

// Step evaluates one cycle. inputs must supply a value for exactly the
// primary inputs of the block, each fitting its wire's width. Memory reads
// observe the contents from before the cycle; register and enabled memory
// writes commit at the end of the step.
func (s *Simulation) Step(inputs map[string]uint64) error {
	vals := make(map[*wiring.Wire]uint64, len(s.block.Wires()))

	if err := s.applyInputs(vals, inputs); err != nil {
		return err
	}

	for _, w := range s.block.Wires() {
		switch w.Kind() {
		case wiring.KindConst:
			vals[w] = w.ConstVal()
		case wiring.KindRegister:
			vals[w] = s.regState[w]
		}
	}

	for _, n := range s.order {
		if err := s.evalNet(n, vals); err != nil {
			return err
		}
	}

	for _, n := range s.writeNets {
		if vals[n.Args[2]] != 0 {
			param := n.Param.(memory.PortParam)
			s.memBank(param.ID)[vals[n.Args[0]]] = vals[n.Args[1]]
		}
	}

	for _, n := range s.regNets {
		s.regState[n.Dests[0]] = vals[n.Args[0]]
	}

	s.values = vals
	s.cycle++

	return nil
}

func (s *Simulation) applyInputs(
	vals map[*wiring.Wire]uint64,
	inputs map[string]uint64,
) error {
	for name := range inputs {
		w, ok := s.block.WireByName(name)
		if !ok || w.Kind() != wiring.KindInput {
			return fmt.Errorf("%w: %s is not an input of block %s",
				wiring.ErrUsage, name, s.block.Name())
		}
	}

	for _, w := range s.inputs {
		v, ok := inputs[w.Name()]
		if !ok {
			return fmt.Errorf("%w: no value for input %s",
				wiring.ErrUsage, w.Name())
		}

		if v&^wiring.Mask(w.Width()) != 0 {
			return fmt.Errorf(
				"%w: value %d does not fit %d-bit input %s",
				wiring.ErrWidth, v, w.Width(), w.Name())
		}

		vals[w] = v
	}

	return nil
}

func (s *Simulation) evalNet(
	n *wiring.Net,
	vals map[*wiring.Wire]uint64,
) error {
	switch n.Op {
	case wiring.OpAnd:
		vals[n.Dests[0]] = vals[n.Args[0]] & vals[n.Args[1]]

	case wiring.OpOr:
		vals[n.Dests[0]] = vals[n.Args[0]] | vals[n.Args[1]]

	case wiring.OpXor:
		vals[n.Dests[0]] = vals[n.Args[0]] ^ vals[n.Args[1]]

	case wiring.OpNot:
		vals[n.Dests[0]] = ^vals[n.Args[0]] & wiring.Mask(n.Dests[0].Width())

	case wiring.OpAdd:
		sum := vals[n.Args[0]] + vals[n.Args[1]]
		vals[n.Dests[0]] = sum & wiring.Mask(n.Dests[0].Width())

	case wiring.OpMux:
		if vals[n.Args[0]] != 0 {
			vals[n.Dests[0]] = vals[n.Args[2]]
		} else {
			vals[n.Dests[0]] = vals[n.Args[1]]
		}

	case wiring.OpConcat:
		v := uint64(0)
		for _, arg := range n.Args {
			v = v<<arg.Width() | vals[arg]
		}
		vals[n.Dests[0]] = v

	case wiring.OpSelect:
		v := uint64(0)
		for i, pos := range n.Param.([]int) {
			v |= (vals[n.Args[0]] >> pos & 1) << i
		}
		vals[n.Dests[0]] = v

	case wiring.OpCopy:
		vals[n.Dests[0]] = vals[n.Args[0]]

	case wiring.OpMemRead:
		param := n.Param.(memory.PortParam)
		addr := vals[n.Args[0]]

		switch mem := param.Mem.(type) {
		case *memory.RomBlock:
			v, err := mem.Resolve(addr)
			if err != nil {
				return err
			}
			vals[n.Dests[0]] = v

		default:
			vals[n.Dests[0]] = s.memBank(param.ID)[addr]
		}

	case wiring.OpMemWrite:
		// Committed at the end of the step.

	default:
		panic(fmt.Sprintf("cannot evaluate net %s", n))
	}

	return nil
}

func (s *Simulation) memBank(id int) map[uint64]uint64 {
	bank, ok := s.memState[id]
	if !ok {
		bank = make(map[uint64]uint64)
		s.memState[id] = bank
	}

	return bank
}

// Cycle returns the number of completed steps.
func (s *Simulation) Cycle() int {
	return s.cycle
}

// Inspect returns the value a named wire held in the latest completed
// cycle.
func (s *Simulation) Inspect(name string) (uint64, error) {
	w, ok := s.block.WireByName(name)
	if !ok {
		return 0, fmt.Errorf("%w: block %s has no wire %s",
			wiring.ErrUsage, s.block.Name(), name)
	}

	if s.values == nil {
		return 0, fmt.Errorf("%w: no cycle simulated yet", wiring.ErrUsage)
	}

	return s.values[w], nil
}

// InspectMem returns the current content of one memory word. Unwritten
// words read as zero.
func (s *Simulation) InspectMem(m *memory.MemBlock, addr uint64) uint64 {
	return s.memBank(m.ID())[addr]
}

// Package analysis validates the structural soundness of finished netlists.
package analysis

import (
	"fmt"
	"io"

	"github.com/sarchlab/netlist/wiring"
)

// FindLoop decides whether the block contains a cycle among nets that does
// not pass through a register. It returns the nets of one offending cycle,
// in cycle order, or nil when the combinational portion of the netlist is
// acyclic. Feedback routed through a register is sequential state, not a
// loop, and is never reported.
func FindLoop(b *wiring.Block) []*wiring.Net {
	wiresLeft, netsLeft := pruneAcyclic(b)
	if len(netsLeft) == 0 {
		return nil
	}

	return searchLoop(wiresLeft, netsLeft)
}

// FindAndPrintLoop runs FindLoop and prints the result, one net per line,
// or an explicit no-loop message.
func FindAndPrintLoop(out io.Writer, b *wiring.Block) []*wiring.Net {
	loop := FindLoop(b)
	PrintLoop(out, loop)

	return loop
}

// PrintLoop formats a loop report.
func PrintLoop(out io.Writer, loop []*wiring.Net) {
	if len(loop) == 0 {
		fmt.Fprintln(out, "no loop found")
		return
	}

	fmt.Fprintln(out, "loop found:")
	for _, n := range loop {
		fmt.Fprintln(out, n)
	}
}

// pruneAcyclic peels acyclic logic off the netlist, leaves first, until a
// fixed point. It starts from the non-boundary wires (primary inputs,
// constants, primary outputs, and register outputs excluded) and repeatedly
// drops every net none of whose arguments is still a candidate, together
// with that net's destinations. Whatever survives lies on or feeds a cycle.
// Undriven wires are excluded up front: a wire no net produces cannot lie on
// a cycle, and keeping it would pin its consumers past the fixed point.
func pruneAcyclic(
	b *wiring.Block,
) (map[*wiring.Wire]bool, map[*wiring.Net]bool) {
	wiresLeft := make(map[*wiring.Wire]bool)
	for _, w := range b.Wires() {
		if w.Kind() != wiring.KindWire {
			continue
		}

		if _, driven := b.Driver(w); !driven {
			continue
		}

		wiresLeft[w] = true
	}

	netsLeft := make(map[*wiring.Net]bool, len(b.Nets()))
	for _, n := range b.Nets() {
		netsLeft[n] = true
	}

	for removed := true; removed; {
		removed = false

		var prune []*wiring.Net
		for n := range netsLeft {
			anyLeft := false
			for _, arg := range n.Args {
				if wiresLeft[arg] {
					anyLeft = true
					break
				}
			}

			if !anyLeft {
				prune = append(prune, n)
			}
		}

		for _, n := range prune {
			delete(netsLeft, n)
			for _, dst := range n.Dests {
				delete(wiresLeft, dst)
			}

			removed = true
		}
	}

	return wiresLeft, netsLeft
}

// A frame is the per-wire state of the explicit-stack search. net and
// argIndex are resolved on the first visit; argIndex then walks the
// argument edges of the producing net.
type frame struct {
	wire     *wiring.Wire
	net      *wiring.Net
	argIndex int
}

// searchLoop walks the pruned remainder with an explicit stack, never
// recursion, so that arbitrarily deep designs cannot exhaust the call
// stack. A wire reappearing while still on the stack closes a cycle; the
// frames from its deepest occurrence to the stack top are the loop.
func searchLoop(
	wiresLeft map[*wiring.Wire]bool,
	netsLeft map[*wiring.Net]bool,
) []*wiring.Net {
	producer := make(map[*wiring.Wire]*wiring.Net)
	for n := range netsLeft {
		for _, dst := range n.Dests {
			producer[dst] = n
		}
	}

	var start *wiring.Wire
	for w := range wiresLeft {
		start = w
		break
	}

	active := make(map[*wiring.Wire]bool)
	stack := []*frame{{wire: start, argIndex: -1}}

	deadEnd := func() {
		top := stack[len(stack)-1]
		delete(wiresLeft, top.wire)
		delete(active, top.wire)
		stack = stack[:len(stack)-1]
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.argIndex == -1 {
			if !wiresLeft[top.wire] {
				deadEnd()
				continue
			}

			active[top.wire] = true

			top.net = producer[top.wire]
			if top.net == nil || top.net.Op == wiring.OpRegister {
				deadEnd()
				continue
			}
		}

		top.argIndex++
		if top.argIndex == len(top.net.Args) {
			deadEnd()
			continue
		}

		next := top.net.Args[top.argIndex]
		if !active[next] {
			active[next] = true
			stack = append(stack, &frame{wire: next, argIndex: -1})

			continue
		}

		// next is already on the stack: the frames from its deepest
		// occurrence up to the top form the cycle. The stack holds them
		// consumer-first, so reverse to report the loop in signal-flow
		// order, each net feeding the one after it.
		for i, f := range stack {
			if f.wire == next {
				loop := make([]*wiring.Net, 0, len(stack)-i)
				for j := len(stack) - 1; j >= i; j-- {
					loop = append(loop, stack[j].net)
				}

				return loop
			}
		}

		panic(fmt.Sprintf(
			"active wire %s not found on the search stack", next.Name()))
	}

	// Everything surviving the prune must lie on some cycle, so running
	// out of stack here is a bug in this detector, not a property of the
	// design.
	panic("loop search exhausted without finding a cycle in pruned netlist")
}

// Package cond builds conditional assignments. A Context opens nested guard
// scopes over one block; writes staged inside a scope get the scope's
// predicate merged into their enable signal before they become write ports.
package cond

import (
	"fmt"

	"github.com/sarchlab/netlist/memory"
	"github.com/sarchlab/netlist/wiring"
)

// A Context tracks the open guard scopes of one block. While at least one
// scope is open, the context installs itself as the block's
// conditional-assignment builder, so that guarded memory writes reach
// StageGuardedWrite.
type Context struct {
	block  *wiring.Block
	levels []*level
}

// A level groups the sibling branches of one nesting depth. active is the
// predicate under which the level runs, nil at the root. seen accumulates
// the predicates of completed sibling branches, so that later branches and
// Otherwise exclude them. closed marks a level whose fallback already ran;
// no further sibling may open after it.
type level struct {
	active *wiring.Wire
	seen   *wiring.Wire
	closed bool
}

// NewContext creates a conditional-assignment context for a block.
func NewContext(block *wiring.Block) *Context {
	return &Context{
		block:  block,
		levels: []*level{{}},
	}
}

// When opens a guard scope with a 1-bit predicate and runs body inside it.
// Branches at the same depth are prioritized: a branch only fires when no
// earlier sibling predicate fired.
func (c *Context) When(pred *wiring.Wire, body func() error) error {
	if pred.Width() != 1 {
		return fmt.Errorf("%w: guard predicate %s is %d bits, want 1",
			wiring.ErrWidth, pred.Name(), pred.Width())
	}

	if pred.Block() != c.block {
		return fmt.Errorf("%w: guard predicate %s belongs to another block",
			wiring.ErrUsage, pred.Name())
	}

	parent := c.levels[len(c.levels)-1]
	if parent.closed {
		return fmt.Errorf("%w: when after an otherwise at the same depth",
			wiring.ErrUsage)
	}

	eff := pred
	if parent.seen != nil {
		eff = wiring.And(eff, wiring.Not(parent.seen))
	}
	if parent.active != nil {
		eff = wiring.And(eff, parent.active)
	}

	err := c.runScope(eff, body)

	if parent.seen == nil {
		parent.seen = pred
	} else {
		parent.seen = wiring.Or(parent.seen, pred)
	}

	return err
}

// Otherwise opens the fallback scope of the current depth: it fires when
// none of the preceding sibling predicates fired. The fallback closes its
// depth; no further branch may follow it.
func (c *Context) Otherwise(body func() error) error {
	parent := c.levels[len(c.levels)-1]
	if parent.seen == nil {
		return fmt.Errorf("%w: otherwise without a preceding when",
			wiring.ErrUsage)
	}

	if parent.closed {
		return fmt.Errorf("%w: second otherwise at the same depth",
			wiring.ErrUsage)
	}

	eff := wiring.Not(parent.seen)
	if parent.active != nil {
		eff = wiring.And(eff, parent.active)
	}

	parent.closed = true

	return c.runScope(eff, body)
}

func (c *Context) runScope(active *wiring.Wire, body func() error) error {
	if len(c.levels) == 1 {
		if c.block.CondBuilder() != nil {
			return fmt.Errorf(
				"%w: another conditional context is already active",
				wiring.ErrUsage)
		}

		c.block.SetCondBuilder(c)
	}

	c.levels = append(c.levels, &level{active: active})

	defer func() {
		c.levels = c.levels[:len(c.levels)-1]
		if len(c.levels) == 1 {
			c.block.SetCondBuilder(nil)
		}
	}()

	return body()
}

// StageGuardedWrite merges the active guard predicate into the enable of a
// staged memory write and materializes the write port. The memory's
// capacity check still applies.
func (c *Context) StageGuardedWrite(
	mem *memory.MemBlock,
	addr, data, enable *wiring.Wire,
) error {
	if len(c.levels) == 1 {
		return fmt.Errorf("%w: write to memory %s staged with no open guard",
			wiring.ErrUsage, mem.Name())
	}

	active := c.levels[len(c.levels)-1].active
	gated := wiring.And(active, enable)

	return mem.MaterializeWrite(addr, data, gated)
}

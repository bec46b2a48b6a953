package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/netlist/memory"
	"github.com/sarchlab/netlist/wiring"
)

var _ = Describe("MemBlock", func() {
	var (
		block *wiring.Block
		mem   *memory.MemBlock
		addr  *wiring.Wire
		data  *wiring.Wire
	)

	BeforeEach(func() {
		block = wiring.NewBlock("design")
		addr = block.NewInput(4, "addr")
		data = block.NewInput(8, "data")

		var err error
		mem, err = memory.MakeBuilder().
			WithBlock(block).
			WithBitwidth(8).
			WithAddrwidth(4).
			Build("dmem")
		Expect(err).ToNot(HaveOccurred())
	})

	It("should reject a bitwidth below 1", func() {
		_, err := memory.MakeBuilder().
			WithBlock(block).
			WithBitwidth(0).
			WithAddrwidth(4).
			Build("bad")
		Expect(err).To(MatchError(wiring.ErrUsage))
	})

	It("should reject an addrwidth below 1", func() {
		_, err := memory.MakeBuilder().
			WithBlock(block).
			WithBitwidth(8).
			WithAddrwidth(0).
			Build("bad")
		Expect(err).To(MatchError(wiring.ErrUsage))
	})

	It("should assign distinct IDs from the block", func() {
		other, err := memory.MakeBuilder().
			WithBlock(block).
			WithBitwidth(8).
			WithAddrwidth(4).
			Build("other")
		Expect(err).ToNot(HaveOccurred())

		Expect(other.ID()).ToNot(Equal(mem.ID()))
		Expect(block.Memories()).To(HaveLen(2))
	})

	It("should not materialize a read port until resolved", func() {
		_, err := mem.Read(addr)
		Expect(err).ToNot(HaveOccurred())

		Expect(mem.ReadPortCount()).To(Equal(0))
		Expect(mem.ReadPortNets()).To(BeEmpty())
	})

	It("should materialize a read port on first resolve only", func() {
		ix, _ := mem.Read(addr)

		d1, err := ix.Resolve()
		Expect(err).ToNot(HaveOccurred())
		Expect(d1.Width()).To(Equal(8))
		Expect(mem.ReadPortCount()).To(Equal(1))

		d2, err := ix.Resolve()
		Expect(err).ToNot(HaveOccurred())
		Expect(d2).To(BeIdenticalTo(d1))
		Expect(mem.ReadPortCount()).To(Equal(1))
	})

	It("should create one port per read of the same address", func() {
		ix1, _ := mem.Read(addr)
		ix2, _ := mem.Read(addr)

		_, err := ix1.Resolve()
		Expect(err).ToNot(HaveOccurred())
		_, err = ix2.Resolve()
		Expect(err).ToNot(HaveOccurred())

		Expect(mem.ReadPortCount()).To(Equal(2))
	})

	It("should zero-extend a narrow address", func() {
		narrow := block.NewInput(2, "narrow")

		ix, err := mem.Read(narrow)
		Expect(err).ToNot(HaveOccurred())
		Expect(ix.Addr().Width()).To(Equal(4))
	})

	It("should reject an over-width address", func() {
		wide := block.NewInput(6, "wide")

		_, err := mem.Read(wide)
		Expect(err).To(MatchError(wiring.ErrWidth))
	})

	It("should reject a read port beyond the maximum", func() {
		for i := 0; i < 2; i++ {
			ix, _ := mem.Read(addr)
			_, err := ix.Resolve()
			Expect(err).ToNot(HaveOccurred())
		}

		ix, _ := mem.Read(addr)
		_, err := ix.Resolve()
		Expect(err).To(MatchError(memory.ErrCapacity))
		Expect(mem.ReadPortCount()).To(Equal(2))
	})

	It("should build a write port with an implicit enable", func() {
		err := mem.Write(addr, data)
		Expect(err).ToNot(HaveOccurred())

		Expect(mem.WritePortCount()).To(Equal(1))

		net := mem.WritePortNets()[0]
		Expect(net.Op).To(Equal(wiring.OpMemWrite))
		Expect(net.Args).To(HaveLen(3))
		Expect(net.Dests).To(BeEmpty())
		Expect(net.Args[2].Kind()).To(Equal(wiring.KindConst))
		Expect(net.Args[2].ConstVal()).To(Equal(uint64(1)))

		param := net.Param.(memory.PortParam)
		Expect(param.ID).To(Equal(mem.ID()))
	})

	It("should build a write port with an explicit enable", func() {
		we := block.NewInput(1, "we")

		err := mem.Write(addr, memory.EnabledWrite{Data: data, Enable: we})
		Expect(err).ToNot(HaveOccurred())

		net := mem.WritePortNets()[0]
		Expect(net.Args[2]).To(BeIdenticalTo(we))
	})

	It("should reject an enable that is not exactly 1 bit", func() {
		we := block.NewInput(2, "we")

		err := mem.Write(addr, memory.EnabledWrite{Data: data, Enable: we})
		Expect(err).To(MatchError(wiring.ErrWidth))
		Expect(mem.WritePortCount()).To(Equal(0))
	})

	It("should reject over-width write data", func() {
		wide := block.NewInput(9, "wideData")

		err := mem.Write(addr, wide)
		Expect(err).To(MatchError(wiring.ErrWidth))
	})

	It("should reject a write value of the wrong type", func() {
		err := mem.Write(addr, 42)
		Expect(err).To(MatchError(wiring.ErrUsage))
	})

	It("should reject a write port beyond the maximum", func() {
		Expect(mem.Write(addr, data)).To(Succeed())

		err := mem.Write(addr, data)
		Expect(err).To(MatchError(memory.ErrCapacity))
		Expect(mem.WritePortCount()).To(Equal(1))
	})

	It("should reject a guarded write outside a conditional context", func() {
		err := mem.WriteGuarded(addr, data)
		Expect(err).To(MatchError(wiring.ErrUsage))
	})

	It("should allow unbounded ports with a negative maximum", func() {
		open, err := memory.MakeBuilder().
			WithBlock(block).
			WithBitwidth(8).
			WithAddrwidth(4).
			WithMaxReadPorts(-1).
			WithMaxWritePorts(-1).
			Build("open")
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 5; i++ {
			ix, _ := open.Read(addr)
			_, err := ix.Resolve()
			Expect(err).ToNot(HaveOccurred())

			Expect(open.Write(addr, data)).To(Succeed())
		}

		Expect(open.ReadPortCount()).To(Equal(5))
		Expect(open.WritePortCount()).To(Equal(5))
	})

	It("should survive the documented port-budget scenario", func() {
		scenario := wiring.NewBlock("scenario")
		a1 := scenario.NewInput(3, "a1")
		a2 := scenario.NewInput(3, "a2")
		d := scenario.NewInput(3, "d")

		m, err := memory.MakeBuilder().
			WithBlock(scenario).
			WithBitwidth(3).
			WithAddrwidth(3).
			WithMaxReadPorts(2).
			WithMaxWritePorts(1).
			Build("m")
		Expect(err).ToNot(HaveOccurred())

		ix1, _ := m.Read(a1)
		ix2, _ := m.Read(a2)
		_, err = ix1.Resolve()
		Expect(err).ToNot(HaveOccurred())
		_, err = ix2.Resolve()
		Expect(err).ToNot(HaveOccurred())
		Expect(m.ReadPortCount()).To(Equal(2))

		ix3, _ := m.Read(a1)
		_, err = ix3.Resolve()
		Expect(err).To(MatchError(memory.ErrCapacity))

		Expect(m.Write(a1, d)).To(Succeed())
		Expect(m.Write(a2, d)).To(MatchError(memory.ErrCapacity))
	})
})

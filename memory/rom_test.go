package memory_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/netlist/memory"
	"github.com/sarchlab/netlist/wiring"
)

var _ = Describe("RomBlock", func() {
	var (
		block *wiring.Block
		addr  *wiring.Wire
		rom   *memory.RomBlock
	)

	BeforeEach(func() {
		block = wiring.NewBlock("design")
		addr = block.NewInput(2, "addr")

		var err error
		rom, err = memory.MakeRomBuilder().
			WithBlock(block).
			WithBitwidth(4).
			WithAddrwidth(2).
			WithDataSource(memory.TableSource{0: 5, 1: 9}).
			Build("rom")
		Expect(err).ToNot(HaveOccurred())
	})

	It("should require a data source", func() {
		_, err := memory.MakeRomBuilder().
			WithBlock(block).
			WithBitwidth(4).
			WithAddrwidth(2).
			Build("empty")
		Expect(err).To(MatchError(wiring.ErrUsage))
	})

	It("should reject every write path", func() {
		data := block.NewInput(4, "data")
		enable := block.NewInput(1, "we")

		Expect(rom.Write(addr, data)).To(MatchError(wiring.ErrUsage))
		Expect(rom.WriteGuarded(addr, data)).To(MatchError(wiring.ErrUsage))
		Expect(rom.Stage(addr, memory.PendingWrite{Value: data})).
			To(MatchError(wiring.ErrUsage))
		Expect(rom.MaterializeWrite(addr, data, enable)).
			To(MatchError(wiring.ErrUsage))
		Expect(rom.WritePortCount()).To(Equal(0))
	})

	It("should reject a constant address", func() {
		c := block.NewConst(1, 2)

		_, err := rom.Read(c)
		Expect(err).To(MatchError(wiring.ErrUsage))
	})

	It("should materialize read ports like a memory", func() {
		ix, err := rom.Read(addr)
		Expect(err).ToNot(HaveOccurred())

		d, err := ix.Resolve()
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Width()).To(Equal(4))
		Expect(rom.ReadPortCount()).To(Equal(1))
	})

	Describe("Resolve", func() {
		It("should return stored values", func() {
			Expect(rom.Resolve(0)).To(Equal(uint64(5)))
			Expect(rom.Resolve(1)).To(Equal(uint64(9)))
		})

		It("should fail on uninitialized content", func() {
			_, err := rom.Resolve(2)
			Expect(err).To(MatchError(memory.ErrUninitializedData))
		})

		It("should pad uninitialized content with zeros when asked", func() {
			padded, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithDataSource(memory.TableSource{0: 5, 1: 9}).
				WithPadWithZeros(true).
				Build("padded")
			Expect(err).ToNot(HaveOccurred())

			Expect(padded.Resolve(2)).To(Equal(uint64(0)))
		})

		It("should reject an address beyond the address space", func() {
			_, err := rom.Resolve(4)
			Expect(err).To(MatchError(memory.ErrOutOfRange))
		})

		It("should reject content that exceeds the bitwidth", func() {
			bad, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithDataSource(memory.TableSource{0: 16}).
				Build("bad")
			Expect(err).ToNot(HaveOccurred())

			_, resolveErr := bad.Resolve(0)
			Expect(resolveErr).To(MatchError(memory.ErrOutOfRange))
		})

		It("should be deterministic for a function source", func() {
			fn, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithDataSource(memory.FuncSource(
					func(a uint64) (uint64, error) { return a * 3, nil })).
				Build("fn")
			Expect(err).ToNot(HaveOccurred())

			first, err := fn.Resolve(3)
			Expect(err).ToNot(HaveOccurred())

			second, err := fn.Resolve(3)
			Expect(err).ToNot(HaveOccurred())
			Expect(second).To(Equal(first))
			Expect(first).To(Equal(uint64(9)))
		})

		It("should report a broken function source", func() {
			broken, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithDataSource(memory.FuncSource(
					func(a uint64) (uint64, error) {
						return 0, errors.New("boom")
					})).
				Build("broken")
			Expect(err).ToNot(HaveOccurred())

			_, resolveErr := broken.Resolve(0)
			Expect(resolveErr).To(MatchError(wiring.ErrUsage))
		})

		It("should consult the data source", func() {
			mockCtrl := gomock.NewController(GinkgoT())
			defer mockCtrl.Finish()

			src := NewMockDataSource(mockCtrl)
			src.EXPECT().Lookup(uint64(3)).Return(uint64(7), true, nil)

			mocked, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithDataSource(src).
				Build("mocked")
			Expect(err).ToNot(HaveOccurred())

			Expect(mocked.Resolve(3)).To(Equal(uint64(7)))
		})
	})

	Describe("port replication", func() {
		It("should spill the third read port onto a fresh replica", func() {
			replicated, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithMaxReadPorts(2).
				WithBuildNewCopies(true).
				WithDataSource(memory.TableSource{0: 5, 1: 9}).
				Build("replicated")
			Expect(err).ToNot(HaveOccurred())

			memCountBefore := len(block.Memories())

			ids := make(map[int]int)
			for i := 0; i < 3; i++ {
				ix, readErr := replicated.Read(addr)
				Expect(readErr).ToNot(HaveOccurred())

				_, resolveErr := ix.Resolve()
				Expect(resolveErr).ToNot(HaveOccurred())
			}

			Expect(replicated.ReadPortCount()).To(Equal(2))
			Expect(replicated.Current()).ToNot(BeIdenticalTo(replicated))
			Expect(replicated.Current().ReadPortCount()).To(Equal(1))
			Expect(replicated.Current().ID()).ToNot(Equal(replicated.ID()))
			Expect(block.Memories()).To(HaveLen(memCountBefore + 1))

			for _, n := range replicated.ReadPortNets() {
				ids[n.Param.(memory.PortParam).ID]++
			}
			for _, n := range replicated.Current().ReadPortNets() {
				ids[n.Param.(memory.PortParam).ID]++
			}

			Expect(ids).To(HaveLen(2))
			Expect(ids[replicated.ID()]).To(Equal(2))
			Expect(ids[replicated.Current().ID()]).To(Equal(1))
		})

		It("should fail the third read port without replication", func() {
			capped, err := memory.MakeRomBuilder().
				WithBlock(block).
				WithBitwidth(4).
				WithAddrwidth(2).
				WithMaxReadPorts(2).
				WithDataSource(memory.TableSource{0: 5}).
				Build("capped")
			Expect(err).ToNot(HaveOccurred())

			for i := 0; i < 2; i++ {
				ix, _ := capped.Read(addr)
				_, resolveErr := ix.Resolve()
				Expect(resolveErr).ToNot(HaveOccurred())
			}

			ix, _ := capped.Read(addr)
			_, resolveErr := ix.Resolve()
			Expect(resolveErr).To(MatchError(memory.ErrCapacity))
		})
	})
})

package memory

// A DataSource supplies the contents of a read-only memory. Lookup returns
// the word stored at an address; ok reports whether the source defines that
// address at all. A non-nil error marks the source itself as broken for
// that address.
type DataSource interface {
	Lookup(addr uint64) (value uint64, ok bool, err error)
}

// FuncSource adapts a pure address-to-value function. The function defines
// every address; a returned error marks the source as broken.
type FuncSource func(addr uint64) (uint64, error)

// Lookup invokes the function.
func (f FuncSource) Lookup(addr uint64) (uint64, bool, error) {
	v, err := f(addr)
	if err != nil {
		return 0, false, err
	}

	return v, true, nil
}

// TableSource adapts a sparse address-to-value table. Addresses absent from
// the table are undefined.
type TableSource map[uint64]uint64

// Lookup reads the table.
func (t TableSource) Lookup(addr uint64) (uint64, bool, error) {
	v, ok := t[addr]
	return v, ok, nil
}

// SliceSource adapts a dense value list, the slice index being the address.
// Addresses beyond the end of the slice are undefined.
type SliceSource []uint64

// Lookup reads the slice.
func (s SliceSource) Lookup(addr uint64) (uint64, bool, error) {
	if addr >= uint64(len(s)) {
		return 0, false, nil
	}

	return s[addr], true, nil
}

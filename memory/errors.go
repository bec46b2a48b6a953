package memory

import "errors"

// ErrCapacity reports that a read or write port allocation would exceed the
// configured maximum of a memory.
var ErrCapacity = errors.New("port capacity exceeded")

// ErrOutOfRange reports a ROM address outside the address space, or ROM
// content outside the word range.
var ErrOutOfRange = errors.New("out of range")

// ErrUninitializedData reports a ROM access to an address its data source
// does not define, with zero padding disabled.
var ErrUninitializedData = errors.New("uninitialized data access")

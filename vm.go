package allocheap

import (
	"fmt"
	"os"

	"modernc.org/mathutil"
)

// pageSize is the kernel's reported page size; every region is a whole
// number of these.
var pageSize = os.Getpagesize()

// roundup rounds n up to the next multiple of m. m must be a power of 2.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }

// mapRegion asks the kernel for an anonymous, readable+writable span of
// whole pages covering at least n bytes, and returns its base address and
// actual (page-rounded) length.
func mapRegion(n int) (base uintptr, size int, err error) {
	size = roundup(n, pageSize)
	base, err = rawMmap(size)
	if err != nil {
		return 0, 0, &Error{Kind: KindOutOfMemory, Op: "map", Size: size, Err: err}
	}
	if base&uintptr(pageSize-1) != 0 {
		panic("allocheap: kernel returned a misaligned mapping")
	}
	return base, size, nil
}

// unmapRegion releases exactly the span previously returned by mapRegion.
// A failure here is reported but the caller (Release, see allocheap.go)
// still splices the region's blocks out of the model to avoid re-freeing
// them; the virtual range leaks instead of corrupting bookkeeping.
func unmapRegion(base uintptr, size int) error {
	if err := rawMunmap(base, size); err != nil {
		if traceEnabled() {
			fmt.Fprintf(os.Stderr, "Munmap(%#x, %d-bit) %v\n", base, mathutil.BitLen(size), err)
		}
		return &Error{Kind: KindUnmap, Op: "unmap", Size: size, Err: err}
	}
	return nil
}

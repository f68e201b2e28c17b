// Package allocheap implements a drop-in replacement for the process-wide
// dynamic memory allocator: it services requests for arbitrarily sized,
// 8-byte-aligned, mutable buffers carved out of larger regions mapped from
// the kernel, and returns those regions to the kernel once every block
// inside them falls idle.
//
// The hard part is the heap bookkeeping engine, not the syscalls: the
// block/region model (block.go), the placement policy that chooses which
// free space satisfies a request (placement.go), the splitting of a free
// span into an in-use block plus a trailing remainder, and the region
// reclamation that undoes it. A single mutex (Allocator.mu, "heap_lock" in
// the design notes) makes every exported method atomic with respect to
// every other; see §4.5 and §5 of the design for the concurrency model
// this follows.
//
// Library-preload interposition, heap pretty-printing beyond Dump, and a
// CLI demonstration harness are external collaborators, not reimplemented
// here — see cmd/allocdemo for a minimal exerciser.
package allocheap

import (
	"errors"
	"io"
	"sync"
	"unsafe"
)

// ErrSizeOverflow is returned by ZeroedAllocate when n*elemSize overflows
// int. See design notes §9 ("Open questions ... n * elemsize overflow").
var ErrSizeOverflow = errors.New("allocheap: n*elemSize overflows")

// Allocator is the top-level handle on one heap: the block list, the
// alloc_id counter, and the lock serializing every operation against
// them. Its zero value is ready to use.
type Allocator struct {
	mu    sync.Mutex
	state heapState
}

// Allocate reserves n bytes (n >= 0) and returns an 8-byte-aligned
// payload slice. n == 0 is legal and yields a distinct, usable, non-nil
// address to the smallest possible block rather than a null pointer.
func (a *Allocator) Allocate(n int) ([]byte, error) {
	return a.AllocateNamed(n, "")
}

// AllocateNamed is like Allocate but additionally stores a label on the
// block header, truncated to the header's name capacity if it overruns.
func (a *Allocator) AllocateNamed(n int, name string) ([]byte, error) {
	if n < 0 {
		panic("allocheap: negative allocate size")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocateLocked(n, name)
}

func (a *Allocator) allocateLocked(n int, name string) ([]byte, error) {
	aligned := roundup(n, wordAlign)
	required := uintptr(aligned + headerSize)

	h := pickBlock(a.state.head, required, currentAlgorithm())
	if h == nil {
		base, mapped, err := mapRegion(int(required))
		if err != nil {
			return nil, err
		}
		h = a.state.appendRegion(base, mapped)
	}

	// A block is chosen either with usage == 0 (a fresh region, or a
	// prior allocation that was released in full) or with usage > 0
	// and slack trailing a previous Resize shrink. A free block keeps
	// only what this request needs; a remainder large enough to hold a
	// header is split off as a new free block right away, and a smaller
	// one stays as trailing slack on the chosen block. A block with
	// slack instead donates its whole slack to a new block that takes
	// the request; any excess stays as that new block's trailing slack.
	if h.usage == 0 {
		h.setName("")
		if h.size-required >= uintptr(headerSize) {
			fresh := headerAt(h.addr() + required)
			*fresh = blockHeader{
				allocID:     a.state.allocID(),
				regionStart: h.regionStart,
				regionSize:  h.regionSize,
				size:        h.size - required,
			}
			h.size = required
			a.state.insertAfter(h, fresh)
		}
		h.usage = required
	} else {
		fresh := headerAt(h.addr() + h.usage)
		*fresh = blockHeader{
			allocID:     a.state.allocID(),
			regionStart: h.regionStart,
			regionSize:  h.regionSize,
			size:        h.size - h.usage,
			usage:       required,
		}
		h.size = h.usage
		a.state.insertAfter(h, fresh)
		h = fresh
	}

	if name != "" {
		h.setName(name)
	}

	payload := unsafe.Slice((*byte)(unsafe.Pointer(h.payload())), aligned)
	if scribbleEnabled() {
		for i := 0; i < n; i++ {
			payload[i] = scribbleByte
		}
	}

	return payload[:n], nil
}

// Release returns a previously allocated buffer to the allocator. A nil
// b is a no-op. Passing an address that is not a live payload base is
// undefined behavior: the caller, not Release, is responsible for only
// ever releasing what it was handed.
func (a *Allocator) Release(b []byte) error {
	if b == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.releaseLocked(b)
}

func (a *Allocator) releaseLocked(b []byte) error {
	h := headerOf(b)
	h.usage = 0

	if !a.state.regionIsIdle(h) {
		return nil
	}

	regionStart, regionSize := h.regionStart, int(h.regionSize)
	a.state.spliceRegion(regionStart)
	return unmapRegion(regionStart, regionSize)
}

// ZeroedAllocate allocates n*elemSize bytes and zeroes the payload before
// returning it.
func (a *Allocator) ZeroedAllocate(n, elemSize int) ([]byte, error) {
	if n < 0 || elemSize < 0 {
		panic("allocheap: negative zeroed-allocate arguments")
	}

	total, overflow := mulOverflows(n, elemSize)
	if overflow {
		return nil, ErrSizeOverflow
	}

	b, err := a.Allocate(total)
	if err != nil {
		return nil, err
	}

	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// Resize changes the size of b's backing block to newSize bytes,
// returning a buffer holding b's old prefix. A nil b delegates to
// Allocate; newSize == 0 delegates to Release. If the block's own size
// already covers the request the same address is returned with usage
// updated in place; otherwise a fresh block is allocated, the old
// prefix copied over, and the old block released, all under one
// acquisition of the lock.
func (a *Allocator) Resize(b []byte, newSize int) ([]byte, error) {
	if newSize < 0 {
		panic("allocheap: negative resize size")
	}
	if b == nil {
		return a.Allocate(newSize)
	}
	if newSize == 0 {
		return nil, a.Release(b)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	h := headerOf(b)
	aligned := roundup(newSize, wordAlign)
	required := uintptr(aligned + headerSize)

	if h.size >= required {
		h.usage = required
		payload := unsafe.Slice((*byte)(unsafe.Pointer(h.payload())), aligned)
		return payload[:newSize], nil
	}

	fresh, err := a.allocateLocked(newSize, "")
	if err != nil {
		return nil, err
	}

	copy(fresh, b)
	if err := a.releaseLocked(b); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Dump writes a human-readable map of the heap to w, in list order; see
// dump.go for the exact format. Debugging only.
func (a *Allocator) Dump(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return dumpLocked(w, a.state.head)
}

// headerOf recovers the block header immediately preceding a payload
// slice's first byte. b must be non-nil; the slice's data pointer is
// used (not &b[0]) so that a zero-length-but-non-nil payload — the
// result of an n == 0 Allocate — still resolves to its real header.
func headerOf(b []byte) *blockHeader {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return headerAt(addr - uintptr(headerSize))
}

// mulOverflows reports whether n*elemSize overflows a platform int.
func mulOverflows(n, elemSize int) (product int, overflow bool) {
	if n == 0 || elemSize == 0 {
		return 0, false
	}
	product = n * elemSize
	if product/n != elemSize {
		return 0, true
	}
	return product, false
}

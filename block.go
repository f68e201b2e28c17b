package allocheap

import "unsafe"

const (
	// wordAlign is the platform word alignment every payload is aligned to.
	wordAlign = 8

	// maxNameLen is the header's name capacity. Labels longer than this
	// are silently truncated rather than rejected.
	maxNameLen = 31
)

// blockHeader is the bookkeeping record prefixing every block's payload.
// It is never exposed to callers; it lives physically inside mapped
// memory and is reached only through unsafe pointer arithmetic, the same
// technique the teacher package uses for its page/node records.
type blockHeader struct {
	allocID     int64
	regionStart uintptr
	regionSize  uintptr
	size        uintptr
	usage       uintptr
	next        uintptr // address of the next header in traversal order, or 0
	nameLen     uint8
	name        [maxNameLen]byte
}

// headerSize is sizeof(blockHeader) rounded up to wordAlign, so that
// header+headerSize is always aligned regardless of the compiler's
// struct layout.
var headerSize = roundup(int(unsafe.Sizeof(blockHeader{})), wordAlign)

func headerAt(addr uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(addr))
}

func (h *blockHeader) addr() uintptr { return uintptr(unsafe.Pointer(h)) }

func (h *blockHeader) end() uintptr { return h.addr() + h.size }

func (h *blockHeader) regionEnd() uintptr { return h.regionStart + h.regionSize }

// payload returns the address of the first payload byte.
func (h *blockHeader) payload() uintptr { return h.addr() + uintptr(headerSize) }

// slack is the bytes within size not committed to a caller: size itself
// for a free block, size-usage for a block with a committed prefix.
func (h *blockHeader) slack() uintptr {
	if h.usage == 0 {
		return h.size
	}
	return h.size - h.usage
}

func (h *blockHeader) payloadLen() int {
	if h.usage == 0 {
		return 0
	}
	return int(h.usage) - headerSize
}

func (h *blockHeader) setName(name string) {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	h.nameLen = uint8(len(name))
	h.name = [maxNameLen]byte{}
	copy(h.name[:], name)
}

func (h *blockHeader) getName() string {
	if h.nameLen == 0 {
		return ""
	}
	return string(h.name[:h.nameLen])
}

// heapState is the global list rooted at head, plus the monotonic
// alloc_id counter. It carries no synchronization of its own — callers
// (Allocator, see allocheap.go) hold heap_lock around every mutation.
type heapState struct {
	head, tail  uintptr // 0 when the heap is empty
	nextAllocID int64
}

func (s *heapState) allocID() int64 {
	id := s.nextAllocID
	s.nextAllocID++
	return id
}

// appendRegion installs a freshly mapped region as a single free block
// spanning the whole mapping, and appends it to the tail of the list.
func (s *heapState) appendRegion(base uintptr, size int) *blockHeader {
	h := headerAt(base)
	*h = blockHeader{
		allocID:     s.allocID(),
		regionStart: base,
		regionSize:  uintptr(size),
		size:        uintptr(size),
		usage:       0,
		next:        0,
	}

	if s.head == 0 {
		s.head = base
	} else {
		headerAt(s.tail).next = base
	}
	s.tail = base
	return h
}

// insertAfter splices a freshly split-off header in directly after prev
// in traversal order (prev stays the donor block, now shrunk).
func (s *heapState) insertAfter(prev, fresh *blockHeader) {
	fresh.next = prev.next
	prev.next = fresh.addr()
	if s.tail == prev.addr() {
		s.tail = fresh.addr()
	}
}

// spliceRegion removes the contiguous run of blocks belonging to the
// region starting at regionStart from the global list. Blocks within a
// region are always contiguous in both address and list order, so that
// run is a single splice rather than a scattered removal.
func (s *heapState) spliceRegion(regionStart uintptr) {
	var prev uintptr
	cur := s.head
	for cur != 0 {
		h := headerAt(cur)
		if h.regionStart != regionStart {
			prev = cur
			cur = h.next
			continue
		}

		// cur begins the run; advance to its end.
		runEnd := cur
		for {
			rh := headerAt(runEnd)
			if rh.next == 0 {
				break
			}
			if headerAt(rh.next).regionStart != regionStart {
				break
			}
			runEnd = rh.next
		}

		next := headerAt(runEnd).next
		if prev == 0 {
			s.head = next
		} else {
			headerAt(prev).next = next
		}
		if s.tail == runEnd {
			s.tail = prev
		}
		return
	}
}

// regionIsIdle reports whether every block in header's region has usage
// == 0. Scanning starts at region_start and continues while successive
// headers still fall inside the region's span.
func (s *heapState) regionIsIdle(h *blockHeader) bool {
	regionEnd := h.regionEnd()
	for cur := h.regionStart; cur >= h.regionStart && cur < regionEnd; {
		c := headerAt(cur)
		if c.usage != 0 {
			return false
		}
		cur = c.next
	}
	return true
}

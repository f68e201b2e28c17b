package allocheap

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// These tests exercise end-to-end allocator behavior: how a single call
// shapes the block list, how the placement policies choose between
// candidates, and how regions come and go as every block inside them
// falls idle or gets reused.

func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func TestFreshAllocationSplitsRegionIntoUsedAndFreeBlock(t *testing.T) {
	var a Allocator
	b, err := a.Allocate(100)
	require.NoError(t, err)
	defer a.Release(b)

	h := headerOf(b)
	require.EqualValues(t, 104+headerSize, h.usage, "100 rounds up to 104, plus the header")
	require.EqualValues(t, h.addr(), h.regionStart, "first block is the region's sentinel")

	require.NotZero(t, h.next, "a free remainder should trail the first block")
	tail := headerAt(h.next)
	require.Zero(t, tail.usage)
	require.EqualValues(t, h.regionSize-h.usage, tail.size)
	require.EqualValues(t, h.regionSize, h.size+tail.size)
}

func TestBestFitTakesFreedSlotNotRegionTail(t *testing.T) {
	t.Setenv(envAlgorithm, "best_fit")

	var a Allocator
	b512, err := a.Allocate(512)
	require.NoError(t, err)
	b256, err := a.Allocate(256)
	require.NoError(t, err)
	b1024, err := a.Allocate(1024)
	require.NoError(t, err)

	addr512 := addrOf(b512)
	require.NoError(t, a.Release(b512))

	b200, err := a.Allocate(200)
	require.NoError(t, err)

	require.Equal(t, addr512, addrOf(b200), "200-byte request must reuse the freed 512-byte slot")

	require.NoError(t, a.Release(b200))
	require.NoError(t, a.Release(b256))
	require.NoError(t, a.Release(b1024))
}

func TestRegionReclaimedWhenAllBlocksIdle(t *testing.T) {
	var a Allocator

	b1, err := a.Allocate(100)
	require.NoError(t, err)
	h1 := headerOf(b1)
	regionStart := h1.regionStart

	b2, err := a.Allocate(100)
	require.NoError(t, err)
	require.Equal(t, regionStart, headerOf(b2).regionStart, "second allocation served from the same region")

	require.NoError(t, a.Release(b1))
	require.NotZero(t, a.state.head, "region must persist while b2 is still live")

	require.NoError(t, a.Release(b2))

	var buf bytes.Buffer
	require.NoError(t, a.Dump(&buf))
	require.Equal(t, "-- Current Memory State --\n", buf.String(), "region must be gone after the second release")
}

func TestGrowViaCopyPreservesPrefix(t *testing.T) {
	var a Allocator

	b, err := a.Allocate(10)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b[i] = byte(i)
	}
	oldAddr := addrOf(b)

	grown, err := a.Resize(b, 10_000)
	require.NoError(t, err)
	require.Len(t, grown, 10_000)
	for i := 0; i < 10; i++ {
		require.Equal(t, byte(i), grown[i])
	}
	require.NotEqual(t, oldAddr, addrOf(grown), "a 10 -> 10000 byte grow cannot fit in place")

	require.NoError(t, a.Release(grown))
}

func TestScribbleFillsFreshPayload(t *testing.T) {
	t.Setenv(envScribble, "1")

	var a Allocator
	b, err := a.Allocate(32)
	require.NoError(t, err)
	defer a.Release(b)

	for i, v := range b {
		require.Equalf(t, byte(0xAA), v, "byte %d not scribbled", i)
	}
}

func TestResizeShrinkReturnsSameAddress(t *testing.T) {
	var a Allocator
	b, err := a.Allocate(1000)
	require.NoError(t, err)
	addr := addrOf(b)

	shrunk, err := a.Resize(b, 10)
	require.NoError(t, err)
	require.Equal(t, addr, addrOf(shrunk), "shrink must not relocate")
	require.Len(t, shrunk, 10)

	require.NoError(t, a.Release(shrunk))
}

func TestResizeNilDelegatesToAllocate(t *testing.T) {
	var a Allocator
	b, err := a.Resize(nil, 64)
	require.NoError(t, err)
	require.Len(t, b, 64)
	require.NoError(t, a.Release(b))
}

func TestResizeZeroDelegatesToRelease(t *testing.T) {
	var a Allocator
	b, err := a.Allocate(64)
	require.NoError(t, err)

	out, err := a.Resize(b, 0)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestZeroedAllocateZeroesPayload(t *testing.T) {
	var a Allocator
	b, err := a.ZeroedAllocate(16, 4)
	require.NoError(t, err)
	require.Len(t, b, 64)
	for _, v := range b {
		require.Zero(t, v)
	}
	require.NoError(t, a.Release(b))
}

func TestZeroedAllocateOverflowFailsExplicitly(t *testing.T) {
	var a Allocator
	_, err := a.ZeroedAllocate(1<<62, 1<<62)
	require.ErrorIs(t, err, ErrSizeOverflow)
}

func TestAllocateZeroReturnsDistinctNonNilAddresses(t *testing.T) {
	var a Allocator
	b1, err := a.Allocate(0)
	require.NoError(t, err)
	require.NotNil(t, b1)
	require.Len(t, b1, 0)

	b2, err := a.Allocate(0)
	require.NoError(t, err)
	require.NotNil(t, b2)
	require.NotEqual(t, addrOf(b1), addrOf(b2))

	require.NoError(t, a.Release(b1))
	require.NoError(t, a.Release(b2))
}

func TestReleaseNilIsNoOp(t *testing.T) {
	var a Allocator
	require.NoError(t, a.Release(nil))
}

func TestAllocatedPointersAreWordAligned(t *testing.T) {
	var a Allocator
	for _, size := range []int{0, 1, 7, 8, 9, 100, 4097} {
		b, err := a.Allocate(size)
		require.NoError(t, err)
		require.Zero(t, addrOf(b)%wordAlign)
		require.NoError(t, a.Release(b))
	}
}

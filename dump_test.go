package allocheap

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpFormatMatchesOriginalAllocatorLayout(t *testing.T) {
	var a Allocator
	b, err := a.AllocateNamed(100, "widget")
	require.NoError(t, err)
	defer a.Release(b)

	var buf bytes.Buffer
	require.NoError(t, a.Dump(&buf))

	h := headerOf(b)
	regionEnd := h.regionStart + h.regionSize

	wantRegion := fmt.Sprintf("[REGION] %s-%s %d\n", formatAddr(h.regionStart), formatAddr(regionEnd), h.regionSize)
	wantBlock := fmt.Sprintf("[BLOCK]  %s-%s (%d) '%s' %d %d %d\n",
		formatAddr(h.addr()), formatAddr(h.end()), h.allocID, "widget", h.size, h.usage, h.usage-uintptr(headerSize))

	out := buf.String()
	require.Contains(t, out, "-- Current Memory State --\n")
	require.Contains(t, out, wantRegion)
	require.Contains(t, out, wantBlock)
}

func TestFormatAddrRendersNilAndHex(t *testing.T) {
	require.Equal(t, "(nil)", formatAddr(0))
	require.Equal(t, "0x2a", formatAddr(42))
}

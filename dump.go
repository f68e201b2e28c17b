package allocheap

import (
	"fmt"
	"io"
)

// formatAddr renders an address the way the original allocator.c's
// print_memory does: lowercase hex with a 0x prefix, or "(nil)" for the
// null address.
func formatAddr(addr uintptr) string {
	if addr == 0 {
		return "(nil)"
	}
	return fmt.Sprintf("0x%x", addr)
}

// dumpLocked writes a human-readable map of the heap to w, in list
// order, with a [REGION] line preceding the first block of each region.
// Debugging only; the caller must hold heap_lock.
func dumpLocked(w io.Writer, head uintptr) error {
	if _, err := fmt.Fprintln(w, "-- Current Memory State --"); err != nil {
		return err
	}

	var currentRegion uintptr
	seenRegion := false
	for cur := head; cur != 0; {
		h := headerAt(cur)
		if !seenRegion || h.regionStart != currentRegion {
			currentRegion = h.regionStart
			seenRegion = true
			regionEnd := currentRegion + h.regionSize
			if _, err := fmt.Fprintf(w, "[REGION] %s-%s %d\n", formatAddr(currentRegion), formatAddr(regionEnd), h.regionSize); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "[BLOCK]  %s-%s (%d) '%s' %d %d %d\n",
			formatAddr(h.addr()), formatAddr(h.end()), h.allocID, h.getName(), h.size, h.usage, h.payloadLen()); err != nil {
			return err
		}

		cur = h.next
	}

	return nil
}
